package reveal

import (
	"context"

	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/prng"
)

// cancelCheckInterval is how many shuffle steps run between context checks.
const cancelCheckInterval = 1 << 16

// Permutation is a reveal order: every pixel index in [0, Len()) exactly
// once, index 0 revealing first. Treat it as read-only.
type Permutation []uint32

// NewPermutation builds the reveal order for a width x height canvas.
func NewPermutation(width, height int, seed string) (Permutation, error) {
	return BuildPermutation(context.Background(), width, height, seed)
}

// BuildPermutation runs a seeded Fisher-Yates shuffle over the identity
// permutation. It walks from the last index down to 1, drawing
// j = floor(r * (i+1)) and swapping i and j. ctx is checked periodically so
// very large canvases can be abandoned.
func BuildPermutation(ctx context.Context, width, height int, seed string) (Permutation, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	n := width * height
	perm := make(Permutation, n)
	for i := range perm {
		perm[i] = uint32(i)
	}

	rng := prng.New(prng.SeedFromString(seed))
	for i := n - 1; i > 0; i-- {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		j := int(rng.Float64() * float64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

// Len returns the number of pixels in the permutation.
func (p Permutation) Len() int { return len(p) }

// IsBijection reports whether p holds every index in [0, Len()) exactly once.
func (p Permutation) IsBijection() bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if int(v) >= len(p) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
