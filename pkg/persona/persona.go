// Package persona defines the narrator personas a project can choose from.
//
// A persona is a fixed bundle of presentation traits: how energetic the
// narration sounds, how fast it is paced, and which visual filters the
// compositor applies to frames while it speaks. The set is closed; callers
// select one by name with [Parse] and read its traits from [Persona.Profile].
//
// # Filters
//
// The visual treatment is derived from the persona's [Trait] with an
// exhaustive switch in [Profile.Filters]: Aggressive and Mysterious personas
// add a glitch filter on top of their tone, the others only grade color.
package persona

import (
	"strings"

	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/filter"
	"github.com/matzehuels/llumina/pkg/prng"
)

// Persona names one of the built-in narrators.
type Persona string

// Built-in personas.
const (
	Kore   Persona = "Kore"
	Puck   Persona = "Puck"
	Charon Persona = "Charon"
	Fenrir Persona = "Fenrir"
	Zephyr Persona = "Zephyr"
)

// Default is the persona used when a project names none.
const Default = Kore

// All lists every persona in display order.
var All = []Persona{Kore, Puck, Charon, Fenrir, Zephyr}

// Trait is the broad character of a persona.
type Trait string

// Persona traits.
const (
	TraitProfessional Trait = "Professional"
	TraitHype         Trait = "Hype"
	TraitMysterious   Trait = "Mysterious"
	TraitAggressive   Trait = "Aggressive"
	TraitFuturistic   Trait = "Futuristic"
)

// Profile holds the fixed traits of a persona.
type Profile struct {
	Name        Persona
	Description string
	Trait       Trait
	Energy      float64 // 0 (flat) to 1 (shouting)
	Pacing      float64 // words per second
	Premium     bool
	Tone        filter.Tone
	Glitch      float64 // glitch intensity when the trait enables it
	VoiceSpeed  float64 // playback rate multiplier
	VoicePitch  float64 // semitones
}

var profiles = map[Persona]Profile{
	Kore: {
		Name:        Kore,
		Description: "Calm, clear and confident. Good for milestones.",
		Trait:       TraitProfessional,
		Energy:      0.4,
		Pacing:      2.5,
		Tone:        filter.ToneNone,
		VoiceSpeed:  1.0,
	},
	Puck: {
		Name:        Puck,
		Description: "Loud and excited, every follower is a party.",
		Trait:       TraitHype,
		Energy:      0.95,
		Pacing:      3.4,
		Tone:        filter.ToneWarm,
		VoiceSpeed:  1.15,
		VoicePitch:  2,
	},
	Charon: {
		Name:        Charon,
		Description: "Low and slow, the reveal as a secret.",
		Trait:       TraitMysterious,
		Energy:      0.3,
		Pacing:      1.8,
		Premium:     true,
		Tone:        filter.ToneMono,
		Glitch:      0.3,
		VoiceSpeed:  0.9,
		VoicePitch:  -3,
	},
	Fenrir: {
		Name:        Fenrir,
		Description: "Intense and relentless.",
		Trait:       TraitAggressive,
		Energy:      1.0,
		Pacing:      3.0,
		Premium:     true,
		Tone:        filter.ToneWarm,
		Glitch:      0.7,
		VoiceSpeed:  1.1,
		VoicePitch:  -1,
	},
	Zephyr: {
		Name:        Zephyr,
		Description: "Synthetic and bright, straight from the future.",
		Trait:       TraitFuturistic,
		Energy:      0.7,
		Pacing:      2.8,
		Premium:     true,
		Tone:        filter.ToneCool,
		VoiceSpeed:  1.05,
		VoicePitch:  1,
	},
}

// Parse resolves a persona name case-insensitively. The empty string is
// [Default].
func Parse(s string) (Persona, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	for _, p := range All {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidPersona, "unknown persona %q (must be one of: Kore, Puck, Charon, Fenrir, Zephyr)", s)
}

// Valid reports whether p is a built-in persona.
func (p Persona) Valid() bool {
	_, ok := profiles[p]
	return ok
}

// Profile returns the traits of p. Unknown personas get the default profile.
func (p Persona) Profile() Profile {
	if prof, ok := profiles[p]; ok {
		return prof
	}
	return profiles[Default]
}

// String implements fmt.Stringer.
func (p Persona) String() string { return string(p) }

// Glitches reports whether frames for this trait are glitched.
func (t Trait) Glitches() bool {
	switch t {
	case TraitAggressive, TraitMysterious:
		return true
	case TraitProfessional, TraitHype, TraitFuturistic:
		return false
	}
	return false
}

// Filters returns the frame filters for the profile: the tone grade, then a
// glitch when the trait calls for one. src seeds the glitch; nil uses a
// clock-seeded generator per frame.
func (p Profile) Filters(src prng.Source) filter.Chain {
	var chain filter.Chain
	if p.Tone != "" && p.Tone != filter.ToneNone {
		chain = append(chain, filter.ToneFilter{Tone: p.Tone})
	}
	if p.Trait.Glitches() && p.Glitch > 0 {
		chain = append(chain, filter.GlitchFilter{Intensity: p.Glitch, Rand: src})
	}
	return chain
}
