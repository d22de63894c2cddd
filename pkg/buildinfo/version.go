// Package buildinfo carries the llumina release stamped in at link time.
//
//	go build -ldflags "-X github.com/matzehuels/llumina/pkg/buildinfo.Version=v0.4.0 \
//	    -X github.com/matzehuels/llumina/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/llumina/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/llumina
package buildinfo

import "fmt"

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the git SHA the binary was built from.
	Commit = "none"

	// Date is the UTC build time.
	Date = "unknown"
)

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the `llumina --version` template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// CacheScope prefixes cached frame keys. Frames rendered by one build are
// never served to another, since compositor changes move pixels. Tagged
// releases share a scope; dev builds are split by commit.
func CacheScope() string {
	return scope(Version, Commit)
}

func scope(version, commit string) string {
	if version != "dev" || commit == "none" || commit == "" {
		return version + ":"
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return version + "-" + commit + ":"
}
