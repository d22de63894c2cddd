package buildinfo

import (
	"strings"
	"testing"
)

func TestScope(t *testing.T) {
	tests := []struct {
		name, version, commit string
		want                  string
	}{
		{"release", "v0.4.0", "0123456789abcdef0123", "v0.4.0:"},
		{"dev without commit", "dev", "none", "dev:"},
		{"dev empty commit", "dev", "", "dev:"},
		{"dev short commit", "dev", "abc123", "dev-abc123:"},
		{"dev long commit", "dev", "0123456789abcdef0123", "dev-0123456789ab:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scope(tt.version, tt.commit); got != tt.want {
				t.Errorf("scope(%q, %q) = %q, want %q", tt.version, tt.commit, got, tt.want)
			}
		})
	}
}

func TestCacheScopeDefaults(t *testing.T) {
	if got := CacheScope(); got != "dev:" {
		t.Errorf("CacheScope() = %q, want dev: for an unstamped build", got)
	}
}

func TestTemplate(t *testing.T) {
	for _, s := range []string{Template(), String()} {
		for _, want := range []string{Version, Commit, Date} {
			if !strings.Contains(s, want) {
				t.Errorf("%q missing %q", s, want)
			}
		}
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version ") {
		t.Errorf("Template() = %q, want cobra name placeholder", Template())
	}
}
