package errors

import (
	"strings"
	"testing"
)

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"portrait hd", 1080, 1920, false},
		{"single pixel", 1, 1, false},
		{"zero width", 0, 10, true},
		{"negative height", 10, -1, true},
		{"too large", 100000, 100000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDimensions(%d, %d) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidDimensions) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidDimensions)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "photo.jpg", false},
		{"nested", "assets/photo.png", false},
		{"absolute", "/srv/projects/demo.toml", false},
		{"dots in name", "my..photo.png", false},
		{"empty", "", true},
		{"traversal", "../secret.toml", true},
		{"nested traversal", "a/../../b", true},
		{"control char", "a\x01b", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
