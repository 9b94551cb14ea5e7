package spec

import (
	"errors"
	"testing"
)

func TestValidateTextFile(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"markdown", "SKILL.md", false},
		{"nested markdown", "docs/guide.MD", false},
		{"yaml", "config.yaml", false},
		{"dotfile allowlisted", ".gitignore", false},
		{"binary rejected", "logo.png", true},
		{"no extension rejected", "Makefile", true},
		{"executable rejected", "tool.exe", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTextFile(tt.path)
			if tt.wantErr && err == nil {
				t.Fatalf("ValidateTextFile(%q): expected error, got nil", tt.path)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateTextFile(%q): unexpected error: %v", tt.path, err)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedFileType) {
				t.Fatalf("ValidateTextFile(%q): expected ErrUnsupportedFileType, got %v", tt.path, err)
			}
		})
	}
}
