package semverutil

import (
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate("1.2.3"); err != nil {
		t.Fatalf("Validate(1.2.3): unexpected error: %v", err)
	}
	if err := Validate("not-a-version"); err == nil {
		t.Fatalf("Validate(not-a-version): expected error, got nil")
	}
}

func TestLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"2.0.0", "1.9.9", false},
	}
	for _, tt := range tests {
		got, err := Less(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Less(%q, %q): unexpected error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Less(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
	if _, err := Less("garbage", "1.0.0"); err == nil {
		t.Fatal("Less with invalid version: expected error, got nil")
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		current string
		bump    Bump
		want    string
	}{
		{"1.2.3", BumpPatch, "1.2.4"},
		{"1.2.3", BumpMinor, "1.3.0"},
		{"1.2.3", BumpMajor, "2.0.0"},
		{"1.2.3", "", "1.2.4"},
	}
	for _, tt := range tests {
		got, err := Next(tt.current, tt.bump)
		if err != nil {
			t.Fatalf("Next(%q, %q): unexpected error: %v", tt.current, tt.bump, err)
		}
		if got != tt.want {
			t.Errorf("Next(%q, %q) = %q, want %q", tt.current, tt.bump, got, tt.want)
		}
	}
	if _, err := Next("1.0.0", Bump("unknown")); err == nil {
		t.Fatal("Next with unknown bump kind: expected error, got nil")
	}
}
