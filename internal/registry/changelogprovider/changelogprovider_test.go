package changelogprovider

import (
	"context"
	"strings"
	"testing"
)

func TestSummarizeWithPreviousVersion(t *testing.T) {
	got, err := Naive{}.Summarize(context.Background(), "My Skill", "1.0.0", "1.1.0", 3)
	if err != nil {
		t.Fatalf("Summarize: unexpected error: %v", err)
	}
	if !strings.Contains(got, "My Skill") {
		t.Errorf("summary missing display name: %q", got)
	}
	if !strings.Contains(got, "1.1.0") {
		t.Errorf("summary missing new version: %q", got)
	}
	if !strings.Contains(got, "previously 1.0.0") {
		t.Errorf("summary should mention the previous version: %q", got)
	}
}

func TestSummarizeWithoutPreviousVersion(t *testing.T) {
	got, err := Naive{}.Summarize(context.Background(), "First Skill", "", "1.0.0", 1)
	if err != nil {
		t.Fatalf("Summarize: unexpected error: %v", err)
	}
	if strings.Contains(got, "previously") {
		t.Errorf("a first publish should not mention a previous version: %q", got)
	}
	if !strings.Contains(got, "1.0.0") {
		t.Errorf("summary missing new version: %q", got)
	}
}
