// Package changelogprovider models the external auto-changelog collaborator
// spec.md §1 declares out of scope: "treated as an external text -> short
// markdown summarizer".
package changelogprovider

import (
	"context"
	"strings"
)

// Provider summarizes a version's content into a short changelog entry.
type Provider interface {
	Summarize(ctx context.Context, skillDisplayName, previousVersion, newVersion string, fileCount int) (string, error)
}

// Naive is a local stand-in that synthesizes a short, deterministic
// markdown bullet instead of calling a hosted summarizer.
type Naive struct{}

func (Naive) Summarize(_ context.Context, displayName, previousVersion, newVersion string, fileCount int) (string, error) {
	var b strings.Builder
	b.WriteString("- Published ")
	b.WriteString(displayName)
	b.WriteString(" ")
	b.WriteString(newVersion)
	if previousVersion != "" {
		b.WriteString(" (previously ")
		b.WriteString(previousVersion)
		b.WriteString(")")
	}
	b.WriteString(".\n")
	return b.String(), nil
}
