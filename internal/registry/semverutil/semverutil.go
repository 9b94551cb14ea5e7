// Package semverutil validates, compares, and bumps the semver version
// strings used by spec.md's SkillVersion.version and the CLI's --bump flag.
//
// Grounded on other_examples/008f5913_houzhh15-mote__internal-skills-updater.go.go,
// which compares *semver.Version values to decide whether a builtin skill has
// an update available.
package semverutil

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

// Validate reports whether s is a valid semver string (spec.md §4.1 step 1).
func Validate(s string) error {
	if _, err := semver.NewVersion(s); err != nil {
		return fmt.Errorf("%w: %q: %v", spec.ErrInvalidSemver, s, err)
	}
	return nil
}

// Less reports whether a < b as semver versions. Both must already be valid.
func Less(a, b string) (bool, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false, fmt.Errorf("%w: %q", spec.ErrInvalidSemver, a)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false, fmt.Errorf("%w: %q", spec.ErrInvalidSemver, b)
	}
	return va.LessThan(vb), nil
}

// Bump kind for the CLI's --bump flag (spec.md §4.6 step 7).
type Bump string

const (
	BumpPatch Bump = "patch"
	BumpMinor Bump = "minor"
	BumpMajor Bump = "major"
)

// Next computes the next version string for the given bump kind applied to
// current. Returns "1.0.0" unchanged semantics aren't implied here — callers
// use NewSkillVersion for brand-new skills per spec.md §4.6 step 7.
func Next(current string, bump Bump) (string, error) {
	v, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("%w: %q", spec.ErrInvalidSemver, current)
	}
	var next semver.Version
	switch bump {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch, "":
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("%w: unknown bump kind %q", spec.ErrValidation, bump)
	}
	return next.String(), nil
}

// NewSkillVersion is the version assigned to a brand-new skill's first
// publish (spec.md §4.6 step 7).
const NewSkillVersion = "1.0.0"
