package spec

import (
	"fmt"
	"regexp"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateSlug enforces spec.md §3's slug grammar: lowercase, begins with
// [a-z0-9], continues in [a-z0-9-].
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug is empty", ErrInvalidSlug)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidSlug, slug, slugPattern.String())
	}
	return nil
}
