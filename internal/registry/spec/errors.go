// Package spec holds the registry's entity model, sentinel errors, and the
// small validation helpers (slugs) shared by every other registry package.
package spec

import "errors"

// Sentinel error kinds. Handlers in internal/registry/httpapi map these to
// HTTP status codes via ErrHTTPStatus.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrGone          = errors.New("gone")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrRateLimited   = errors.New("rate limited")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrEmbeddingUnavailable = errors.New("embedding failed")
	ErrInternal      = errors.New("internal error")

	// Specific validation sub-kinds: distinct sentinels that do not wrap
	// ErrValidation, so errors.Is(err, ErrValidation) is false for them.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrBundleTooLarge      = errors.New("bundle too large")
	ErrMissingSkillMd      = errors.New("missing SKILL.md")
	ErrVersionExists       = errors.New("version already exists")
	ErrInvalidSlug         = errors.New("invalid slug")
	ErrInvalidSemver       = errors.New("invalid semver")
	ErrInvalidPath         = errors.New("invalid file path")
)

// ErrHTTPStatus maps a registry error kind to the HTTP status code from
// spec.md §7. Checked in order; ErrConflict/ErrVersionExists must be probed
// before ErrValidation since ErrVersionExists does not wrap ErrValidation.
func ErrHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrGone):
		return 410
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrPayloadTooLarge):
		return 413
	case errors.Is(err, ErrUnsupportedMediaType):
		return 415
	case errors.Is(err, ErrRateLimited):
		return 429
	case errors.Is(err, ErrConflict), errors.Is(err, ErrVersionExists):
		return 409
	case errors.Is(err, ErrEmbeddingUnavailable):
		return 502
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnsupportedFileType),
		errors.Is(err, ErrBundleTooLarge),
		errors.Is(err, ErrMissingSkillMd),
		errors.Is(err, ErrInvalidSlug),
		errors.Is(err, ErrInvalidSemver),
		errors.Is(err, ErrInvalidPath):
		return 400
	default:
		return 500
	}
}
