package spec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AllowedTextExtensions is spec.md §6.2's "common Markdown/plain-text/config
// extensions" allow-list; anything else is rejected at publish time as a
// binary file.
var AllowedTextExtensions = map[string]bool{
	".md":         true,
	".markdown":   true,
	".txt":        true,
	".json":       true,
	".yaml":       true,
	".yml":        true,
	".toml":       true,
	".sh":         true,
	".py":         true,
	".js":         true,
	".ts":         true,
	".cfg":        true,
	".ini":        true,
	".csv":        true,
	".env":        true,
	".gitignore":  true,
}

// ValidateTextFile rejects a bundle file whose extension is not on the
// text-file allow-list. filepath.Ext(".gitignore") returns ".gitignore"
// itself (the only dot in the base name), which the allow-list also covers.
func ValidateTextFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if AllowedTextExtensions[ext] {
		return nil
	}
	return fmt.Errorf("%w: %q has no recognized text extension", ErrUnsupportedFileType, path)
}
