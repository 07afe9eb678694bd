package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePath validates a user supplied file path for safety.
// It is applied to paths received over the HTTP API (basemap images) where
// the server must not be tricked into reading outside its data directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// schemeNameRegex matches colour scheme names: lowercase letters, digits, dash, underscore.
var schemeNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateSchemeName validates a colour scheme name before it is looked up
// or used as part of a file name.
func ValidateSchemeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidScheme, "scheme name cannot be empty")
	}
	if !schemeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidScheme, "invalid scheme name: %q", name)
	}
	return nil
}

// hexColorRegex matches RRGGBB colours with an optional leading '#'.
var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// ValidateHexColor validates an RRGGBB colour string such as "ffffff" or "#1a2b3c".
func ValidateHexColor(s string) error {
	if !hexColorRegex.MatchString(s) {
		return New(ErrCodeInvalidInput, "invalid colour %q (want RRGGBB)", s)
	}
	return nil
}

// formatNameRegex matches output format identifiers such as "png" or "kml".
var formatNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]{0,15}$`)

// ValidateFormatName checks the shape of an output format name. Whether the
// format is actually supported is decided by the pipeline.
func ValidateFormatName(name string) error {
	if !formatNameRegex.MatchString(name) {
		return New(ErrCodeInvalidFormat, "invalid format name: %q", name)
	}
	return nil
}
