package errors

import (
	"strings"
	"unicode"
)

// maxCrateNameLen matches the limit crates.io enforces on publish.
const maxCrateNameLen = 64

// ValidateCrateName validates a crate name before it is sent to a registry.
//
// The rules follow crates.io:
//   - No empty names
//   - Maximum length of 64 characters
//   - ASCII letters, digits, '-' and '_' only
//   - Must start with a letter
//
// Names are case-sensitive; no normalization is applied.
func ValidateCrateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCrate, "crate name cannot be empty")
	}
	if len(name) > maxCrateNameLen {
		return New(ErrCodeInvalidCrate, "crate name too long (max %d characters)", maxCrateNameLen)
	}

	for i, r := range name {
		if r > unicode.MaxASCII || unicode.IsControl(r) {
			return New(ErrCodeInvalidCrate, "crate name contains invalid characters: %q", name)
		}
		if i == 0 && !unicode.IsLetter(r) {
			return New(ErrCodeInvalidCrate, "crate name must start with a letter: %q", name)
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return New(ErrCodeInvalidCrate, "crate name contains invalid character %q", r)
		}
	}
	return nil
}

// ValidateFormat checks that format is one of allowed (case-insensitive).
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (available: %s)", format, strings.Join(allowed, ", "))
}
