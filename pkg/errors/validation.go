package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node and session identifiers.
const maxIDLength = 256

// ValidateID validates a node or session identifier.
//
// The rules are conservative so identifiers can be used as map keys,
// file names (session store) and DOT identifiers without escaping surprises:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "identifier cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "identifier too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "identifier contains invalid control characters")
		}
	}
	return nil
}

// ValidateSessionID validates a session identifier used as a storage key.
// On top of [ValidateID] it rejects path separators and traversal sequences,
// since file-backed stores turn the id into a file name.
func ValidateSessionID(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if strings.ContainsAny(id, `/\`) {
		return New(ErrCodeInvalidID, "session id cannot contain path separators")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "session id cannot contain path traversal sequences (..)")
	}
	return nil
}
