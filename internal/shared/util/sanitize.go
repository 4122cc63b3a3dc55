package util

import (
	"errors"
	"strings"
)

const maxFileNameLen = 200

// SanitizeFileName normalizes a user-supplied file name for use inside a
// storage key: path separators become underscores, control characters are
// stripped, traversal patterns are rejected, and the result is length-capped.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLen {
		s = s[:maxFileNameLen]
	}
	return s, nil
}
