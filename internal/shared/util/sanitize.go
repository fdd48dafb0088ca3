package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

const maxFileNameLen = 180

// ErrInvalidFileName is returned for names that are empty or try to traverse paths.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and control characters, rejects traversal
// patterns and caps the length while keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	if runes := []rune(s); len(runes) > maxFileNameLen {
		ext := filepath.Ext(s)
		keep := maxFileNameLen - len([]rune(ext))
		if keep < 1 {
			keep = maxFileNameLen
			ext = ""
		}
		s = string(runes[:keep]) + ext
	}
	return s, nil
}
