// Package authz decides whether a (user, action) pair is permitted and
// normalizes message content before it touches persistence.
package authz

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxContentLength caps message content, in characters, after trimming.
const MaxContentLength = 1000

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content exceeds maximum length")
)

// Sanitizer normalizes content after the structural checks pass. Policy
// specifics are pluggable; the default strips control characters and escapes
// HTML-significant ones.
type Sanitizer interface {
	Sanitize(content string) string
}

// SanitizerFunc adapts a function to the Sanitizer interface.
type SanitizerFunc func(string) string

func (f SanitizerFunc) Sanitize(content string) string { return f(content) }

var htmlReplacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
)

// DefaultSanitizer drops control characters and escapes markup delimiters.
var DefaultSanitizer Sanitizer = SanitizerFunc(func(content string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, content)
	return htmlReplacer.Replace(clean)
})

// Validator checks and sanitizes message content.
type Validator struct {
	sanitizer Sanitizer
}

// NewValidator builds a Validator; a nil sanitizer falls back to the default.
func NewValidator(sanitizer Sanitizer) *Validator {
	if sanitizer == nil {
		sanitizer = DefaultSanitizer
	}
	return &Validator{sanitizer: sanitizer}
}

// ValidateContent trims, bounds, and sanitizes content. The length check runs
// on the trimmed input so padding cannot smuggle an oversized message.
func (v *Validator) ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return v.sanitizer.Sanitize(trimmed), nil
}
