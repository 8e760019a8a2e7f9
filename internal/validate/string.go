// Package validate provides centralized input validation and sanitization
// for the Kainan API: string constraints for names and comments, and file
// constraints for photo uploads.
package validate

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length (0 = no minimum)
	MaxLength      int            // Maximum length (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional pattern for allowed characters
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string.
func (c StringConstraints) apply(s string) (string, error) {
	if c.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !c.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	// Character count, not byte count
	length := utf8.RuneCountInString(s)

	if c.MinLength > 0 && length < c.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, c.MinLength)
	}
	if c.MaxLength > 0 && length > c.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, c.MaxLength)
	}

	if c.AllowedPattern != nil && !c.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// String validates a string against the given constraints.
func String(s string, constraints StringConstraints) (string, error) {
	return constraints.apply(s)
}

// SanitizeHTML escapes HTML special characters. Call on user-generated
// text that clients will render.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeString performs both validation and HTML sanitization.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := constraints.apply(s)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

var (
	namePattern = regexp.MustCompile(`^[\p{L}\p{N} '&_\-\.\,]+$`)
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// EntityName validates a dish, restaurant, or municipality name:
// 1-150 characters of letters, numbers, and common punctuation.
func EntityName(name string) (string, error) {
	return SanitizeString(name, StringConstraints{
		MinLength:      1,
		MaxLength:      150,
		AllowedPattern: namePattern,
		TrimSpace:      true,
	})
}

// Slug validates a URL slug: lowercase alphanumerics with single dashes,
// at most 100 characters.
func Slug(slug string) (string, error) {
	return String(strings.ToLower(slug), StringConstraints{
		MinLength:      1,
		MaxLength:      100,
		AllowedPattern: slugPattern,
		TrimSpace:      true,
	})
}

// Comment validates a rating comment: optional, at most 2000 characters.
func Comment(comment string) (string, error) {
	return SanitizeString(comment, StringConstraints{
		MaxLength:  2000,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// Description validates a description field: optional, at most 5000
// characters.
func Description(desc string) (string, error) {
	return SanitizeString(desc, StringConstraints{
		MaxLength:  5000,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}
