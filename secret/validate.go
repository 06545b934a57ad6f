package secret

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrEmptyValue is returned for empty aliases, usernames, or secrets.
	ErrEmptyValue = errors.New("value must not be empty")
	// ErrEdgeWhitespace is returned for values with leading or trailing
	// whitespace, including Unicode format spaces and surrogate-range
	// code points smuggled in by other runtimes.
	ErrEdgeWhitespace = errors.New("value must not start or end with whitespace")
)

// Zero-width and byte-order runes that unicode.IsSpace does not cover but
// that render as nothing and survive copy/paste.
var invisibleRunes = map[rune]bool{
	'\u200B': true, // zero width space
	'\u200C': true, // zero width non-joiner
	'\u200D': true, // zero width joiner
	'\u2060': true, // word joiner
	'\uFEFF': true, // byte order mark
}

func forbiddenEdgeRune(r rune, size int) bool {
	if unicode.IsSpace(r) || invisibleRunes[r] {
		return true
	}
	// Surrogate halves are not valid UTF-8; they decode as RuneError with
	// size 1. Reject them the same way as the surrogate range itself.
	if r == utf8.RuneError && size <= 1 {
		return true
	}
	return r >= 0xD800 && r <= 0xDFFF
}

func validateEdges(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrEmptyValue, kind)
	}
	first, firstSize := utf8.DecodeRuneInString(value)
	if forbiddenEdgeRune(first, firstSize) {
		return fmt.Errorf("%w: %s starts with %q", ErrEdgeWhitespace, kind, first)
	}
	last, lastSize := utf8.DecodeLastRuneInString(value)
	if forbiddenEdgeRune(last, lastSize) {
		return fmt.Errorf("%w: %s ends with %q", ErrEdgeWhitespace, kind, last)
	}
	return nil
}

// ValidateAlias checks a secret alias or username.
func ValidateAlias(alias string) error {
	return validateEdges("alias", alias)
}

// ValidateSecret checks a secret value.
func ValidateSecret(value []byte) error {
	return validateEdges("secret", string(value))
}

// ValidateLoginKey checks both halves of a login credential key.
func ValidateLoginKey(key LoginKey) error {
	if err := validateEdges("database", key.Database); err != nil {
		return err
	}
	return validateEdges("user", key.User)
}
