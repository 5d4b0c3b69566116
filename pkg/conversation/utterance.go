package conversation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds an utterance when no WithMaxInputSize is given.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("utterance exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("utterance is not valid UTF-8")
)

// utterance turns raw visitor text into what the engine sees. Oversized text
// is rejected, never cut, so a collected answer is always whole. Control
// characters other than line breaks and tabs are dropped and the result is
// trimmed; an empty result means there is nothing to answer.
func utterance(text string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(text) > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	return strings.TrimSpace(strings.Map(keepRune, text)), nil
}

func keepRune(r rune) rune {
	switch {
	case r == '\n', r == '\t', r == '\r':
		return r
	case unicode.IsControl(r):
		return -1
	default:
		return r
	}
}
