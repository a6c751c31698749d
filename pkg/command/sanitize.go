package command

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidUTF8 rejects lines that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("line contains invalid UTF-8")

// Sanitize strips control characters (terminal escapes, telnet negotiation
// bytes, NUL) from a received line so it can be logged and parsed safely.
func Sanitize(line string) (string, error) {
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(line, isUnsafe) < 0 {
		return line, nil
	}
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if !isUnsafe(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isUnsafe(r rune) bool {
	return unicode.IsControl(r) && r != '\t'
}
