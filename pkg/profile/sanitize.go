package profile

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxProfileIDLen = 128

// Sanitize maps a user-supplied profile name onto a safe directory name.
// The name is NFKC-normalised; letters and digits of any script survive, as do
// combining marks and '.', '_' and '-'. Everything else, including path separators,
// whitespace, control characters and the characters Windows reserves, becomes '_'.
// Runs of '_' collapse, leading and trailing '.', '_' and '-' are dropped and the
// result is capped at 128 runes. Sanitize is idempotent; a name with nothing usable
// left is an error.
func Sanitize(id string) (sanitized string, err error) {
	clean := transform.Chain(norm.NFKC, runes.Map(func(r rune) rune {
		if isSafe(r) {
			return r
		}
		return '_'
	}))

	var mapped string
	mapped, _, err = transform.String(clean, id)
	if err != nil {
		err = errors.Wrapf(err, "failed to normalize profile id %q", id)
		return sanitized, err
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range mapped {
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	sanitized = trim(b.String())
	if r := []rune(sanitized); len(r) > maxProfileIDLen {
		sanitized = trim(string(r[:maxProfileIDLen]))
	}

	if sanitized == "" {
		err = errors.Errorf("profile id %q has no usable characters", id)
		return sanitized, err
	}

	return sanitized, err
}

// trim drops separators at both ends and combining marks left dangling at the start.
func trim(s string) (trimmed string) {
	trimmed = strings.TrimLeftFunc(s, func(r rune) bool {
		return isPunct(r) || unicode.IsMark(r)
	})
	trimmed = strings.TrimRightFunc(trimmed, isPunct)
	return trimmed
}

func isPunct(r rune) (ok bool) {
	ok = r == '.' || r == '_' || r == '-'
	return ok
}

func isSafe(r rune) (ok bool) {
	ok = unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || isPunct(r)
	return ok
}
