package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips Vietnamese diacritics so cache keys and
// lookups match regardless of accent usage ("Thám Tử" and "tham tu" fold to
// the same string).
func Fold(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	// The stroked d survives NFD; it is a base letter, not a combining mark.
	out = strings.ReplaceAll(out, "đ", "d")
	return strings.TrimSpace(out)
}

// Slugify folds s and collapses everything but letters and digits into
// single hyphens.
func Slugify(s string) string {
	folded := Fold(s)
	var b strings.Builder
	lastHyphen := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
