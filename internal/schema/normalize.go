package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no canonical decomposition, so it is replaced before the mark strip.
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "d")

// Fold lower-cases s and strips diacritics so that "Kuća", "kuca" and
// "KUĆA" compare equal.
func Fold(s string) string {
	s = strokeReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	// transform.Chain keeps state, so each call gets its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// foldKey folds a field term and treats spaces and hyphens as underscores.
func foldKey(s string) string {
	s = Fold(s)
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, s)
	return strings.Trim(s, "_")
}
