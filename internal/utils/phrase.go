package utils

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FindPhrase returns the byte offset of the first whole-word occurrence of
// phrase in text, or -1. Both are expected to be folded already.
func FindPhrase(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	for from := 0; from <= len(text)-len(phrase); {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		if isBoundary(text, i, i+len(phrase)) {
			return i
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		from = i + size
	}
	return -1
}

// ContainsPhrase reports whether phrase occurs in text as whole words.
func ContainsPhrase(text, phrase string) bool {
	return FindPhrase(text, phrase) >= 0
}

// LongestFirst returns a copy of phrases ordered by length descending, so
// that multi-word phrases win over their single-word parts.
func LongestFirst(phrases []string) []string {
	out := append([]string(nil), phrases...)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

// MaskPhrase blanks the first whole-word occurrence of phrase so later
// matches cannot reuse its words.
func MaskPhrase(text, phrase string) (string, bool) {
	i := FindPhrase(text, phrase)
	if i < 0 {
		return text, false
	}
	return text[:i] + strings.Repeat(" ", len(phrase)) + text[i+len(phrase):], true
}

// Words splits folded text into letter and digit runs.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
