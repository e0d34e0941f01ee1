package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold lower-cases s and strips combining marks, so "Élan" and "elan"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return folder.String(out)
}

// Tokens splits text into folded words. Apostrophes inside a word are kept.
func Tokens(text string) []string {
	folded := Fold(text)

	var tokens []string
	var cur strings.Builder

	flush := func() {
		w := strings.Trim(cur.String(), "'")
		if w != "" {
			tokens = append(tokens, w)
		}
		cur.Reset()
	}

	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		case r == '\'' || r == '’':
			if cur.Len() > 0 {
				cur.WriteRune('\'')
			}
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// LastWord returns the final token of text, or "".
func LastWord(text string) string {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func isVowel(r byte) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func hasLetter(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
