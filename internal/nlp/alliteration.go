package nlp

import (
	"unicode"
	"unicode/utf8"
)

// HasAlliteration reports whether at least two words of text share the same
// leading consonant sound.
func HasAlliteration(text string) bool {
	seen := make(map[string]bool)
	for _, w := range Tokens(text) {
		o := onset(w)
		if o == "" {
			continue
		}
		if seen[o] {
			return true
		}
		seen[o] = true
	}
	return false
}

// onset returns the leading consonant sound of a folded word, or "" when
// the word starts with a vowel or a non-letter.
func onset(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return ""
	}
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return ""
	}

	if len(w) >= 2 {
		switch w[:2] {
		case "ch", "sh", "th":
			return w[:2]
		case "ph":
			return "f"
		case "wh":
			return "w"
		case "kn", "gn":
			return "n"
		case "wr":
			return "r"
		}
	}

	switch r {
	case 'c':
		if len(w) > size && (w[size] == 'e' || w[size] == 'i' || w[size] == 'y') {
			return "s"
		}
		return "k"
	case 'q':
		return "k"
	}
	return string(r)
}
