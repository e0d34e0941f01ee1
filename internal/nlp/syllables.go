package nlp

import "strings"

// CountSyllables estimates the syllables of text by counting vowel groups in
// each word.
func CountSyllables(text string) int {
	total := 0
	for _, w := range Tokens(text) {
		total += wordSyllables(w)
	}
	return total
}

func wordSyllables(w string) int {
	w = strings.TrimSuffix(w, "'s")
	w = strings.ReplaceAll(w, "'", "")
	if w == "" {
		return 0
	}
	if !hasLetter(w) {
		return 1
	}
	if len(w) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for i := 0; i < len(w); i++ {
		v := isVowel(w[i])
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	n := len(w)
	switch {
	case strings.HasSuffix(w, "le") && !isVowel(w[n-3]):
	case strings.HasSuffix(w, "ee") || strings.HasSuffix(w, "ye"):
	case strings.HasSuffix(w, "e"):
		count--
	case strings.HasSuffix(w, "ed") && !strings.ContainsRune("td", rune(w[n-3])) && !isVowel(w[n-3]):
		count--
	case strings.HasSuffix(w, "es") && !sibilantPlural(w) && !isVowel(w[n-3]):
		count--
	}

	if count < 1 {
		count = 1
	}
	return count
}

// sibilantPlural reports whether the "es" ending of w is pronounced.
func sibilantPlural(w string) bool {
	stem := w[:len(w)-2]
	for _, s := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(stem, s) {
			return true
		}
	}
	return strings.HasSuffix(w, "ges") || strings.HasSuffix(w, "ces")
}
