package nlp

import "strings"

// RhymeKey fingerprints the ending of text: the last vowel group of the
// final word plus its trailing consonants. Phrases with equal keys are
// treated as rhyming. Returns "" when the text has no usable final word.
func RhymeKey(text string) string {
	return wordRhymeKey(LastWord(text))
}

func wordRhymeKey(w string) string {
	w = strings.TrimSuffix(w, "'s")

	b := make([]byte, 0, len(w))
	for i := 0; i < len(w); i++ {
		if c := w[i]; c >= 'a' && c <= 'z' {
			b = append(b, c)
		}
	}
	if len(b) == 0 {
		return ""
	}

	// silent final e: "time" -> "tim"
	if n := len(b); n > 2 && b[n-1] == 'e' && !isVowel(b[n-2]) && hasVowelAt(b[:n-2]) {
		b = b[:n-1]
	}

	i := len(b) - 1
	for i >= 0 && !vowelAt(b, i) {
		i--
	}
	if i < 0 {
		return string(b)
	}
	j := i
	for j > 0 && vowelAt(b, j-1) {
		j--
	}

	vowels := strings.ReplaceAll(string(b[j:i+1]), "y", "i")
	return vowels + normalizeCoda(string(b[i+1:]))
}

// vowelAt treats y as a vowel except at the start of a word.
func vowelAt(b []byte, i int) bool {
	if b[i] == 'y' {
		return i > 0
	}
	return isVowel(b[i])
}

func hasVowelAt(b []byte) bool {
	for i := range b {
		if vowelAt(b, i) {
			return true
		}
	}
	return false
}

var codaReplacer = strings.NewReplacer("ck", "k", "ph", "f")

func normalizeCoda(coda string) string {
	coda = codaReplacer.Replace(coda)
	if len(coda) < 2 {
		return coda
	}
	out := []byte{coda[0]}
	for i := 1; i < len(coda); i++ {
		if coda[i] != coda[i-1] {
			out = append(out, coda[i])
		}
	}
	return string(out)
}
