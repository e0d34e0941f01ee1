// Package nlp annotates prose fragments with the features poem templates
// select on: tokens, syllable counts, rhyme keys and alliteration.
package nlp

import "strings"

// LongEnough is the buffered length, in characters, a clause or sentence
// marker must exceed to cut a phrase.
const LongEnough = 20

var badChars = map[rune]bool{
	'(': true, ')': true, '{': true, '}': true, '[': true, ']': true,
	'`': true, '"': true, '\n': true, '\r': true, '\t': true,
	'“': true, '”': true, '‘': true, '«': true, '»': true,
	'\\': true, '_': true,
}

var clauseMarkers = map[rune]bool{',': true, ';': true, ':': true}

var sentenceMarkers = map[rune]bool{'.': true, '?': true, '!': true}

// Segment cuts text into phrases. Clause markers end a phrase only once the
// buffer is long enough, otherwise they stay in the text; sentence markers
// end a long enough phrase and drop a short one.
func Segment(text string) []string {
	var phrases []string
	var buf strings.Builder
	n := 0 // runes in buf

	write := func(c rune) {
		buf.WriteRune(c)
		n++
	}
	reset := func() {
		buf.Reset()
		n = 0
	}
	emit := func() {
		phrase := strings.TrimSpace(buf.String())
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
		reset()
	}

	for _, c := range text {
		switch {
		case badChars[c] || c == ' ':
			s := buf.String()
			if s != "" && !strings.HasSuffix(s, " ") {
				write(' ')
			}
		case clauseMarkers[c]:
			if n > LongEnough {
				emit()
			} else {
				write(c)
			}
		case sentenceMarkers[c]:
			if n > LongEnough {
				emit()
			}
			reset()
		default:
			write(c)
		}
	}

	if n > LongEnough {
		emit()
	}

	return phrases
}
