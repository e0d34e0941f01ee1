package nlp

import "github.com/alucardeht/prosaic/internal/types"

// Annotate builds an unsaved phrase record for raw text found at lineNo of
// its source.
func Annotate(raw string, lineNo int) types.Phrase {
	tokens := Tokens(raw)
	end := ""
	if len(tokens) > 0 {
		end = tokens[len(tokens)-1]
	}
	return types.Phrase{
		LineNo:       lineNo,
		Raw:          raw,
		Syllables:    CountSyllables(raw),
		RhymeKey:     wordRhymeKey(end),
		Alliteration: HasAlliteration(raw),
		EndWord:      end,
		Tokens:       tokens,
	}
}

// AnnotateText segments text and annotates every phrase in document order.
func AnnotateText(text string) []types.Phrase {
	segments := Segment(text)
	phrases := make([]types.Phrase, 0, len(segments))
	for i, s := range segments {
		phrases = append(phrases, Annotate(s, i))
	}
	return phrases
}
