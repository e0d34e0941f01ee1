package types

import (
	"strings"
	"time"
)

// Phrase is an annotated fragment of source text. Phrases are immutable once
// stored.
type Phrase struct {
	ID           int64    `json:"id"`
	SourceID     int64    `json:"source_id"`
	LineNo       int      `json:"line_no"`
	Raw          string   `json:"raw"`
	Syllables    int      `json:"syllables"`
	RhymeKey     string   `json:"rhyme_key,omitempty"`
	Alliteration bool     `json:"alliteration"`
	EndWord      string   `json:"end_word,omitempty"`
	Tokens       []string `json:"tokens,omitempty"`
}

func (p Phrase) HasToken(token string) bool {
	for _, t := range p.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// TokenString joins tokens the way they are persisted.
func (p Phrase) TokenString() string {
	return strings.Join(p.Tokens, " ")
}

type Source struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path,omitempty"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

type Corpus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CorpusStats struct {
	Corpus      string      `json:"corpus"`
	Sources     int         `json:"sources"`
	Phrases     int         `json:"phrases"`
	RhymeKeys   int         `json:"rhyme_keys"`
	BySyllables map[int]int `json:"by_syllables"`
}
