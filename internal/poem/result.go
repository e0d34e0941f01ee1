package poem

import (
	"strings"

	"github.com/alucardeht/prosaic/internal/types"
)

type OutcomeKind string

const (
	OutcomePhrase OutcomeKind = "phrase"
	OutcomeBlank  OutcomeKind = "blank"
	OutcomeFailed OutcomeKind = "failed"
)

// LineOutcome is the result for one template line.
type LineOutcome struct {
	Index      int           `json:"index"`
	Kind       OutcomeKind   `json:"kind"`
	Phrase     *types.Phrase `json:"phrase,omitempty"`
	Relaxed    []RuleKind    `json:"relaxed,omitempty"`
	RhymeLabel string        `json:"rhyme_label,omitempty"`
}

// Result is the ordered outcome of one generation run. Seed is nil when the
// caller supplied its own random source.
type Result struct {
	RunID  string        `json:"run_id"`
	Corpus string        `json:"corpus"`
	Seed   *uint64       `json:"seed,omitempty"`
	Lines  []LineOutcome `json:"lines"`
}

// Failures counts lines for which no phrase was found.
func (r *Result) Failures() int {
	n := 0
	for _, l := range r.Lines {
		if l.Kind == OutcomeFailed {
			n++
		}
	}
	return n
}

func (r *Result) Complete() bool {
	return r.Failures() == 0
}

// Text renders the poem as plain text. Failed lines are left out.
func (r *Result) Text() string {
	var out []string
	for _, l := range r.Lines {
		switch l.Kind {
		case OutcomePhrase:
			out = append(out, l.Phrase.Raw)
		case OutcomeBlank:
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}
