package poem

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"github.com/alucardeht/prosaic/internal/logger"
)

var log = logger.ForComponent("poem")

// Generator assembles poems from a phrase store. It holds no per-run state
// and is safe for concurrent use.
type Generator struct {
	store    PhraseStore
	opts     Options
	selector *Selector
}

func NewGenerator(store PhraseStore, opts Options) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid poem options: %w", err)
	}
	return &Generator{
		store:    store,
		opts:     opts,
		selector: NewSelector(store, opts),
	}, nil
}

func (g *Generator) Options() Options {
	return g.opts
}

type runState int

const (
	stateNotStarted runState = iota
	stateProcessing
	stateDone
)

func (s runState) String() string {
	switch s {
	case stateNotStarted:
		return "not_started"
	case stateProcessing:
		return "processing"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// run is the state of one generation. It is never shared between
// goroutines.
type run struct {
	state  runState
	line   int
	rhymes *RhymeGroups
	used   []int64
	result *Result
}

// Generate walks tmpl top to bottom and picks one phrase per line from corpus
// using rng. A nil rng draws a fresh seed, recorded on the result. Lines that find nothing are
// reported as failed outcomes; only malformed templates, store errors and
// cancellation return an error.
func (g *Generator) Generate(ctx context.Context, tmpl Template, corpus string, rng *rand.Rand) (*Result, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	var seed *uint64
	if rng == nil {
		s := RandomSeed()
		seed = &s
		rng = NewRand(s)
	}

	r := &run{
		state:  stateNotStarted,
		rhymes: NewRhymeGroups(),
		result: &Result{
			RunID:  uuid.NewString(),
			Corpus: corpus,
			Seed:   seed,
			Lines:  make([]LineOutcome, 0, len(tmpl)),
		},
	}

	for i, l := range tmpl {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.state = stateProcessing
		r.line = i

		outcome, err := g.step(ctx, r, l, corpus, rng)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		r.result.Lines = append(r.result.Lines, outcome)
	}
	r.state = stateDone

	log.Info("poem generated",
		"run_id", r.result.RunID,
		"corpus", corpus,
		"lines", len(tmpl),
		"failed", r.result.Failures(),
		"state", r.state)

	return r.result, nil
}

// GenerateSeeded is Generate with a deterministic source; the seed is kept on
// the result so the poem can be reproduced.
func (g *Generator) GenerateSeeded(ctx context.Context, tmpl Template, corpus string, seed uint64) (*Result, error) {
	res, err := g.Generate(ctx, tmpl, corpus, NewRand(seed))
	if err != nil {
		return nil, err
	}
	res.Seed = &seed
	return res, nil
}

func (g *Generator) step(ctx context.Context, r *run, l Line, corpus string, rng *rand.Rand) (LineOutcome, error) {
	outcome := LineOutcome{Index: r.line, RhymeLabel: l.Rhyme}

	if l.Blank {
		outcome.Kind = OutcomeBlank
		return outcome, nil
	}

	var rc *rhymeConstraint
	if l.Rhyme != "" {
		rc = &rhymeConstraint{label: l.Rhyme}
		if key, fixed := r.rhymes.ObserveOrFetch(l.Rhyme); fixed {
			rc.key = key
			rc.avoid = r.rhymes.EndWords(l.Rhyme)
		}
	}

	sel, err := g.selector.Select(ctx, corpus, l, rc, r.used, rng)
	if err != nil {
		return outcome, err
	}
	outcome.Relaxed = sel.Relaxed

	if !sel.Found {
		outcome.Kind = OutcomeFailed
		log.Debug("line failed", "line", r.line+1, "corpus", corpus, "relaxed", sel.Relaxed)
		return outcome, nil
	}

	p := sel.Phrase
	outcome.Kind = OutcomePhrase
	outcome.Phrase = &p

	r.used = append(r.used, p.ID)
	slices.Sort(r.used)
	if rc != nil {
		r.rhymes.Commit(rc.label, p.RhymeKey, p.EndWord)
	}

	log.Debug("line selected", "line", r.line+1, "phrase_id", p.ID, "relaxed", sel.Relaxed)
	return outcome, nil
}
