package poem

import (
	"context"
	"math/rand/v2"

	"github.com/alucardeht/prosaic/internal/types"
)

// Selection is the selector's answer for one line. Found is false when even
// the fully relaxed search came back empty.
type Selection struct {
	Phrase  types.Phrase
	Found   bool
	Relaxed []RuleKind
}

// Selector picks one phrase for one template line.
type Selector struct {
	store PhraseStore
	opts  Options
}

func NewSelector(store PhraseStore, opts Options) *Selector {
	return &Selector{store: store, opts: opts}
}

// Select samples candidates for the line's full rule set and relaxes rules in
// the configured order until a phrase qualifies or nothing is left to drop.
// Only store errors are returned as errors.
func (s *Selector) Select(ctx context.Context, corpus string, l Line, rc *rhymeConstraint, exclude []int64, rng *rand.Rand) (Selection, error) {
	dropped := make(map[RuleKind]bool)
	var relaxed []RuleKind

	for {
		q := Query{
			Conditions: buildConditions(l, s.opts.FuzzyWindow, dropped, rc),
			Exclude:    exclude,
		}

		candidates, err := s.store.Sample(ctx, corpus, q, s.opts.SampleLimit, rng)
		if err != nil {
			return Selection{}, err
		}

		accept := q.Predicate(nil)
		for _, p := range candidates {
			if accept(p) {
				return Selection{Phrase: p, Found: true, Relaxed: relaxed}, nil
			}
		}

		next, ok := s.nextRelaxation(l, dropped)
		if !ok {
			return Selection{Relaxed: relaxed}, nil
		}
		dropped[next] = true
		relaxed = append(relaxed, next)
		log.Debug("relaxing rule", "rule", next, "corpus", corpus)
	}
}

func (s *Selector) nextRelaxation(l Line, dropped map[RuleKind]bool) (RuleKind, bool) {
	for _, k := range s.opts.RelaxOrder {
		if k.Relaxable() && l.Has(k) && !dropped[k] {
			return k, true
		}
	}
	return "", false
}
