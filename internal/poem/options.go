package poem

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/alucardeht/prosaic/internal/types"
)

// PhraseStore is the sampling interface the engine consumes. Sample returns
// at most limit phrases of corpus matching q, in an order drawn from rng.
// No match is an empty slice, not an error.
type PhraseStore interface {
	Sample(ctx context.Context, corpus string, q Query, limit int, rng *rand.Rand) ([]types.Phrase, error)
}

type Options struct {
	// SampleLimit bounds the candidates fetched per selection attempt.
	SampleLimit int
	// FuzzyWindow is the proximity, in document positions, of a fuzzy match.
	FuzzyWindow int
	// RelaxOrder lists the rules dropped, cumulatively, when a line finds no
	// phrase. Rules left out are never relaxed.
	RelaxOrder []RuleKind
	// Parallelism bounds concurrent runs of GenerateBatch.
	Parallelism int
}

func DefaultOptions() Options {
	return Options{
		SampleLimit: 50,
		FuzzyWindow: 5,
		RelaxOrder:  append([]RuleKind(nil), DefaultRelaxOrder...),
		Parallelism: 4,
	}
}

func (o Options) Validate() error {
	if o.SampleLimit <= 0 {
		return fmt.Errorf("sample limit must be positive, got %d", o.SampleLimit)
	}
	if o.FuzzyWindow < 0 {
		return fmt.Errorf("fuzzy window must not be negative, got %d", o.FuzzyWindow)
	}
	if o.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive, got %d", o.Parallelism)
	}
	seen := make(map[RuleKind]bool)
	for _, k := range o.RelaxOrder {
		if !k.Relaxable() {
			return fmt.Errorf("rule %q cannot be relaxed", k)
		}
		if seen[k] {
			return fmt.Errorf("rule %q listed twice in relax order", k)
		}
		seen[k] = true
	}
	return nil
}
