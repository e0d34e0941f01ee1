package poem

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/alucardeht/prosaic/internal/nlp"
	"github.com/alucardeht/prosaic/internal/types"
)

// fakeStore filters in memory with the query's own predicate, the way a
// store that cannot push conditions down would.
type fakeStore struct {
	mu      sync.Mutex
	phrases []types.Phrase
	calls   int
	queries []Query
	err     error
}

func newFakeStore(phrases ...types.Phrase) *fakeStore {
	return &fakeStore{phrases: phrases}
}

func (s *fakeStore) Sample(ctx context.Context, corpus string, q Query, limit int, rng *rand.Rand) ([]types.Phrase, error) {
	s.mu.Lock()
	s.calls++
	s.queries = append(s.queries, q)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}

	accept := q.Predicate(s)
	var out []types.Phrase
	for _, p := range s.phrases {
		if accept(p) {
			out = append(out, p)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Near(sourceID int64, lineNo int, token string, window int) bool {
	for _, p := range s.phrases {
		if p.SourceID != sourceID {
			continue
		}
		d := p.LineNo - lineNo
		if d < 0 {
			d = -d
		}
		if d <= window && p.HasToken(token) {
			return true
		}
	}
	return false
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// phrase annotates raw and pins its syllable count so fixtures do not
// depend on the counter's heuristics.
func phrase(id int64, source int64, line int, raw string, syllables int) types.Phrase {
	p := nlp.Annotate(raw, line)
	p.ID = id
	p.SourceID = source
	p.Syllables = syllables
	return p
}
