package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/types"
)

// Memory is an in-process phrase store with the same sampling contract as
// Store. Conditions are evaluated with their predicates instead of SQL.
type Memory struct {
	mu      sync.RWMutex
	corpora map[string][]types.Phrase
	nextID  int64
	nextSrc int64
}

func NewMemory() *Memory {
	return &Memory{corpora: make(map[string][]types.Phrase)}
}

// AddSource appends phrases to corpus as one new source, creating the
// corpus when needed. Ids are assigned in order.
func (m *Memory) AddSource(corpus string, phrases []types.Phrase) []types.Phrase {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSrc++
	added := make([]types.Phrase, len(phrases))
	for i, p := range phrases {
		m.nextID++
		p.ID = m.nextID
		p.SourceID = m.nextSrc
		added[i] = p
	}
	m.corpora[corpus] = append(m.corpora[corpus], added...)
	return added
}

func (m *Memory) Sample(ctx context.Context, corpus string, q poem.Query, limit int, rng *rand.Rand) ([]types.Phrase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	phrases, ok := m.corpora[corpus]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", poem.ErrCorpusNotFound, corpus)
	}

	accept := q.Predicate(m)
	var ids []int64
	byID := make(map[int64]types.Phrase)
	for _, p := range phrases {
		if accept(p) {
			ids = append(ids, p.ID)
			byID[p.ID] = p
		}
	}

	picked := reservoir(ids, limit, rng)
	out := make([]types.Phrase, 0, len(picked))
	for _, id := range picked {
		out = append(out, byID[id])
	}
	return out, nil
}

func (m *Memory) Near(sourceID int64, lineNo int, token string, window int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, phrases := range m.corpora {
		for _, p := range phrases {
			if p.SourceID != sourceID || p.LineNo < lineNo-window || p.LineNo > lineNo+window {
				continue
			}
			if p.HasToken(token) {
				return true
			}
		}
	}
	return false
}
