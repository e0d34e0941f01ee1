package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/types"
)

// conditionSQL translates one condition into a WHERE fragment over the
// phrases table aliased p. Slice arguments are expanded by sqlx.In.
func conditionSQL(c poem.Condition) (string, []any) {
	switch c.Kind {
	case poem.RuleSyllables:
		return "p.syllables = ?", []any{c.Syllables}
	case poem.RuleKeyword:
		return `EXISTS (SELECT 1 FROM phrase_tokens t WHERE t.phrase_id = p.id AND t.token = ?)`,
			[]any{c.Token}
	case poem.RuleFuzzy:
		return `EXISTS (
			SELECT 1 FROM phrases n
			JOIN phrase_tokens t ON t.phrase_id = n.id
			WHERE n.source_id = p.source_id
			  AND n.line_no BETWEEN p.line_no - ? AND p.line_no + ?
			  AND t.token = ?)`,
			[]any{c.Window, c.Window, c.Token}
	case poem.RuleAlliteration:
		return "p.alliteration = 1", nil
	case poem.RuleRhyme:
		var clauses []string
		var args []any
		if c.RhymeKey != "" {
			clauses = append(clauses, "p.rhyme_key = ?")
			args = append(args, c.RhymeKey)
		} else {
			clauses = append(clauses, "p.rhyme_key <> ''")
		}
		if len(c.AvoidEndWords) > 0 {
			clauses = append(clauses, "p.end_word NOT IN (?)")
			args = append(args, c.AvoidEndWords)
		}
		return strings.Join(clauses, " AND "), args
	}
	return "", nil
}

// Sample pushes every condition of q down to SQL, then draws at most limit of
// the matching ids with rng and loads those rows in drawn order.
func (s *Store) Sample(ctx context.Context, corpus string, q poem.Query, limit int, rng *rand.Rand) ([]types.Phrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.getCorpus(ctx, s.db, corpus)
	if err != nil {
		return nil, err
	}

	where := []string{"cs.corpus_id = ?"}
	args := []any{c.ID}
	if len(q.Exclude) > 0 {
		where = append(where, "p.id NOT IN (?)")
		args = append(args, q.Exclude)
	}
	for _, cond := range q.Conditions {
		frag, fargs := conditionSQL(cond)
		if frag == "" {
			continue
		}
		where = append(where, frag)
		args = append(args, fargs...)
	}

	query := `SELECT p.id FROM phrases p
		JOIN corpus_sources cs ON cs.source_id = p.source_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.id`

	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build sample query: %w", err)
	}

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sample phrases: %w", err)
	}

	picked := reservoir(ids, limit, rng)
	if len(picked) == 0 {
		return []types.Phrase{}, nil
	}

	return s.loadPhrases(ctx, picked)
}

// reservoir draws k ids uniformly and returns them in random order.
func reservoir(ids []int64, k int, rng *rand.Rand) []int64 {
	if k <= 0 || len(ids) == 0 {
		return nil
	}
	if k > len(ids) {
		k = len(ids)
	}
	out := make([]int64, k)
	copy(out, ids[:k])
	for i := k; i < len(ids); i++ {
		if j := rng.IntN(i + 1); j < k {
			out[j] = ids[i]
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (s *Store) loadPhrases(ctx context.Context, ids []int64) ([]types.Phrase, error) {
	query, args, err := sqlx.In(`
		SELECT id, source_id, line_no, raw, syllables, rhyme_key, alliteration, end_word, tokens
		FROM phrases WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("build phrase query: %w", err)
	}

	var rows []phraseRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load phrases: %w", err)
	}

	byID := make(map[int64]types.Phrase, len(rows))
	for _, r := range rows {
		byID[r.ID] = r.phrase()
	}
	phrases := make([]types.Phrase, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			phrases = append(phrases, p)
		}
	}
	return phrases, nil
}

// Near reports whether a phrase of sourceID within window lines of lineNo
// carries token. Lookup errors count as no match.
func (s *Store) Near(sourceID int64, lineNo int, token string, window int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found int
	err := s.db.Get(&found, `
		SELECT EXISTS (
			SELECT 1 FROM phrases n
			JOIN phrase_tokens t ON t.phrase_id = n.id
			WHERE n.source_id = ?
			  AND n.line_no BETWEEN ? AND ?
			  AND t.token = ?)
	`, sourceID, lineNo-window, lineNo+window, token)
	if err != nil {
		log.Warn("proximity lookup failed", "source_id", sourceID, "error", err)
		return false
	}
	return found == 1
}
