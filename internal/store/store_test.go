package store

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prosaic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixture(line int, raw string, syllables int, rhymeKey string, alliteration bool) types.Phrase {
	tokens := strings.Fields(strings.ToLower(raw))
	return types.Phrase{
		LineNo:       line,
		Raw:          raw,
		Syllables:    syllables,
		RhymeKey:     rhymeKey,
		Alliteration: alliteration,
		EndWord:      tokens[len(tokens)-1],
		Tokens:       tokens,
	}
}

func fixturePhrases() []types.Phrase {
	return []types.Phrase{
		fixture(0, "the long night of the soul", 6, "oul", false),
		fixture(1, "death stands quiet at the door", 7, "oor", false),
		fixture(2, "we walked along the shore by day", 8, "ai", false),
		fixture(3, "the children ran outside to play", 8, "ai", false),
		fixture(4, "silver sea songs", 4, "ongs", true),
		fixture(20, "the harvest moon is rising", 7, "ing", false),
	}
}

func seedCorpus(t *testing.T, s *Store, name string, hash string, phrases []types.Phrase) *types.Source {
	t.Helper()
	ctx := context.Background()
	if _, err := s.GetCorpus(ctx, name); err != nil {
		_, err := s.CreateCorpus(ctx, name, "")
		require.NoError(t, err)
	}
	src := &types.Source{Name: hash + ".txt", ContentHash: hash}
	require.NoError(t, s.AddSource(ctx, name, src, phrases))
	return src
}

func sampleIDs(t *testing.T, ps poem.PhraseStore, corpus string, q poem.Query) []int64 {
	t.Helper()
	phrases, err := ps.Sample(context.Background(), corpus, q, 100, poem.NewRand(1))
	require.NoError(t, err)
	ids := make([]int64, 0, len(phrases))
	for _, p := range phrases {
		ids = append(ids, p.ID)
	}
	slices.Sort(ids)
	return ids
}

func TestCorpusLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCorpus(ctx, "gothic", "dark novels")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	_, err = s.CreateCorpus(ctx, "gothic", "")
	assert.ErrorIs(t, err, ErrCorpusExists)

	_, err = s.CreateCorpus(ctx, "   ", "")
	assert.Error(t, err)

	byID, err := s.GetCorpus(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "gothic", byID.Name)
	assert.Equal(t, "dark novels", byID.Description)

	_, err = s.GetCorpus(ctx, "missing")
	assert.ErrorIs(t, err, poem.ErrCorpusNotFound)

	_, err = s.CreateCorpus(ctx, "alpha", "")
	require.NoError(t, err)
	list, err := s.ListCorpora(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
}

func TestAddSourceAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src := seedCorpus(t, s, "c", "h1", fixturePhrases())
	assert.NotZero(t, src.ID)

	stats, err := s.CorpusStats(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sources)
	assert.Equal(t, 6, stats.Phrases)
	assert.Equal(t, 5, stats.RhymeKeys)
	assert.Equal(t, map[int]int{4: 1, 6: 1, 7: 2, 8: 2}, stats.BySyllables)

	found, err := s.SourceByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, src.ID, found.ID)

	none, err := s.SourceByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, none)

	phrases, err := s.Phrases(ctx, "c", 10)
	require.NoError(t, err)
	require.Len(t, phrases, 6)
	assert.Equal(t, "the long night of the soul", phrases[0].Raw)
	assert.Equal(t, []string{"the", "long", "night", "of", "the", "soul"}, phrases[0].Tokens)
	assert.True(t, phrases[4].Alliteration)
}

func TestAddSource_UnknownCorpusRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.AddSource(ctx, "missing", &types.Source{Name: "x", ContentHash: "h"}, fixturePhrases())
	require.ErrorIs(t, err, poem.ErrCorpusNotFound)

	found, err := s.SourceByHash(ctx, "h")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteCorpus_KeepsSharedSources(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	shared := seedCorpus(t, s, "a", "shared", fixturePhrases())
	seedCorpus(t, s, "a", "own", fixturePhrases()[:2])
	_, err := s.CreateCorpus(ctx, "b", "")
	require.NoError(t, err)
	require.NoError(t, s.LinkSource(ctx, "b", shared.ID))
	require.NoError(t, s.LinkSource(ctx, "b", shared.ID))

	require.NoError(t, s.DeleteCorpus(ctx, "a"))

	_, err = s.GetCorpus(ctx, "a")
	assert.ErrorIs(t, err, poem.ErrCorpusNotFound)

	kept, err := s.SourceByHash(ctx, "shared")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	gone, err := s.SourceByHash(ctx, "own")
	require.NoError(t, err)
	assert.Nil(t, gone)

	stats, err := s.CorpusStats(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Phrases)

	assert.ErrorIs(t, s.DeleteCorpus(ctx, "a"), poem.ErrCorpusNotFound)
}

func TestSample_Conditions(t *testing.T) {
	s := openTestStore(t)
	mem := NewMemory()
	seedCorpus(t, s, "c", "h1", fixturePhrases())
	mem.AddSource("c", fixturePhrases())

	// ids are assigned 1..6 in fixture order by both stores
	tests := []struct {
		name string
		q    poem.Query
		want []int64
	}{
		{name: "no conditions", q: poem.Query{}, want: []int64{1, 2, 3, 4, 5, 6}},
		{
			name: "syllables",
			q:    poem.Query{Conditions: []poem.Condition{{Kind: poem.RuleSyllables, Syllables: 8}}},
			want: []int64{3, 4},
		},
		{
			name: "keyword",
			q:    poem.Query{Conditions: []poem.Condition{{Kind: poem.RuleKeyword, Token: "death"}}},
			want: []int64{2},
		},
		{
			name: "fuzzy",
			q:    poem.Query{Conditions: []poem.Condition{{Kind: poem.RuleFuzzy, Token: "death", Window: 3}}},
			want: []int64{1, 2, 3, 4, 5},
		},
		{
			name: "alliteration",
			q:    poem.Query{Conditions: []poem.Condition{{Kind: poem.RuleAlliteration}}},
			want: []int64{5},
		},
		{
			name: "open rhyme group",
			q:    poem.Query{Conditions: []poem.Condition{{Kind: poem.RuleRhyme}}},
			want: []int64{1, 2, 3, 4, 5, 6},
		},
		{
			name: "fixed rhyme key avoiding end words",
			q: poem.Query{Conditions: []poem.Condition{
				{Kind: poem.RuleRhyme, RhymeKey: "ai", AvoidEndWords: []string{"day"}},
			}},
			want: []int64{4},
		},
		{
			name: "excluded ids",
			q: poem.Query{
				Conditions: []poem.Condition{{Kind: poem.RuleSyllables, Syllables: 7}},
				Exclude:    []int64{2},
			},
			want: []int64{6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sampleIDs(t, s, "c", tt.q)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("sqlite sample mismatch (-want +got):\n%s", diff)
			}
			got = sampleIDs(t, mem, "c", tt.q)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("memory sample mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSample_LimitAndDeterminism(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedCorpus(t, s, "c", "h1", fixturePhrases())

	first, err := s.Sample(ctx, "c", poem.Query{}, 3, poem.NewRand(99))
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := s.Sample(ctx, "c", poem.Query{}, 3, poem.NewRand(99))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	none, err := s.Sample(ctx, "c", poem.Query{Conditions: []poem.Condition{{Kind: poem.RuleSyllables, Syllables: 30}}}, 3, poem.NewRand(1))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = s.Sample(ctx, "missing", poem.Query{}, 3, poem.NewRand(1))
	assert.ErrorIs(t, err, poem.ErrCorpusNotFound)
}

func TestSample_OnlyLinkedSources(t *testing.T) {
	s := openTestStore(t)
	seedCorpus(t, s, "a", "h1", fixturePhrases()[:2])
	seedCorpus(t, s, "b", "h2", fixturePhrases()[2:])

	assert.Equal(t, []int64{1, 2}, sampleIDs(t, s, "a", poem.Query{}))
	assert.Equal(t, []int64{3, 4, 5, 6}, sampleIDs(t, s, "b", poem.Query{}))
}

func TestNear(t *testing.T) {
	s := openTestStore(t)
	src := seedCorpus(t, s, "c", "h1", fixturePhrases())

	assert.True(t, s.Near(src.ID, 0, "death", 1))
	assert.False(t, s.Near(src.ID, 20, "death", 5))
	assert.False(t, s.Near(src.ID+1, 1, "death", 5))
}

func TestGenerateFromStore(t *testing.T) {
	s := openTestStore(t)
	seedCorpus(t, s, "c", "h1", fixturePhrases())

	g, err := poem.NewGenerator(s, poem.DefaultOptions())
	require.NoError(t, err)

	tmpl := poem.Template{
		{Syllables: 8, Rhyme: "A"},
		{Blank: true},
		{Syllables: 8, Rhyme: "A"},
		{Keyword: "moon"},
		{Syllables: 3},
	}
	res, err := g.GenerateSeeded(context.Background(), tmpl, "c", 5)
	require.NoError(t, err)

	require.Equal(t, poem.OutcomePhrase, res.Lines[0].Kind)
	assert.Equal(t, poem.OutcomeBlank, res.Lines[1].Kind)
	require.Equal(t, poem.OutcomePhrase, res.Lines[2].Kind)
	assert.Equal(t, "ai", res.Lines[0].Phrase.RhymeKey)
	assert.Equal(t, "ai", res.Lines[2].Phrase.RhymeKey)
	assert.NotEqual(t, res.Lines[0].Phrase.ID, res.Lines[2].Phrase.ID)
	assert.Equal(t, int64(6), res.Lines[3].Phrase.ID)
	assert.Equal(t, poem.OutcomeFailed, res.Lines[4].Kind)
}

func TestReservoir(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rng := poem.NewRand(3)

	got := reservoir(ids, 4, rng)
	assert.Len(t, got, 4)
	for _, id := range got {
		assert.Contains(t, ids, id)
	}

	assert.Len(t, reservoir(ids, 50, rng), 10)
	assert.Nil(t, reservoir(nil, 5, rng))
	assert.Nil(t, reservoir(ids, 0, rng))
}
