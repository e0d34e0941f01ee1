package poem

import (
	"slices"

	"github.com/alucardeht/prosaic/internal/nlp"
	"github.com/alucardeht/prosaic/internal/types"
)

// Predicate is a pure check over a single phrase.
type Predicate func(types.Phrase) bool

// Condition is one rule of a line, translated into a form a store can push
// down into its query. Conditions of a query are ordered cheapest first.
type Condition struct {
	Kind RuleKind `json:"kind"`

	Syllables int `json:"syllables,omitempty"`

	// Token is the folded keyword (RuleKeyword) or fuzzy anchor word (RuleFuzzy).
	Token  string `json:"token,omitempty"`
	Window int    `json:"window,omitempty"`

	// RhymeKey is the fixed key of the line's rhyme group. Empty means the
	// group is still open and any phrase with a rhyme key qualifies.
	RhymeKey      string   `json:"rhyme_key,omitempty"`
	AvoidEndWords []string `json:"avoid_end_words,omitempty"`
}

// Query is what the selector asks a PhraseStore for.
type Query struct {
	Conditions []Condition `json:"conditions"`
	Exclude    []int64     `json:"exclude,omitempty"`
}

// AnchorIndex answers fuzzy proximity: whether a phrase of the given source
// within window positions of lineNo contains token.
type AnchorIndex interface {
	Near(sourceID int64, lineNo int, token string, window int) bool
}

// wordToken folds a template word the way phrase tokens are folded.
func wordToken(s string) string {
	if tokens := nlp.Tokens(s); len(tokens) > 0 {
		return tokens[0]
	}
	return nlp.Fold(s)
}

func SyllablesEqual(n int) Predicate {
	return func(p types.Phrase) bool { return p.Syllables == n }
}

// HasKeyword matches the token case-insensitively against the phrase tokens.
func HasKeyword(keyword string) Predicate {
	token := wordToken(keyword)
	return func(p types.Phrase) bool { return p.HasToken(token) }
}

// Alliterates trusts the flag computed at annotation time.
func Alliterates() Predicate {
	return func(p types.Phrase) bool { return p.Alliteration }
}

// NearKeyword checks fuzzy proximity through idx.
func NearKeyword(idx AnchorIndex, keyword string, window int) Predicate {
	token := wordToken(keyword)
	return func(p types.Phrase) bool {
		return idx.Near(p.SourceID, p.LineNo, token, window)
	}
}

// RhymesWith requires an exact rhyme key, or any non-empty key when key is
// empty. Phrases ending on one of avoid never qualify.
func RhymesWith(key string, avoid []string) Predicate {
	return func(p types.Phrase) bool {
		if p.RhymeKey == "" {
			return false
		}
		if key != "" && p.RhymeKey != key {
			return false
		}
		return !slices.Contains(avoid, p.EndWord)
	}
}

func Excluding(ids []int64) Predicate {
	return func(p types.Phrase) bool { return !slices.Contains(ids, p.ID) }
}

func And(preds ...Predicate) Predicate {
	return func(p types.Phrase) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// Predicate converts the condition into its pure check. A fuzzy condition
// needs document context; with a nil index it accepts every phrase and the
// store is trusted to have applied it.
func (c Condition) Predicate(idx AnchorIndex) Predicate {
	switch c.Kind {
	case RuleSyllables:
		return SyllablesEqual(c.Syllables)
	case RuleKeyword:
		return HasKeyword(c.Token)
	case RuleFuzzy:
		if idx == nil {
			return func(types.Phrase) bool { return true }
		}
		return NearKeyword(idx, c.Token, c.Window)
	case RuleAlliteration:
		return Alliterates()
	case RuleRhyme:
		return RhymesWith(c.RhymeKey, c.AvoidEndWords)
	}
	return func(types.Phrase) bool { return true }
}

// Predicate ANDs every condition in order, plus the exclusion set.
func (q Query) Predicate(idx AnchorIndex) Predicate {
	preds := make([]Predicate, 0, len(q.Conditions)+1)
	if len(q.Exclude) > 0 {
		preds = append(preds, Excluding(q.Exclude))
	}
	for _, c := range q.Conditions {
		preds = append(preds, c.Predicate(idx))
	}
	return And(preds...)
}

// rhymeConstraint is what the resolver hands the selector for one line.
type rhymeConstraint struct {
	label string
	key   string
	avoid []string
}

// buildConditions lists the line's rules cheapest first, skipping dropped
// ones: syllables, keyword, fuzzy, alliteration, rhyme.
func buildConditions(l Line, window int, dropped map[RuleKind]bool, rc *rhymeConstraint) []Condition {
	var conds []Condition
	if l.Has(RuleSyllables) {
		conds = append(conds, Condition{Kind: RuleSyllables, Syllables: l.Syllables})
	}
	if l.Has(RuleKeyword) && !dropped[RuleKeyword] {
		conds = append(conds, Condition{Kind: RuleKeyword, Token: wordToken(l.Keyword)})
	}
	if l.Has(RuleFuzzy) && !dropped[RuleFuzzy] {
		conds = append(conds, Condition{Kind: RuleFuzzy, Token: wordToken(l.Fuzzy), Window: window})
	}
	if l.Has(RuleAlliteration) && !dropped[RuleAlliteration] {
		conds = append(conds, Condition{Kind: RuleAlliteration})
	}
	if rc != nil {
		conds = append(conds, Condition{Kind: RuleRhyme, RhymeKey: rc.key, AvoidEndWords: rc.avoid})
	}
	return conds
}
