package poem

import "fmt"

// RuleKind names one kind of per-line template rule.
type RuleKind string

const (
	RuleSyllables    RuleKind = "syllables"
	RuleKeyword      RuleKind = "keyword"
	RuleFuzzy        RuleKind = "fuzzy"
	RuleAlliteration RuleKind = "alliteration"
	RuleRhyme        RuleKind = "rhyme"
	RuleBlank        RuleKind = "blank"
)

// DefaultRelaxOrder drops fuzzy proximity first, then alliteration, then
// keyword. Syllables and rhyme are never relaxed.
var DefaultRelaxOrder = []RuleKind{RuleFuzzy, RuleAlliteration, RuleKeyword}

// Relaxable reports whether the selector may drop the rule.
func (k RuleKind) Relaxable() bool {
	switch k {
	case RuleFuzzy, RuleAlliteration, RuleKeyword:
		return true
	}
	return false
}

func ParseRuleKind(s string) (RuleKind, error) {
	switch k := RuleKind(s); k {
	case RuleSyllables, RuleKeyword, RuleFuzzy, RuleAlliteration, RuleRhyme, RuleBlank:
		return k, nil
	}
	return "", fmt.Errorf("unknown rule %q", s)
}
