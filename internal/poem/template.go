package poem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alucardeht/prosaic/internal/nlp"
)

// Line is one template entry. Zero values mean "no constraint of that kind".
type Line struct {
	Syllables    int    `json:"syllables,omitempty" yaml:"syllables,omitempty"`
	Alliteration bool   `json:"alliteration,omitempty" yaml:"alliteration,omitempty"`
	Keyword      string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Fuzzy        string `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
	Rhyme        string `json:"rhyme,omitempty" yaml:"rhyme,omitempty"`
	Blank        bool   `json:"blank,omitempty" yaml:"blank,omitempty"`
}

// Template is an ordered list of line rules, one per output line.
type Template []Line

// Has reports whether the line declares an active rule of kind k.
func (l Line) Has(k RuleKind) bool {
	switch k {
	case RuleSyllables:
		return l.Syllables > 0
	case RuleKeyword:
		return l.Keyword != ""
	case RuleFuzzy:
		return l.Fuzzy != ""
	case RuleAlliteration:
		return l.Alliteration
	case RuleRhyme:
		return l.Rhyme != ""
	case RuleBlank:
		return l.Blank
	}
	return false
}

func (l Line) validate() string {
	if l.Blank && (l.Syllables != 0 || l.Alliteration || l.Keyword != "" || l.Fuzzy != "" || l.Rhyme != "") {
		return "blank excludes every other rule"
	}
	if l.Syllables < 0 {
		return fmt.Sprintf("syllables must be positive, got %d", l.Syllables)
	}
	if l.Keyword != "" && len(nlp.Tokens(l.Keyword)) != 1 {
		return fmt.Sprintf("keyword %q must be a single word", l.Keyword)
	}
	if l.Fuzzy != "" && len(nlp.Tokens(l.Fuzzy)) != 1 {
		return fmt.Sprintf("fuzzy %q must be a single word", l.Fuzzy)
	}
	if l.Rhyme != "" && strings.TrimSpace(l.Rhyme) == "" {
		return "rhyme label must not be blank"
	}
	return ""
}

// Validate checks template shape. The first offending line is reported as a
// *TemplateError.
func (t Template) Validate() error {
	for i, l := range t {
		if reason := l.validate(); reason != "" {
			return &TemplateError{Line: i + 1, Reason: reason}
		}
	}
	return nil
}

type lineWire struct {
	Syllables    *int    `json:"syllables"`
	Alliteration *bool   `json:"alliteration"`
	Keyword      *string `json:"keyword"`
	Fuzzy        *string `json:"fuzzy"`
	Rhyme        *string `json:"rhyme"`
	Blank        *bool   `json:"blank"`
}

func (w lineWire) line() (Line, string) {
	var l Line
	if w.Syllables != nil {
		if *w.Syllables <= 0 {
			return l, fmt.Sprintf("syllables must be positive, got %d", *w.Syllables)
		}
		l.Syllables = *w.Syllables
	}
	if w.Alliteration != nil {
		l.Alliteration = *w.Alliteration
	}
	if w.Keyword != nil {
		if strings.TrimSpace(*w.Keyword) == "" {
			return l, "keyword must not be empty"
		}
		l.Keyword = *w.Keyword
	}
	if w.Fuzzy != nil {
		if strings.TrimSpace(*w.Fuzzy) == "" {
			return l, "fuzzy must not be empty"
		}
		l.Fuzzy = *w.Fuzzy
	}
	if w.Rhyme != nil {
		if strings.TrimSpace(*w.Rhyme) == "" {
			return l, "rhyme label must not be empty"
		}
		l.Rhyme = *w.Rhyme
	}
	if w.Blank != nil {
		l.Blank = *w.Blank
	}
	return l, l.validate()
}

// DecodeTemplate parses the JSON wire format and validates it. Unrecognized
// keys are rejected.
func DecodeTemplate(data []byte) (Template, error) {
	return decodeTemplate(data, true)
}

// DecodeTemplateLenient is DecodeTemplate but ignores unrecognized keys.
func DecodeTemplateLenient(data []byte) (Template, error) {
	return decodeTemplate(data, false)
}

func decodeTemplate(data []byte, strict bool) (Template, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &TemplateError{Reason: fmt.Sprintf("expected an array of line objects: %v", err)}
	}

	tmpl := make(Template, 0, len(raw))
	for i, r := range raw {
		dec := json.NewDecoder(bytes.NewReader(r))
		if strict {
			dec.DisallowUnknownFields()
		}
		var w lineWire
		if err := dec.Decode(&w); err != nil {
			return nil, &TemplateError{Line: i + 1, Reason: err.Error()}
		}
		l, reason := w.line()
		if reason != "" {
			return nil, &TemplateError{Line: i + 1, Reason: reason}
		}
		tmpl = append(tmpl, l)
	}
	return tmpl, nil
}

// DecodeTemplateYAML accepts a YAML sequence with the same shape as the JSON
// wire format.
func DecodeTemplateYAML(data []byte) (Template, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &TemplateError{Reason: fmt.Sprintf("expected a sequence of line mappings: %v", err)}
	}
	if raw == nil {
		raw = []map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert yaml template: %w", err)
	}
	return DecodeTemplate(data)
}
