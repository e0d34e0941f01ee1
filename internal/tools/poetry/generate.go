package poetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/tools"
)

const maxPoemsPerCall = 20

type GeneratePoemTool struct {
	generator *poem.Generator
	library   *poem.Library
}

func NewGeneratePoemTool(generator *poem.Generator, library *poem.Library) *GeneratePoemTool {
	return &GeneratePoemTool{generator: generator, library: library}
}

func (t *GeneratePoemTool) Name() string {
	return "generate_poem"
}

func (t *GeneratePoemTool) Description() string {
	return `Compose a poem from the phrases of a corpus.

Each template line picks one stored phrase matching its rules. When no
phrase matches, rules are relaxed in order (fuzzy, alliteration, keyword)
and the line is reported as failed only when nothing is left to relax.

TEMPLATE:
- A template name (see list_templates), e.g. "haiku"
- Or an inline array of lines:
  [{"syllables": 5}, {"syllables": 7, "keyword": "rain"}, {"blank": true}]

LINE RULES: syllables, alliteration, keyword, fuzzy, rhyme (label), blank

Pass the same seed to get the same poem back.`
}

func (t *GeneratePoemTool) Title() string {
	return "Generate Poem"
}

func (t *GeneratePoemTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *GeneratePoemTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"corpus": {
				"type": "string",
				"description": "Corpus name or id"
			},
			"template": {
				"description": "Template name or inline array of line objects",
				"oneOf": [
					{"type": "string"},
					{"type": "array", "items": {"type": "object"}}
				]
			},
			"seed": {
				"type": "integer",
				"minimum": 0,
				"description": "Random seed for a reproducible poem"
			},
			"count": {
				"type": "integer",
				"minimum": 1,
				"maximum": 20,
				"description": "Number of poems (default 1)"
			}
		},
		"required": ["corpus", "template"]
	}`)
}

type poemView struct {
	*poem.Result
	Text     string `json:"text"`
	Failures int    `json:"failures"`
}

type GeneratePoemResponse struct {
	Poems []poemView `json:"poems"`
}

func (t *GeneratePoemTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Corpus   string          `json:"corpus"`
		Template json.RawMessage `json:"template"`
		Seed     *uint64         `json:"seed"`
		Count    int             `json:"count"`
	}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Corpus == "" {
		return nil, tools.NewInvalidParamsError("corpus is required")
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 || req.Count > maxPoemsPerCall {
		return nil, tools.NewInvalidParamsError("count must be between 1 and %d", maxPoemsPerCall)
	}

	tmpl, err := t.template(req.Template)
	if err != nil {
		return nil, userError(err)
	}

	seed := poem.RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	results, err := t.generator.GenerateBatch(ctx, tmpl, req.Corpus, req.Count, seed)
	if err != nil {
		return nil, userError(err)
	}

	resp := GeneratePoemResponse{Poems: make([]poemView, 0, len(results))}
	for _, r := range results {
		resp.Poems = append(resp.Poems, poemView{Result: r, Text: r.Text(), Failures: r.Failures()})
	}
	return resp, nil
}

// template accepts a library name or an inline template.
func (t *GeneratePoemTool) template(raw json.RawMessage) (poem.Template, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, tools.NewInvalidParamsError("template is required")
	}

	if raw[0] == '[' {
		return poem.DecodeTemplate(raw)
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return nil, tools.NewInvalidParamsError("template must be a name or an array of lines")
	}
	if name == "" {
		return nil, tools.NewInvalidParamsError("template is required")
	}
	tmpl, err := t.library.Get(name)
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}
	return tmpl, nil
}

type ListTemplatesTool struct {
	library *poem.Library
}

func NewListTemplatesTool(library *poem.Library) *ListTemplatesTool {
	return &ListTemplatesTool{library: library}
}

func (t *ListTemplatesTool) Name() string {
	return "list_templates"
}

func (t *ListTemplatesTool) Description() string {
	return "List the named poem templates with their line count."
}

func (t *ListTemplatesTool) Title() string {
	return "List Templates"
}

func (t *ListTemplatesTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *ListTemplatesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

type TemplateInfo struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

func (t *ListTemplatesTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	names := t.library.Names()
	out := make([]TemplateInfo, 0, len(names))
	for _, name := range names {
		tmpl, err := t.library.Get(name)
		if err != nil {
			continue
		}
		out = append(out, TemplateInfo{Name: name, Lines: len(tmpl)})
	}
	return map[string]interface{}{
		"templates": out,
		"count":     len(out),
	}, nil
}
