package poetry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/alucardeht/prosaic/internal/store"
	"github.com/alucardeht/prosaic/internal/tools"
)

type ListCorporaTool struct {
	store CorpusStore
}

func NewListCorporaTool(store CorpusStore) *ListCorporaTool {
	return &ListCorporaTool{store: store}
}

func (t *ListCorporaTool) Name() string {
	return "list_corpora"
}

func (t *ListCorporaTool) Description() string {
	return "List the phrase corpora available for generate_poem."
}

func (t *ListCorporaTool) Title() string {
	return "List Corpora"
}

func (t *ListCorporaTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *ListCorporaTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *ListCorporaTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	corpora, err := t.store.ListCorpora(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"corpora": corpora,
		"count":   len(corpora),
	}, nil
}

type CreateCorpusTool struct {
	store CorpusStore
}

func NewCreateCorpusTool(store CorpusStore) *CreateCorpusTool {
	return &CreateCorpusTool{store: store}
}

func (t *CreateCorpusTool) Name() string {
	return "create_corpus"
}

func (t *CreateCorpusTool) Description() string {
	return `Create an empty phrase corpus.

Fill it with ingest_text or ingest_file. Names are unique.`
}

func (t *CreateCorpusTool) Title() string {
	return "Create Corpus"
}

func (t *CreateCorpusTool) Annotations() map[string]bool {
	return tools.NonIdempotentWriteAnnotations()
}

func (t *CreateCorpusTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {
				"type": "string",
				"description": "Corpus name"
			},
			"description": {
				"type": "string",
				"description": "Free-form description"
			}
		},
		"required": ["name"]
	}`)
}

func (t *CreateCorpusTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, tools.NewInvalidParamsError("name is required")
	}

	c, err := t.store.CreateCorpus(ctx, req.Name, req.Description)
	if errors.Is(err, store.ErrCorpusExists) {
		return nil, tools.NewInvalidParamsError("%v", err)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

type DeleteCorpusTool struct {
	store CorpusStore
}

func NewDeleteCorpusTool(store CorpusStore) *DeleteCorpusTool {
	return &DeleteCorpusTool{store: store}
}

func (t *DeleteCorpusTool) Name() string {
	return "delete_corpus"
}

func (t *DeleteCorpusTool) Description() string {
	return `Delete a corpus. Sources no other corpus uses are deleted with it.

This cannot be undone.`
}

func (t *DeleteCorpusTool) Title() string {
	return "Delete Corpus"
}

func (t *DeleteCorpusTool) Annotations() map[string]bool {
	return tools.DestructiveAnnotations()
}

func (t *DeleteCorpusTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"corpus": {
				"type": "string",
				"description": "Corpus name or id"
			}
		},
		"required": ["corpus"]
	}`)
}

func (t *DeleteCorpusTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req struct {
		Corpus string `json:"corpus"`
	}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Corpus == "" {
		return nil, tools.NewInvalidParamsError("corpus is required")
	}

	if err := t.store.DeleteCorpus(ctx, req.Corpus); err != nil {
		return nil, userError(err)
	}
	return map[string]interface{}{
		"deleted": req.Corpus,
	}, nil
}

type CorpusStatsTool struct {
	store CorpusStore
}

func NewCorpusStatsTool(store CorpusStore) *CorpusStatsTool {
	return &CorpusStatsTool{store: store}
}

func (t *CorpusStatsTool) Name() string {
	return "corpus_stats"
}

func (t *CorpusStatsTool) Description() string {
	return "Count sources, phrases and rhyme keys of a corpus, with phrases per syllable count."
}

func (t *CorpusStatsTool) Title() string {
	return "Corpus Stats"
}

func (t *CorpusStatsTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *CorpusStatsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"corpus": {
				"type": "string",
				"description": "Corpus name or id"
			}
		},
		"required": ["corpus"]
	}`)
}

func (t *CorpusStatsTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req struct {
		Corpus string `json:"corpus"`
	}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Corpus == "" {
		return nil, tools.NewInvalidParamsError("corpus is required")
	}

	stats, err := t.store.CorpusStats(ctx, req.Corpus)
	if err != nil {
		return nil, userError(err)
	}
	return stats, nil
}
