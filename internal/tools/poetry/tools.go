package poetry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/tools"
	"github.com/alucardeht/prosaic/internal/types"
)

// CorpusStore is the corpus administration side of the phrase store.
type CorpusStore interface {
	CreateCorpus(ctx context.Context, name, description string) (*types.Corpus, error)
	ListCorpora(ctx context.Context) ([]types.Corpus, error)
	DeleteCorpus(ctx context.Context, ref string) error
	CorpusStats(ctx context.Context, ref string) (*types.CorpusStats, error)
}

type Deps struct {
	Store     CorpusStore
	Generator *poem.Generator
	Library   *poem.Library
	Ingester  *ingest.Ingester
}

func GetTools(deps Deps) []tools.Tool {
	return []tools.Tool{
		NewGeneratePoemTool(deps.Generator, deps.Library),
		NewListTemplatesTool(deps.Library),
		NewListCorporaTool(deps.Store),
		NewCreateCorpusTool(deps.Store),
		NewDeleteCorpusTool(deps.Store),
		NewCorpusStatsTool(deps.Store),
		NewIngestTextTool(deps.Ingester),
		NewIngestFileTool(deps.Ingester),
	}
}

func decodeInput(input json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(input, v); err != nil {
		return tools.NewInvalidParamsError("invalid input: %v", err)
	}
	return nil
}

// userError turns errors caused by the caller's arguments into invalid
// params errors and leaves the rest alone.
func userError(err error) error {
	switch {
	case errors.Is(err, poem.ErrMalformedTemplate),
		errors.Is(err, poem.ErrTemplateNotFound),
		errors.Is(err, poem.ErrCorpusNotFound):
		return tools.NewInvalidParamsError("%v", err)
	}
	return err
}
