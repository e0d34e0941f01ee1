package poetry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/tools"
)

type IngestTextTool struct {
	ingester *ingest.Ingester
}

func NewIngestTextTool(ingester *ingest.Ingester) *IngestTextTool {
	return &IngestTextTool{ingester: ingester}
}

func (t *IngestTextTool) Name() string {
	return "ingest_text"
}

func (t *IngestTextTool) Description() string {
	return `Segment prose into phrases and add them to a corpus.

The text is split at sentence and clause boundaries and every phrase is
annotated with its syllable count, rhyme key and alliteration. Text already
stored in another corpus is linked instead of stored twice.`
}

func (t *IngestTextTool) Title() string {
	return "Ingest Text"
}

func (t *IngestTextTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *IngestTextTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"corpus": {
				"type": "string",
				"description": "Corpus name or id"
			},
			"name": {
				"type": "string",
				"description": "Source name (default \"text\")"
			},
			"text": {
				"type": "string",
				"description": "Prose to segment"
			}
		},
		"required": ["corpus", "text"]
	}`)
}

func (t *IngestTextTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req struct {
		Corpus string `json:"corpus"`
		Name   string `json:"name"`
		Text   string `json:"text"`
	}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Corpus == "" {
		return nil, tools.NewInvalidParamsError("corpus is required")
	}
	if req.Text == "" {
		return nil, tools.NewInvalidParamsError("text is required")
	}
	if req.Name == "" {
		req.Name = "text"
	}

	res, err := t.ingester.IngestText(ctx, req.Corpus, req.Name, req.Text)
	if err != nil {
		return nil, userError(err)
	}
	return res, nil
}

type IngestFileTool struct {
	ingester *ingest.Ingester
}

func NewIngestFileTool(ingester *ingest.Ingester) *IngestFileTool {
	return &IngestFileTool{ingester: ingester}
}

func (t *IngestFileTool) Name() string {
	return "ingest_file"
}

func (t *IngestFileTool) Description() string {
	return `Read a text file on the daemon host and add its phrases to a corpus.

The file charset is detected (UTF-8, UTF-16, Windows-1252, ISO-8859-1,
Windows-1251) and converted to UTF-8 before segmentation.`
}

func (t *IngestFileTool) Title() string {
	return "Ingest File"
}

func (t *IngestFileTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *IngestFileTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"corpus": {
				"type": "string",
				"description": "Corpus name or id"
			},
			"path": {
				"type": "string",
				"description": "Absolute path of the file"
			}
		},
		"required": ["corpus", "path"]
	}`)
}

func (t *IngestFileTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req struct {
		Corpus string `json:"corpus"`
		Path   string `json:"path"`
	}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Corpus == "" || req.Path == "" {
		return nil, tools.NewInvalidParamsError("corpus and path are required")
	}

	res, err := t.ingester.IngestFile(ctx, req.Corpus, req.Path)
	if errors.Is(err, ingest.ErrFileTooLarge) {
		return nil, tools.NewInvalidParamsError("%v", err)
	}
	if err != nil {
		return nil, userError(err)
	}
	return res, nil
}
