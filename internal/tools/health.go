package tools

import (
	"context"
	"encoding/json"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/alucardeht/prosaic/pkg/protocol"
	"github.com/alucardeht/prosaic/pkg/version"
)

type HealthTool struct {
	registry  *Registry
	startTime time.Time
}

func NewHealthTool(registry *Registry) *HealthTool {
	return &HealthTool{registry: registry, startTime: time.Now()}
}

func (t *HealthTool) Name() string {
	return "health"
}

func (t *HealthTool) Description() string {
	return "Check daemon health status"
}

func (t *HealthTool) Title() string {
	return "Health"
}

func (t *HealthTool) Annotations() map[string]bool {
	return ReadOnlyAnnotations()
}

func (t *HealthTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *HealthTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	return protocol.HealthResponse{
		Status:  "healthy",
		Uptime:  humanize.RelTime(t.startTime, time.Now(), "", ""),
		Version: version.Version,
		Tools:   len(t.registry.Names()),
	}, nil
}
