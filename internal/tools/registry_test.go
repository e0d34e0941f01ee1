package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/prosaic/pkg/protocol"
)

type echoTool struct {
	name  string
	delay time.Duration
}

func (t *echoTool) Name() string            { return t.name }
func (t *echoTool) Description() string     { return "echo input" }
func (t *echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (t *echoTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return string(input), nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterAll(&echoTool{name: "b"}, &echoTool{name: "a"}))
	require.Error(t, r.Register(&echoTool{name: "a"}))

	assert.Equal(t, []string{"a", "b"}, r.Names())
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name())

	out, err := r.Execute(context.Background(), "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", out)

	_, err = r.Execute(context.Background(), "missing", nil)
	assert.Equal(t, protocol.CodeMethodNotFound, ErrorCode(err))
}

func TestExecuteWithTimeout(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "slow", delay: time.Second}))

	_, err := r.ExecuteWithTimeout(context.Background(), "slow", nil, 20*time.Millisecond)
	require.Error(t, err)
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Message, "timed out")
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, protocol.CodeInvalidParams, ErrorCode(NewInvalidParamsError("bad %s", "x")))
	assert.Equal(t, protocol.CodeInternalError, ErrorCode(errors.New("boom")))
}

func TestHealthTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewHealthTool(r)))

	out, err := r.Execute(context.Background(), "health", nil)
	require.NoError(t, err)
	health, ok := out.(protocol.HealthResponse)
	require.True(t, ok)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Tools)
}
