package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/prosaic/internal/tools"
	"github.com/alucardeht/prosaic/pkg/protocol"
	"github.com/alucardeht/prosaic/pkg/version"
)

type panicTool struct{}

func (panicTool) Name() string            { return "explode" }
func (panicTool) Description() string     { return "always panics" }
func (panicTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (panicTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	panic("boom")
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, r.RegisterAll(tools.NewHealthTool(r), panicTool{}))
	return NewHandler(r)
}

func request(method, params string) *Request {
	req := &Request{JSONRPC: "2.0", ID: float64(1), Method: method}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

func TestInitialize(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		client string
		want   string
	}{
		{"2024-11-05", "2024-11-05"},
		{"2025-06-18", "2025-06-18"},
		{"1999-01-01", version.ProtocolVersion},
	}
	for _, tt := range tests {
		resp := h.Handle(context.Background(), request("initialize",
			`{"protocolVersion":"`+tt.client+`","clientInfo":{"name":"cli","version":"1"}}`))
		require.Nil(t, resp.Error)
		init := resp.Result.(InitializeResponse)
		assert.Equal(t, tt.want, init.ProtocolVersion)
		assert.Equal(t, ServerName, init.ServerInfo.Name)
	}
	assert.Equal(t, "cli", h.ClientInfo().Name)
}

func TestListTools(t *testing.T) {
	h := newTestHandler(t)
	resp := h.Handle(context.Background(), request("tools/list", ""))
	require.Nil(t, resp.Error)

	list := resp.Result.(ListToolsResponse)
	require.Len(t, list.Tools, 2)
	assert.Equal(t, "explode", list.Tools[0].Name)
	assert.Equal(t, "health", list.Tools[1].Name)
	assert.Equal(t, "Health", list.Tools[1].Title)
	assert.True(t, list.Tools[1].Annotations["readOnlyHint"])
}

func TestCallTool(t *testing.T) {
	h := newTestHandler(t)

	resp := h.Handle(context.Background(), request("tools/call", `{"name":"health"}`))
	require.Nil(t, resp.Error)
	result := resp.Result.(protocol.ToolResult)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)

	var health protocol.HealthResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &health))
	assert.Equal(t, "healthy", health.Status)

	resp = h.Handle(context.Background(), request("tools/call", `{"name":"missing"}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeMethodNotFound, resp.Error.Code)

	resp = h.Handle(context.Background(), request("tools/call", `{}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInvalidParams, resp.Error.Code)

	resp = h.Handle(context.Background(), request("tools/call", `{"name":"explode"}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "panicked")
}

func TestUnknownMethod(t *testing.T) {
	h := newTestHandler(t)
	resp := h.Handle(context.Background(), request("resources/list", ""))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeMethodNotFound, resp.Error.Code)
}

func TestProcessStream(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, r.Register(tools.NewHealthTool(r)))
	s := NewServer(r)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`not json`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"health"}}`,
	}, "\n")

	var out strings.Builder
	require.NoError(t, s.ProcessStream(context.Background(), strings.NewReader(input), &out))

	var responses []protocol.JSONRPCResponse
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	for sc.Scan() {
		var resp protocol.JSONRPCResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &resp))
		responses = append(responses, resp)
	}

	require.Len(t, responses, 3)
	assert.Equal(t, float64(1), responses[0].ID)
	assert.Nil(t, responses[0].Error)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, protocol.CodeParseError, responses[1].Error.Code)
	assert.Equal(t, float64(2), responses[2].ID)
	assert.Nil(t, responses[2].Error)
}
