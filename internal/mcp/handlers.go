package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/tools"
	"github.com/alucardeht/prosaic/pkg/protocol"
	"github.com/alucardeht/prosaic/pkg/version"
)

var log = logger.ForComponent("mcp")

const (
	ServerName = "prosaic"

	DefaultToolTimeout = 4 * time.Minute
)

type Handler struct {
	registry    *tools.Registry
	toolTimeout time.Duration

	mu          sync.Mutex
	initialized bool
	clientInfo  ClientInfo
}

func NewHandler(registry *tools.Registry) *Handler {
	return &Handler{
		registry:    registry,
		toolTimeout: DefaultToolTimeout,
	}
}

// SetToolTimeout bounds each tools/call.
func (h *Handler) SetToolTimeout(d time.Duration) {
	h.toolTimeout = d
}

// IsNotification reports whether req expects no response.
func IsNotification(req *Request) bool {
	return req.ID == nil && strings.HasPrefix(req.Method, "notifications/")
}

func (h *Handler) Handle(ctx context.Context, req *Request) *Response {
	resp := &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	var (
		result interface{}
		err    error
	)

	switch req.Method {
	case "initialize":
		result, err = h.handleInitialize(req)
	case "ping":
		result = map[string]interface{}{}
	case "tools/list":
		result = h.handleListTools()
	case "tools/call":
		result, err = h.handleCallTool(ctx, req)
	case "notifications/initialized":
		h.mu.Lock()
		h.initialized = true
		h.mu.Unlock()
		result = map[string]interface{}{}
	default:
		resp.Error = &protocol.JSONRPCError{
			Code:    protocol.CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
		return resp
	}

	if err != nil {
		resp.Error = &protocol.JSONRPCError{
			Code:    tools.ErrorCode(err),
			Message: err.Error(),
		}
		return resp
	}
	resp.Result = result
	return resp
}

func (h *Handler) ClientInfo() ClientInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clientInfo
}

func (h *Handler) handleInitialize(req *Request) (interface{}, error) {
	var initReq InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &initReq); err != nil {
			return nil, tools.NewInvalidParamsError("failed to parse initialize request: %v", err)
		}
	}

	h.mu.Lock()
	h.clientInfo = initReq.ClientInfo
	h.mu.Unlock()

	log.Info("client initialized",
		"client", initReq.ClientInfo.Name,
		"client_version", initReq.ClientInfo.Version,
		"protocol", initReq.ProtocolVersion)

	return InitializeResponse{
		ProtocolVersion: negotiateProtocolVersion(initReq.ProtocolVersion),
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: version.Version,
		},
	}, nil
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}

	return version.ProtocolVersion
}

func (h *Handler) handleListTools() interface{} {
	toolsList := h.registry.List()
	out := ListToolsResponse{Tools: make([]Tool, 0, len(toolsList))}

	for _, t := range toolsList {
		tool := Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		}
		if annotated, ok := t.(tools.AnnotatedTool); ok {
			tool.Title = annotated.Title()
			tool.Annotations = annotated.Annotations()
		}
		out.Tools = append(out.Tools, tool)
	}

	return out
}

func (h *Handler) handleCallTool(ctx context.Context, req *Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool execution panicked: %v", r)
			log.Error("tool panic recovered",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	var call ToolCall
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return nil, tools.NewInvalidParamsError("failed to parse tool call request: %v", err)
	}

	if call.Name == "" {
		return nil, tools.NewInvalidParamsError("tool name is required")
	}

	start := time.Now()
	out, err := h.registry.ExecuteWithTimeout(ctx, call.Name, call.Arguments, h.toolTimeout)
	if err != nil {
		log.Warn("tool failed", "tool", call.Name, "error", err, "duration", time.Since(start))
		return nil, err
	}
	log.Debug("tool executed", "tool", call.Name, "duration", time.Since(start))

	text, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return protocol.ToolResult{
		Content: []protocol.ToolContent{
			{Type: "text", Text: string(text)},
		},
	}, nil
}
