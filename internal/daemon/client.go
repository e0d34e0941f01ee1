package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/prosaic/pkg/protocol"
)

type Client struct {
	conn *jsonrpc2.Conn
}

// Dial connects to a daemon listening on socketPath.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	netConn, err := NewSocketConnector(socketPath).Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(refuseRequests))
	return &Client{conn: conn}, nil
}

func refuseRequests(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "client accepts no requests"}
}

// Call sends method and decodes the result into result. RPC failures come
// back as *protocol.JSONRPCError.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	raw, err := rawParams(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	var p interface{}
	if raw != nil {
		p = raw
	}

	err = c.conn.Call(ctx, method, p, result)
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return &protocol.JSONRPCError{Code: int(rpcErr.Code), Message: rpcErr.Message}
	}
	return err
}

func (c *Client) Ping(ctx context.Context) error {
	var out json.RawMessage
	return c.Call(ctx, "ping", nil, &out)
}

func (c *Client) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	var out struct {
		Tools []protocol.Tool `json:"tools"`
	}
	if err := c.Call(ctx, "tools/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}

// CallTool runs a tool on the daemon and returns its JSON text result.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	var out protocol.ToolResult
	if err := c.Call(ctx, "tools/call", protocol.ToolCall{Name: name, Arguments: args}, &out); err != nil {
		return "", err
	}
	if len(out.Content) == 0 {
		return "", nil
	}
	if out.IsError {
		return "", fmt.Errorf("tool %s: %s", name, out.Content[0].Text)
	}
	return out.Content[0].Text, nil
}

func (c *Client) Health(ctx context.Context) (*protocol.HealthResponse, error) {
	text, err := c.CallTool(ctx, "health", nil)
	if err != nil {
		return nil, err
	}
	var health protocol.HealthResponse
	if err := json.Unmarshal([]byte(text), &health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &health, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func rawParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(params)
}
