package tools

import (
	"errors"
	"fmt"
	"time"

	"github.com/alucardeht/prosaic/pkg/protocol"
)

type ToolError struct {
	Code    int
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

func NewToolNotFoundError(name string) *ToolError {
	return &ToolError{
		Code:    protocol.CodeMethodNotFound,
		Message: fmt.Sprintf("Tool not found: %s", name),
	}
}

func NewInvalidParamsError(format string, args ...any) *ToolError {
	return &ToolError{
		Code:    protocol.CodeInvalidParams,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewToolTimeoutError(name string, timeout time.Duration) *ToolError {
	return &ToolError{
		Code:    protocol.CodeInternalError,
		Message: fmt.Sprintf("Tool %s timed out after %s", name, timeout),
	}
}

func NewToolExecutionError(name string, err error) *ToolError {
	return &ToolError{
		Code:    protocol.CodeInternalError,
		Message: fmt.Sprintf("Error executing tool %s: %v", name, err),
	}
}

// ErrorCode maps err to a JSON-RPC error code.
func ErrorCode(err error) int {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Code
	}
	return protocol.CodeInternalError
}
