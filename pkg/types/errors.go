package types

import (
	"errors"
	"fmt"
)

// Domain errors for diagnostic validation
var (
	ErrInvalidLine   = errors.New("line must be >= 1")
	ErrInvalidColumn = errors.New("column must be >= 1")
	ErrEmptyMessage  = errors.New("message cannot be empty")
)

// ErrorKind classifies a tool failure for the caller.
type ErrorKind string

const (
	// KindInvalidArgument is a schema or bounds violation. Caller-fixable,
	// never retried automatically.
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindNotFound is an unknown tool name.
	KindNotFound ErrorKind = "not_found"
	// KindTimeout means the operation exceeded its time bound.
	KindTimeout ErrorKind = "timeout"
	// KindToolchainMissing means an external executable could not be located.
	KindToolchainMissing ErrorKind = "toolchain_missing"
	// KindInternal is an unexpected failure. Detail is logged; callers see
	// a generic message.
	KindInternal ErrorKind = "internal"
)

// ToolError is the only error shape that crosses the tool boundary.
// Handler-level failures are converted into one before being returned.
type ToolError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewToolError creates a classified tool error.
func NewToolError(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from an error chain. Errors that
// are not ToolErrors classify as internal.
func KindOf(err error) ErrorKind {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// ToolResult is the envelope returned for every tool invocation: either
// a payload string or a classified error, never both.
type ToolResult struct {
	OK      bool
	Payload string
	Err     *ToolError
}

// Success wraps a payload in a successful envelope.
func Success(payload string) ToolResult {
	return ToolResult{OK: true, Payload: payload}
}

// Failure wraps a classified error in a failed envelope.
func Failure(err *ToolError) ToolResult {
	return ToolResult{Err: err}
}
