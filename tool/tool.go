// Package tool implements the callable capabilities the model may request:
// the market-data lookup, knowledge-base search, off-topic rejection and
// education tools, plus the registry that owns their schemas and an error
// taxonomy shared with the executor.
package tool

import (
	"context"
	"fmt"
)

// Tool is a named, schema-described callable the model may request. Call
// returns the payload handed back to the model as a tool turn; it should be
// JSON for structured data. Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier used in function call routing.
	Name() string

	// Description tells the model when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-validated arguments.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// ErrorKind categorizes tool execution failures.
type ErrorKind string

// Failure taxonomy. UnknownTool and InvalidArguments are produced before the
// handler runs; RuntimeError wraps any fault the handler raises.
const (
	ErrorKindUnknownTool      ErrorKind = "unknown_tool"
	ErrorKindInvalidArguments ErrorKind = "invalid_arguments"
	ErrorKindRuntimeError     ErrorKind = "tool_runtime_error"
)

// Error is a structured tool failure. It is always returned as data inside a
// Result, never raised across the executor boundary.
type Error struct {
	Tool    string    `json:"tool"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Kind, e.Tool, e.Message)
}

// Result is the outcome of executing one requested tool call, correlated to
// the request via CallID. Exactly one of Content/Err is meaningful.
type Result struct {
	CallID  string `json:"call_id"`
	Tool    string `json:"tool"`
	Content string `json:"content,omitempty"`
	Err     *Error `json:"error,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Success builds a successful result.
func Success(callID, toolName, content string) Result {
	return Result{CallID: callID, Tool: toolName, Content: content}
}

// Failure builds a failed result.
func Failure(callID, toolName string, kind ErrorKind, message string) Result {
	return Result{CallID: callID, Tool: toolName, Err: &Error{Tool: toolName, Kind: kind, Message: message}}
}

// FuncTool adapts a plain Go function into a Tool. It carries no internal
// state after construction and is safe for concurrent use.
type FuncTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// NewFuncTool constructs a FuncTool from an explicit schema and function.
func NewFuncTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (string, error),
) *FuncTool {
	return &FuncTool{name: name, description: description, parameters: parameters, fn: fn}
}

// Name implements Tool.
func (t *FuncTool) Name() string { return t.name }

// Description implements Tool.
func (t *FuncTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FuncTool) Parameters() map[string]any { return t.parameters }

// Call implements Tool.
func (t *FuncTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}
