// Package model defines the gateway between the agent loop and a language
// model's tool-calling capability. A Model receives a transcript plus a tool
// catalog and returns a Completion that is either a final text answer or a
// batch of requested tool calls. Provider adapters live in subpackages
// (model/groq, model/anthropic); the rest of the system depends only on the
// interfaces defined here.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable signals that the upstream model could not be reached or
// returned an unusable response shape. The gateway never degrades to a
// fallback answer on its own; that decision belongs to the agent loop.
var ErrUnavailable = errors.New("model unavailable")

// Role identifies the author of a transcript turn.
type Role string

// Transcript roles. RoleTool carries a tool result correlated to a prior
// assistant tool call via Turn.ToolCallID.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON object produced by the model; validation happens downstream.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Turn is one entry of the transcript submitted to a model.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant turns requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool turns answering a request
}

// ToolDefinition advertises a callable tool to the model. Parameters is a
// JSON Schema object (minimal subset, see internal/schema).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized model input built by the agent loop.
type Request struct {
	Instructions string           `json:"instructions"`
	Turns        []Turn           `json:"turns"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Completion is the discriminated result of one model call: a non-empty
// ToolCalls slice means the model wants tools executed, otherwise Text is
// the final answer.
type Completion struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// IsFinal reports whether the completion carries a final answer rather than
// tool call requests.
func (c *Completion) IsFinal() bool { return len(c.ToolCalls) == 0 }

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the agent loop needs to drive generation.
// Implementations must honor ctx cancellation and wrap connectivity or
// response-shape failures in ErrUnavailable.
type Model interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Info() Info
}

// MockModel is an in-memory Model that replays a scripted sequence of
// completions (or errors) and records every request it receives. Useful for
// tests and examples.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	script   []scriptStep
	requests []Request
}

type scriptStep struct {
	completion *Completion
	err        error
}

// NewMockModel constructs an empty scripted model with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// EnqueueCompletion appends a completion to the replay script.
func (m *MockModel) EnqueueCompletion(c *Completion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{completion: c})
}

// EnqueueError appends an error step to the replay script.
func (m *MockModel) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{err: err})
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete replays the next scripted step. When the script is exhausted the
// last step repeats, so a single enqueued completion acts as a constant
// responder.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return &Completion{Text: "mock response"}, nil
	}

	step := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	if step.err != nil {
		return nil, step.err
	}
	return step.completion, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
