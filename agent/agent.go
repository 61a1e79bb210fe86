// Package agent implements the tool-routing conversation loop. Each Process
// call takes the user's message plus the session's retained history, drives
// the model through as many tool rounds as it requests (bounded by
// MaxIterations) and returns the final answer text.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neilh44/cryptobot/memory"
	"github.com/neilh44/cryptobot/model"
	"github.com/neilh44/cryptobot/tool"
)

// Fallback answers for the two degraded paths. The unavailable apology is
// returned together with the wrapped error and the exchange is not persisted;
// the ceiling answer is a normal, persisted exchange.
const (
	unavailableApology = "I'm having trouble reaching my language model right now. Please try again in a moment."
	degradedAnswer     = "I was unable to complete this request. Please try rephrasing your question."
)

// Options configure an Agent.
type Options struct {
	Instructions  string        // system prompt, defaults to the built-in routing prompt
	MaxIterations int           // model round ceiling per Process call, default 8
	ModelTimeout  time.Duration // per model call, default 60s
	Logger        *slog.Logger
}

// Agent drives the conversation loop over one model and one tool registry.
// Safe for concurrent use; per-session ordering is the caller's concern.
type Agent struct {
	model         model.Model
	registry      *tool.Registry
	executor      *Executor
	instructions  string
	maxIterations int
	modelTimeout  time.Duration
	logger        *slog.Logger
}

// New creates an agent over the given model and registry.
func New(m model.Model, registry *tool.Registry, executor *Executor, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instructions:  defaultInstructions,
		MaxIterations: 8,
		ModelTimeout:  60 * time.Second,
		Logger:        slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 8
	}
	return &Agent{
		model:         m,
		registry:      registry,
		executor:      executor,
		instructions:  opts.Instructions,
		maxIterations: opts.MaxIterations,
		modelTimeout:  opts.ModelTimeout,
		logger:        opts.Logger,
	}
}

// Process runs one exchange. On success the exchange (user message, final
// answer) is appended to mem. When the model is unavailable it returns the
// apology text together with a model.ErrUnavailable error and leaves mem
// untouched, so a retry sees the same history. Hitting the iteration ceiling
// yields a degraded answer that is persisted like a normal exchange.
func (a *Agent) Process(ctx context.Context, mem *memory.Window, userText string) (string, error) {
	turns := append(mem.Turns(), model.Turn{Role: model.RoleUser, Content: userText})
	tools := a.toolDefinitions()

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		completion, err := a.complete(ctx, model.Request{
			Instructions: a.instructions,
			Turns:        turns,
			Tools:        tools,
		})
		if err != nil {
			a.logger.Error("agent.model.failed", "iteration", iteration, "error", err)
			if errors.Is(err, model.ErrUnavailable) {
				return unavailableApology, err
			}
			return unavailableApology, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
		}

		if completion.IsFinal() {
			answer := completion.Text
			if answer == "" {
				// A final completion with no text is a provider glitch,
				// treated like hitting the ceiling.
				answer = degradedAnswer
			}
			mem.AppendExchange(userText, answer)
			a.logger.Info("agent.exchange.done", "iterations", iteration)
			return answer, nil
		}

		a.logger.Info("agent.tools.requested", "iteration", iteration, "count", len(completion.ToolCalls))

		turns = append(turns, model.Turn{
			Role:      model.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		results := a.executor.ExecuteAll(ctx, completion.ToolCalls)
		for _, res := range results {
			turns = append(turns, model.Turn{
				Role:       model.RoleTool,
				Content:    resultContent(res),
				ToolCallID: res.CallID,
			})
		}
	}

	a.logger.Warn("agent.iterations.exhausted", "max_iterations", a.maxIterations)
	mem.AppendExchange(userText, degradedAnswer)
	return degradedAnswer, nil
}

// complete performs one model call under the configured timeout.
func (a *Agent) complete(ctx context.Context, req model.Request) (*model.Completion, error) {
	if a.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.modelTimeout)
		defer cancel()
	}
	return a.model.Complete(ctx, req)
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	specs := a.registry.Specs()
	defs := make([]model.ToolDefinition, len(specs))
	for i, s := range specs {
		defs[i] = model.ToolDefinition{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.Parameters,
		}
	}
	return defs
}

// resultContent renders a tool result as the tool turn's content. Failures
// become a structured JSON error payload the model can read and explain.
func resultContent(res tool.Result) string {
	if res.OK() {
		return res.Content
	}
	payload, err := json.Marshal(map[string]any{
		"error":   true,
		"kind":    string(res.Err.Kind),
		"message": res.Err.Message,
	})
	if err != nil {
		return fmt.Sprintf(`{"error":true,"kind":%q,"message":"tool failed"}`, res.Err.Kind)
	}
	return string(payload)
}
