package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neilh44/cryptobot/internal/schema"
	"github.com/neilh44/cryptobot/model"
	"github.com/neilh44/cryptobot/tool"
)

// Executor runs requested tool calls against the registry. Every fault a
// handler can produce (validation miss, error return, panic, timeout) is
// converted into a tool.Result failure; nothing crosses the executor boundary
// as a raw fault.
type Executor struct {
	registry    *tool.Registry
	maxParallel int
	toolTimeout time.Duration
	logger      *slog.Logger
}

// ExecutorOptions configure tool execution.
type ExecutorOptions struct {
	MaxParallel int           // concurrent fan-out bound, default 4
	ToolTimeout time.Duration // per-call ceiling, default 15s
	Logger      *slog.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *tool.Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		MaxParallel: 4,
		ToolTimeout: 15 * time.Second,
		Logger:      slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	return &Executor{
		registry:    registry,
		maxParallel: opts.MaxParallel,
		toolTimeout: opts.ToolTimeout,
		logger:      opts.Logger,
	}
}

// Execute resolves, validates and invokes a single requested tool call.
func (e *Executor) Execute(ctx context.Context, call model.ToolCall) tool.Result {
	impl, err := e.registry.Get(call.Name)
	if err != nil {
		e.logger.Warn("tool.unknown", "tool", call.Name, "call_id", call.ID)
		return tool.Failure(call.ID, call.Name, tool.ErrorKindUnknownTool, err.Error())
	}

	args := map[string]any{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return tool.Failure(call.ID, call.Name, tool.ErrorKindInvalidArguments,
				fmt.Sprintf("arguments are not a JSON object: %v", err))
		}
	}

	// Malformed input never reaches the handler.
	if err := schema.Validate(args, impl.Parameters()); err != nil {
		e.logger.Warn("tool.invalid_arguments", "tool", call.Name, "call_id", call.ID, "error", err)
		return tool.Failure(call.ID, call.Name, tool.ErrorKindInvalidArguments, err.Error())
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if e.toolTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}

	start := time.Now()
	content, err := e.invoke(callCtx, impl, args)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("tool timed out after %s", e.toolTimeout)
		}
		e.logger.Error("tool.call.failed",
			"tool", call.Name,
			"call_id", call.ID,
			"duration_ms", duration.Milliseconds(),
			"error_kind", string(tool.ErrorKindRuntimeError),
			"error", err,
		)
		return tool.Failure(call.ID, call.Name, tool.ErrorKindRuntimeError, err.Error())
	}

	e.logger.Info("tool.call.success",
		"tool", call.Name,
		"call_id", call.ID,
		"duration_ms", duration.Milliseconds(),
	)
	return tool.Success(call.ID, call.Name, content)
}

// invoke runs the handler with panic recovery.
func (e *Executor) invoke(ctx context.Context, impl tool.Tool, args map[string]any) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return impl.Call(ctx, args)
}

// ExecuteAll dispatches a batch of tool calls with bounded concurrency.
// Calls are independent: a failure in one never cancels its siblings.
// Results are returned in the order the calls were requested, regardless of
// completion order, so transcripts stay reproducible.
func (e *Executor) ExecuteAll(ctx context.Context, calls []model.ToolCall) []tool.Result {
	if len(calls) == 0 {
		return nil
	}
	if len(calls) == 1 {
		return []tool.Result{e.Execute(ctx, calls[0])}
	}

	results := make([]tool.Result, len(calls))
	sem := make(chan struct{}, e.maxParallel)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, c model.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.Execute(ctx, c)
		}(i, call)
	}
	wg.Wait()

	return results
}
