package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilh44/cryptobot/internal/schema"
	"github.com/neilh44/cryptobot/memory"
	"github.com/neilh44/cryptobot/model"
	"github.com/neilh44/cryptobot/tool"
)

func newTestAgent(t *testing.T, m *model.MockModel, tools ...tool.Tool) *Agent {
	t.Helper()
	registry := tool.NewRegistry()
	registry.MustRegister(tools...)
	return New(m, registry, NewExecutor(registry))
}

func priceStubTool() tool.Tool {
	return tool.NewFuncTool(
		"get_crypto_price",
		"stub price lookup",
		schema.Object(map[string]any{"symbol": schema.String("pair")}, "symbol"),
		func(_ context.Context, args map[string]any) (string, error) {
			out, _ := json.Marshal(map[string]any{
				"symbol":        args["symbol"],
				"current_price": 50000.0,
				"trend":         "up",
			})
			return string(out), nil
		},
	)
}

func TestProcessPriceQuestion(t *testing.T) {
	mock := model.NewMockModel("scripted")
	mock.EnqueueCompletion(&model.Completion{ToolCalls: []model.ToolCall{
		{ID: "call_1", Name: "get_crypto_price", Arguments: []byte(`{"symbol":"BTCUSDT"}`)},
	}})
	mock.EnqueueCompletion(&model.Completion{Text: "Bitcoin is trading at $50,000, trending up."})

	a := newTestAgent(t, mock, priceStubTool())
	mem := memory.NewWindow(10)

	answer, err := a.Process(context.Background(), mem, "What is the Bitcoin price?")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin is trading at $50,000, trending up.", answer)

	// One completed exchange: exactly two new turns.
	turns := mem.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "What is the Bitcoin price?", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)

	// The second model request must carry the tool result, correlated by id.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Turns[len(reqs[1].Turns)-1]
	assert.Equal(t, model.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, "50000")
}

func TestProcessOffTopicQuestion(t *testing.T) {
	mock := model.NewMockModel("scripted")
	mock.EnqueueCompletion(&model.Completion{ToolCalls: []model.ToolCall{
		{ID: "call_1", Name: "reject_off_topic", Arguments: []byte(`{"query":"what is the weather today"}`)},
	}})
	mock.EnqueueCompletion(&model.Completion{Text: "relayed rejection"})

	a := newTestAgent(t, mock, tool.NewRejectionTool())
	mem := memory.NewWindow(10)

	_, err := a.Process(context.Background(), mem, "what is the weather today")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	toolTurn := reqs[1].Turns[len(reqs[1].Turns)-1]
	assert.Equal(t, model.RoleTool, toolTurn.Role)
	assert.Contains(t, toolTurn.Content, "weather")
	assert.Contains(t, toolTurn.Content, "https://automatealgos.in")
}

func TestProcessModelUnavailableNotPersisted(t *testing.T) {
	mock := model.NewMockModel("down")
	mock.EnqueueError(model.ErrUnavailable)

	a := newTestAgent(t, mock, priceStubTool())
	mem := memory.NewWindow(10)
	mem.AppendExchange("earlier question", "earlier answer")

	answer, err := a.Process(context.Background(), mem, "price of eth?")
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.Equal(t, unavailableApology, answer)

	// History is untouched so a retry sees the same transcript.
	assert.Equal(t, 2, mem.Len())
}

func TestProcessStopsAtIterationCeiling(t *testing.T) {
	mock := model.NewMockModel("looping")
	// A single scripted step repeats forever, always requesting another call.
	mock.EnqueueCompletion(&model.Completion{ToolCalls: []model.ToolCall{
		{ID: "call_x", Name: "get_crypto_price", Arguments: []byte(`{"symbol":"BTCUSDT"}`)},
	}})

	registry := tool.NewRegistry()
	registry.MustRegister(priceStubTool())
	a := New(mock, registry, NewExecutor(registry), func(o *Options) { o.MaxIterations = 3 })
	mem := memory.NewWindow(10)

	answer, err := a.Process(context.Background(), mem, "loop forever")
	require.NoError(t, err)
	assert.Equal(t, degradedAnswer, answer)
	assert.Len(t, mock.Requests(), 3)

	// Degraded answers are persisted like normal exchanges.
	turns := mem.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, degradedAnswer, turns[1].Content)
}

func TestProcessFailedToolFedBackAsError(t *testing.T) {
	mock := model.NewMockModel("scripted")
	mock.EnqueueCompletion(&model.Completion{ToolCalls: []model.ToolCall{
		{ID: "call_1", Name: "no_such_tool", Arguments: []byte(`{}`)},
	}})
	mock.EnqueueCompletion(&model.Completion{Text: "I could not look that up."})

	a := newTestAgent(t, mock, priceStubTool())
	mem := memory.NewWindow(10)

	answer, err := a.Process(context.Background(), mem, "do something odd")
	require.NoError(t, err)
	assert.Equal(t, "I could not look that up.", answer)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	toolTurn := reqs[1].Turns[len(reqs[1].Turns)-1]

	var payload struct {
		Error   bool   `json:"error"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(toolTurn.Content), &payload))
	assert.True(t, payload.Error)
	assert.Equal(t, string(tool.ErrorKindUnknownTool), payload.Kind)
}

func TestProcessEmptyFinalTextDegrades(t *testing.T) {
	mock := model.NewMockModel("empty")
	mock.EnqueueCompletion(&model.Completion{Text: ""})

	a := newTestAgent(t, mock, priceStubTool())
	mem := memory.NewWindow(10)

	answer, err := a.Process(context.Background(), mem, "hello")
	require.NoError(t, err)
	assert.Equal(t, degradedAnswer, answer)
	assert.Equal(t, 2, mem.Len())
}

func TestProcessSendsToolCatalog(t *testing.T) {
	mock := model.NewMockModel("scripted")
	mock.EnqueueCompletion(&model.Completion{Text: "hi"})

	a := newTestAgent(t, mock, priceStubTool(), tool.NewRejectionTool())
	mem := memory.NewWindow(10)

	_, err := a.Process(context.Background(), mem, "hello")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 2)
	assert.Equal(t, "get_crypto_price", reqs[0].Tools[0].Name)
	assert.Equal(t, "reject_off_topic", reqs[0].Tools[1].Name)
	assert.NotEmpty(t, reqs[0].Instructions)
}
