// Package groq implements model.Model against Groq's OpenAI-compatible Chat
// Completions API (including function/tool calling) using the official OpenAI
// Go client pointed at the Groq endpoint.
package groq

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/neilh44/cryptobot/model"
)

// DefaultBaseURL is the Groq OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Options configure the Groq model adapter. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Model wraps the Chat Completions API behind the generic model.Model interface.
type Model struct {
	client openai.Client
	opts   Options
}

// NewModel creates a Groq-backed model adapter.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		BaseURL:     DefaultBaseURL,
		Model:       "moonshotai/kimi-k2-instruct",
		Temperature: 0.1,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithBaseURL(opts.BaseURL)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	return &Model{client: openai.NewClient(clientOpts...), opts: opts}
}

// Complete performs a single non-streaming chat completion and normalizes the
// response into a model.Completion. Connectivity failures and malformed
// responses are wrapped in model.ErrUnavailable.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Completion, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: groq api error: %v", model.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", model.ErrUnavailable)
	}

	choice := resp.Choices[0]
	completion := &model.Completion{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return completion, nil
}

// Info returns metadata describing this adapter.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "groq", SupportsTools: true}
}

func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// buildMessages converts the normalized transcript into provider messages.
// The transcript already interleaves tool turns directly after the assistant
// turn that requested them, so the conversion is a straight pass.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, turn := range req.Turns {
		switch turn.Role {
		case model.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case model.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case model.RoleAssistant:
			if len(turn.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(turn.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(turn.ToolCalls))
			for i, tc := range turn.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case model.RoleTool:
			messages = append(messages, openai.ToolMessage(turn.Content, turn.ToolCallID))
		default:
			if turn.Content != "" {
				messages = append(messages, openai.UserMessage(turn.Content))
			}
		}
	}
	return messages
}
