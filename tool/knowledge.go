package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neilh44/cryptobot/internal/schema"
	"github.com/neilh44/cryptobot/knowledge"
)

const (
	knowledgeToolName = "search_knowledge_base"

	knowledgeDescription = `Search the crypto trading knowledge base for educational content:
trading strategies, technical analysis, risk management and market concepts.
Input is a free-text query plus an optional number of results.`

	defaultKnowledgeResults = 5
)

// Searcher is the slice of the knowledge index the tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Match, error)
}

// KnowledgeTool answers educational queries from the vector-backed knowledge
// base. When the index is unavailable it reports that explicitly instead of
// failing silently.
type KnowledgeTool struct {
	searcher Searcher
}

// NewKnowledgeTool creates the knowledge-base search tool. A nil searcher is
// allowed and reported as an unavailable index at call time.
func NewKnowledgeTool(searcher Searcher) *KnowledgeTool {
	return &KnowledgeTool{searcher: searcher}
}

// Name implements Tool.
func (t *KnowledgeTool) Name() string { return knowledgeToolName }

// Description implements Tool.
func (t *KnowledgeTool) Description() string { return knowledgeDescription }

// Parameters implements Tool.
func (t *KnowledgeTool) Parameters() map[string]any {
	return schema.Object(map[string]any{
		"query": schema.String("The search query for the knowledge base"),
		"k":     schema.Integer("Number of results to return (default 5)"),
	}, "query")
}

type knowledgeResult struct {
	Rank    int     `json:"rank"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

type knowledgePayload struct {
	Query        string            `json:"query"`
	Results      []knowledgeResult `json:"results"`
	TotalResults int               `json:"total_results"`
}

// Call implements Tool.
func (t *KnowledgeTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.searcher == nil {
		return "The knowledge base is not available right now. Please check the configuration.", nil
	}

	query, _ := args["query"].(string)
	k := defaultKnowledgeResults
	if raw, ok := args["k"].(float64); ok && raw > 0 {
		k = int(raw)
	}

	matches, err := t.searcher.Search(ctx, query, k)
	if err != nil {
		return "The knowledge base is not available right now: " + err.Error(), nil
	}
	if len(matches) == 0 {
		return "No relevant information found in the knowledge base.", nil
	}

	payload := knowledgePayload{Query: query, TotalResults: len(matches)}
	for i, m := range matches {
		payload.Results = append(payload.Results, knowledgeResult{
			Rank:    i + 1,
			Content: m.Content,
			Source:  m.Source,
			Score:   m.Score,
		})
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal knowledge payload: %w", err)
	}
	return string(out), nil
}
