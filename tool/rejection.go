package tool

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/neilh44/cryptobot/internal/schema"
)

const (
	rejectionToolName = "reject_off_topic"

	rejectionDescription = `Handle questions that are NOT about cryptocurrency trading.
Use this immediately for topics like weather, sports, politics, cooking, travel,
health, entertainment, general knowledge, history or science. Do NOT use it for
cryptocurrency prices, trading strategies, technical analysis or crypto education.`

	redirectURL = "https://automatealgos.in"
)

// topicKeywords maps query keywords to the topic category named in the
// redirect message. Order matters: first match wins.
var topicKeywords = []struct {
	keyword string
	topic   string
}{
	{"weather", "weather"},
	{"sport", "sports"},
	{"politic", "politics"},
	{"cook", "cooking"},
	{"travel", "travel"},
	{"health", "health"},
	{"movie", "entertainment"},
	{"book", "books"},
	{"music", "music"},
	{"news", "general news"},
	{"science", "science"},
	{"history", "history"},
}

// rejectionTemplates are the fixed response variants. The %s placeholders are
// the detected topic and the redirect URL, in that order.
var rejectionTemplates = []string{
	"I'm specialized in cryptocurrency trading only!\n\nFor %s questions, check out %s\n\nI can help with:\n- Crypto prices and market data\n- Trading strategies\n- Crypto education\n\nWhat crypto trading topic can I assist with?",
	"I focus exclusively on crypto trading assistance!\n\nFor %s related queries, visit %s\n\nI'm your go-to for:\n- Live crypto prices\n- Technical analysis\n- Risk management\n\nAny crypto trading questions?",
	"My expertise is cryptocurrency trading only!\n\nFor %s information, please see %s\n\nI can help you with:\n- Market insights\n- Trading education\n- Strategy guidance\n\nWhat's your crypto trading question?",
}

// RejectionTool produces a polite redirect for off-topic queries. It is a
// pure function of the query text: the same input always yields byte-identical
// output, which keeps routing behavior testable.
type RejectionTool struct{}

// NewRejectionTool creates the off-topic rejection tool.
func NewRejectionTool() *RejectionTool { return &RejectionTool{} }

// Name implements Tool.
func (t *RejectionTool) Name() string { return rejectionToolName }

// Description implements Tool.
func (t *RejectionTool) Description() string { return rejectionDescription }

// Parameters implements Tool.
func (t *RejectionTool) Parameters() map[string]any {
	return schema.Object(map[string]any{
		"query": schema.String("The user's non-trading query that should be rejected"),
	}, "query")
}

// Call implements Tool. The template index is an FNV-1a hash of the query, so
// responses vary across different queries but never for the same one.
func (t *RejectionTool) Call(_ context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	topic := detectTopic(query)

	h := fnv.New32a()
	h.Write([]byte(query))
	template := rejectionTemplates[h.Sum32()%uint32(len(rejectionTemplates))]

	return fmt.Sprintf(template, topic, redirectURL), nil
}

// detectTopic returns the first matching topic category for the query, or
// "general topics" when nothing matches.
func detectTopic(query string) string {
	lower := strings.ToLower(query)
	for _, entry := range topicKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.topic
		}
	}
	return "general topics"
}
