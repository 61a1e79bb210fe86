package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/neilh44/cryptobot/internal/schema"
)

const (
	educationToolName = "crypto_education"

	educationDescription = `Answer basic cryptocurrency trading education questions from a
built-in glossary: technical indicators, risk management and market basics.
Works without the knowledge base; prefer search_knowledge_base when it is
available and the question is specific.`

	educationDisclaimer = "Educational content only - not financial advice."
)

// glossary holds lowercase terms with short explanations. Ordered so lookups
// are deterministic when a query mentions several terms; first match wins.
var glossary = []struct {
	term string
	info string
}{
	{"rsi", "RSI (Relative Strength Index) measures momentum. Values above 70 suggest overbought, below 30 oversold."},
	{"macd", "MACD shows the relationship between two moving averages and helps identify trend changes."},
	{"support", "Support is a price level where buying interest emerges, acting like a floor."},
	{"resistance", "Resistance is where selling pressure emerges, acting like a ceiling."},
	{"stop loss", "A stop-loss automatically sells when price hits a predetermined level to limit losses."},
	{"stop-loss", "A stop-loss automatically sells when price hits a predetermined level to limit losses."},
	{"market cap", "Market cap = current price x circulating supply. It shows the total value of a cryptocurrency."},
	{"volatility", "Crypto markets are highly volatile - prices can change rapidly in either direction."},
	{"risk management", "Key rules: never invest more than you can afford to lose, use stop losses, diversify."},
}

const educationFallback = `Crypto trading basics:

Key principles:
- Start small while learning
- Use stop losses to manage risk
- Don't trade on emotions
- Study market trends and news

Popular indicators:
- RSI: momentum indicator
- MACD: trend changes
- Support/resistance levels

Risk warning: crypto trading is risky. Only invest what you can afford to lose.`

// EducationTool serves canned trading education answers. Pure function of the
// query, no external dependencies.
type EducationTool struct{}

// NewEducationTool creates the glossary tool.
func NewEducationTool() *EducationTool { return &EducationTool{} }

// Name implements Tool.
func (t *EducationTool) Name() string { return educationToolName }

// Description implements Tool.
func (t *EducationTool) Description() string { return educationDescription }

// Parameters implements Tool.
func (t *EducationTool) Parameters() map[string]any {
	return schema.Object(map[string]any{
		"query": schema.String("Crypto trading question"),
	}, "query")
}

// Call implements Tool.
func (t *EducationTool) Call(_ context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	lower := strings.ToLower(query)

	for _, entry := range glossary {
		if strings.Contains(lower, entry.term) {
			return fmt.Sprintf("%s: %s\n\n%s", strings.ToUpper(entry.term), entry.info, educationDisclaimer), nil
		}
	}
	return educationFallback, nil
}
