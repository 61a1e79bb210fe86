package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEducationToolAnswersGlossaryTerms(t *testing.T) {
	tool := NewEducationTool()

	out, err := tool.Call(context.Background(), map[string]any{"query": "What does RSI mean?"})
	require.NoError(t, err)
	assert.Contains(t, out, "Relative Strength Index")
	assert.Contains(t, out, educationDisclaimer)
}

func TestEducationToolFirstMatchWins(t *testing.T) {
	tool := NewEducationTool()

	// Both rsi and macd appear; glossary order decides.
	out, err := tool.Call(context.Background(), map[string]any{"query": "compare macd with rsi"})
	require.NoError(t, err)
	assert.Contains(t, out, "Relative Strength Index")
}

func TestEducationToolFallback(t *testing.T) {
	tool := NewEducationTool()

	out, err := tool.Call(context.Background(), map[string]any{"query": "how do I start trading"})
	require.NoError(t, err)
	assert.Equal(t, educationFallback, out)
}
