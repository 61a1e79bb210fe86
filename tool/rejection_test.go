package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionIsDeterministic(t *testing.T) {
	tool := NewRejectionTool()
	args := map[string]any{"query": "What's the weather in Mumbai today?"}

	first, err := tool.Call(context.Background(), args)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := tool.Call(context.Background(), args)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRejectionMentionsTopicAndRedirect(t *testing.T) {
	tool := NewRejectionTool()

	out, err := tool.Call(context.Background(), map[string]any{"query": "Will it rain? The weather looks bad."})
	require.NoError(t, err)
	assert.Contains(t, out, "weather")
	assert.Contains(t, out, redirectURL)
}

func TestRejectionTopicDetection(t *testing.T) {
	cases := []struct {
		query string
		topic string
	}{
		{"who won the sports match", "sports"},
		{"latest political news about politics", "politics"},
		{"how do I cook pasta", "cooking"},
		{"recommend a movie", "entertainment"},
		{"tell me a joke", "general topics"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.topic, detectTopic(tc.query), "query %q", tc.query)
	}
}

func TestRejectionUsesOnlyKnownTemplates(t *testing.T) {
	tool := NewRejectionTool()

	out, err := tool.Call(context.Background(), map[string]any{"query": "history of rome"})
	require.NoError(t, err)

	matched := false
	for _, tmpl := range rejectionTemplates {
		// Compare against the template's fixed prefix before the first placeholder.
		prefix := tmpl[:strings.Index(tmpl, "%s")]
		if strings.HasPrefix(out, prefix) {
			matched = true
		}
	}
	assert.True(t, matched, "output did not match any template: %s", out)
}
