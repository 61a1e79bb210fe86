package knowledge

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := NewHashEmbedder(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"bitcoin price trend"})
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"bitcoin price trend"})
	require.NoError(t, err)

	assert.Equal(t, a[0], b[0])
	assert.Len(t, a[0], 128)
}

func TestHashEmbedderVectorsAreNormalized(t *testing.T) {
	e := NewHashEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"risk management and stop losses"})
	require.NoError(t, err)

	var norm float64
	for _, f := range vecs[0] {
		norm += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedderSimilarTextScoresHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{
		"bitcoin halving schedule",
		"bitcoin halving event timing",
		"recipe for tomato soup",
	})
	require.NoError(t, err)

	related := cosineSimilarity(vecs[0], vecs[1])
	unrelated := cosineSimilarity(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder(16)
	vecs, err := e.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Len(t, vecs[0], 16)
}

func TestHashEmbedderDefaultDimension(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, 256, e.Dimensions())
}
