package knowledge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Add(ctx, []Chunk{
		{Content: "RSI measures momentum", Source: "indicators.md", Embedding: []float32{1, 0, 0}},
		{Content: "MACD tracks moving averages", Source: "indicators.md", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "RSI measures momentum", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestStoreSearchRanksBySimilarity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Chunk{
		{Content: "far", Source: "a", Embedding: []float32{0, 1}},
		{Content: "near", Source: "b", Embedding: []float32{0.9, 0.1}},
		{Content: "exact", Source: "c", Embedding: []float32{1, 0}},
	}))

	matches, err := store.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Content)
	assert.Equal(t, "near", matches[1].Content)
	assert.Equal(t, "far", matches[2].Content)
}

func TestStoreReset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Chunk{{Content: "x", Source: "s", Embedding: []float32{1}}}))
	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.14159, 0}
	out := decodeVector(encodeVector(in))
	assert.Equal(t, in, out)
}

func TestIndexSearchUsesEmbedder(t *testing.T) {
	store := openTestStore(t)
	index := NewIndex(store, NewHashEmbedder(64))
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, []string{
		"Bitcoin halving reduces miner rewards",
		"Pasta should be cooked al dente",
	}, "mixed.txt"))

	matches, err := index.Search(ctx, "bitcoin halving rewards", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "Bitcoin halving")
}
