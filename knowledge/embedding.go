package knowledge

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Embedder turns text into normalized vectors. Implementations must be safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// HashEmbedder is a deterministic local embedder using feature hashing over
// lowercase word tokens. It captures lexical overlap only, no semantics, but
// it needs no network and always produces the same vector for the same text,
// which makes it the default for development and tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a feature-hashing embedder. Dimension defaults to
// 256 when non-positive.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

// Dimensions implements Embedder.
func (e *HashEmbedder) Dimensions() int { return e.dim }

// Embed implements Embedder.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		idx := int(sum) % e.dim
		if idx < 0 {
			idx += e.dim
		}
		// Sign trick spreads tokens across both directions, reducing
		// collisions' impact on similarity.
		if sum&1 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}
	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var norm float64
	for _, f := range vec {
		norm += float64(f) * float64(f)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// OpenAIEmbedderOptions configure the remote embedder.
type OpenAIEmbedderOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Dim     int
}

// OpenAIEmbedder produces embeddings via an OpenAI-compatible embeddings
// endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dim    int
}

// NewOpenAIEmbedder creates a remote embedder. Model defaults to
// text-embedding-3-small (1536 dimensions).
func NewOpenAIEmbedder(optFns ...func(o *OpenAIEmbedderOptions)) *OpenAIEmbedder {
	opts := OpenAIEmbedderOptions{
		Model: string(openai.EmbeddingModelTextEmbedding3Small),
		Dim:   1536,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(clientOpts...),
		model:  opts.Model,
		dim:    opts.Dim,
	}
}

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int { return e.dim }

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings api error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings api returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		normalize(vec)
		out[i] = vec
	}
	return out, nil
}
