package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"multitenant-rag-platform/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder turns text into a dense vector. Implementations must be safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// NewEmbedder selects the embedding provider from configuration.
// Default is the local hashing embedder, which needs no API key and is
// deterministic.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case "local", "":
		return NewHashingEmbedder(cfg.EmbeddingDimensions), nil
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		return NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

// HashingEmbedder is a deterministic feature-hashing embedder: each
// token is hashed into one of dim buckets, weighted by term frequency,
// and the vector is L2-normalized. Identical texts always produce
// identical vectors, so cosine search behaves reproducibly without any
// external model.
type HashingEmbedder struct {
	dim int
}

func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashingEmbedder{dim: dim}
}

func (e *HashingEmbedder) Dimensions() int { return e.dim }

func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// GeminiEmbedder calls Google Generative AI (text-embedding-004) for
// embeddings.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(apiKey, model string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// Dimensions for text-embedding-004.
func (e *GeminiEmbedder) Dimensions() int { return 768 }

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
