// Package embedding provides vector embedding generation for the
// task classifier. Supports multiple backends: Ollama (local), Google
// GenAI (cloud), and a deterministic lexical fallback that needs no
// service at all.
package embedding

import (
	"context"
	"fmt"
	"math"

	"dirigent/internal/config"
	"dirigent/internal/logging"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings
	Dimensions() int

	// Name returns the engine name
	Name() string
}

// NewEngine creates an embedding engine based on configuration.
func NewEngine(cfg config.EmbeddingConfig) (Engine, error) {
	logging.Embedding("Creating embedding engine with provider=%s", cfg.Provider)

	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel), nil
	case "genai":
		return NewGenAIEngine(cfg.GenAIAPIKey, cfg.GenAIModel)
	case "hash":
		return NewHashEngine(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama', 'genai', or 'hash')", cfg.Provider)
	}
}

// NewEngineWithFallback builds the configured engine, degrading to the
// deterministic hash engine if construction fails. The classifier must
// always have something to embed with.
func NewEngineWithFallback(cfg config.EmbeddingConfig) Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		logging.Get(logging.CategoryEmbedding).Warn("Falling back to hash embeddings: %v", err)
		return NewHashEngine()
	}
	return engine
}

// CosineSimilarity calculates the cosine similarity between two
// vectors. Returns a value between -1 and 1, where 1 means identical.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}

	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// Mean averages a set of same-dimension vectors. Used to build one
// centroid per task category from its example set.
func Mean(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cannot average zero vectors")
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch: %d != %d", len(v), dim)
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	out := make([]float32, dim)
	for i, x := range sum {
		out[i] = float32(x / float64(len(vectors)))
	}
	return out, nil
}
