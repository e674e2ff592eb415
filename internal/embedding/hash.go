package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// hashDimensions is small on purpose: the hash engine is a lexical
// bag-of-words projection, not a semantic model, and 100 buckets is
// enough for centroid classification over short prompts.
const hashDimensions = 100

// HashEngine is a deterministic, dependency-free embedding fallback.
// Each word hashes to a fixed bucket and contributes weight inversely
// proportional to its position, so the same text always produces the
// same unit vector on every machine.
type HashEngine struct{}

// NewHashEngine creates the fallback engine.
func NewHashEngine() *HashEngine {
	return &HashEngine{}
}

// Embed projects the text into the fixed bucket space.
func (e *HashEngine) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDimensions)

	words := strings.Fields(strings.ToLower(text))
	if len(words) > hashDimensions {
		words = words[:hashDimensions]
	}
	for i, word := range words {
		h := fnv.New32a()
		h.Write([]byte(word))
		bucket := h.Sum32() % hashDimensions
		vec[bucket] += 1.0 / float32(i+1)
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in turn.
func (e *HashEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = v
	}
	return embeddings, nil
}

// Dimensions returns the bucket count.
func (e *HashEngine) Dimensions() int {
	return hashDimensions
}

// Name returns the engine name.
func (e *HashEngine) Name() string {
	return "hash:fnv32a"
}
