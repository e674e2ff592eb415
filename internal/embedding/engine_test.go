package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirigent/internal/config"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
}

func TestMean(t *testing.T) {
	got, err := Mean([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, got)

	_, err = Mean(nil)
	require.Error(t, err)

	_, err = Mean([][]float32{{1}, {1, 2}})
	require.Error(t, err)
}

func TestHashEngineDeterministic(t *testing.T) {
	e := NewHashEngine()
	ctx := context.Background()

	a, err := e.Embed(ctx, "write a binary search in go")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "write a binary search in go")
	require.NoError(t, err)
	assert.Equal(t, a, b, "same text must embed identically")
	assert.Len(t, a, e.Dimensions())

	// Non-empty input produces a unit vector.
	var norm float64
	for _, x := range a {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	// Different texts should produce different vectors.
	c, err := e.Embed(ctx, "tell me a bedtime story")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHashEngineEmptyText(t *testing.T) {
	v, err := NewHashEngine().Embed(context.Background(), "")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestOllamaEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mxbai-embed-large:latest", req["model"])
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL, "")
	got, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)
}

func TestOllamaEngineServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEngine(srv.URL, "nope").Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNewEngineWithFallback(t *testing.T) {
	// A bad provider never leaves the caller without an engine.
	e := NewEngineWithFallback(config.EmbeddingConfig{Provider: "nonsense"})
	require.NotNil(t, e)
	assert.Equal(t, "hash:fnv32a", e.Name())
}

func TestCacheWriteOnce(t *testing.T) {
	c := NewCache()

	c.Put("hello", []float32{1, 2})
	c.Put("hello", []float32{9, 9})

	v, ok := c.Get("hello")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, v, "first write wins")
}

func TestCacheSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cache.json")

	c := NewCache()
	c.Put("alpha", []float32{1})
	c.Put("beta", []float32{2})
	require.NoError(t, c.Save(path))

	loaded := NewCache()
	loaded.Put("alpha", []float32{42}) // pre-existing entry survives the merge
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, 2, loaded.Len())
	v, _ := loaded.Get("alpha")
	assert.Equal(t, []float32{42}, v)
}

func TestCacheLoadMissingFile(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Load(filepath.Join(t.TempDir(), "absent.json")))
	assert.Zero(t, c.Len())
}

type countingEngine struct {
	*HashEngine
	calls int
}

func (e *countingEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.HashEngine.Embed(ctx, text)
}

func TestCachedEngineMemoizes(t *testing.T) {
	inner := &countingEngine{HashEngine: NewHashEngine()}
	e := NewCachedEngine(inner, nil)
	ctx := context.Background()

	first, err := e.Embed(ctx, "same prompt")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "same prompt")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second call must hit the cache")
}
