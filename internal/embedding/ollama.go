package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaEndpoint = "http://localhost:11434"
	defaultOllamaModel    = "mxbai-embed-large:latest"

	// mxbai-embed-large output width.
	ollamaDimensions = 1024
)

// OllamaEngine embeds text through a local Ollama server's
// /api/embeddings endpoint. Classifier centroids and prompts go
// through the same engine, so vectors are always comparable.
type OllamaEngine struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllamaEngine returns an engine for the given server and model.
// Empty arguments fall back to the local default server and
// mxbai-embed-large.
func NewOllamaEngine(endpoint, model string) *OllamaEngine {
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaEngine{
		baseURL: strings.TrimSuffix(endpoint, "/"),
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Embed returns the vector for one text.
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}{e.model, text})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if len(out.Embedding) == 0 {
		// The server answers 200 with an empty vector for models that
		// do not support embeddings.
		return nil, fmt.Errorf("ollama: model %s returned an empty embedding", e.model)
	}
	return out.Embedding, nil
}

// EmbedBatch embeds texts one by one; the embeddings endpoint has no
// batch form.
func (e *OllamaEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *OllamaEngine) Dimensions() int {
	return ollamaDimensions
}

func (e *OllamaEngine) Name() string {
	return "ollama:" + e.model
}
