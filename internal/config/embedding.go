package config

// EmbeddingConfig configures the embedding engine used by the
// embedding-similarity classifier.
type EmbeddingConfig struct {
	// Provider: "ollama", "genai", or "hash" (deterministic local fallback)
	Provider string `yaml:"provider" json:"provider,omitempty"`

	// Ollama
	OllamaEndpoint string `yaml:"ollama_endpoint" json:"ollama_endpoint,omitempty"`
	OllamaModel    string `yaml:"ollama_model" json:"ollama_model,omitempty"`

	// GenAI
	GenAIAPIKey string `yaml:"genai_api_key" json:"genai_api_key,omitempty"`
	GenAIModel  string `yaml:"genai_model" json:"genai_model,omitempty"`

	// CachePath is where the write-once embedding cache is persisted.
	// Empty disables persistence (cache stays in memory).
	CachePath string `yaml:"cache_path" json:"cache_path,omitempty"`
}

// DefaultEmbeddingConfig returns embedding defaults.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:       "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "mxbai-embed-large:latest",
		GenAIModel:     "gemini-embedding-001",
		CachePath:      "data/embedding_cache.json",
	}
}
