package config

// RoutingConfig configures the task classifier and model router.
type RoutingConfig struct {
	// Strategy selects which classifier is authoritative: "lexical" or "embedding".
	Strategy string `yaml:"strategy" json:"strategy,omitempty"`

	// DefaultModel is returned whenever classification is below threshold
	// or errors out. The router never fails to return a model.
	DefaultModel string `yaml:"default_model" json:"default_model,omitempty"`

	// TaskModels maps a task type to the model that should answer it.
	TaskModels map[string]string `yaml:"task_models" json:"task_models,omitempty"`

	// Thresholds hold per-strategy confidence gates. The score
	// distributions differ, so the gates do too.
	Thresholds ThresholdConfig `yaml:"thresholds" json:"thresholds,omitempty"`

	// EnableOverrides turns on the keyword/length override rules that can
	// re-route a classified prompt (coding keywords, long prompts, reasoning terms).
	EnableOverrides bool `yaml:"enable_overrides" json:"enable_overrides,omitempty"`
}

// ThresholdConfig holds per-strategy confidence thresholds.
type ThresholdConfig struct {
	Lexical   float64 `yaml:"lexical" json:"lexical,omitempty"`
	Embedding float64 `yaml:"embedding" json:"embedding,omitempty"`
}

// DefaultRoutingConfig returns routing defaults.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		Strategy:     "lexical",
		DefaultModel: "qwen3:32b",
		TaskModels: map[string]string{
			"coding":    "qwen2.5-coder:32b-instruct-q8_0",
			"reasoning": "mixtral:8x22b-instruct-v0.1-q4_K_M",
			"creative":  "qwen3:8b",
			"general":   "qwen3:32b",
		},
		Thresholds: ThresholdConfig{
			Lexical:   0.2,
			Embedding: 0.6,
		},
		EnableOverrides: true,
	}
}

// ModelFor returns the model bound to a task type, falling back to the
// default model for unknown types.
func (c *RoutingConfig) ModelFor(taskType string) string {
	if model, ok := c.TaskModels[taskType]; ok {
		return model
	}
	return c.DefaultModel
}

// ThresholdFor returns the confidence threshold for a strategy.
func (c *RoutingConfig) ThresholdFor(strategy string) float64 {
	if strategy == "embedding" {
		return c.Thresholds.Embedding
	}
	return c.Thresholds.Lexical
}
