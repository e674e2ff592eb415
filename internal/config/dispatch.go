package config

// DispatchConfig configures the directive dispatcher.
type DispatchConfig struct {
	// DefaultTimeoutMs bounds a single tool execution unless the tool
	// carries its own timeout.
	DefaultTimeoutMs int `yaml:"default_timeout_ms" json:"default_timeout_ms,omitempty"`

	// PerToolTimeoutMs overrides the default for specific tags.
	PerToolTimeoutMs map[string]int `yaml:"per_tool_timeout_ms" json:"per_tool_timeout_ms,omitempty"`

	// MaxOutputBytes truncates tool output folded back into the transcript.
	MaxOutputBytes int `yaml:"max_output_bytes" json:"max_output_bytes,omitempty"`
}

// DefaultDispatchConfig returns dispatch defaults.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		DefaultTimeoutMs: 60000,
		PerToolTimeoutMs: map[string]int{
			"execute-command": 120000,
			"web-search":      30000,
		},
		MaxOutputBytes: 50000,
	}
}

// TimeoutMsFor returns the timeout for a tag, falling back to the default.
func (c *DispatchConfig) TimeoutMsFor(tag string) int {
	if ms, ok := c.PerToolTimeoutMs[tag]; ok && ms > 0 {
		return ms
	}
	return c.DefaultTimeoutMs
}
