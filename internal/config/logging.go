package config

// LoggingConfig controls the per-category file logging. With DebugMode
// off nothing is ever written, which is the production default.
type LoggingConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" json:"level,omitempty"`

	// Format: text or json
	Format string `yaml:"format" json:"format,omitempty"`

	// DebugMode is the master switch.
	DebugMode bool `yaml:"debug_mode" json:"debug_mode,omitempty"`

	// Categories selectively disables streams; absent categories are
	// enabled.
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`
}

// IsCategoryEnabled reports whether a category should write at all.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	enabled, listed := c.Categories[category]
	return !listed || enabled
}
