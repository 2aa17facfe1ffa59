package types

import "time"

// StoreConfig locates the review database.
type StoreConfig struct {
	// Path is the SQLite database file, or ":memory:" (default "literature_review.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// TemplatesConfig selects where extraction templates are read from.
type TemplatesConfig struct {
	// Dir overrides the built-in templates when non-empty.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// ThemesConfig holds the clustering parameters for theme suggestions.
type ThemesConfig struct {
	// Eps is the DBSCAN neighbourhood radius in cosine distance (default 0.5).
	Eps float64 `json:"eps" yaml:"eps" mapstructure:"eps"`

	// MinPoints is the DBSCAN density threshold, counting the point itself (default 2).
	MinPoints int `json:"min_points" yaml:"min_points" mapstructure:"min_points"`

	// MaxQuotes caps the example quotes kept per suggestion (default 5).
	MaxQuotes int `json:"max_quotes" yaml:"max_quotes" mapstructure:"max_quotes"`

	// DefaultField is the extraction field analysed when none is given (default "main_results").
	DefaultField string `json:"default_field" yaml:"default_field" mapstructure:"default_field"`

	// SnapshotDir holds saved suggestion runs (default ".litreview/suggestions").
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir" mapstructure:"snapshot_dir"`
}

// EmbeddingConfig holds settings for the sentence-embedding backend.
type EmbeddingConfig struct {
	// BaseURL is the Ollama-compatible endpoint (default "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the embedding model name (default "all-minilm").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Concurrency bounds in-flight embedding requests (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxRetries is the number of retries on 429/503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single HTTP request (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is auto, text, or json (default auto: text on a terminal).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings read by the CLI.
type Config struct {
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Templates TemplatesConfig `json:"templates" yaml:"templates" mapstructure:"templates"`
	Themes    ThemesConfig    `json:"themes" yaml:"themes" mapstructure:"themes"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{Path: "literature_review.db"},
		Themes: ThemesConfig{
			Eps:          0.5,
			MinPoints:    2,
			MaxQuotes:    5,
			DefaultField: "main_results",
			SnapshotDir:  ".litreview/suggestions",
		},
		Embedding: EmbeddingConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "all-minilm",
			Concurrency: 4,
			MaxRetries:  3,
			Timeout:     30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "auto"},
	}
}
