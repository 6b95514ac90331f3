package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/teemow/replyd/internal/faults"
)

// Config holds all replyd configuration.
type Config struct {
	App     AppConfig     `toml:"app"`
	Gmail   GmailConfig   `toml:"gmail"`
	Ollama  OllamaConfig  `toml:"ollama"`
	Suggest SuggestConfig `toml:"suggest"`
	Server  ServerConfig  `toml:"server"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	MaxEmailsFetch int64 `toml:"max_emails_fetch"`
}

// GmailConfig holds Gmail API settings.
type GmailConfig struct {
	APITimeoutSec     int `toml:"api_timeout_sec"`
	MetadataChunkSize int `toml:"metadata_chunk_size"`
	MaxRecursionDepth int `toml:"max_recursion_depth"`
}

// OllamaConfig holds settings for the local generation backend.
type OllamaConfig struct {
	ModelName          string `toml:"model_name"`
	APIBaseURL         string `toml:"api_base_url"`
	RequestTimeoutSec  int    `toml:"request_timeout_sec"`
	StatusTimeoutSec   int    `toml:"status_timeout_sec"`
	MaxRetries         int    `toml:"max_retries"`
	RetryDelaySec      int    `toml:"retry_delay_sec"`
	SuggestionTemplate string `toml:"suggestion_prompt_template"`
}

// SuggestConfig holds settings for the suggestion pipeline.
type SuggestConfig struct {
	BodyTruncationChars    int `toml:"body_truncation_chars"`
	ContextTruncationChars int `toml:"context_truncation_chars"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MetricsAddr string `toml:"metrics_addr"`
}

// defaultSuggestionTemplate is the standalone prompt. %s receives the
// (possibly truncated) email body.
const defaultSuggestionTemplate = `You are a helpful assistant providing professional email reply suggestions.

Read the following email and generate exactly 3 short, concise reply suggestions. Format each suggestion as a numbered list (1., 2., 3.) with each suggestion on its own line. Keep each suggestion under 20 words and make them natural, conversational responses.

EMAIL:
%s

Generate exactly 3 numbered suggestions for replying to this email:`

func defaults() Config {
	return Config{
		App: AppConfig{
			MaxEmailsFetch: 50,
		},
		Gmail: GmailConfig{
			APITimeoutSec:     60,
			MetadataChunkSize: 15,
			MaxRecursionDepth: 10,
		},
		Ollama: OllamaConfig{
			ModelName:          "llama3",
			APIBaseURL:         "http://localhost:11434",
			RequestTimeoutSec:  120,
			StatusTimeoutSec:   10,
			MaxRetries:         3,
			RetryDelaySec:      2,
			SuggestionTemplate: defaultSuggestionTemplate,
		},
		Suggest: SuggestConfig{
			BodyTruncationChars:    4000,
			ContextTruncationChars: 500,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
		},
	}
}

// Load reads config from path, merging over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, faults.Wrap(faults.KindConfig, err, "failed to read config")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, faults.Wrap(faults.KindConfig, err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if c.Ollama.ModelName == "" {
		return faults.New(faults.KindConfig, "ollama model_name is required")
	}
	if c.Ollama.APIBaseURL == "" {
		return faults.New(faults.KindConfig, "ollama api_base_url is required")
	}
	if c.Ollama.MaxRetries < 1 {
		return faults.Newf(faults.KindConfig, "ollama max_retries must be >= 1, got %d", c.Ollama.MaxRetries)
	}
	if c.Gmail.MetadataChunkSize < 1 {
		return faults.Newf(faults.KindConfig, "gmail metadata_chunk_size must be >= 1, got %d", c.Gmail.MetadataChunkSize)
	}
	if c.Gmail.MaxRecursionDepth < 1 {
		return faults.Newf(faults.KindConfig, "gmail max_recursion_depth must be >= 1, got %d", c.Gmail.MaxRecursionDepth)
	}
	return nil
}

// RequestTimeout returns the Ollama generate timeout as a duration.
func (c *OllamaConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// StatusTimeout returns the Ollama status-probe timeout as a duration.
func (c *OllamaConfig) StatusTimeout() time.Duration {
	return time.Duration(c.StatusTimeoutSec) * time.Second
}

// RetryDelay returns the inter-attempt delay as a duration.
func (c *OllamaConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySec) * time.Second
}

// APITimeout returns the Gmail API timeout as a duration.
func (c *GmailConfig) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSec) * time.Second
}

// ConfigDir returns the replyd config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "replyd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "replyd")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// String renders a summary safe for logging at startup.
func (c *Config) String() string {
	return fmt.Sprintf("model=%s ollama=%s retries=%d chunk=%d depth=%d",
		c.Ollama.ModelName, c.Ollama.APIBaseURL, c.Ollama.MaxRetries,
		c.Gmail.MetadataChunkSize, c.Gmail.MaxRecursionDepth)
}
