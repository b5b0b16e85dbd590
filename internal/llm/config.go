package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects a provider and carries the settings of every backend so a
// config file can list them all and switch with one key.
type Config struct {
	// Provider is one of anthropic, openai, gemini, openrouter or mock.
	// Empty disables LLM features.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call, retries included.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig also serves any OpenAI-compatible endpoint through BaseURL.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig shapes the exponential backoff of WithRetry.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// backend describes one keyed provider. The order of backends is the
// discovery priority.
type backend struct {
	name         string
	envKey       string
	defaultModel string
	key          func(*Config) *string
	model        func(*Config) *string
}

var backends = []backend{
	{
		name: "gemini", envKey: "GEMINI_API_KEY", defaultModel: "gemini-flash",
		key:   func(c *Config) *string { return &c.Gemini.APIKey },
		model: func(c *Config) *string { return &c.Gemini.Model },
	},
	{
		name: "openai", envKey: "OPENAI_API_KEY", defaultModel: "gpt-4o-mini",
		key:   func(c *Config) *string { return &c.OpenAI.APIKey },
		model: func(c *Config) *string { return &c.OpenAI.Model },
	},
	{
		name: "anthropic", envKey: "ANTHROPIC_API_KEY", defaultModel: "claude-haiku",
		key:   func(c *Config) *string { return &c.Anthropic.APIKey },
		model: func(c *Config) *string { return &c.Anthropic.Model },
	},
	{
		name: "openrouter", envKey: "OPENROUTER_API_KEY", defaultModel: "google/gemini-2.0-flash-001",
		key:   func(c *Config) *string { return &c.OpenRouter.APIKey },
		model: func(c *Config) *string { return &c.OpenRouter.Model },
	},
}

func lookupBackend(name string) (backend, bool) {
	for _, b := range backends {
		if b.name == name {
			return b, true
		}
	}
	return backend{}, false
}

// DefaultConfig returns anthropic with every backend's default model and a
// three-attempt retry policy.
func DefaultConfig() Config {
	cfg := Config{
		Provider: "anthropic",
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
	for _, b := range backends {
		*b.model(&cfg) = b.defaultModel
	}
	return cfg
}

// DiscoverConfig picks the first backend whose well-known key variable is
// set, in the order gemini, openai, anthropic, openrouter.
func DiscoverConfig() (Config, bool) {
	for _, b := range backends {
		k := os.Getenv(b.envKey)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = b.name
		*b.key(&cfg) = k
		return cfg, true
	}
	return Config{}, false
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != ""
}

// Validate checks the selected provider exists and has a key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	b, ok := lookupBackend(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *b.key(&c) == "" {
		return fmt.Errorf("llm.%s.api_key is required (set ADAPTIQ_LLM_%s_API_KEY or %s)",
			b.name, strings.ToUpper(b.name), b.envKey)
	}
	return nil
}
