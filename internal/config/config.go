// Package config layers cobra flags, ADAPTIQ_* environment variables, an
// optional adaptiq.yaml and defaults into one Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/store"
)

// EnvPrefix is prepended to every environment key, e.g. ADAPTIQ_DB_DSN.
const EnvPrefix = "ADAPTIQ"

type Config struct {
	DB       DBConfig       `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Practice PracticeConfig `mapstructure:"practice"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// RedisConfig configures the question cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
}

type LLMConfig struct {
	Provider   string         `mapstructure:"provider"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Retry      LLMRetryConfig `mapstructure:"retry"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type LLMRetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

type PracticeConfig struct {
	Student string `mapstructure:"student"`
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"db":        "db.dsn",
	"db-driver": "db.driver",
	"log-mode":  "log.mode",
	"log-level": "log.level",
	"student":   "practice.student",
	"addr":      "http.addr",
}

// Load reads configuration for cmd. A missing config file is not an error;
// a malformed one is.
func Load(cmd *cobra.Command) (*Config, error) {
	v := newViper()

	if cmd == nil {
		cmd = &cobra.Command{}
	}
	flags := cmd.Flags()
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	explicit, _ := flags.GetString("config")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("adaptiq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "adaptiq"))
		}
		v.AddConfigPath("$HOME/.config/adaptiq")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	def := llm.DefaultConfig()

	v.SetDefault("db.driver", store.DriverSQLite)
	v.SetDefault("db.dsn", "")

	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "adaptiq")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.timeout", def.Timeout)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", def.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", def.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", def.Gemini.Model)
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", def.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", def.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", def.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", def.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", def.Retry.Multiplier)

	v.SetDefault("practice.student", defaultStudent())
}

func defaultStudent() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "student"
}

// resolve fills values that depend on the environment.
func (c *Config) resolve() error {
	switch c.DB.Driver {
	case "", store.DriverSQLite:
		c.DB.Driver = store.DriverSQLite
		if c.DB.DSN == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}
			c.DB.DSN = p
		} else if !strings.HasPrefix(c.DB.DSN, "file:") {
			if err := store.EnsureDir(c.DB.DSN); err != nil {
				return fmt.Errorf("create database dir: %w", err)
			}
		}
	case store.DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("db.dsn (ADAPTIQ_DB_DSN) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	return nil
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{Driver: c.DB.Driver, DSN: c.DB.DSN}
}

// LLMProvider converts the llm section into an llm.Config. When no provider
// is configured, well-known provider key variables are probed; if none is
// set the returned config is disabled.
func (c *Config) LLMProvider() llm.Config {
	if c.LLM.Provider == "" {
		if cfg, ok := llm.DiscoverConfig(); ok {
			cfg.Timeout = c.LLM.Timeout
			return cfg
		}
		return llm.Config{}
	}
	return llm.Config{
		Provider: c.LLM.Provider,
		Anthropic: llm.AnthropicConfig{
			APIKey:  c.LLM.Anthropic.APIKey,
			Model:   c.LLM.Anthropic.Model,
			BaseURL: c.LLM.Anthropic.BaseURL,
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  c.LLM.OpenAI.APIKey,
			Model:   c.LLM.OpenAI.Model,
			BaseURL: c.LLM.OpenAI.BaseURL,
		},
		Gemini: llm.GeminiConfig{
			APIKey:  c.LLM.Gemini.APIKey,
			Model:   c.LLM.Gemini.Model,
			BaseURL: c.LLM.Gemini.BaseURL,
		},
		OpenRouter: llm.OpenRouterConfig{
			APIKey:  c.LLM.OpenRouter.APIKey,
			Model:   c.LLM.OpenRouter.Model,
			BaseURL: c.LLM.OpenRouter.BaseURL,
		},
		Retry: llm.RetryConfig{
			MaxAttempts: c.LLM.Retry.MaxAttempts,
			InitialWait: c.LLM.Retry.InitialWait,
			MaxWait:     c.LLM.Retry.MaxWait,
			Multiplier:  c.LLM.Retry.Multiplier,
		},
		Timeout: c.LLM.Timeout,
	}
}
