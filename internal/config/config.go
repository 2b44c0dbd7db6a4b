// Package config loads the chatbot configuration from defaults, an optional
// YAML file and RECSYS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the libSQL connection
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	AuthToken      string `mapstructure:"auth_token"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	ConnMaxIdleSec int    `mapstructure:"conn_max_idle_sec"`
	ConnMaxLifeSec int    `mapstructure:"conn_max_life_sec"`
}

// SourceConfig configures the remote API the ETL sync pulls from
type SourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the language model behind the SQL agent
type LLMConfig struct {
	// Provider is "openai" (any OpenAI compatible endpoint) or "ollama".
	Provider      string `mapstructure:"provider"`
	Model         string `mapstructure:"model"`
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	MaxIterations int    `mapstructure:"max_iterations"`
	TopK          int    `mapstructure:"top_k"`
}

// ChatConfig configures the chat flow
type ChatConfig struct {
	// Language is "auto", "de" or "en".
	Language string `mapstructure:"language"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// MetricsConfig configures the Prometheus side listener
type MetricsConfig struct {
	Prometheus bool   `mapstructure:"prometheus"`
	Addr       string `mapstructure:"addr"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URL: "file:./recsys.db",
		},
		Source: SourceConfig{
			BaseURL: "http://localhost:3000/api/",
			Timeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4-turbo",
			MaxIterations: 15,
			TopK:          10,
		},
		Chat: ChatConfig{
			Language: "auto",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads configuration from defaults, the file at path (or a recsys.yaml
// found in the working directory or ~/.recsys) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("RECSYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Well-known names used by the deployment scripts.
	_ = v.BindEnv("llm.api_key", "RECSYS_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("source.token", "RECSYS_SOURCE_TOKEN", "RECSYS_API_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("recsys")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".recsys"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that would fail later at runtime
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("database.url must not be empty")
	}
	if c.LLM.MaxIterations <= 0 {
		return fmt.Errorf("llm.max_iterations must be positive, got %d", c.LLM.MaxIterations)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider must be openai or ollama, got %q", c.LLM.Provider)
	}
	switch strings.ToLower(c.Chat.Language) {
	case "auto", "de", "en":
	default:
		return fmt.Errorf("chat.language must be auto, de or en, got %q", c.Chat.Language)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.auth_token", d.Database.AuthToken)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_idle_sec", d.Database.ConnMaxIdleSec)
	v.SetDefault("database.conn_max_life_sec", d.Database.ConnMaxLifeSec)

	v.SetDefault("source.base_url", d.Source.BaseURL)
	v.SetDefault("source.token", d.Source.Token)
	v.SetDefault("source.timeout", d.Source.Timeout)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.max_iterations", d.LLM.MaxIterations)
	v.SetDefault("llm.top_k", d.LLM.TopK)

	v.SetDefault("chat.language", d.Chat.Language)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("metrics.prometheus", d.Metrics.Prometheus)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
