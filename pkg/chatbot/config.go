package chatbot

import (
	"github.com/HHN/idealize-recommendation/internal/config"
)

// Config exposes a stable wrapper for the settings needed in package mode.
// Zero values keep the built-in defaults.
type Config struct {
	DatabaseURL   string
	AuthToken     string
	SourceBaseURL string
	SourceToken   string
	LLMProvider   string
	Model         string
	APIKey        string
	LLMBaseURL    string
	MaxIterations int
	// Language is "auto", "de" or "en".
	Language string
}

func (c *Config) toInternal() *config.Config {
	cfg := config.DefaultConfig()
	if c == nil {
		return cfg
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.URL, c.DatabaseURL)
	set(&cfg.Database.AuthToken, c.AuthToken)
	set(&cfg.Source.BaseURL, c.SourceBaseURL)
	set(&cfg.Source.Token, c.SourceToken)
	set(&cfg.LLM.Provider, c.LLMProvider)
	set(&cfg.LLM.Model, c.Model)
	set(&cfg.LLM.APIKey, c.APIKey)
	set(&cfg.LLM.BaseURL, c.LLMBaseURL)
	set(&cfg.Chat.Language, c.Language)
	if c.MaxIterations > 0 {
		cfg.LLM.MaxIterations = c.MaxIterations
	}
	return cfg
}
