// Package config loads parley's process configuration from the
// environment, following the same env-first pattern as the rest of the
// ecosystem it was built from.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ProviderCreds holds the base URL and API key for one provider family.
type ProviderCreds struct {
	APIKey  string
	BaseURL string
}

// Config is the fully resolved process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8000".
	Addr string
	// StoragePath is the SQLite database file path.
	StoragePath string
	// RequestTimeout bounds a single provider call.
	RequestTimeout time.Duration
	// DebateTimeout bounds a whole debate-mode request.
	DebateTimeout time.Duration

	Mistral  ProviderCreds
	Qwen     ProviderCreds
	GLM      ProviderCreds
	MiniMax  ProviderCreds
	DeepSeek ProviderCreds
	OpenAI   ProviderCreds
	Gemini   ProviderCreds
}

const (
	defaultPort           = 8000
	defaultStoragePath    = "./conversations.db"
	defaultRequestTimeout = 180 * time.Second
	defaultDebateTimeout  = 15 * time.Minute
)

// FromEnv builds a Config from environment variables, applying the
// package-level defaults for anything unset.
func FromEnv() (*Config, error) {
	port := defaultPort
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid PORT %q", v)
		}
		port = p
	}

	cfg := &Config{
		Addr:           ":" + strconv.Itoa(port),
		StoragePath:    getEnvOrDefault("STORAGE_PATH", defaultStoragePath),
		RequestTimeout: defaultRequestTimeout,
		DebateTimeout:  defaultDebateTimeout,

		// BaseURL is left empty when its env var is unset; the provider
		// registry supplies the working default endpoint for each
		// family rather than duplicating it here.
		Mistral:  ProviderCreds{APIKey: os.Getenv("MISTRAL_API_KEY")},
		Qwen:     ProviderCreds{APIKey: os.Getenv("QWEN_API_KEY"), BaseURL: os.Getenv("QWEN_BASE_URL")},
		GLM:      ProviderCreds{APIKey: os.Getenv("GLM_API_KEY"), BaseURL: os.Getenv("GLM_BASE_URL")},
		MiniMax:  ProviderCreds{APIKey: os.Getenv("MINIMAX_API_KEY"), BaseURL: os.Getenv("MINIMAX_BASE_URL")},
		DeepSeek: ProviderCreds{APIKey: os.Getenv("DEEPSEEK_API_KEY"), BaseURL: os.Getenv("DEEPSEEK_BASE_URL")},
		OpenAI:   ProviderCreds{APIKey: os.Getenv("OPENAI_API_KEY"), BaseURL: os.Getenv("OPENAI_BASE_URL")},
		Gemini:   ProviderCreds{APIKey: os.Getenv("GEMINI_API_KEY"), BaseURL: os.Getenv("GEMINI_BASE_URL")},
	}

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid REQUEST_TIMEOUT_SECONDS %q", v)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("DEBATE_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid DEBATE_TIMEOUT_SECONDS %q", v)
		}
		cfg.DebateTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// HasAnyProvider reports whether at least one provider has a configured
// API key. The caller (cmd/parleyd) treats the absence of any provider as
// a fatal configuration error.
func (c *Config) HasAnyProvider() bool {
	for _, creds := range []ProviderCreds{c.Mistral, c.Qwen, c.GLM, c.MiniMax, c.DeepSeek, c.OpenAI, c.Gemini} {
		if creds.APIKey != "" {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
