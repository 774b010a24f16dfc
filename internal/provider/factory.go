package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
)

const defaultMaxTokens = 2000

type options struct {
	httpClient *http.Client
}

// Option customizes provider construction.
type Option func(*options)

// WithHTTPClient sets the HTTP client every SDK call goes through.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds each model call with a client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.httpClient = &http.Client{Timeout: d}
		}
	}
}

func resolveMaxTokens(requestMaxTokens int) int {
	if requestMaxTokens > 0 {
		return requestMaxTokens
	}
	return defaultMaxTokens
}

func resolveModel(cfg config.ProviderConfig) string {
	if m := strings.TrimSpace(cfg.Model); m != "" {
		return m
	}
	return registry.DefaultModel(cfg.Provider)
}

func resolveBaseURL(cfg config.ProviderConfig) string {
	if u := strings.TrimSpace(cfg.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return registry.DefaultBaseURL(cfg.Provider)
}

// NewFromConfig validates cfg and builds the matching provider client. It
// performs no network I/O; a *config.ConfigError is returned when a required
// credential is missing.
func NewFromConfig(cfg config.ProviderConfig, opts ...Option) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Provider {
	case registry.Ollama:
		return newOllamaProvider(cfg, o), nil
	case registry.OpenAI, registry.OpenRouter, registry.DeepSeek, registry.SiliconFlow:
		return newOpenAICompatProvider(cfg, o), nil
	case registry.Azure:
		return newAzureProvider(cfg, o), nil
	case registry.Anthropic:
		return newAnthropicProvider(cfg, o), nil
	case registry.Bedrock:
		return newBedrockProvider(cfg, o), nil
	case registry.Google:
		return newGoogleProvider(cfg, o)
	default:
		return nil, &config.ConfigError{Provider: cfg.Provider, Msg: fmt.Sprintf("unsupported provider %q", cfg.Provider)}
	}
}
