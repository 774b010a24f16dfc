package config

import (
	"fmt"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/registry"
)

// ProviderConfig is the per-request provider selection and credentials.
// Fields not relevant to Provider are left empty.
type ProviderConfig struct {
	Provider        registry.ID `json:"provider"`
	APIKey          string      `json:"apiKey,omitempty"`
	BaseURL         string      `json:"baseURL,omitempty"`
	Model           string      `json:"model,omitempty"`
	Region          string      `json:"region,omitempty"`
	AccessKeyID     string      `json:"accessKeyId,omitempty"`
	SecretAccessKey string      `json:"secretAccessKey,omitempty"`
	ResourceName    string      `json:"resourceName,omitempty"`
	APIVersion      string      `json:"apiVersion,omitempty"`
}

// ConfigError reports a missing or invalid provider setting. It is raised
// before any network call is made.
type ConfigError struct {
	Provider registry.ID
	Msg      string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// ResolveFromEnvironment builds a ProviderConfig from env. It reads only the
// variables relevant to the selected provider and never fails; required
// fields are checked by Validate when a client is built.
func ResolveFromEnvironment(env Env) ProviderConfig {
	id := registry.ID(strings.ToLower(env.Get("PROVIDER", "AI_PROVIDER")))
	if id == "" {
		id = registry.Default
	}

	cfg := ProviderConfig{
		Provider: id,
		Model:    env.Get("MODEL", "AI_MODEL"),
	}
	if cfg.Model == "" {
		cfg.Model = registry.DefaultModel(id)
	}

	switch id {
	case registry.Ollama:
		cfg.BaseURL = env.Get("BASE_URL", "OLLAMA_BASE_URL")
	case registry.OpenAI:
		cfg.APIKey = env.Get("API_KEY", "OPENAI_API_KEY")
	case registry.Anthropic:
		cfg.APIKey = env.Get("API_KEY", "ANTHROPIC_API_KEY")
	case registry.Google:
		cfg.APIKey = env.Get("API_KEY", "GOOGLE_AI_API_KEY")
	case registry.Bedrock:
		cfg.Region = env.Get("REGION", "AWS_REGION")
		cfg.AccessKeyID = env.Get("ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
		cfg.SecretAccessKey = env.Get("SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	case registry.Azure:
		cfg.APIKey = env.Get("API_KEY", "AZURE_OPENAI_API_KEY")
		cfg.ResourceName = env.Get("RESOURCE_NAME", "AZURE_OPENAI_RESOURCE_NAME")
		cfg.APIVersion = env.Get("API_VERSION", "AZURE_OPENAI_API_VERSION")
	case registry.OpenRouter:
		cfg.APIKey = env.Get("API_KEY", "OPENROUTER_API_KEY")
	case registry.DeepSeek:
		cfg.APIKey = env.Get("API_KEY", "DEEPSEEK_API_KEY")
	case registry.SiliconFlow:
		cfg.APIKey = env.Get("API_KEY", "SILICONFLOW_API_KEY")
	}

	return cfg
}

// Validate checks the provider-specific required fields.
func (c ProviderConfig) Validate() error {
	fail := func(msg string) error {
		return &ConfigError{Provider: c.Provider, Msg: msg}
	}

	switch c.Provider {
	case registry.Ollama:
		return nil
	case registry.OpenAI, registry.Anthropic, registry.OpenRouter, registry.DeepSeek, registry.SiliconFlow:
		if strings.TrimSpace(c.APIKey) == "" {
			return fail(registry.Label(c.Provider) + " API key is required")
		}
	case registry.Google:
		if strings.TrimSpace(c.APIKey) == "" {
			return fail("Google AI API key is required")
		}
	case registry.Bedrock:
		if strings.TrimSpace(c.AccessKeyID) == "" || strings.TrimSpace(c.SecretAccessKey) == "" {
			return fail("AWS credentials are required for Bedrock")
		}
	case registry.Azure:
		if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.ResourceName) == "" {
			return fail("Azure OpenAI API key and resource name are required")
		}
	default:
		return fail(fmt.Sprintf("unsupported provider %q", c.Provider))
	}
	return nil
}

// Redacted returns a copy safe for logs and status endpoints.
func (c ProviderConfig) Redacted() ProviderConfig {
	c.APIKey = mask(c.APIKey)
	c.AccessKeyID = mask(c.AccessKeyID)
	c.SecretAccessKey = mask(c.SecretAccessKey)
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
