package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

// ValidationReport collects non-fatal startup findings.
type ValidationReport struct {
	Warnings []string
}

// Validate checks listener settings.
func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("listen is required")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max_body_bytes must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	return nil
}

// Validate checks sampling parameters.
func (c LLMConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return errors.New("max_tokens must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be > 0")
	}
	return nil
}

// Validate checks the renderer endpoint.
func (c RenderConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url must be an absolute URL, got %q", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	return nil
}

// Validate validates every section and joins the failures.
func (cfg *Config) Validate() error {
	var errs []error
	if err := cfg.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := cfg.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	if err := cfg.Render.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("render: %w", err))
	}
	return errors.Join(errs...)
}

// ValidateStartup validates the service config and reports provider problems
// as warnings. Provider credentials are re-read on every request, so a
// missing key at startup is not fatal.
func ValidateStartup(cfg *Config, env Env) (*ValidationReport, error) {
	report := &ValidationReport{}
	if err := cfg.Validate(); err != nil {
		return report, err
	}

	pc := ResolveFromEnvironment(env)
	if err := pc.Validate(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("provider %s: %v", pc.Provider, err))
	}
	return report, nil
}
