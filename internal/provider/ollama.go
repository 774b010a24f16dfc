package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/registry"
	"github.com/ollama/ollama/api"
)

// OllamaStatus describes a reachable Ollama server.
type OllamaStatus struct {
	BaseURL string   `json:"baseURL"`
	Version string   `json:"version"`
	Models  []string `json:"models"`
}

// HasModel reports whether name is installed, accepting a bare name for ":latest".
func (s *OllamaStatus) HasModel(name string) bool {
	for _, m := range s.Models {
		if m == name || strings.TrimSuffix(m, ":latest") == name {
			return true
		}
	}
	return false
}

// ProbeOllama asks the Ollama native API for its version and installed models.
func ProbeOllama(ctx context.Context, baseURL string, httpClient *http.Client) (*OllamaStatus, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = registry.DefaultBaseURL(registry.Ollama)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(u, httpClient)
	version, err := client.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama unreachable at %s: %w", baseURL, err)
	}
	list, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}

	status := &OllamaStatus{BaseURL: baseURL, Version: version}
	for _, m := range list.Models {
		status.Models = append(status.Models, m.Name)
	}
	return status, nil
}
