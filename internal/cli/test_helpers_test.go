package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
)

func createTestHome(t *testing.T) string {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), ".umlsmith")
	t.Setenv("UMLSMITH_HOME", dataDir)
	for _, key := range []string{"PROVIDER", "AI_PROVIDER", "MODEL", "AI_MODEL", "BASE_URL", "OLLAMA_BASE_URL", "API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
	return dataDir
}

func writeValidConfig(t *testing.T, dataDir, renderURL string) {
	t.Helper()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	configBody := fmt.Sprintf(`
[llm]
temperature = 0.2
max_tokens = 512

[render]
server_url = %q
timeout = "5s"

[env]
files = []
`, renderURL)
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(configBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// fakeProvider replays replies in order and records every request.
type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []provider.ChatRequest
}

func (p *fakeProvider) Chat(_ context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.replies) == 0 {
		return nil, fmt.Errorf("no scripted reply left")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return &provider.ChatResponse{
		Content: reply,
		Usage:   provider.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

func useFakeProvider(t *testing.T, fp *fakeProvider) {
	t.Helper()
	orig := providerFactory
	t.Cleanup(func() { providerFactory = orig })
	providerFactory = func(_ config.ProviderConfig, _ ...provider.Option) (provider.Provider, error) {
		return fp, nil
	}
}

// newPlantUMLServer fakes the PlantUML server, answering every GET with
// "<format>:<encoded>" so tests can see what was requested.
func newPlantUMLServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "%s:%s", parts[0], parts[1])
	}))
	t.Cleanup(srv.Close)
	return srv
}
