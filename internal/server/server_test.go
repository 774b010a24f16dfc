package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/diagram"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/render"
	"github.com/neoclaw-ai/umlsmith/internal/usage"
)

type fakeProvider struct {
	reply string
	err   error
	last  provider.ChatRequest
}

func (f *fakeProvider) Chat(_ context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &provider.ChatResponse{Content: f.reply, Usage: provider.TokenUsage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5}}, nil
}

type testEnv struct {
	handler  http.Handler
	provider *fakeProvider
	tracker  *usage.Tracker
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T, env config.Env, fp *fakeProvider, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	envSource := func() (config.Env, error) { return env, nil }
	factory := func(cfg config.ProviderConfig) (provider.Provider, error) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return fp, nil
	}
	tracker := usage.New()
	deps := Deps{
		Diagrams: diagram.New(envSource, factory, diagram.WithTracker(tracker), diagram.WithLogger(logger)),
		Tracker:  tracker,
		Env:      envSource,
		Logger:   logger,
		Probe: func(context.Context, string) (*provider.OllamaStatus, error) {
			return &provider.OllamaStatus{BaseURL: "http://localhost:11434", Version: "0.12.6", Models: []string{"llama3.2:latest"}}, nil
		},
	}
	for _, m := range mutate {
		m(&deps)
	}
	return &testEnv{handler: New(deps).Handler(), provider: fp, tracker: tracker, logs: logs}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGenerateDiagram(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{reply: "```plantuml\n@startuml\nUser -> App: login\n@enduml\n```"})

	rec := te.do(t, http.MethodPost, "/api/generate-diagram", `{"prompt":"login sequence"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"plantUMLCode": "@startuml\nUser -> App: login\n@enduml"}, decodeBody(t, rec))
	assert.Equal(t, 1, te.tracker.Summary().Calls)
}

func TestGenerateDiagram_MissingPrompt(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{})

	rec := te.do(t, http.MethodPost, "/api/generate-diagram", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Prompt is required", decodeBody(t, rec)["error"])
}

func TestGenerateDiagram_MalformedJSON(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{})

	rec := te.do(t, http.MethodPost, "/api/generate-diagram", `{"prompt":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decodeBody(t, rec)["error"])
}

func TestGenerateDiagram_BodyTooLarge(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{}, func(d *Deps) { d.MaxBodyBytes = 16 })

	rec := te.do(t, http.MethodPost, "/api/generate-diagram", `{"prompt":"`+strings.Repeat("x", 64)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGenerateDiagram_ConfigError(t *testing.T) {
	te := newTestEnv(t, config.Env{"AI_PROVIDER": "openai"}, &fakeProvider{})

	rec := te.do(t, http.MethodPost, "/api/generate-diagram", `{"prompt":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "OpenAI API key is required", decodeBody(t, rec)["error"])
}

func TestGenerateDiagram_ModelErrorIsNotLeaked(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{err: errors.New("upstream said: secret-token-123 invalid")})

	rec := te.do(t, http.MethodPost, "/api/generate-diagram", `{"prompt":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate diagram", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "secret-token-123")
	assert.Contains(t, te.logs.String(), "secret-token-123")
}

func TestChatDiagram_WithMarkup(t *testing.T) {
	fp := &fakeProvider{reply: "Added a **database**.\n```plantuml\n@startuml\nApp -> DB\n@enduml\n```"}
	te := newTestEnv(t, config.Env{}, fp)

	rec := te.do(t, http.MethodPost, "/api/chat-diagram", `{
		"messages":[{"role":"user","content":"add a database"}],
		"currentDiagram":"@startuml\nUser -> App\n@enduml"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Added a **database**.", body["message"])
	assert.Equal(t, "<p>Added a <strong>database</strong>.</p>\n", body["messageHtml"])
	assert.Equal(t, "@startuml\nApp -> DB\n@enduml", body["plantUMLCode"])

	require.Len(t, fp.last.Messages, 3)
	assert.Equal(t, "Current diagram code:\n@startuml\nUser -> App\n@enduml", fp.last.Messages[1].Content)
}

func TestChatDiagram_ConversationalReplyHasNullCode(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{reply: "I think you should add a component."})

	rec := te.do(t, http.MethodPost, "/api/chat-diagram", `{"messages":[{"role":"user","content":"advice?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"plantUMLCode":null`)
	assert.Equal(t, "I think you should add a component.", decodeBody(t, rec)["message"])
}

func TestChatDiagram_PureMarkupHasEmptyMessage(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{reply: "@startuml\nX\n@enduml"})

	rec := te.do(t, http.MethodPost, "/api/chat-diagram", `{"messages":[{"role":"user","content":"draw X"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "", body["message"])
	assert.Equal(t, "", body["messageHtml"])
	assert.Equal(t, "@startuml\nX\n@enduml", body["plantUMLCode"])
}

func TestChatDiagram_InvalidMessages(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{})

	rec := te.do(t, http.MethodPost, "/api/chat-diagram", `{"messages":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Messages array is required", decodeBody(t, rec)["error"])

	rec = te.do(t, http.MethodPost, "/api/chat-diagram", `{"messages":"hello"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = te.do(t, http.MethodPost, "/api/chat-diagram", `{"messages":[{"role":"system","content":"x"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatDiagram_ModelError(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{err: errors.New("boom")})

	rec := te.do(t, http.MethodPost, "/api/chat-diagram", `{"messages":[{"role":"user","content":"x"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to process chat message", decodeBody(t, rec)["error"])
}

func TestRenderProxy(t *testing.T) {
	var gotPath string
	plantuml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer plantuml.Close()

	te := newTestEnv(t, config.Env{}, &fakeProvider{}, func(d *Deps) {
		d.Renderer = &render.Renderer{ServerURL: plantuml.URL, HTTPClient: plantuml.Client()}
	})

	rec := te.do(t, http.MethodPost, "/api/render", `{"plantUMLCode":"@startuml\nA -> B\n@enduml","format":"png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "PNGDATA", string(body))
	assert.True(t, strings.HasPrefix(gotPath, "/png/"))
}

func TestRenderProxy_Errors(t *testing.T) {
	plantuml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlantUML-Diagram-Error", "Syntax Error?")
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer plantuml.Close()

	te := newTestEnv(t, config.Env{}, &fakeProvider{}, func(d *Deps) {
		d.Renderer = &render.Renderer{ServerURL: plantuml.URL, HTTPClient: plantuml.Client()}
	})

	rec := te.do(t, http.MethodPost, "/api/render", `{"plantUMLCode":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = te.do(t, http.MethodPost, "/api/render", `{"plantUMLCode":"@startuml\n@enduml","format":"pdf"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = te.do(t, http.MethodPost, "/api/render", `{"plantUMLCode":"@startuml\nbroken\n@enduml"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to render diagram: Syntax Error?", decodeBody(t, rec)["error"])
}

func TestProviderStatus_Ollama(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{})

	rec := te.do(t, http.MethodGet, "/api/provider", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ollama", body["provider"])
	assert.Equal(t, true, body["configured"])
	ollama := body["ollama"].(map[string]any)
	assert.Equal(t, "0.12.6", ollama["version"])
}

func TestProviderStatus_RedactsAndReportsMissingCredentials(t *testing.T) {
	te := newTestEnv(t, config.Env{"AI_PROVIDER": "azure", "AZURE_OPENAI_API_KEY": "sk-very-secret-key"}, &fakeProvider{})

	rec := te.do(t, http.MethodGet, "/api/provider", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-very-secret-key")
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["configured"])
	assert.Equal(t, "Azure OpenAI API key and resource name are required", body["configError"])
	assert.Nil(t, body["ollama"])
}

func TestUsageEndpoint(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{reply: "@startuml\n@enduml"})
	te.do(t, http.MethodPost, "/api/generate-diagram", `{"prompt":"x"}`)

	rec := te.do(t, http.MethodGet, "/api/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary usage.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Calls)
	require.Len(t, summary.Totals, 1)
	assert.Equal(t, "ollama", summary.Totals[0].Provider)
	assert.Equal(t, 5, summary.Totals[0].TotalTokens)
}

func TestHealthzAndRouting(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{})

	rec := te.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = te.do(t, http.MethodGet, "/api/generate-diagram", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	te := newTestEnv(t, config.Env{}, &fakeProvider{})

	rec := te.do(t, http.MethodGet, "/healthz", "")
	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Contains(t, te.logs.String(), "request_id="+id)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	given := uuid.NewString()
	req.Header.Set(RequestIDHeader, given)
	rec = httptest.NewRecorder()
	te.handler.ServeHTTP(rec, req)
	assert.Equal(t, given, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\ninjected")
	rec = httptest.NewRecorder()
	te.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\r\ninjected", rec.Header().Get(RequestIDHeader))
}
