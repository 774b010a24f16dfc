// Package server exposes the diagram use cases over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/diagram"
	"github.com/neoclaw-ai/umlsmith/internal/logging"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
	"github.com/neoclaw-ai/umlsmith/internal/render"
	"github.com/neoclaw-ai/umlsmith/internal/usage"
)

const defaultMaxBodyBytes = 1 << 20

// ProbeFunc reports the state of a local Ollama server.
type ProbeFunc func(ctx context.Context, baseURL string) (*provider.OllamaStatus, error)

// Deps are the collaborators behind the HTTP handlers.
type Deps struct {
	Diagrams     *diagram.Service
	Renderer     *render.Renderer
	Tracker      *usage.Tracker
	Env          diagram.EnvSource
	Probe        ProbeFunc
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	diagrams *diagram.Service
	renderer *render.Renderer
	tracker  *usage.Tracker
	env      diagram.EnvSource
	probe    ProbeFunc
	maxBody  int64
	logger   *slog.Logger
	markdown goldmark.Markdown
}

// New builds a Server. Diagrams is required; the rest have defaults.
func New(d Deps) *Server {
	s := &Server{
		diagrams: d.Diagrams,
		renderer: d.Renderer,
		tracker:  d.Tracker,
		env:      d.Env,
		probe:    d.Probe,
		maxBody:  d.MaxBodyBytes,
		logger:   d.Logger,
		markdown: goldmark.New(),
	}
	if s.renderer == nil {
		s.renderer = &render.Renderer{}
	}
	if s.tracker == nil {
		s.tracker = usage.New()
	}
	if s.env == nil {
		s.env = func() (config.Env, error) { return config.EnvFromOS(), nil }
	}
	if s.probe == nil {
		s.probe = func(ctx context.Context, baseURL string) (*provider.OllamaStatus, error) {
			return provider.ProbeOllama(ctx, baseURL, nil)
		}
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = logging.Logger()
	}
	return s
}

// Handler returns the routed handler wrapped in request-ID and access-log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-diagram", s.handleGenerate)
	mux.HandleFunc("POST /api/chat-diagram", s.handleChat)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/provider", s.handleProvider)
	mux.HandleFunc("GET /api/usage", s.handleUsage)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return withRequestID(s.withAccessLog(s.withRecover(mux)))
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	PlantUMLCode string `json:"plantUMLCode"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.diagrams.Generate(r.Context(), req.Prompt)
	if err != nil {
		s.writeDiagramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{PlantUMLCode: res.Markup})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage `json:"messages"`
	CurrentDiagram string        `json:"currentDiagram"`
}

type chatResponse struct {
	Message      string  `json:"message"`
	MessageHTML  string  `json:"messageHtml"`
	PlantUMLCode *string `json:"plantUMLCode"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	msgs := make([]provider.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, provider.ChatMessage{Role: provider.Role(m.Role), Content: m.Content})
	}

	res, err := s.diagrams.Refine(r.Context(), diagram.RefineRequest{
		Messages:       msgs,
		CurrentDiagram: req.CurrentDiagram,
	})
	if err != nil {
		s.writeDiagramError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Message:      res.Message,
		MessageHTML:  s.renderMarkdown(res.Message),
		PlantUMLCode: res.Markup,
	})
}

func (s *Server) renderMarkdown(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		s.logger.Warn("render commentary markdown failed", "err", err)
		return ""
	}
	return buf.String()
}

type renderRequest struct {
	PlantUMLCode string `json:"plantUMLCode"`
	Format       string `json:"format"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PlantUMLCode) == "" {
		writeError(w, http.StatusBadRequest, "PlantUML code is required")
		return
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := s.renderer.Render(r.Context(), format, req.PlantUMLCode)
	if err != nil {
		s.logger.Error("render diagram failed", "request_id", RequestID(r.Context()), "format", format, "err", err)
		var serr *render.ServerError
		if errors.As(err, &serr) && serr.Detail != "" {
			writeError(w, http.StatusBadGateway, "Failed to render diagram: "+serr.Detail)
			return
		}
		writeError(w, http.StatusBadGateway, "Failed to render diagram")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

type providerResponse struct {
	Provider    registry.ID            `json:"provider"`
	Label       string                 `json:"label"`
	Protocol    registry.Protocol      `json:"protocol"`
	Config      config.ProviderConfig  `json:"config"`
	Configured  bool                   `json:"configured"`
	ConfigError string                 `json:"configError,omitempty"`
	Ollama      *provider.OllamaStatus `json:"ollama,omitempty"`
	OllamaError string                 `json:"ollamaError,omitempty"`
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	env, err := s.env()
	if err != nil {
		s.logger.Error("load provider environment failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to load provider environment")
		return
	}
	cfg := config.ResolveFromEnvironment(env)
	resp := providerResponse{
		Provider:   cfg.Provider,
		Label:      registry.Label(cfg.Provider),
		Protocol:   registry.ProtocolOf(cfg.Provider),
		Config:     cfg.Redacted(),
		Configured: true,
	}
	if err := cfg.Validate(); err != nil {
		resp.Configured = false
		resp.ConfigError = err.Error()
	}
	if cfg.Provider == registry.Ollama {
		status, err := s.probe(r.Context(), cfg.BaseURL)
		if err != nil {
			resp.OllamaError = err.Error()
		} else {
			resp.Ollama = status
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Summary())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a size-capped JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// writeDiagramError maps orchestration failures to status codes. Model
// failure detail is logged and never returned.
func (s *Server) writeDiagramError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *diagram.Error
	if !errors.As(err, &derr) {
		s.logger.Error("request failed", "request_id", RequestID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	switch derr.Kind {
	case diagram.KindInput:
		writeError(w, http.StatusBadRequest, derr.Msg)
	case diagram.KindConfig:
		writeError(w, http.StatusInternalServerError, derr.Msg)
	default:
		s.logger.Error("model call failed", "request_id", RequestID(r.Context()), "err", derr.Err)
		writeError(w, http.StatusInternalServerError, derr.Msg)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
