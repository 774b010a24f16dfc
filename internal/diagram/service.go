// Package diagram orchestrates diagram generation and chat refinement
// against the provider selected by the environment.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/logging"
	"github.com/neoclaw-ai/umlsmith/internal/normalize"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
	"github.com/neoclaw-ai/umlsmith/internal/usage"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000

	generateFailure = "Failed to generate diagram"
	refineFailure   = "Failed to process chat message"
)

// EnvSource snapshots the environment once per request.
type EnvSource func() (config.Env, error)

// Factory builds a provider client for one request.
type Factory func(config.ProviderConfig) (provider.Provider, error)

// Service runs the generate and refine use cases. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	env         EnvSource
	factory     Factory
	temperature float64
	maxTokens   int
	tracker     *usage.Tracker
	logger      *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithSampling overrides the temperature and output token ceiling.
func WithSampling(temperature float64, maxTokens int) Option {
	return func(s *Service) {
		s.temperature = temperature
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
	}
}

// WithTracker records every completed model call.
func WithTracker(t *usage.Tracker) Option {
	return func(s *Service) { s.tracker = t }
}

// WithLogger replaces the process logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Service. A nil env reads the process environment and a nil
// factory uses provider.NewFromConfig.
func New(env EnvSource, factory Factory, opts ...Option) *Service {
	if env == nil {
		env = func() (config.Env, error) { return config.EnvFromOS(), nil }
	}
	if factory == nil {
		factory = func(cfg config.ProviderConfig) (provider.Provider, error) {
			return provider.NewFromConfig(cfg)
		}
	}
	s := &Service{
		env:         env,
		factory:     factory,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      logging.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Call identifies the provider and model that served a request.
type Call struct {
	Provider registry.ID
	Model    string
	Usage    provider.TokenUsage
	Duration time.Duration
}

// GenerateResult is the outcome of Generate.
type GenerateResult struct {
	Markup string
	Call   Call
}

// RefineRequest is one chat turn against an optional current diagram.
type RefineRequest struct {
	Messages       []provider.ChatMessage
	CurrentDiagram string
}

// RefineResult carries the model's commentary and, when the reply
// contained a diagram, its markup.
type RefineResult struct {
	Message string
	Markup  *string
	Call    Call
}

// Generate turns a natural-language prompt into diagram markup. The whole
// reply is treated as markup after reasoning and fences are stripped.
func (s *Service) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, inputError("Prompt is required")
	}

	content, call, err := s.complete(ctx, "generate", generateFailure, func(cfg config.ProviderConfig) []provider.ChatMessage {
		return []provider.ChatMessage{
			{Role: InstructionRole(cfg.Provider, cfg.Model), Content: GenerateInstructions},
			{Role: provider.RoleUser, Content: prompt},
		}
	})
	if err != nil {
		return nil, err
	}

	return &GenerateResult{Markup: normalize.CleanMarkup(content), Call: call}, nil
}

// Refine continues a conversation about a diagram. A reply without markers
// is a conversational answer, not an error.
func (s *Service) Refine(ctx context.Context, req RefineRequest) (*RefineResult, error) {
	if len(req.Messages) == 0 {
		return nil, inputError("Messages array is required")
	}
	for i, msg := range req.Messages {
		if msg.Role != provider.RoleUser && msg.Role != provider.RoleAssistant {
			return nil, inputError(fmt.Sprintf("Message %d has unsupported role %q", i, msg.Role))
		}
	}

	content, call, err := s.complete(ctx, "refine", refineFailure, func(cfg config.ProviderConfig) []provider.ChatMessage {
		role := InstructionRole(cfg.Provider, cfg.Model)
		msgs := make([]provider.ChatMessage, 0, len(req.Messages)+2)
		msgs = append(msgs, provider.ChatMessage{Role: role, Content: ChatInstructions})
		if req.CurrentDiagram != "" {
			msgs = append(msgs, provider.ChatMessage{Role: role, Content: CurrentDiagramPrefix + req.CurrentDiagram})
		}
		return append(msgs, req.Messages...)
	})
	if err != nil {
		return nil, err
	}

	res := normalize.Normalize(content)
	out := &RefineResult{Message: res.Commentary, Call: call}
	if res.HasMarkup {
		markup := res.Markup
		out.Markup = &markup
	}
	return out, nil
}

// complete resolves the provider, sends one completion and records usage.
func (s *Service) complete(ctx context.Context, op, failMsg string, build func(config.ProviderConfig) []provider.ChatMessage) (string, Call, error) {
	env, err := s.env()
	if err != nil {
		return "", Call{}, &Error{Kind: KindConfig, Msg: fmt.Sprintf("load provider environment: %v", err), Err: err}
	}
	cfg := config.ResolveFromEnvironment(env)
	call := Call{Provider: cfg.Provider, Model: cfg.Model}

	client, err := s.factory(cfg)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			s.logger.Warn("provider not configured", "op", op, "provider", cfg.Provider, "err", err)
			return "", call, &Error{Kind: KindConfig, Msg: cfgErr.Msg, Err: err}
		}
		s.logger.Error("provider client failed", "op", op, "provider", cfg.Provider, "err", err)
		return "", call, &Error{Kind: KindModel, Msg: failMsg, Err: err}
	}

	start := time.Now()
	resp, err := client.Chat(ctx, provider.ChatRequest{
		Messages:    build(cfg),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	call.Duration = time.Since(start)
	if err != nil {
		s.logger.Error("llm call failed",
			"op", op,
			"provider", cfg.Provider,
			"model", cfg.Model,
			"duration", call.Duration,
			"err", err,
		)
		return "", call, &Error{Kind: KindModel, Msg: failMsg, Err: err}
	}
	call.Usage = resp.Usage

	s.logger.Info("llm call",
		"op", op,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"duration", call.Duration,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	s.record(ctx, op, call)

	return resp.Content, call, nil
}

func (s *Service) record(ctx context.Context, op string, call Call) {
	if s.tracker == nil {
		return
	}
	err := s.tracker.Append(ctx, usage.Record{
		Operation:    op,
		Provider:     string(call.Provider),
		Model:        call.Model,
		InputTokens:  call.Usage.InputTokens,
		OutputTokens: call.Usage.OutputTokens,
		TotalTokens:  call.Usage.TotalTokens,
	})
	if err != nil {
		s.logger.Warn("record usage failed", "op", op, "err", err)
	}
}
