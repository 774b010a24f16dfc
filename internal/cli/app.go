package cli

import (
	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/diagram"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/render"
	"github.com/neoclaw-ai/umlsmith/internal/usage"
)

// app holds the dependencies shared by subcommands.
type app struct {
	cfg      *config.Config
	env      diagram.EnvSource
	tracker  *usage.Tracker
	diagrams *diagram.Service
	renderer *render.Renderer
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env := diagram.EnvSource(cfg.EnvSource())
	tracker := usage.New()
	factory := func(pc config.ProviderConfig) (provider.Provider, error) {
		return providerFactory(pc, provider.WithTimeout(cfg.LLM.RequestTimeout))
	}

	return &app{
		cfg:     cfg,
		env:     env,
		tracker: tracker,
		diagrams: diagram.New(env, factory,
			diagram.WithSampling(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
			diagram.WithTracker(tracker),
		),
		renderer: render.New(cfg.Render.ServerURL, cfg.Render.Timeout),
	}, nil
}
