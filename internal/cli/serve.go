package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/server"
	"github.com/spf13/cobra"
)

const ollamaProbeTimeout = 3 * time.Second

var ollamaProbe = provider.ProbeOllama

func probeOllama(ctx context.Context, baseURL string) (*provider.OllamaStatus, error) {
	return ollamaProbe(ctx, baseURL, &http.Client{Timeout: ollamaProbeTimeout})
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Server.Listen = listen
			}

			env, err := a.env()
			if err != nil {
				return err
			}
			report, err := config.ValidateStartup(a.cfg, env)
			if err != nil {
				return err
			}
			warnStartupConditions(report)

			srv := server.New(server.Deps{
				Diagrams:     a.diagrams,
				Renderer:     a.renderer,
				Tracker:      a.tracker,
				Env:          a.env,
				Probe:        probeOllama,
				MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pc := config.ResolveFromEnvironment(env)
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"starting server... listen=%s provider=%s model=%s\n",
				a.cfg.Server.Listen,
				pc.Provider,
				pc.Model,
			); err != nil {
				return err
			}
			return server.ListenAndServe(ctx, a.cfg.Server, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")

	return cmd
}
