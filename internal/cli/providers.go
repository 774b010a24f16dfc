package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
	"github.com/spf13/cobra"
)

func newProvidersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and check the active one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.configPath)
			if err != nil {
				return err
			}
			env, err := a.env()
			if err != nil {
				return err
			}
			active := config.ResolveFromEnvironment(env)
			out := cmd.OutOrStdout()

			if err := writeProviderTable(out, active.Provider); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "active:  %s (%s)\n", registry.Label(active.Provider), active.Provider)
			fmt.Fprintf(out, "model:   %s\n", active.Model)
			if active.BaseURL != "" {
				fmt.Fprintf(out, "baseURL: %s\n", active.BaseURL)
			}
			if err := active.Validate(); err != nil {
				fmt.Fprintf(out, "status:  not configured: %v\n", err)
				return nil
			}
			fmt.Fprintln(out, "status:  configured")

			if active.Provider != registry.Ollama {
				return nil
			}
			status, err := probeOllama(cmd.Context(), active.BaseURL)
			if err != nil {
				fmt.Fprintf(out, "ollama:  %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "ollama:  %s reachable, version %s, %d model(s)\n", status.BaseURL, status.Version, len(status.Models))
			if !status.HasModel(active.Model) {
				fmt.Fprintf(out, "warning: model %q is not installed, run `ollama pull %s`\n", active.Model, active.Model)
			}
			return nil
		},
	}
}

func writeProviderTable(out io.Writer, active registry.ID) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tPROVIDER\tNAME\tPROTOCOL\tDEFAULT MODEL")
	for _, id := range registry.All() {
		mark := ""
		if id == active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			mark,
			id,
			registry.Label(id),
			registry.ProtocolOf(id),
			strings.TrimSpace(registry.DefaultModel(id)),
		)
	}
	return tw.Flush()
}
