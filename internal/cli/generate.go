package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		prompt string
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a diagram from a natural-language description",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(prompt)
			if text == "" {
				text = strings.TrimSpace(strings.Join(args, " "))
			}
			if text == "" {
				return errors.New("prompt is required: pass -p or a positional argument")
			}

			a, err := newApp(opts.configPath)
			if err != nil {
				return err
			}
			res, err := a.diagrams.Generate(cmd.Context(), text)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.Markup); err != nil {
				return err
			}

			if output == "" {
				return nil
			}
			return writeDiagram(cmd.Context(), a.renderer, output, format, res.Markup)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Diagram description")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the diagram to this file (.puml keeps markup, otherwise rendered)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Render format: svg, png or txt (default from -o extension)")

	return cmd
}
