package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/store"
	"github.com/spf13/cobra"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		output  string
		format  string
		urlOnly bool
	)

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render PlantUML markup through the configured PlantUML server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markup, err := readMarkup(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			a, err := newApp(opts.configPath)
			if err != nil {
				return err
			}

			f, err := formatFor(format, output)
			if err != nil {
				return err
			}

			if urlOnly {
				u, err := a.renderer.URL(f, markup)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
				return err
			}

			if output != "" {
				return writeDiagram(cmd.Context(), a.renderer, output, format, markup)
			}
			img, err := a.renderer.Render(cmd.Context(), f, markup)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(img.Data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the image to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Render format: svg, png or txt (default from -o extension)")
	cmd.Flags().BoolVar(&urlOnly, "url", false, "Print the PlantUML server URL instead of fetching the image")

	return cmd
}

func readMarkup(stdin io.Reader, args []string) (string, error) {
	var markup string
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read markup: %w", err)
		}
		markup = strings.TrimSpace(string(data))
	} else {
		var err error
		if markup, err = store.ReadMarkup(args[0]); err != nil {
			return "", fmt.Errorf("read markup: %w", err)
		}
	}
	if markup == "" {
		return "", errors.New("markup is empty")
	}
	return markup, nil
}
