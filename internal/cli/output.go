package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/commands"
	"github.com/neoclaw-ai/umlsmith/internal/logging"
	"github.com/neoclaw-ai/umlsmith/internal/render"
	"github.com/neoclaw-ai/umlsmith/internal/store"
)

// formatFor picks the render format from an explicit flag, falling back
// to the output file extension and then svg.
func formatFor(flag, path string) (render.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return render.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return render.FormatPNG, nil
	case ".txt":
		return render.FormatTXT, nil
	default:
		return render.FormatSVG, nil
	}
}

// writeDiagram saves markup to path, rendering it first unless path is a
// PlantUML source file.
func writeDiagram(ctx context.Context, r *render.Renderer, path, formatFlag, markup string) error {
	if strings.TrimSpace(markup) == "" {
		return errors.New("no diagram to write")
	}
	if commands.IsMarkupPath(path) && formatFlag == "" {
		return store.WriteMarkup(path, markup)
	}

	format, err := formatFor(formatFlag, path)
	if err != nil {
		return err
	}
	img, err := r.Render(ctx, format, markup)
	if err != nil {
		return err
	}
	if err := store.WriteFile(path, img.Data); err != nil {
		return err
	}
	logging.Logger().Info("diagram written", "path", path, "format", format, "bytes", len(img.Data))
	return nil
}
