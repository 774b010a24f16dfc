// Package commands handles the slash commands of the diagram chat REPL.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// HelpText lists the supported commands.
const HelpText = `Commands:
  /diagram         print the current diagram
  /reset, /new     clear the conversation and diagram
  /save <file>     write the diagram (.puml keeps markup, .svg/.png/.txt renders)
  /render <file>   render the diagram through the PlantUML server
  /help            show this help
  /quit, /exit     leave`

// Session is the conversation state commands act on.
type Session interface {
	Current() string
	Reset()
}

// Exporter writes markup to path. format is "" to choose from the extension.
type Exporter func(ctx context.Context, path, format, markup string) error

// Writer receives command output.
type Writer interface {
	WriteMeta(ctx context.Context, text string) error
}

// Handler dispatches supported slash commands.
type Handler struct {
	session Session
	export  Exporter
}

// New creates a slash command handler. A nil export disables /save and /render.
func New(session Session, export Exporter) *Handler {
	return &Handler{session: session, export: export}
}

// Handle executes one command and reports whether it was handled. Command
// failures are written to w; only write errors are returned.
func (h *Handler) Handle(ctx context.Context, input string, w Writer) (handled bool, err error) {
	if w == nil {
		return false, errors.New("writer is required")
	}
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(name, "/") {
		return false, nil
	}

	switch name {
	case "/help", "/commands":
		return true, w.WriteMeta(ctx, HelpText)
	case "/diagram":
		return true, w.WriteMeta(ctx, h.diagram())
	case "/new", "/reset":
		if h.session == nil {
			return true, w.WriteMeta(ctx, "reset is unavailable")
		}
		h.session.Reset()
		return true, w.WriteMeta(ctx, "Session cleared.")
	case "/save", "/render":
		return true, w.WriteMeta(ctx, h.exportTo(ctx, name, arg))
	default:
		return true, w.WriteMeta(ctx, fmt.Sprintf("unknown command %s (try /help)", name))
	}
}

func (h *Handler) diagram() string {
	if h.session == nil || h.session.Current() == "" {
		return "no diagram yet"
	}
	return h.session.Current()
}

func (h *Handler) exportTo(ctx context.Context, name, path string) string {
	if path == "" {
		return fmt.Sprintf("usage: %s <file>", name)
	}
	if h.export == nil || h.session == nil {
		return name + " is unavailable"
	}
	markup := h.session.Current()
	if markup == "" {
		return "no diagram yet"
	}
	// /render always produces an image, even for a .puml target.
	format := ""
	if name == "/render" && IsMarkupPath(path) {
		format = "svg"
	}
	if err := h.export(ctx, path, format, markup); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return "wrote " + path
}

// IsMarkupPath reports whether path names a PlantUML source file.
func IsMarkupPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".puml", ".plantuml", ".pu", ".uml", ".wsd"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
