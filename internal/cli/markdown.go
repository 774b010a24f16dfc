package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"golang.org/x/term"
)

const markdownWrap = 80

// markdownRenderer formats assistant commentary for the terminal. Output
// that is not a terminal gets the plain notty style.
type markdownRenderer struct {
	tr *glamour.TermRenderer
}

func newMarkdownRenderer(out io.Writer) *markdownRenderer {
	style := glamour.WithStandardStyle(styles.NoTTYStyle)
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		style = glamour.WithAutoStyle()
	}
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(markdownWrap))
	if err != nil {
		return &markdownRenderer{}
	}
	return &markdownRenderer{tr: tr}
}

// Render returns text formatted as markdown, or text unchanged when
// rendering fails.
func (m *markdownRenderer) Render(text string) string {
	if m == nil || m.tr == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := m.tr.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
