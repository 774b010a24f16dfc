package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neoclaw-ai/umlsmith/internal/logging"
)

// DefaultServerURL is the public PlantUML server.
const DefaultServerURL = "https://www.plantuml.com/plantuml"

const maxImageBytes = 16 << 20

// Format is an output type served by PlantUML.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatTXT Format = "txt"
)

// ParseFormat accepts svg, png or txt in any case. Empty means svg.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatPNG, FormatTXT:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want svg, png or txt)", s)
	}
}

// ContentType is the MIME type PlantUML serves for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatTXT:
		return "text/plain; charset=utf-8"
	default:
		return "image/svg+xml"
	}
}

// Image is a rendered diagram.
type Image struct {
	Format      Format
	ContentType string
	Data        []byte
}

// ServerError is a non-2xx reply from the PlantUML server.
type ServerError struct {
	Status int
	// Detail comes from the X-PlantUML-Diagram-Error header when the markup failed to parse.
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("plantuml server returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("plantuml server returned %d", e.Status)
}

// Renderer fetches images from a PlantUML server.
type Renderer struct {
	ServerURL  string
	HTTPClient *http.Client
}

// New returns a Renderer. An empty serverURL uses DefaultServerURL.
func New(serverURL string, timeout time.Duration) *Renderer {
	return &Renderer{
		ServerURL:  serverURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// URL returns <server>/<format>/<encoded markup>.
func (r *Renderer) URL(format Format, markup string) (string, error) {
	encoded, err := Encode(markup)
	if err != nil {
		return "", err
	}
	server := strings.TrimRight(r.ServerURL, "/")
	if server == "" {
		server = DefaultServerURL
	}
	return fmt.Sprintf("%s/%s/%s", server, format, encoded), nil
}

// Render fetches markup rendered as format.
func (r *Renderer) Render(ctx context.Context, format Format, markup string) (*Image, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, fmt.Errorf("diagram markup is required")
	}
	u, err := r.URL(format, markup)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch diagram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxImageBytes))
		return nil, &ServerError{Status: resp.StatusCode, Detail: resp.Header.Get("X-PlantUML-Diagram-Error")}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read diagram: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = format.ContentType()
	}
	logging.Logger().Debug("diagram rendered", "format", format, "bytes", len(data), "duration", time.Since(start))

	return &Image{Format: format, ContentType: contentType, Data: data}, nil
}
