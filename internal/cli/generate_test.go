package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/render"
)

const loginMarkup = "@startuml\nUser -> App: login\nApp --> User: ok\n@enduml"

func TestGeneratePrintsCleanedMarkup(t *testing.T) {
	dataDir := createTestHome(t)
	writeValidConfig(t, dataDir, "http://plantuml.test")
	fp := &fakeProvider{replies: []string{"<think>plan</think>```plantuml\n" + loginMarkup + "\n```"}}
	useFakeProvider(t, fp)

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"generate", "-p", "a login sequence"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute generate: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != loginMarkup {
		t.Fatalf("expected markup %q, got %q", loginMarkup, got)
	}
	if len(fp.requests) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(fp.requests))
	}
	req := fp.requests[0]
	if req.Temperature != 0.2 || req.MaxTokens != 512 {
		t.Fatalf("expected sampling from config, got temperature=%v max_tokens=%d", req.Temperature, req.MaxTokens)
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != provider.RoleUser || last.Content != "a login sequence" {
		t.Fatalf("unexpected user message %+v", last)
	}
}

func TestGenerateAcceptsPositionalPrompt(t *testing.T) {
	dataDir := createTestHome(t)
	writeValidConfig(t, dataDir, "http://plantuml.test")
	fp := &fakeProvider{replies: []string{loginMarkup}}
	useFakeProvider(t, fp)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "a", "login", "sequence"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute generate: %v", err)
	}
	last := fp.requests[0].Messages[len(fp.requests[0].Messages)-1]
	if last.Content != "a login sequence" {
		t.Fatalf("expected joined prompt, got %q", last.Content)
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	dataDir := createTestHome(t)
	writeValidConfig(t, dataDir, "http://plantuml.test")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "-p", "   "})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "prompt is required") {
		t.Fatalf("expected prompt required error, got %v", err)
	}
}

func TestGenerateWritesMarkupFile(t *testing.T) {
	dataDir := createTestHome(t)
	writeValidConfig(t, dataDir, "http://plantuml.test")
	useFakeProvider(t, &fakeProvider{replies: []string{loginMarkup}})

	path := filepath.Join(t.TempDir(), "login.puml")
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "-p", "login", "-o", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute generate: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.TrimSpace(string(data)) != loginMarkup {
		t.Fatalf("unexpected file contents %q", data)
	}
}

func TestGenerateRendersImageFile(t *testing.T) {
	dataDir := createTestHome(t)
	srv := newPlantUMLServer(t)
	writeValidConfig(t, dataDir, srv.URL)
	useFakeProvider(t, &fakeProvider{replies: []string{loginMarkup}})

	path := filepath.Join(t.TempDir(), "login.png")
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "-p", "login", "-o", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute generate: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	encoded, err := render.Encode(loginMarkup)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != "png:"+encoded {
		t.Fatalf("expected png render of markup, got %q", data)
	}
}

func TestGenerateSurfacesProviderFailure(t *testing.T) {
	dataDir := createTestHome(t)
	writeValidConfig(t, dataDir, "http://plantuml.test")
	useFakeProvider(t, &fakeProvider{err: os.ErrDeadlineExceeded})

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "-p", "login"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "Failed to generate diagram") {
		t.Fatalf("expected generate failure, got %v", err)
	}
}

func TestFormatFor(t *testing.T) {
	cases := []struct {
		flag, path string
		want       render.Format
	}{
		{"", "out.svg", render.FormatSVG},
		{"", "out.PNG", render.FormatPNG},
		{"", "out.txt", render.FormatTXT},
		{"", "", render.FormatSVG},
		{"png", "out.svg", render.FormatPNG},
	}
	for _, tc := range cases {
		got, err := formatFor(tc.flag, tc.path)
		if err != nil {
			t.Fatalf("formatFor(%q, %q): %v", tc.flag, tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("formatFor(%q, %q) = %s, want %s", tc.flag, tc.path, got, tc.want)
		}
	}
	if _, err := formatFor("gif", ""); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
