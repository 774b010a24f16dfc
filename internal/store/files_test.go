package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const markup = "@startuml\nA -> B\n@enduml"

func TestWriteMarkupAndReadMarkup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flow.puml")

	if err := WriteMarkup(path, markup+"\n\n"); err != nil {
		t.Fatalf("write markup: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(raw) != markup+"\n" {
		t.Fatalf("expected single trailing newline, got %q", raw)
	}

	got, err := ReadMarkup(path)
	if err != nil {
		t.Fatalf("read markup: %v", err)
	}
	if got != markup {
		t.Fatalf("expected %q, got %q", markup, got)
	}
}

func TestWriteFileReplacesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.svg")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := WriteFile(path, []byte("<svg/>")); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != "<svg/>" {
		t.Fatalf("expected new content, got %q", string(got))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func TestWriteFileConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.png")
	const writes = 50

	var wg sync.WaitGroup
	for i := 0; i < writes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := WriteFile(path, []byte(strings.Repeat("x", 64))); err != nil {
				t.Errorf("write file: %v", err)
			}
		}()
	}
	wg.Wait()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 64 bytes, got %d", len(raw))
	}
}

func TestReadMarkupRejectsBadPaths(t *testing.T) {
	if _, err := ReadMarkup("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := ReadMarkup(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory")
	}
	if _, err := ReadMarkup(filepath.Join(t.TempDir(), "missing.puml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
