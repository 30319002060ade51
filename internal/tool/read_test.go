package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadToolReturnsFileContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ReadTool{}
	res := tool.Execute(context.Background(), map[string]any{"file_path": "a.txt"}, dir)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "line one") || !strings.Contains(res.Content, "line two") {
		t.Fatalf("missing expected content: %s", res.Content)
	}
}

func TestReadToolMissingFile(t *testing.T) {
	tool := &ReadTool{}
	res := tool.Execute(context.Background(), map[string]any{"file_path": "missing.txt"}, t.TempDir())
	if !res.IsError {
		t.Fatal("expected error for missing file")
	}
}

func TestReadToolOffsetAndLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		b.WriteString("row\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ReadTool{}
	res := tool.Execute(context.Background(), map[string]any{"file_path": "a.txt", "offset": 5, "limit": 2}, dir)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if strings.Count(res.Content, "row") != 2 {
		t.Fatalf("expected 2 rows, got: %s", res.Content)
	}
}

func TestReadToolDetectsBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte{0x00, 0x01, 0x02, 'a'}, 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ReadTool{}
	res := tool.Execute(context.Background(), map[string]any{"file_path": "a.bin"}, dir)
	if !strings.Contains(res.Content, "Binary file detected") {
		t.Fatalf("expected binary detection, got: %s", res.Content)
	}
}
