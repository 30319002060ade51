package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLsToolListsEntriesSorted(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "zdir"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "afile.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &LsTool{}
	res := tool.Execute(context.Background(), map[string]any{}, dir)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "afile.txt") || !strings.Contains(res.Content, "zdir/") {
		t.Fatalf("missing expected entries: %s", res.Content)
	}
	if strings.Index(res.Content, "afile.txt") > strings.Index(res.Content, "zdir/") {
		t.Fatalf("expected alphabetical order: %s", res.Content)
	}
}

func TestLsToolMissingPath(t *testing.T) {
	tool := &LsTool{}
	res := tool.Execute(context.Background(), map[string]any{"path": "does-not-exist"}, t.TempDir())
	if !res.IsError {
		t.Fatal("expected error for missing path")
	}
}

func TestLsToolEmptyDir(t *testing.T) {
	tool := &LsTool{}
	res := tool.Execute(context.Background(), map[string]any{}, t.TempDir())
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "empty directory") {
		t.Fatalf("expected empty-directory note, got: %s", res.Content)
	}
}
