package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteToolCreatesNewFile(t *testing.T) {
	dir := t.TempDir()
	tool := &WriteTool{}

	req, err := tool.PreparePermission(context.Background(), map[string]any{
		"file_path": "new.txt",
		"content":   "hello",
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if req.DiffMeta == nil || !req.DiffMeta.IsNewFile {
		t.Fatalf("expected new-file preview, got %+v", req.DiffMeta)
	}

	res := tool.ExecuteApproved(context.Background(), map[string]any{
		"file_path": "new.txt",
		"content":   "hello",
	}, dir)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}

	got, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected file content: %q", got)
	}
}

func TestWriteToolOverwriteGeneratesDiff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &WriteTool{}
	req, err := tool.PreparePermission(context.Background(), map[string]any{
		"file_path": "existing.txt",
		"content":   "new",
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if req.DiffMeta == nil || req.DiffMeta.IsNewFile {
		t.Fatalf("expected overwrite diff, got %+v", req.DiffMeta)
	}
}

func TestWriteToolMissingContentRejected(t *testing.T) {
	tool := &WriteTool{}
	_, err := tool.PreparePermission(context.Background(), map[string]any{"file_path": "x.txt"}, t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing content")
	}
}
