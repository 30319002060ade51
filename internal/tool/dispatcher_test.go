package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/yanmxa/gencode/internal/message"
)

func toolCall(t *testing.T, id, name string, input map[string]any) message.ToolCall {
	t.Helper()
	raw, err := json.Marshal(input)
	if err != nil {
		t.Fatal(err)
	}
	return message.ToolCall{ID: id, Name: name, Input: string(raw)}
}

func TestDispatcherPreservesCallOrderRegardlessOfCompletionTime(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(&ReadTool{})
	reg.Register(&LsTool{})

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := []message.ToolCall{
		toolCall(t, "1", "Read", map[string]any{"file_path": "a.txt"}),
		toolCall(t, "2", "Ls", map[string]any{}),
		toolCall(t, "3", "Read", map[string]any{"file_path": "a.txt"}),
	}

	d := NewDispatcher(reg)
	results := d.Execute(context.Background(), calls, dir, nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"1", "2", "3"} {
		if results[i].ToolCallID != want {
			t.Fatalf("result %d: expected call id %s, got %s", i, want, results[i].ToolCallID)
		}
	}
}

func TestDispatcherSerializesSamePathWrites(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(&WriteTool{})

	calls := []message.ToolCall{
		toolCall(t, "1", "Write", map[string]any{"file_path": "x.txt", "content": "one"}),
		toolCall(t, "2", "Write", map[string]any{"file_path": "x.txt", "content": "two"}),
	}

	d := NewDispatcher(reg)
	results := d.Execute(context.Background(), calls, dir, func(string) bool { return true })

	for _, r := range results {
		if r.IsError {
			t.Fatalf("unexpected error: %s", r.Content)
		}
	}

	got, err := os.ReadFile(filepath.Join(dir, "x.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Fatalf("expected last write (call 2) to win, got %q", got)
	}
}

func TestDispatcherUnknownTool(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	results := d.Execute(context.Background(), []message.ToolCall{
		toolCall(t, "1", "NoSuchTool", map[string]any{}),
	}, t.TempDir(), nil)
	if !results[0].IsError {
		t.Fatal("expected error for unknown tool")
	}
}

func TestDispatcherApprovalDenialCancelsCall(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(&WriteTool{})

	d := NewDispatcher(reg)
	results := d.Execute(context.Background(), []message.ToolCall{
		toolCall(t, "1", "Write", map[string]any{"file_path": "y.txt", "content": "x"}),
	}, dir, func(string) bool { return false })

	if results[0].Status != message.StatusCanceled {
		t.Fatalf("expected canceled status, got %v", results[0].Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "y.txt")); err == nil {
		t.Fatal("expected file not to be written when approval is denied")
	}
}
