package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/yanmxa/gencode/internal/loopdetect"
	"github.com/yanmxa/gencode/internal/ptyexec"
	"github.com/yanmxa/gencode/internal/safety"
)

func newTestBashTool(t *testing.T) *BashTool {
	t.Helper()
	return NewBashTool(safety.NewEvaluator(nil, 64, t.TempDir()), ptyexec.NewExecutor(), loopdetect.New(0))
}

func TestBashToolAllowsSafeCommand(t *testing.T) {
	tool := newTestBashTool(t)
	req, err := tool.PreparePermission(context.Background(), map[string]any{"command": "echo hello"}, ".")
	if err != nil {
		t.Fatal(err)
	}
	if req != nil {
		t.Fatalf("expected nil request (auto-approve) for a safe echo, got %+v", req)
	}

	res := tool.ExecuteApproved(context.Background(), map[string]any{"command": "echo hello"}, ".")
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "hello") {
		t.Fatalf("expected output to contain hello, got: %s", res.Content)
	}
}

func TestBashToolDeniesDangerousCommand(t *testing.T) {
	tool := newTestBashTool(t)
	_, err := tool.PreparePermission(context.Background(), map[string]any{"command": "rm -rf /"}, ".")
	if err == nil {
		t.Fatal("expected denial for rm -rf /")
	}
}

func TestBashToolNonZeroExit(t *testing.T) {
	tool := newTestBashTool(t)
	res := tool.ExecuteApproved(context.Background(), map[string]any{"command": "exit 3"}, ".")
	if !res.IsError {
		t.Fatal("expected error result for non-zero exit")
	}
	if !strings.Contains(res.Content, "exit code 3") {
		t.Fatalf("expected exit code in output, got: %s", res.Content)
	}
}

func TestBashToolMissingCommand(t *testing.T) {
	tool := newTestBashTool(t)
	_, err := tool.PreparePermission(context.Background(), map[string]any{}, ".")
	if err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestBashToolRepeatedCommandTriggersLoopPrompt(t *testing.T) {
	loop := loopdetect.New(2)
	tool := NewBashTool(safety.NewEvaluator(nil, 64, t.TempDir()), ptyexec.NewExecutor(), loop)

	params := map[string]any{"command": "echo loop"}
	for i := 0; i < 2; i++ {
		if _, err := tool.PreparePermission(context.Background(), params, "."); err != nil {
			t.Fatal(err)
		}
	}
	req, err := tool.PreparePermission(context.Background(), params, ".")
	if err != nil {
		t.Fatal(err)
	}
	if req == nil {
		t.Fatal("expected a confirmation request once the loop threshold is exceeded")
	}
}
