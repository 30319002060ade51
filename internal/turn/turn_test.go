package turn

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/yanmxa/gencode/internal/client"
	"github.com/yanmxa/gencode/internal/contextmgr"
	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool"
)

func newRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	reg.Register(&tool.ReadTool{})
	return reg
}

func TestRunTurnHonorsToolDocModeOption(t *testing.T) {
	minimalFake := &client.FakeClient{Responses: []message.CompletionResponse{
		{Content: "hello there", StopReason: "end_turn"},
	}}
	minimalDriver := New(nil, minimalFake, newRegistry(t), contextmgr.New(100000))
	if _, err := minimalDriver.RunTurn(context.Background(), "hi", Options{ToolDocMode: tool.DocMinimal}); err != nil {
		t.Fatal(err)
	}
	if len(minimalFake.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(minimalFake.Calls))
	}
	minimalTools := minimalFake.Calls[0].Tools
	if len(minimalTools) != 1 || minimalTools[0].Description != "Read file contents." {
		t.Fatalf("expected minimal Read description, got %+v", minimalTools)
	}

	fullFake := &client.FakeClient{Responses: []message.CompletionResponse{
		{Content: "hello again", StopReason: "end_turn"},
	}}
	fullDriver := New(nil, fullFake, newRegistry(t), contextmgr.New(100000))
	if _, err := fullDriver.RunTurn(context.Background(), "hi", Options{ToolDocMode: tool.DocFull}); err != nil {
		t.Fatal(err)
	}
	fullTools := fullFake.Calls[0].Tools
	if len(fullTools) != 1 || fullTools[0].Description == minimalTools[0].Description {
		t.Fatalf("expected full Read description to differ from minimal, got %+v", fullTools)
	}
}

func TestRunTurnCompletesWithNoToolCalls(t *testing.T) {
	fake := &client.FakeClient{Responses: []message.CompletionResponse{
		{Content: "hello there", StopReason: "end_turn"},
	}}
	d := New(nil, fake, newRegistry(t), contextmgr.New(100000))

	res, err := d.RunTurn(context.Background(), "hi", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Completed {
		t.Fatalf("expected Completed, got %s", res.Outcome)
	}
	if d.Phase() != Terminated {
		t.Fatalf("expected Terminated phase, got %s", d.Phase())
	}
}

func TestRunTurnDispatchesToolCallThenCompletes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("file contents"), 0644); err != nil {
		t.Fatal(err)
	}

	input, _ := json.Marshal(map[string]any{"file_path": path})
	fake := &client.FakeClient{Responses: []message.CompletionResponse{
		{
			Content:    "",
			StopReason: "tool_use",
			ToolCalls:  []message.ToolCall{{ID: "call-1", Name: "Read", Input: string(input)}},
		},
		{Content: "done reading", StopReason: "end_turn"},
	}}

	d := New(nil, fake, newRegistry(t), contextmgr.New(100000))
	res, err := d.RunTurn(context.Background(), "read the file", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Completed {
		t.Fatalf("expected Completed, got %s: %s", res.Outcome, res.Reason)
	}

	var sawToolResult bool
	for _, m := range res.Messages {
		if m.Role == message.RoleToolResult {
			sawToolResult = true
			if m.ToolResult.IsError {
				t.Fatalf("unexpected tool error: %s", m.ToolResult.Content)
			}
		}
	}
	if !sawToolResult {
		t.Fatal("expected a tool result message in history")
	}
}

func TestRunTurnBudgetExceededOnTooManyToolCalls(t *testing.T) {
	input, _ := json.Marshal(map[string]any{"file_path": "/nonexistent"})
	fake := &client.FakeClient{Responses: []message.CompletionResponse{
		{
			StopReason: "tool_use",
			ToolCalls: []message.ToolCall{
				{ID: "call-1", Name: "Read", Input: string(input)},
				{ID: "call-2", Name: "Read", Input: string(input)},
			},
		},
	}}

	d := New(nil, fake, newRegistry(t), contextmgr.New(100000))
	res, err := d.RunTurn(context.Background(), "go", Options{MaxToolCallsPerTurn: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != BudgetExceeded {
		t.Fatalf("expected BudgetExceeded, got %s", res.Outcome)
	}
}

func TestRunTurnAbortsWhenAlreadyAtHardLimit(t *testing.T) {
	mgr := contextmgr.New(1000)
	mgr.Counter.Append(960) // 96% >= 95% hard ratio

	fake := &client.FakeClient{Responses: []message.CompletionResponse{
		{Content: "should never be reached", StopReason: "end_turn"},
	}}
	d := New(nil, fake, newRegistry(t), mgr)

	res, err := d.RunTurn(context.Background(), "hi", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != BudgetExceeded {
		t.Fatalf("expected BudgetExceeded, got %s", res.Outcome)
	}
	if len(fake.Calls) != 0 {
		t.Fatalf("expected no model calls when aborting before the first request, got %d", len(fake.Calls))
	}
}

func TestRunTurnCancelObservedBeforeDispatch(t *testing.T) {
	fake := &client.FakeClient{Responses: []message.CompletionResponse{
		{Content: "unused", StopReason: "end_turn"},
	}}
	d := New(nil, fake, newRegistry(t), contextmgr.New(100000))
	d.Cancel()

	res, err := d.RunTurn(context.Background(), "hi", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Canceled {
		t.Fatalf("expected Canceled, got %s", res.Outcome)
	}
}

func TestResumeNormalizesDanglingToolCall(t *testing.T) {
	danglingCall := message.ToolCall{ID: "call-1", Name: "Read", Input: "{}"}
	history := []message.Message{
		message.UserMessage("go read a file", nil),
		message.AssistantMessage("", "", []message.ToolCall{danglingCall}),
	}

	d := New(nil, &client.FakeClient{}, newRegistry(t), contextmgr.New(100000))
	report := d.Resume(history)

	if report.MissingOutputsFixed != 1 {
		t.Fatalf("expected 1 missing output fixed, got %d", report.MissingOutputsFixed)
	}
	if d.Phase() != Idle {
		t.Fatalf("expected Idle phase after resume, got %s", d.Phase())
	}
}

func TestCompactionRunsWhenTriggerRatioReached(t *testing.T) {
	mgr := contextmgr.New(1000)
	mgr.PreserveCount = 1
	mgr.Counter.Append(900) // 90% >= 85% trigger ratio, < 95% hard ratio

	fake := &client.FakeClient{Responses: []message.CompletionResponse{
		{Content: "summary of everything", StopReason: "end_turn"},
		{Content: "final answer", StopReason: "end_turn"},
	}}

	d := New(nil, fake, newRegistry(t), mgr)
	d.Compactor = fake
	d.SetMessages([]message.Message{
		message.UserMessage("first", nil),
		message.AssistantMessage("second", "", nil),
	})

	res, err := d.RunTurn(context.Background(), "continue", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Completed {
		t.Fatalf("expected Completed, got %s: %s", res.Outcome, res.Reason)
	}

	var sawLedgerCompact bool
	for _, rec := range d.Ledger() {
		if rec.Action == "compact" {
			sawLedgerCompact = true
		}
	}
	if !sawLedgerCompact {
		t.Fatal("expected a compact entry in the decision ledger")
	}
}
