package message

import "testing"

func TestNormalizeFixesDanglingCall(t *testing.T) {
	history := []Message{
		UserMessage("run it", nil),
		AssistantMessage("", "", []ToolCall{{ID: "tc1", Name: "Bash", Input: "{}"}}),
	}

	out, report := Normalize(history)

	if report.MissingOutputsFixed != 1 {
		t.Fatalf("expected 1 missing output fixed, got %d", report.MissingOutputsFixed)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 messages after normalize, got %d", len(out))
	}
	last := out[len(out)-1]
	if last.Role != RoleToolResult || last.ToolResult.Status != StatusCanceled {
		t.Fatalf("expected synthesized canceled output, got %+v", last)
	}
	if last.ToolResult.ToolCallID != "tc1" {
		t.Fatalf("expected call id tc1, got %q", last.ToolResult.ToolCallID)
	}
}

func TestNormalizeDropsOrphanOutput(t *testing.T) {
	history := []Message{
		UserMessage("hi", nil),
		ToolResultMessage(ToolResult{ToolCallID: "ghost", Content: "stray"}),
	}

	out, report := Normalize(history)

	if report.OrphansRemoved != 1 {
		t.Fatalf("expected 1 orphan removed, got %d", report.OrphansRemoved)
	}
	if len(out) != 1 {
		t.Fatalf("expected orphan dropped, got %d messages", len(out))
	}
}

func TestNormalizeDropsDuplicateOutput(t *testing.T) {
	tc := ToolCall{ID: "tc1", Name: "Read", Input: "{}"}
	history := []Message{
		AssistantMessage("", "", []ToolCall{tc}),
		ToolResultMessage(ToolResult{ToolCallID: "tc1", Content: "first"}),
		ToolResultMessage(ToolResult{ToolCallID: "tc1", Content: "second"}),
	}

	out, report := Normalize(history)

	if report.OrphansRemoved != 1 {
		t.Fatalf("expected 1 duplicate removed, got %d", report.OrphansRemoved)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if out[1].ToolResult.Content != "first" {
		t.Fatalf("expected first output kept, got %q", out[1].ToolResult.Content)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	history := []Message{
		UserMessage("go", nil),
		AssistantMessage("", "", []ToolCall{{ID: "tc1", Name: "Bash", Input: "{}"}}),
		ToolResultMessage(ToolResult{ToolCallID: "ghost", Content: "stray"}),
	}

	once, _ := Normalize(history)
	twice, report2 := Normalize(once)

	if len(once) != len(twice) {
		t.Fatalf("normalize not stable in length: %d vs %d", len(once), len(twice))
	}
	if report2.MissingOutputsFixed != 0 || report2.OrphansRemoved != 0 {
		t.Fatalf("second normalize pass should be a no-op, got %+v", report2)
	}
}

func TestNormalizePreservesWellFormedHistory(t *testing.T) {
	tc := ToolCall{ID: "tc1", Name: "Grep", Input: "{}"}
	history := []Message{
		UserMessage("search", nil),
		AssistantMessage("", "", []ToolCall{tc}),
		ToolResultMessage(ToolResult{ToolCallID: "tc1", Content: "3 matches"}),
		AssistantMessage("done", "", nil),
	}

	out, report := Normalize(history)

	if report.MissingOutputsFixed != 0 || report.OrphansRemoved != 0 {
		t.Fatalf("expected no repairs, got %+v", report)
	}
	if len(out) != len(history) {
		t.Fatalf("expected history unchanged in length, got %d vs %d", len(out), len(history))
	}
}
