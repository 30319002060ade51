package contextmgr

import (
	"context"
	"testing"

	"github.com/yanmxa/gencode/internal/client"
	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/token"
)

func TestCheckProceedBelowWarnThreshold(t *testing.T) {
	m := New(1000)
	m.Counter.Append(100)
	if r := m.Check(); r.Decision != Proceed {
		t.Fatalf("expected Proceed, got %s", r.Decision)
	}
}

func TestCheckWarnAtThreshold(t *testing.T) {
	m := New(1000)
	m.Counter.Append(750)
	if r := m.Check(); r.Decision != Warn {
		t.Fatalf("expected Warn, got %s", r.Decision)
	}
}

func TestCheckCompactAtTrigger(t *testing.T) {
	m := New(1000)
	m.Counter.Append(900)
	if r := m.Check(); r.Decision != Compact {
		t.Fatalf("expected Compact, got %s", r.Decision)
	}
}

func TestCheckAbortAtHardLimit(t *testing.T) {
	m := New(1000)
	m.Counter.Append(960)
	if r := m.Check(); r.Decision != AbortTurn {
		t.Fatalf("expected AbortTurn, got %s", r.Decision)
	}
}

func TestCompactPreservesLastNVerbatim(t *testing.T) {
	m := New(10000)
	m.PreserveCount = 2

	history := []message.Message{
		message.UserMessage("first", nil),
		message.AssistantMessage("second", "", nil),
		message.UserMessage("third", nil),
		message.AssistantMessage("fourth", "", nil),
	}

	fake := &client.FakeClient{Responses: []message.CompletionResponse{{Content: "summary text"}}}
	res, err := m.Compact(context.Background(), fake, history)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.History) != 3 { // 1 summary + 2 preserved
		t.Fatalf("expected 3 messages after compaction, got %d", len(res.History))
	}
	if !res.History[0].IsSummary {
		t.Fatalf("expected first message to be the summary, got %+v", res.History[0])
	}
	if res.History[1].Content != "third" || res.History[2].Content != "fourth" {
		t.Fatalf("expected last 2 messages preserved verbatim, got %+v", res.History[1:])
	}
}

func TestCompactRenormalizesDanglingToolCalls(t *testing.T) {
	m := New(10000)
	m.PreserveCount = 1

	danglingCall := message.ToolCall{ID: "call-1", Name: "Read", Input: "{}"}
	history := []message.Message{
		message.UserMessage("go read a file", nil),
		message.AssistantMessage("", "", []message.ToolCall{danglingCall}),
	}

	fake := &client.FakeClient{Responses: []message.CompletionResponse{{Content: "summary"}}}
	res, err := m.Compact(context.Background(), fake, history)
	if err != nil {
		t.Fatal(err)
	}
	if res.Report.MissingOutputsFixed != 1 {
		t.Fatalf("expected 1 missing output fixed, got %d", res.Report.MissingOutputsFixed)
	}
}

func TestNormalizeResetsCounterFromHistory(t *testing.T) {
	m := New(10000)
	m.Counter.Append(5000)

	history := []message.Message{message.UserMessage("hi", nil)}
	_, _ = m.Normalize(history)

	want := token.EstimateHistory(history)
	if m.Counter.Used() != want {
		t.Fatalf("expected counter reset to %d, got %d", want, m.Counter.Used())
	}
}
