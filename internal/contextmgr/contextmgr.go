// Package contextmgr implements the context manager (spec component C5):
// history invariant maintenance, token-usage tracking, and the
// pre-request decision of whether to warn, compact, or abort a turn.
package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/system"
	"github.com/yanmxa/gencode/internal/token"
)

// Completer is the subset of *client.Client that Compact needs — a
// one-shot completion call with a custom system prompt and token budget.
// Accepting the interface rather than the concrete type lets tests supply
// *client.FakeClient directly.
type Completer interface {
	Complete(ctx context.Context, sysPrompt string, msgs []message.Message, maxTokens int) (message.CompletionResponse, error)
}

// Decision is the pre-request check's outcome.
type Decision string

const (
	Proceed   Decision = "proceed"
	Warn      Decision = "warn"
	Compact   Decision = "compact"
	AbortTurn Decision = "abort_turn"
)

// CheckResult pairs a Decision with a human-readable reason, mirroring the
// teacher's pattern of attaching a message to state transitions (e.g. the
// turn loop's stop-reason reporting).
type CheckResult struct {
	Decision Decision
	Reason   string
}

// Default thresholds, expressed as a fraction of the counter's limit.
const (
	DefaultWarnRatio    = 0.70
	DefaultTriggerRatio = 0.85
	DefaultHardRatio    = 0.95

	// DefaultPreserveCount is how many trailing messages compaction keeps
	// verbatim.
	DefaultPreserveCount = 10
)

// Manager owns the token counter and compaction thresholds for one
// conversation. Grounded on the teacher's inline Compact function in
// internal/core/core.go, generalized into a standalone component with its
// own pre-request gating and history-normalization responsibilities.
type Manager struct {
	Counter       *token.Counter
	WarnRatio     float64
	TriggerRatio  float64
	HardRatio     float64
	PreserveCount int
}

// New constructs a Manager with the spec's default ratios and preserve count.
func New(limit int) *Manager {
	return &Manager{
		Counter:       token.NewCounter(limit),
		WarnRatio:     DefaultWarnRatio,
		TriggerRatio:  DefaultTriggerRatio,
		HardRatio:     DefaultHardRatio,
		PreserveCount: DefaultPreserveCount,
	}
}

// Check runs the pre-request gate against the counter's current ratio.
func (m *Manager) Check() CheckResult {
	ratio := m.Counter.Ratio()
	switch {
	case ratio >= m.HardRatio:
		return CheckResult{AbortTurn, fmt.Sprintf("token usage at %.0f%% of budget, aborting turn", ratio*100)}
	case ratio >= m.TriggerRatio:
		return CheckResult{Compact, fmt.Sprintf("token usage at %.0f%% of budget, compacting history", ratio*100)}
	case ratio >= m.WarnRatio:
		return CheckResult{Warn, fmt.Sprintf("token usage at %.0f%% of budget", ratio*100)}
	default:
		return CheckResult{Proceed, ""}
	}
}

// CompactResult reports what Compact did, for the turn driver to log and
// surface to the UI.
type CompactResult struct {
	History        []message.Message
	OriginalCount  int
	PreservedCount int
	Report         message.NormalizeReport
}

// Compact replaces every message except the last PreserveCount with a
// single System-classified summary generated by invoking c with the
// teacher's compaction prompt over the conversation text of the
// summarized portion. After replacement it renormalizes the history (every
// dangling ToolCall gets a synthetic Canceled ToolResult, every orphaned
// ToolResult is dropped) and resets the token counter from the new
// history's estimate.
func (m *Manager) Compact(ctx context.Context, c Completer, history []message.Message) (CompactResult, error) {
	preserve := m.PreserveCount
	if preserve > len(history) {
		preserve = len(history)
	}
	summarized := history[:len(history)-preserve]
	kept := history[len(history)-preserve:]

	if len(summarized) == 0 {
		normalized, report := message.Normalize(history)
		m.Counter.Reset(token.EstimateHistory(normalized))
		return CompactResult{History: normalized, OriginalCount: len(history), PreservedCount: len(kept), Report: report}, nil
	}

	conversationText := message.BuildConversationText(summarized)
	resp, err := c.Complete(ctx, system.CompactPrompt(), []message.Message{message.UserMessage(conversationText, nil)}, 2048)
	if err != nil {
		return CompactResult{}, fmt.Errorf("contextmgr: compaction summary failed: %w", err)
	}

	summary := message.SystemMessage(strings.TrimSpace(resp.Content))
	summary.IsSummary = true

	newHistory := append([]message.Message{summary}, kept...)
	normalized, report := message.Normalize(newHistory)
	m.Counter.Reset(token.EstimateHistory(normalized))

	return CompactResult{
		History:        normalized,
		OriginalCount:  len(history),
		PreservedCount: len(kept),
		Report:         report,
	}, nil
}

// Normalize re-applies the history invariant (every ToolCall has exactly
// one ToolResult) without compacting, and keeps the counter in sync. Spec
// requires this after every turn, before persistence, before sending
// history to the model, and on session resume.
func (m *Manager) Normalize(history []message.Message) ([]message.Message, message.NormalizeReport) {
	normalized, report := message.Normalize(history)
	m.Counter.Reset(token.EstimateHistory(normalized))
	return normalized, report
}
