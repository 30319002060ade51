// Package turn implements the turn driver (spec component C7): the state
// machine that builds a prompt, streams the model's response, dispatches
// any tool calls the model requests, and decides when a turn is done.
package turn

import (
	"context"
	"fmt"
	"time"

	"github.com/yanmxa/gencode/internal/contextmgr"
	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/provider"
	"github.com/yanmxa/gencode/internal/ptyexec"
	"github.com/yanmxa/gencode/internal/system"
	"github.com/yanmxa/gencode/internal/tool"
)

// Outcome is the terminal result of a RunTurn call.
type Outcome string

const (
	Completed      Outcome = "completed"
	Canceled       Outcome = "canceled"
	BudgetExceeded Outcome = "budget_exceeded"
	LoopDetected   Outcome = "loop_detected"
	FatalErr       Outcome = "fatal_error"
)

// Phase names the turn driver's state machine positions.
type Phase string

const (
	Idle                 Phase = "idle"
	BuildingPrompt       Phase = "building_prompt"
	AwaitingModel        Phase = "awaiting_model"
	DispatchingTools     Phase = "dispatching_tools"
	AwaitingUserApproval Phase = "awaiting_user_approval"
	Compacting           Phase = "compacting"
	Terminated           Phase = "terminated"
)

// Streamer is the subset of *client.Client the driver needs to run a
// turn: a streaming completion call plus usage accounting. Kept as an
// interface, like contextmgr.Completer, so tests can inject
// *client.FakeClient instead of a live provider.
type Streamer interface {
	Stream(ctx context.Context, msgs []message.Message, tools []provider.Tool, sysPrompt string) <-chan message.StreamChunk
	AddUsage(usage message.Usage)
}

// DecisionRecord is one entry in the decision ledger (spec.md §4.8): a
// compact, structured record for post-hoc analysis and compaction
// summaries. It never carries raw tool output.
type DecisionRecord struct {
	Turn      int
	Phase     Phase
	Action    string
	Rationale string
}

// Result is RunTurn's return value.
type Result struct {
	Outcome  Outcome
	Reason   string
	Messages []message.Message
}

// Options bounds one RunTurn call.
type Options struct {
	MaxToolCallsPerTurn int
	WallClockTimeout    *time.Duration
	MaxToolRetries      int

	// Approve is consulted whenever the dispatcher surfaces a tool call
	// needing approval (a safety AskUser decision or a loop-detector
	// trigger). Left nil for non-interactive callers, which default to
	// declining every such call — the safe choice spec.md §4.7 requires.
	Approve func(requestID string) bool

	// OnChunk observes every streamed chunk in arrival order. When the
	// stream's done chunk carries a Response, that Response becomes the
	// assistant message and the streamed chunks are not used for it; the
	// message is assembled from the chunks only when the done chunk
	// carries none.
	OnChunk func(message.StreamChunk)

	// ToolDocMode selects how much schema detail is sent per tool call.
	// Empty means tool.DocProgressive, the historical default.
	ToolDocMode tool.DocumentationMode
}

const (
	defaultMaxToolCallsPerTurn = 32
	defaultMaxToolRetries      = 2
)

// Driver drives one conversation's turns against a Streamer, a tool
// registry, and a context manager, maintaining history and a decision
// ledger across turns. Grounded on the teacher's internal/core.Loop,
// whose single Run method here is split into the explicit
// BuildingPrompt/AwaitingModel/DispatchingTools/AwaitingUserApproval/
// Compacting states spec.md §4.1 names.
type Driver struct {
	System     *system.System
	Stream     Streamer
	Compactor  contextmgr.Completer // optional: enables automatic compaction
	Registry   *tool.Registry
	ContextMgr *contextmgr.Manager

	phase    Phase
	history  []message.Message
	ledger   []DecisionRecord
	canceled bool
}

// New constructs a Driver in the Idle phase.
func New(sys *system.System, streamer Streamer, registry *tool.Registry, ctxMgr *contextmgr.Manager) *Driver {
	if registry == nil {
		registry = tool.DefaultRegistry
	}
	return &Driver{System: sys, Stream: streamer, Registry: registry, ContextMgr: ctxMgr, phase: Idle}
}

// Phase returns the driver's current state-machine position.
func (d *Driver) Phase() Phase { return d.phase }

// Messages returns the current conversation history.
func (d *Driver) Messages() []message.Message { return d.history }

// SetMessages replaces the conversation history directly (used by
// callers restoring a session outside of Resume's normalize step).
func (d *Driver) SetMessages(msgs []message.Message) { d.history = msgs }

// Ledger returns the accumulated decision ledger.
func (d *Driver) Ledger() []DecisionRecord { return d.ledger }

func (d *Driver) record(turnNum int, action, rationale string) {
	d.ledger = append(d.ledger, DecisionRecord{Turn: turnNum, Phase: d.phase, Action: action, Rationale: rationale})
}

// Cancel requests cooperative cancellation. RunTurn checks the request
// before each model call, so one made between turns ends the next turn
// at once; a stream read, tool batch or approval wait already under way
// runs to completion first. Canceling the ctx passed to RunTurn is
// observed at each streamed chunk instead.
func (d *Driver) Cancel() { d.canceled = true }

// Resume restores history from a persisted snapshot, normalizes it (any
// tool call left pending by the prior process becomes a synthetic
// Canceled output), and returns the driver to Idle — spec.md §4.8.
func (d *Driver) Resume(history []message.Message) message.NormalizeReport {
	normalized, report := d.ContextMgr.Normalize(history)
	d.history = normalized
	d.phase = Idle
	d.canceled = false
	return report
}

// RunTurn drives one user turn: builds the prompt, streams the model's
// response, dispatches any requested tool calls, loops while the model
// keeps requesting tools, and returns a terminal Outcome. Partial
// results already appended to history remain on every exit path.
func (d *Driver) RunTurn(ctx context.Context, userInput string, opts Options) (Result, error) {
	if opts.MaxToolCallsPerTurn <= 0 {
		opts.MaxToolCallsPerTurn = defaultMaxToolCallsPerTurn
	}
	if opts.MaxToolRetries <= 0 {
		opts.MaxToolRetries = defaultMaxToolRetries
	}

	timeout := ptyexec.ResolveTimeout(opts.WallClockTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	turnNum := len(d.ledger)
	toolCallsThisTurn := 0

	d.phase = BuildingPrompt
	d.history = append(d.history, message.UserMessage(userInput, nil))

	if outcome, reason, done := d.checkBudget(ctx, turnNum); done {
		d.phase = Terminated
		return d.result(outcome, reason), nil
	}

	for {
		select {
		case <-ctx.Done():
			d.phase = Terminated
			d.record(turnNum, "cancel", "context deadline or cancellation")
			return d.result(Canceled, "context canceled"), ctx.Err()
		default:
		}
		if d.canceled {
			d.canceled = false
			d.phase = Terminated
			d.record(turnNum, "cancel", "cancellation observed")
			return d.result(Canceled, "canceled by caller"), nil
		}

		d.phase = AwaitingModel
		sysPrompt := ""
		if d.System != nil {
			sysPrompt = d.System.Prompt()
		}
		docMode := opts.ToolDocMode
		if docMode == "" {
			docMode = tool.DocProgressive
		}
		var offered []provider.Tool
		for _, s := range tool.GetToolSchemasMode(docMode) {
			if _, ok := d.Registry.Get(s.Name); ok {
				offered = append(offered, s)
			}
		}
		resp, err := d.collect(ctx, d.history, offered, sysPrompt, opts.OnChunk)
		if err != nil {
			d.phase = Terminated
			d.record(turnNum, "fatal_error", err.Error())
			return d.result(FatalErr, err.Error()), err
		}
		d.Stream.AddUsage(resp.Usage)
		d.history = append(d.history, message.AssistantMessage(resp.Content, resp.Thinking, resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			d.phase = Terminated
			d.record(turnNum, "end_turn", "assistant produced no tool calls")
			return d.result(Completed, ""), nil
		}

		toolCallsThisTurn += len(resp.ToolCalls)
		if toolCallsThisTurn > opts.MaxToolCallsPerTurn {
			d.phase = Terminated
			d.record(turnNum, "budget_exceeded", "max_tool_calls_per_turn reached")
			return d.result(BudgetExceeded, "max_tool_calls_per_turn reached"), nil
		}

		if outcome, reason, done := d.dispatch(ctx, turnNum, resp.ToolCalls, opts); done {
			d.phase = Terminated
			return d.result(outcome, reason), nil
		}

		if outcome, reason, done := d.checkBudget(ctx, turnNum); done {
			d.phase = Terminated
			return d.result(outcome, reason), nil
		}
	}
}

// checkBudget runs the context manager's pre-request gate, compacting or
// aborting as instructed. Returns done=true when the turn must terminate.
func (d *Driver) checkBudget(ctx context.Context, turnNum int) (Outcome, string, bool) {
	if d.ContextMgr == nil {
		return "", "", false
	}

	check := d.ContextMgr.Check()
	switch check.Decision {
	case contextmgr.AbortTurn:
		d.record(turnNum, "abort_turn", check.Reason)
		return BudgetExceeded, check.Reason, true
	case contextmgr.Warn:
		d.record(turnNum, "warn", check.Reason)
		return "", "", false
	case contextmgr.Compact:
		d.phase = Compacting
		if d.Compactor == nil {
			d.record(turnNum, "compact_skipped", check.Reason+" (no compactor wired)")
			return "", "", false
		}
		res, err := d.ContextMgr.Compact(ctx, d.Compactor, d.history)
		if err != nil {
			d.record(turnNum, "compact_failed", err.Error())
			return "", "", false
		}
		d.history = res.History
		d.record(turnNum, "compact", fmt.Sprintf("summarized %d of %d messages, kept %d verbatim",
			res.OriginalCount-res.PreservedCount, res.OriginalCount, res.PreservedCount))

		if post := d.ContextMgr.Check(); post.Decision == contextmgr.AbortTurn {
			d.record(turnNum, "abort_turn", "post-compaction usage still at hard limit")
			return BudgetExceeded, "context manager could not fit the next prompt even after compaction", true
		}
		return "", "", false
	default:
		return "", "", false
	}
}

// dispatch runs the batch of tool calls through the registry's
// Dispatcher, surfacing approval requests through opts.Approve and
// appending every ToolResult to history in call order. It never returns
// done=true: a loop-detector trigger reaches the user as an ordinary
// approval request, and the turn goes on whatever the answer.
func (d *Driver) dispatch(ctx context.Context, turnNum int, calls []message.ToolCall, opts Options) (Outcome, string, bool) {
	d.phase = DispatchingTools
	cwd := ""
	if d.System != nil {
		cwd = d.System.Cwd
	}

	approveFn := func(reqID string) bool {
		d.phase = AwaitingUserApproval
		approved := false
		if opts.Approve != nil {
			approved = opts.Approve(reqID)
		}
		d.record(turnNum, "approval", fmt.Sprintf("request=%s approved=%v", reqID, approved))
		d.phase = DispatchingTools
		return approved
	}

	dispatcher := tool.NewDispatcher(d.Registry)
	results := dispatcher.Execute(ctx, calls, cwd, approveFn)
	for _, r := range results {
		d.history = append(d.history, message.ToolResultMessage(r))
	}

	if d.ContextMgr != nil {
		normalized, report := d.ContextMgr.Normalize(d.history)
		d.history = normalized
		if report.MissingOutputsFixed > 0 || report.OrphansRemoved > 0 {
			d.record(turnNum, "normalize", fmt.Sprintf("fixed=%d orphans=%d", report.MissingOutputsFixed, report.OrphansRemoved))
		}
	}
	return "", "", false
}

// collect drains one streamed completion into a CompletionResponse. Text
// and reasoning chunks accumulate in arrival order and tool-call fragments
// are deduplicated by call id until the done chunk arrives. If the done
// chunk carries a Response, that Response is returned in place of what
// was accumulated.
func (d *Driver) collect(ctx context.Context, history []message.Message, tools []provider.Tool, sysPrompt string, onChunk func(message.StreamChunk)) (*message.CompletionResponse, error) {
	ch := d.Stream.Stream(ctx, history, tools, sysPrompt)

	var resp message.CompletionResponse
	callIndex := make(map[string]int)

	for chunk := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if onChunk != nil {
			onChunk(chunk)
		}

		switch chunk.Type {
		case message.ChunkTypeText:
			resp.Content += chunk.Text
		case message.ChunkTypeThinking:
			resp.Thinking += chunk.Text
		case message.ChunkTypeToolStart:
			if _, seen := callIndex[chunk.ToolID]; seen {
				continue
			}
			callIndex[chunk.ToolID] = len(resp.ToolCalls)
			resp.ToolCalls = append(resp.ToolCalls, message.ToolCall{ID: chunk.ToolID, Name: chunk.ToolName})
		case message.ChunkTypeToolInput:
			if idx, ok := callIndex[chunk.ToolID]; ok {
				resp.ToolCalls[idx].Input += chunk.Text
			}
		case message.ChunkTypeDone:
			if chunk.Response != nil {
				return chunk.Response, nil
			}
			return &resp, nil
		case message.ChunkTypeError:
			return nil, chunk.Error
		}
	}
	return &resp, nil
}

func (d *Driver) result(outcome Outcome, reason string) Result {
	return Result{Outcome: outcome, Reason: reason, Messages: d.history}
}
