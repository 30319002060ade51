package tool

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yanmxa/gencode/internal/loopdetect"
	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/ptyexec"
	"github.com/yanmxa/gencode/internal/safety"
	"github.com/yanmxa/gencode/internal/tool/permission"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const IconBash = "$"

const maxBashOutputChars = 30000

// BashTool runs a shell command through the command-safety evaluator and
// the PTY executor. Approval is required unless the safety decision is
// Allow; a Deny rejects the call outright in PreparePermission, never
// reaching execution.
type BashTool struct {
	Safety *safety.Evaluator
	Exec   *ptyexec.Executor
	Loop   *loopdetect.Detector
}

// NewBashTool wires a BashTool to specific safety/executor/loop-detector
// instances, for composition roots that need shared state across tool
// calls within one session (audit log, decision cache, loop counts).
func NewBashTool(ev *safety.Evaluator, exec *ptyexec.Executor, loop *loopdetect.Detector) *BashTool {
	return &BashTool{Safety: ev, Exec: exec, Loop: loop}
}

func (t *BashTool) Name() string             { return "Bash" }
func (t *BashTool) Description() string      { return "Execute a shell command" }
func (t *BashTool) Icon() string             { return IconBash }
func (t *BashTool) RequiresPermission() bool { return true }

func (t *BashTool) PreparePermission(ctx context.Context, params map[string]any, cwd string) (*permission.PermissionRequest, error) {
	command := stringParam(params, "command")
	if command == "" {
		return nil, &ToolError{Message: "command is required"}
	}
	description := stringParam(params, "description")
	runBackground := boolParam(params, "run_in_background")
	bashMeta := &permission.BashMetadata{
		Command:       command,
		Description:   description,
		RunBackground: runBackground,
		LineCount:     strings.Count(command, "\n") + 1,
	}

	if t.Loop != nil && !t.Loop.DisabledForSession() {
		sig := safety.NewSignature("Bash", params)
		if t.Loop.WouldTrigger(sig) {
			t.Loop.RecordCall(sig)
			return &permission.PermissionRequest{
				ID:          generateRequestID(),
				ToolName:    t.Name(),
				Description: "Repeated identical command detected — confirm before continuing: " + command,
				BashMeta:    bashMeta,
			}, nil
		}
		t.Loop.RecordCall(sig)
	}

	decision := t.Safety.Evaluate([]string{"bash", "-c", command})
	switch decision.Decision {
	case safety.Deny:
		return nil, &ToolError{Message: "command denied: " + decision.Reason()}
	case safety.Allow:
		return nil, nil
	default: // AskUser
		return &permission.PermissionRequest{
			ID:          generateRequestID(),
			ToolName:    t.Name(),
			Description: decision.Reason(),
			BashMeta:    bashMeta,
		}, nil
	}
}

func (t *BashTool) ExecuteApproved(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	command := stringParam(params, "command")
	runBackground := boolParam(params, "run_in_background")
	timeout := ptyexec.ResolveTimeoutSeconds(intParam(params, "timeout", 0))

	req := ptyexec.Request{Argv: []string{"bash", "-c", command}, Dir: cwd, Timeout: &timeout}

	if runBackground {
		return t.executeBackground(req, command)
	}

	res, err := t.Exec.Run(ctx, "", req)
	if err != nil {
		return errResult("failed to start command: " + err.Error())
	}

	output := res.Scroll.String()
	if len(output) > maxBashOutputChars {
		output = output[:maxBashOutputChars] + "\n... (output truncated)"
	}

	if res.TimedOut {
		return message.ToolResult{
			Content: output + "\n[command timed out after " + timeout.String() + "]",
			IsError: true,
			Status:  message.StatusError,
		}
	}
	if res.ExitCode != 0 {
		return message.ToolResult{
			Content:   output + fmt.Sprintf("\n[exit code %d]", res.ExitCode),
			UIContent: ui.ErrorStyle.Render(fmt.Sprintf("exit %d", res.ExitCode)) + "\n" + output,
			IsError:   true,
			Status:    message.StatusError,
			Truncated: res.Scroll.Overflowed(),
		}
	}

	return message.ToolResult{Content: output, Truncated: res.Scroll.Overflowed()}
}

func (t *BashTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	return t.ExecuteApproved(ctx, params, cwd)
}

// executeBackground starts the command without waiting; TaskStatus later
// polls it by id via the shared Executor.
func (t *BashTool) executeBackground(req ptyexec.Request, command string) message.ToolResult {
	id := generateRequestID()

	go func() {
		t.Exec.Run(context.Background(), id, req)
	}()

	// Give the executor a moment to register the id, so an immediate
	// TaskStatus(id) call doesn't race a not-found response.
	time.Sleep(50 * time.Millisecond)

	return message.ToolResult{Content: "Started background task " + id + ": " + command}
}

func defaultAuditDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vtcode/audit"
	}
	return home + "/.vtcode/audit"
}

// defaultExecutor is shared by BashTool and TaskStatusTool's package-level
// registrations so a background task started by one is visible to the
// other through the default registry.
var defaultExecutor = ptyexec.NewExecutor()

func init() {
	Register(&BashTool{
		Safety: safety.NewEvaluator(nil, 256, defaultAuditDir()),
		Exec:   defaultExecutor,
		Loop:   loopdetect.New(0),
	})
}
