package tool

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/ptyexec"
)

const IconTaskStatus = ">"

// TaskStatusTool polls a background Bash execution by id. Grounded on the
// teacher's TaskOutputTool (optional blocking wait with a clamped timeout)
// and TaskStopTool (cancel-by-id), collapsed into one tool that queries
// ptyexec.Executor instead of the teacher's separate task.Manager.
type TaskStatusTool struct {
	Exec *ptyexec.Executor
}

func NewTaskStatusTool(exec *ptyexec.Executor) *TaskStatusTool {
	return &TaskStatusTool{Exec: exec}
}

func (t *TaskStatusTool) Name() string        { return "TaskStatus" }
func (t *TaskStatusTool) Description() string { return "Check or wait on a background task's status" }
func (t *TaskStatusTool) Icon() string        { return IconTaskStatus }

func (t *TaskStatusTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	id := stringParam(params, "task_id")
	if id == "" {
		return errResult("task_id is required")
	}

	if boolParam(params, "cancel") {
		if err := t.Exec.Cancel(id); err != nil {
			return errResult(err.Error())
		}
		return message.ToolResult{Content: "canceled task " + id}
	}

	block := true
	if _, ok := params["block"]; ok {
		block = boolParam(params, "block")
	}
	waitFor := ptyexec.ResolveTimeoutSeconds(intParam(params, "timeout", 0))

	st, ok := t.Exec.Status(id)
	if !ok {
		return errResult("task not found: " + id)
	}

	if block && st.Running {
		deadline := time.Now().Add(waitFor)
		for st.Running && time.Now().Before(deadline) {
			time.Sleep(200 * time.Millisecond)
			st, ok = t.Exec.Status(id)
			if !ok {
				return errResult("task not found: " + id)
			}
		}
	}

	var b strings.Builder
	b.WriteString("Task ID: " + id + "\n")
	b.WriteString("Command: " + strings.Join(st.Argv, " ") + "\n")
	if st.Running {
		b.WriteString("Status: running\n")
	} else if st.Result != nil {
		b.WriteString("Status: " + resultStatus(st.Result) + "\n")
		b.WriteString("Exit code: " + strconv.Itoa(st.Result.ExitCode) + "\n")
	}
	if st.Output != "" {
		b.WriteString("\nOutput:\n" + st.Output)
	}

	if !st.Running {
		t.Exec.Forget(id)
	}

	return message.ToolResult{
		Content: b.String(),
		IsError: !st.Running && st.Result != nil && st.Result.ExitCode != 0,
	}
}

func resultStatus(r *ptyexec.Result) string {
	switch {
	case r.Canceled:
		return "canceled"
	case r.TimedOut:
		return "timed out"
	case r.ExitCode != 0:
		return "failed"
	default:
		return "completed"
	}
}

func init() { Register(&TaskStatusTool{Exec: defaultExecutor}) }
