package tool

import (
	"context"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/permission"
)

const IconTask = "t"

// TaskTool is a stub for subagent spawning. The turn driver this package
// serves runs a single conversation loop with no nested-agent executor, so
// the tool is kept registered (the model may still emit the call) but
// always reports that the capability isn't available, rather than being
// deleted outright. Grounded on the teacher's TaskTool; of its permission
// preview only the required subagent_type and prompt remain, folded into
// the request's Description.
type TaskTool struct{}

func (t *TaskTool) Name() string             { return "Task" }
func (t *TaskTool) Description() string      { return "Launch a subagent to handle a task" }
func (t *TaskTool) Icon() string             { return IconTask }
func (t *TaskTool) RequiresPermission() bool { return true }

func (t *TaskTool) PreparePermission(ctx context.Context, params map[string]any, cwd string) (*permission.PermissionRequest, error) {
	agentType := stringParam(params, "subagent_type")
	if agentType == "" {
		return nil, &ToolError{Message: "subagent_type is required"}
	}
	if stringParam(params, "prompt") == "" {
		return nil, &ToolError{Message: "prompt is required"}
	}
	return &permission.PermissionRequest{
		ID:          generateRequestID(),
		ToolName:    t.Name(),
		Description: "Spawn " + agentType + " subagent: " + stringParam(params, "prompt"),
	}, nil
}

func (t *TaskTool) ExecuteApproved(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	return message.ToolResult{
		Content: "subagent spawning is not available in this build",
		IsError: true,
		Status:  message.StatusError,
	}
}

func (t *TaskTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	return t.ExecuteApproved(ctx, params, cwd)
}

func init() { Register(&TaskTool{}) }
