package tool

import (
	"context"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/permission"
)

// Tool is one entry in the dispatcher's catalog. Execute produces the
// dual-channel result described in spec.md §4.4: Content is the summarized
// llm_content fed back into history, UIContent (optional) is the fuller
// rendering shown to the user.
type Tool interface {
	Name() string
	Description() string
	Icon() string
	Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult
}

// PermissionAwareTool additionally gates execution behind an approval step
// (the turn driver's AwaitingUserApproval state). Write/Edit always require
// it; Bash requires it only when the safety evaluator does not return
// Allow outright (BashTool.PreparePermission returns no request on Allow,
// and the dispatcher skips approval when the request is nil).
type PermissionAwareTool interface {
	Tool

	RequiresPermission() bool
	PreparePermission(ctx context.Context, params map[string]any, cwd string) (*permission.PermissionRequest, error)
	ExecuteApproved(ctx context.Context, params map[string]any, cwd string) message.ToolResult
}

// ToolError is a tool-specific error surfaced to PreparePermission callers.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string { return e.Message }
