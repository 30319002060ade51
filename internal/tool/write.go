package tool

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/permission"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const (
	IconWrite = "📝"
)

// WriteTool writes content to files
type WriteTool struct{}

func (t *WriteTool) Name() string        { return "Write" }
func (t *WriteTool) Description() string { return "Write content to a file" }
func (t *WriteTool) Icon() string        { return IconWrite }

// RequiresPermission returns true - Write always requires permission
func (t *WriteTool) RequiresPermission() bool {
	return true
}

// PreparePermission prepares a permission request with diff information
func (t *WriteTool) PreparePermission(ctx context.Context, params map[string]any, cwd string) (*permission.PermissionRequest, error) {
	// Get parameters
	filePath, ok := params["file_path"].(string)
	if !ok || filePath == "" {
		return nil, &ToolError{Message: "file_path is required"}
	}

	content, ok := params["content"].(string)
	if !ok {
		return nil, &ToolError{Message: "content is required"}
	}

	// Resolve relative path
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(cwd, filePath)
	}

	// Check if file exists
	_, err := os.Stat(filePath)
	isNewFile := os.IsNotExist(err)
	if err != nil && !isNewFile {
		return nil, &ToolError{Message: "failed to check file: " + err.Error()}
	}

	// Generate appropriate preview based on whether file exists
	var diffMeta *permission.DiffMetadata
	if isNewFile {
		// New file: use preview mode to show content directly
		diffMeta = permission.GeneratePreview(filePath, content, true)
	} else {
		// Existing file: generate actual diff to show what will change
		oldContent, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, &ToolError{Message: "failed to read existing file: " + readErr.Error()}
		}
		diffMeta = permission.GenerateDiff(filePath, string(oldContent), content)
	}

	description := "Create new file"
	if !isNewFile {
		description = "Overwrite existing file"
	}

	return &permission.PermissionRequest{
		ID:          generateRequestID(),
		ToolName:    t.Name(),
		FilePath:    filePath,
		Description: description,
		DiffMeta:    diffMeta,
	}, nil
}

// ExecuteApproved performs the file write after user approval.
func (t *WriteTool) ExecuteApproved(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	filePath, _ := params["file_path"].(string)
	content, _ := params["content"].(string)

	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(cwd, filePath)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errResult("failed to create directory: " + err.Error())
	}

	_, statErr := os.Stat(filePath)
	isNewFile := os.IsNotExist(statErr)

	mode := os.FileMode(0644)
	if m := intParam(params, "mode", 0); m > 0 {
		mode = os.FileMode(m)
	}

	if err := os.WriteFile(filePath, []byte(content), mode); err != nil {
		return errResult("failed to write file: " + err.Error())
	}

	action := "Created"
	if !isNewFile {
		action = "Updated"
	}
	lineCount := 1
	for _, c := range content {
		if c == '\n' {
			lineCount++
		}
	}

	return message.ToolResult{
		Content:   action + " " + filePath + " (" + strconv.Itoa(lineCount) + " lines, " + strconv.Itoa(len(content)) + " bytes)",
		UIContent: ui.FilePathStyle.Render(filePath) + " — " + action,
	}
}

// Execute implements the Tool interface for callers that bypass the
// approval flow directly (e.g. tests exercising the tool in isolation).
func (t *WriteTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	return t.ExecuteApproved(ctx, params, cwd)
}

func init() {
	Register(&WriteTool{})
}
