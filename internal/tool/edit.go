package tool

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/permission"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const IconEdit = "✏️"

// EditTool performs a string-replacement edit on an existing file. Always
// requires approval, and renders a unified diff for the approval prompt.
type EditTool struct{}

func (t *EditTool) Name() string              { return "Edit" }
func (t *EditTool) Description() string       { return "Edit file contents using string replacement" }
func (t *EditTool) Icon() string              { return IconEdit }
func (t *EditTool) RequiresPermission() bool  { return true }

func (t *EditTool) PreparePermission(ctx context.Context, params map[string]any, cwd string) (*permission.PermissionRequest, error) {
	filePath := stringParam(params, "file_path")
	if filePath == "" {
		return nil, &ToolError{Message: "file_path is required"}
	}
	oldString, ok := params["old_string"].(string)
	if !ok {
		return nil, &ToolError{Message: "old_string is required"}
	}
	newString, ok := params["new_string"].(string)
	if !ok {
		return nil, &ToolError{Message: "new_string is required"}
	}

	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(cwd, filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ToolError{Message: "file not found: " + filePath}
		}
		return nil, &ToolError{Message: "failed to read file: " + err.Error()}
	}
	oldContent := string(content)

	count := strings.Count(oldContent, oldString)
	if count == 0 {
		return nil, &ToolError{Message: "old_string not found in file"}
	}

	replaceAll := boolParam(params, "replace_all")
	if !replaceAll && count > 1 {
		return nil, &ToolError{Message: "old_string is not unique in file (found " + strconv.Itoa(count) + " occurrences). Use replace_all=true to replace all."}
	}

	var newContent string
	if replaceAll {
		newContent = strings.ReplaceAll(oldContent, oldString, newString)
	} else {
		newContent = strings.Replace(oldContent, oldString, newString, 1)
	}

	diffMeta := permission.GenerateDiff(filePath, oldContent, newContent)

	return &permission.PermissionRequest{
		ID:          generateRequestID(),
		ToolName:    t.Name(),
		FilePath:    filePath,
		Description: "Replace text in file",
		DiffMeta:    diffMeta,
	}, nil
}

func (t *EditTool) ExecuteApproved(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	filePath := stringParam(params, "file_path")
	oldString := stringParam(params, "old_string")
	newString := stringParam(params, "new_string")

	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(cwd, filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return errResult("failed to read file: " + err.Error())
	}
	oldContent := string(content)

	replaceAll := boolParam(params, "replace_all")
	var newContent string
	var replaceCount int
	if replaceAll {
		replaceCount = strings.Count(oldContent, oldString)
		newContent = strings.ReplaceAll(oldContent, oldString, newString)
	} else {
		replaceCount = 1
		newContent = strings.Replace(oldContent, oldString, newString, 1)
	}

	if err := os.WriteFile(filePath, []byte(newContent), 0644); err != nil {
		return errResult("failed to write file: " + err.Error())
	}

	diffMeta := permission.GenerateDiff(filePath, oldContent, newContent)
	uiDiff := ui.RenderLines(diffLinesToContentLines(diffMeta), false)

	return message.ToolResult{
		Content:   "Successfully edited " + filePath + " (" + strconv.Itoa(replaceCount) + " replacement(s))",
		UIContent: uiDiff,
	}
}

func (t *EditTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	return t.ExecuteApproved(ctx, params, cwd)
}

// diffLinesToContentLines renders a permission.DiffMetadata's structured
// lines through the shared ui.ContentLine renderer for the approval/UI
// transcript.
func diffLinesToContentLines(d *permission.DiffMetadata) []ui.ContentLine {
	if d == nil {
		return nil
	}
	out := make([]ui.ContentLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lt := ui.LineNormal
		switch l.Type {
		case permission.DiffLineAdded:
			lt = ui.LineMatch
		case permission.DiffLineHunk:
			lt = ui.LineHeader
		}
		lineNo := l.NewLineNo
		if lineNo == 0 {
			lineNo = l.OldLineNo
		}
		out = append(out, ui.ContentLine{LineNo: lineNo, Text: l.Content, Type: lt})
	}
	return out
}

func init() { Register(&EditTool{}) }
