package tool

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const (
	maxReadLines  = 2000
	maxLineLength = 500
)

// ReadTool reads file contents, optionally a line range.
type ReadTool struct{}

func (t *ReadTool) Name() string        { return "Read" }
func (t *ReadTool) Description() string { return "Read file contents" }
func (t *ReadTool) Icon() string        { return ui.IconRead }

func (t *ReadTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	filePath, ok := params["file_path"].(string)
	if !ok || filePath == "" {
		return errResult("file_path is required")
	}
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(cwd, filePath)
	}

	offset := intParam(params, "offset", 0)
	limit := intParam(params, "limit", maxReadLines)
	if limit <= 0 {
		limit = maxReadLines
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("file not found: " + filePath)
		}
		return errResult("failed to stat file: " + err.Error())
	}
	if info.IsDir() {
		return errResult("path is a directory: " + filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errResult("failed to open file: " + err.Error())
	}
	defer file.Close()

	header := make([]byte, 512)
	n, _ := file.Read(header)
	for _, b := range header[:n] {
		if b == 0 {
			return message.ToolResult{Content: "Binary file detected: " + filePath}
		}
	}
	file.Seek(0, 0)

	var uiLines []ui.ContentLine
	var llmLines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo, readCount := 0, 0
	truncated := false

	for scanner.Scan() {
		lineNo++
		if offset > 0 && lineNo < offset {
			continue
		}
		if readCount >= limit {
			truncated = true
			continue
		}
		text := scanner.Text()
		if len(text) > maxLineLength {
			text = text[:maxLineLength] + "..."
		}
		uiLines = append(uiLines, ui.ContentLine{LineNo: lineNo, Text: text, Type: ui.LineNormal})
		llmLines = append(llmLines, fmt.Sprintf("%d\t%s", lineNo, text))
		readCount++
	}
	if err := scanner.Err(); err != nil {
		return errResult("error reading file: " + err.Error())
	}

	llmContent := joinWithNote(llmLines, truncated, lineNo, "lines")
	if truncated {
		llmContent += fmt.Sprintf("\n[total %d lines in file]", lineNo)
	}

	return message.ToolResult{
		Content:   llmContent,
		UIContent: ui.RenderLines(uiLines, true),
		Truncated: truncated,
	}
}

func init() { Register(&ReadTool{}) }

func errResult(msg string) message.ToolResult {
	return message.ToolResult{Content: "Error: " + msg, IsError: true, Status: message.StatusError}
}

func intParam(params map[string]any, key string, def int) int {
	if v, ok := params[key].(int); ok {
		return v
	}
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return def
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func stringParam(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}
