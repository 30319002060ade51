package tool

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const (
	maxGrepMatches = 50
	maxGrepFiles   = 100
)

// GrepTool searches file contents with a regular expression.
type GrepTool struct{}

func (t *GrepTool) Name() string        { return "Grep" }
func (t *GrepTool) Description() string { return "Search for patterns in files" }
func (t *GrepTool) Icon() string        { return ui.IconGrep }

func (t *GrepTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	pattern := stringParam(params, "pattern")
	if pattern == "" {
		return errResult("pattern is required")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return errResult("invalid pattern: " + err.Error())
	}

	basePath := cwd
	if path := stringParam(params, "path"); path != "" {
		if filepath.IsAbs(path) {
			basePath = path
		} else {
			basePath = filepath.Join(cwd, path)
		}
	}
	includePattern := stringParam(params, "include")

	info, err := os.Stat(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("path not found: " + basePath)
		}
		return errResult("failed to access path: " + err.Error())
	}

	var uiMatches []ui.ContentLine
	var llmMatches []string
	filesSearched := 0

	searchFile := func(filePath, relPath string) error {
		file, err := os.Open(filePath)
		if err != nil {
			return nil
		}
		defer file.Close()

		buf := make([]byte, 512)
		n, _ := file.Read(buf)
		if n > 0 && isBinary(buf[:n]) {
			return nil
		}
		file.Seek(0, 0)

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if !re.MatchString(line) {
				continue
			}
			displayLine := line
			if len(displayLine) > maxLineLength {
				displayLine = displayLine[:maxLineLength] + "..."
			}
			displayLine = strings.TrimSpace(displayLine)
			uiMatches = append(uiMatches, ui.ContentLine{LineNo: lineNo, Text: displayLine, Type: ui.LineMatch, File: relPath})
			llmMatches = append(llmMatches, relPath+":"+strconv.Itoa(lineNo)+": "+displayLine)
			if len(uiMatches) >= maxGrepMatches {
				return filepath.SkipAll
			}
		}
		return nil
	}

	if !info.IsDir() {
		searchFile(basePath, filepath.Base(basePath))
	} else {
		filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if d.IsDir() {
				if ignoredDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if includePattern != "" {
				if matched, _ := filepath.Match(includePattern, d.Name()); !matched {
					return nil
				}
			}
			relPath, err := filepath.Rel(basePath, path)
			if err != nil {
				relPath = path
			}
			filesSearched++
			if filesSearched > maxGrepFiles {
				return filepath.SkipAll
			}
			return searchFile(path, relPath)
		})
	}

	truncated := len(uiMatches) >= maxGrepMatches
	llmContent := strings.Join(llmMatches, "\n")
	if llmContent == "" {
		llmContent = "(no matches found)"
	} else if truncated {
		llmContent += "\n... (more matches truncated)"
	}

	return message.ToolResult{
		Content:   llmContent,
		UIContent: ui.RenderGrepResults(uiMatches, maxGrepMatches),
		Truncated: truncated,
	}
}

func isBinary(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

func init() { Register(&GrepTool{}) }
