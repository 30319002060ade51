package tool

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const maxLsEntries = 200

// LsTool lists a directory's immediate entries. Grounded on GlobTool's
// directory-walk shape, reduced to a single non-recursive listing.
type LsTool struct{}

func (t *LsTool) Name() string        { return "Ls" }
func (t *LsTool) Description() string { return "List directory contents" }
func (t *LsTool) Icon() string        { return ui.IconFile }

func (t *LsTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	path := stringParam(params, "path")
	target := cwd
	if path != "" {
		if filepath.IsAbs(path) {
			target = path
		} else {
			target = filepath.Join(cwd, path)
		}
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("path not found: " + target)
		}
		return errResult("failed to list directory: " + err.Error())
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var names []string
	dirCount, fileCount := 0, 0
	for _, e := range entries {
		if ignoredDirs[e.Name()] {
			continue
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
			dirCount++
		} else {
			fileCount++
		}
		names = append(names, name)
	}

	total := len(names)
	truncated := false
	if len(names) > maxLsEntries {
		names = names[:maxLsEntries]
		truncated = true
	}

	llmContent := joinWithNote(names, truncated, total, "entries")
	if llmContent == "" {
		llmContent = "(empty directory)"
	}
	llmContent = llmContent + "\n\n" + itoaFast(dirCount) + " directories, " + itoaFast(fileCount) + " files"

	return message.ToolResult{
		Content:   llmContent,
		UIContent: ui.RenderFileList(names, maxLsEntries),
		Truncated: truncated,
	}
}

func itoaFast(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func init() { Register(&LsTool{}) }
