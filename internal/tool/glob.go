package tool

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const maxGlobResults = 100

// ignoredDirs are directories Glob and Grep both skip while walking.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".svn":         true,
	".hg":          true,
	"vendor":       true,
	"__pycache__":  true,
	".cache":       true,
	"dist":         true,
	"build":        true,
}

// GlobTool finds files matching a doublestar-aware glob pattern, sorted
// newest-modified first.
type GlobTool struct{}

func (t *GlobTool) Name() string        { return "Glob" }
func (t *GlobTool) Description() string { return "Find files matching a pattern" }
func (t *GlobTool) Icon() string        { return ui.IconGlob }

func (t *GlobTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	pattern := stringParam(params, "pattern")
	if pattern == "" {
		return errResult("pattern is required")
	}

	basePath := cwd
	if path := stringParam(params, "path"); path != "" {
		if filepath.IsAbs(path) {
			basePath = path
		} else {
			basePath = filepath.Join(cwd, path)
		}
	}

	if _, err := os.Stat(basePath); err != nil {
		if os.IsNotExist(err) {
			return errResult("path not found: " + basePath)
		}
		return errResult("failed to access path: " + err.Error())
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo

	err := filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
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
		relPath, err := filepath.Rel(basePath, path)
		if err != nil {
			return nil
		}
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil || !matched {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, fileInfo{path: relPath, modTime: info.ModTime()})
		return nil
	})
	if err != nil && err != context.Canceled {
		return errResult("glob error: " + err.Error())
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	total := len(files)
	truncated := false
	if len(files) > maxGlobResults {
		files = files[:maxGlobResults]
		truncated = true
	}

	filePaths := make([]string, len(files))
	for i, f := range files {
		filePaths[i] = f.path
	}

	llmContent := joinWithNote(filePaths, truncated, total, "files")
	if len(filePaths) == 0 {
		llmContent = "(no files matched)"
	}

	return message.ToolResult{
		Content:   llmContent,
		UIContent: ui.RenderFileList(filePaths, maxGlobResults),
		Truncated: truncated,
	}
}

func init() { Register(&GlobTool{}) }
