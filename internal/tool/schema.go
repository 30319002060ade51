package tool

import "github.com/yanmxa/gencode/internal/provider"

// DocumentationMode selects how much detail GetToolSchemas emits per tool.
// Switching tiers is a pure function over toolSpecs — it never changes
// what a tool does, only how much of its description/parameter surface
// reaches the model.
type DocumentationMode string

const (
	DocMinimal     DocumentationMode = "minimal"
	DocProgressive DocumentationMode = "progressive"
	DocFull        DocumentationMode = "full"
)

// toolSpec holds the renderings of one tool's schema, keyed by tier.
// Minimal carries just enough for the model to call the tool correctly;
// full carries the long-form usage notes a hand-tuned prompt would include.
type toolSpec struct {
	name          string
	minimalDoc    string
	fullDoc       string
	parameters    map[string]any
	minimalParams map[string]any // nil reuses parameters unchanged
}

func (s toolSpec) render(mode DocumentationMode) provider.Tool {
	desc := s.minimalDoc
	params := s.parameters
	switch mode {
	case DocFull:
		if s.fullDoc != "" {
			desc = s.fullDoc
		}
	case DocMinimal:
		if s.minimalParams != nil {
			params = s.minimalParams
		}
	case DocProgressive:
		// keeps the one-line description but the complete parameter
		// schema, splitting the difference between terse and full.
	}
	return provider.Tool{Name: s.name, Description: desc, Parameters: params}
}

var toolSpecs = []toolSpec{
	{
		name:       "Read",
		minimalDoc: "Read file contents.",
		fullDoc:    "Read file contents. Use this to read source code, configuration files, or any text file. Binary files are rejected. Long files are truncated at 2000 lines by default; use offset/limit to page through them.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "Path to the file to read (absolute or relative to the working directory)"},
				"offset":    map[string]any{"type": "integer", "description": "Line number to start reading from (1-based). Default 1."},
				"limit":     map[string]any{"type": "integer", "description": "Maximum number of lines to read. Default 2000."},
			},
			"required": []string{"file_path"},
		},
	},
	{
		name:       "Write",
		minimalDoc: "Write content to a file, creating or overwriting it.",
		fullDoc:    "Write content to a file. Creates parent directories if needed and overwrites an existing file entirely. Always requires approval; shows a content preview for new files and a diff for overwrites.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "Path to the file to write (absolute or relative to the working directory)"},
				"content":   map[string]any{"type": "string", "description": "The content to write to the file"},
			},
			"required": []string{"file_path", "content"},
		},
	},
	{
		name:       "Edit",
		minimalDoc: "Edit a file with an exact string replacement.",
		fullDoc:    "Edit file contents by replacing old_string with new_string. old_string must be unique in the file unless replace_all is set. Always requires approval and shows a unified diff.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path":   map[string]any{"type": "string", "description": "Path to the file to edit"},
				"old_string":  map[string]any{"type": "string", "description": "Exact text to replace; must be unique unless replace_all is true"},
				"new_string":  map[string]any{"type": "string", "description": "Replacement text"},
				"replace_all": map[string]any{"type": "boolean", "description": "Replace every occurrence instead of requiring uniqueness. Default false."},
			},
			"required": []string{"file_path", "old_string", "new_string"},
		},
	},
	{
		name:       "Grep",
		minimalDoc: "Search file contents with a regular expression.",
		fullDoc:    "Search file contents with a regular expression. Walks directories (skipping .git, node_modules, vendor, and similar), skips binary files, and returns matching lines with file path and line number, capped at 50 matches.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "description": "Regular expression to search for"},
				"path":    map[string]any{"type": "string", "description": "File or directory to search. Default is the working directory."},
				"include": map[string]any{"type": "string", "description": "Glob to filter which file names are searched (e.g. '*.go')"},
			},
			"required": []string{"pattern"},
		},
	},
	{
		name:       "Glob",
		minimalDoc: "Find files matching a glob pattern.",
		fullDoc:    "Find files matching a doublestar glob pattern (supports ** for recursive matching). Results are sorted newest-modified first and capped at 100 entries.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "description": "Glob pattern, e.g. '**/*.go'"},
				"path":    map[string]any{"type": "string", "description": "Base directory to search. Default is the working directory."},
			},
			"required": []string{"pattern"},
		},
	},
	{
		name:       "Ls",
		minimalDoc: "List a directory's contents.",
		fullDoc:    "List the immediate entries of a directory, sorted alphabetically with directories suffixed by '/'. Non-recursive; use Glob to search a tree.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Directory to list. Default is the working directory."},
			},
		},
	},
	{
		name:       "Bash",
		minimalDoc: "Execute a shell command.",
		fullDoc:    "Execute a shell command in a PTY-attached subprocess. Every command is checked by the safety evaluator: known-safe commands run without confirmation, risky ones prompt for approval, and hard-denied patterns are rejected outright. Repeating an identical command past the loop-detection threshold also forces a confirmation prompt. Use run_in_background for long-lived processes and poll them with TaskStatus.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command":           map[string]any{"type": "string", "description": "The shell command to execute"},
				"description":       map[string]any{"type": "string", "description": "Brief description of what the command does, shown in the approval prompt"},
				"timeout":           map[string]any{"type": "integer", "description": "Timeout in seconds (default 600, clamped to [10, 3600])"},
				"run_in_background": map[string]any{"type": "boolean", "description": "Start the command without blocking; returns a task id pollable via TaskStatus"},
			},
			"required": []string{"command"},
		},
	},
	{
		name:       "TaskStatus",
		minimalDoc: "Check or wait on a background task started by Bash.",
		fullDoc:    "Poll a background task started with Bash run_in_background=true. Blocks (up to the resolved timeout) until the task finishes unless block=false. Pass cancel=true to terminate it instead.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "The background task id returned by Bash"},
				"block":   map[string]any{"type": "boolean", "description": "Wait for completion before returning. Default true."},
				"timeout": map[string]any{"type": "integer", "description": "Maximum seconds to wait when block=true (default 600, clamped to [10, 3600])"},
				"cancel":  map[string]any{"type": "boolean", "description": "Terminate the task instead of querying it"},
			},
			"required": []string{"task_id"},
		},
	},
	{
		name:       "WebFetch",
		minimalDoc: "Fetch a URL and return its content as markdown.",
		fullDoc:    "Fetch a URL. HTML responses are converted to Markdown for readability; other content types are returned as-is. Capped at 5MB and 2000 lines.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":    map[string]any{"type": "string", "description": "The URL to fetch"},
				"format": map[string]any{"type": "string", "description": "'markdown' (default) or 'raw'"},
			},
			"required": []string{"url"},
		},
	},
	{
		name:       "WebSearch",
		minimalDoc: "Search the web and return titled results with snippets.",
		fullDoc:    "Search the web using whichever backend is available (Serper or Brave if their API key env var is set, else Exa). Returns numbered title/url/snippet results. Optionally scope results with allowed_domains/blocked_domains.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":           map[string]any{"type": "string", "description": "The search query"},
				"provider":        map[string]any{"type": "string", "description": "Force a specific backend: 'exa', 'serper', or 'brave'"},
				"num_results":     map[string]any{"type": "integer", "description": "Maximum results to return (default 10)"},
				"allowed_domains": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Only return results from these domains"},
				"blocked_domains": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Exclude results from these domains"},
			},
			"required": []string{"query"},
		},
	},
	{
		name:       "Task",
		minimalDoc: "Launch a subagent to handle a task.",
		fullDoc:    "Launch a subagent to handle a task. Not available in this build; calling it returns an error result rather than spawning anything.",
		parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subagent_type": map[string]any{"type": "string", "description": "The type of agent to spawn"},
				"prompt":        map[string]any{"type": "string", "description": "The task for the agent to perform"},
			},
			"required": []string{"subagent_type", "prompt"},
		},
	},
}

// GetToolSchemas returns provider.Tool definitions for every registered
// tool at the progressive documentation tier (the historical default).
func GetToolSchemas() []provider.Tool {
	return GetToolSchemasMode(DocProgressive)
}

// GetToolSchemasMode renders the catalog at the given documentation tier.
func GetToolSchemasMode(mode DocumentationMode) []provider.Tool {
	tools := make([]provider.Tool, 0, len(toolSpecs))
	for _, s := range toolSpecs {
		tools = append(tools, s.render(mode))
	}
	return tools
}

// GetToolSchemasWithMCP returns the catalog plus any MCP-provided tools.
func GetToolSchemasWithMCP(mcpToolsGetter func() []provider.Tool) []provider.Tool {
	tools := GetToolSchemas()
	if mcpToolsGetter != nil {
		tools = append(tools, mcpToolsGetter()...)
	}
	return tools
}

// GetToolSchemasFiltered returns tool schemas excluding disabled tools.
func GetToolSchemasFiltered(disabled map[string]bool) []provider.Tool {
	all := GetToolSchemas()
	if len(disabled) == 0 {
		return all
	}
	filtered := make([]provider.Tool, 0, len(all))
	for _, t := range all {
		if !disabled[t.Name] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// planModeAllowed are the read-only tools available while plan mode is
// active (no Write/Edit/Bash — those mutate state or the filesystem).
var planModeAllowed = map[string]bool{
	"Read":      true,
	"Glob":      true,
	"Grep":      true,
	"Ls":        true,
	"WebFetch":  true,
	"WebSearch": true,
}

// GetPlanModeToolSchemas returns only the read-only tools available in plan mode.
func GetPlanModeToolSchemas() []provider.Tool {
	all := GetToolSchemas()
	tools := make([]provider.Tool, 0, len(planModeAllowed))
	for _, t := range all {
		if planModeAllowed[t.Name] {
			tools = append(tools, t)
		}
	}
	return tools
}

// GetPlanModeToolSchemasFiltered returns plan mode tools excluding disabled tools.
func GetPlanModeToolSchemasFiltered(disabled map[string]bool) []provider.Tool {
	all := GetPlanModeToolSchemas()
	if len(disabled) == 0 {
		return all
	}
	filtered := make([]provider.Tool, 0, len(all))
	for _, t := range all {
		if !disabled[t.Name] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
