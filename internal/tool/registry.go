package tool

import (
	"context"
	"strings"
	"sync"

	"github.com/yanmxa/gencode/internal/message"
)

// Registry manages tool registration and lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, keyed case-insensitively.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[strings.ToLower(t.Name())] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[strings.ToLower(name)]
	return t, ok
}

// List returns all registered tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global catalog populated by each tool's init().
var DefaultRegistry = NewRegistry()

// Register adds a tool to the default registry.
func Register(t Tool) { DefaultRegistry.Register(t) }

// Get retrieves a tool from the default registry.
func Get(name string) (Tool, bool) { return DefaultRegistry.Get(name) }

// call pairs a ToolCall with its parsed params, preserving the original
// index so the dispatcher can restore call_id order in history regardless
// of completion order.
type call struct {
	index int
	tc    message.ToolCall
	cwd   string
}

// writeTargetTools are the tools whose file_path argument makes two calls
// conflict if they target the same path (spec.md §4.4's concurrency rule:
// independent calls run in parallel, same-path writes serialize).
var writeTargetTools = map[string]bool{
	"write": true,
	"edit":  true,
	"read":  true,
}

// Dispatcher executes a batch of tool calls from one assistant turn,
// respecting the concurrency rule: calls targeting distinct paths (or
// tools with no file_path concept) run concurrently; calls that share a
// file_path with an earlier still-running call wait for it. The returned
// slice of ToolResult is always ordered by the calls' original index, not
// by completion time.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher builds a Dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Dispatcher{registry: registry}
}

// Execute parses and runs every call in tcs, applying approveFn to any
// PermissionAwareTool call whose preparation step returns non-nil (the
// turn driver's AwaitingUserApproval gate). approveFn returning false
// causes that call to produce a canceled result rather than executing.
func (d *Dispatcher) Execute(ctx context.Context, tcs []message.ToolCall, cwd string, approveFn func(req string) bool) []message.ToolResult {
	calls := make([]call, len(tcs))
	for i, tc := range tcs {
		calls[i] = call{index: i, tc: tc, cwd: cwd}
	}

	results := make([]message.ToolResult, len(tcs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	locks := make(map[string]*sync.Mutex)

	lockFor := func(key string) *sync.Mutex {
		mu.Lock()
		defer mu.Unlock()
		if locks[key] == nil {
			locks[key] = &sync.Mutex{}
		}
		return locks[key]
	}

	for _, c := range calls {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()

			params, err := message.ParseToolInput(c.tc.Input)
			if err != nil {
				results[c.index] = *message.ErrorResult(c.tc, "invalid tool input: "+err.Error())
				return
			}

			if key, ok := conflictKey(c.tc.Name, params); ok {
				l := lockFor(key)
				l.Lock()
				defer l.Unlock()
			}

			results[c.index] = d.executeOne(ctx, c.tc, params, c.cwd, approveFn)
		}()
	}

	wg.Wait()
	return results
}

// conflictKey returns the serialization key for a call (its file_path, so
// Read, Write and Edit calls on one path share a key), or
// ok=false if the tool has no path-based conflict concept and can always
// run concurrently with every other call.
func conflictKey(toolName string, params map[string]any) (string, bool) {
	lower := strings.ToLower(toolName)
	if !writeTargetTools[lower] {
		return "", false
	}
	path, _ := params["file_path"].(string)
	if path == "" {
		return "", false
	}
	return path, true
}

func (d *Dispatcher) executeOne(ctx context.Context, tc message.ToolCall, params map[string]any, cwd string, approveFn func(req string) bool) message.ToolResult {
	t, ok := d.registry.Get(tc.Name)
	if !ok {
		return *message.ErrorResult(tc, "unknown tool: "+tc.Name)
	}

	if pat, ok := t.(PermissionAwareTool); ok && pat.RequiresPermission() {
		req, err := pat.PreparePermission(ctx, params, cwd)
		if err != nil {
			return *message.ErrorResult(tc, err.Error())
		}
		if req != nil && approveFn != nil && !approveFn(req.ID) {
			return *message.CanceledResult(tc)
		}
		res := pat.ExecuteApproved(ctx, params, cwd)
		res.ToolCallID = tc.ID
		res.ToolName = tc.Name
		return res
	}

	res := t.Execute(ctx, params, cwd)
	res.ToolCallID = tc.ID
	res.ToolName = tc.Name
	return res
}
