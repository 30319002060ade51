package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/provider/search"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

// WebSearchTool runs a query against whichever search backend is available
// (Exa needs no key and is always ready; Serper and Brave activate once
// their API key env var is set) and renders the results as markdown. Not
// part of the core catalog but exercised the same way as WebFetch.
type WebSearchTool struct{}

func (t *WebSearchTool) Name() string { return "WebSearch" }
func (t *WebSearchTool) Description() string {
	return "Search the web and return titled results with snippets"
}
func (t *WebSearchTool) Icon() string { return ui.IconSearch }

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	query := stringParam(params, "query")
	if query == "" {
		return errResult("query is required")
	}

	provider := t.pickProvider(stringParam(params, "provider"))
	if provider == nil {
		return errResult("no search provider is available; set SERPER_API_KEY or BRAVE_API_KEY, or omit provider to use Exa")
	}

	opts := search.DefaultOptions()
	if n := intParam(params, "num_results", 0); n > 0 {
		opts.NumResults = n
	}
	opts.AllowedDomains = stringSliceParam(params, "allowed_domains")
	opts.BlockedDomains = stringSliceParam(params, "blocked_domains")

	results, err := provider.Search(ctx, query, opts)
	if err != nil {
		return errResult(fmt.Sprintf("%s search failed: %s", provider.DisplayName(), err.Error()))
	}
	if len(results) == 0 {
		return message.ToolResult{Content: "no results"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s results for %q:\n\n", provider.DisplayName(), query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}

	return message.ToolResult{Content: strings.TrimRight(b.String(), "\n")}
}

// pickProvider honors an explicit provider name if given and available,
// otherwise falls back to the first available provider (Exa last, since it
// has the narrowest result set of the three).
func (t *WebSearchTool) pickProvider(name string) search.Provider {
	if name != "" {
		p := search.CreateProvider(search.ProviderName(name))
		if p.IsAvailable() {
			return p
		}
		return nil
	}

	available := search.GetAvailableProviders()
	for _, p := range available {
		if p.Name() != search.ProviderExa {
			return p
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return nil
}

func stringSliceParam(params map[string]any, key string) []string {
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	Register(&WebSearchTool{})
}
