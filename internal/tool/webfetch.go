package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/tool/ui"
)

const (
	maxResponseSize = 5 * 1024 * 1024 // 5MB
	httpTimeout     = 30 * time.Second
)

// WebFetchTool fetches a URL and converts HTML responses to markdown. Not
// part of the core catalog but exercised the same way as the others.
type WebFetchTool struct{}

func (t *WebFetchTool) Name() string        { return "WebFetch" }
func (t *WebFetchTool) Description() string { return "Fetch content from a URL" }
func (t *WebFetchTool) Icon() string        { return ui.IconWeb }

func (t *WebFetchTool) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	urlStr := stringParam(params, "url")
	if urlStr == "" {
		return errResult("url is required")
	}
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		urlStr = "https://" + urlStr
	}
	format := stringParam(params, "format")
	if format == "" {
		format = "markdown"
	}

	client := &http.Client{Timeout: httpTimeout}
	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return errResult("invalid URL: " + err.Error())
	}
	req.Header.Set("User-Agent", "vtcode/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return errResult("request failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errResult(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return errResult("failed to read response: " + err.Error())
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")
	if format == "markdown" && strings.Contains(contentType, "text/html") {
		converter := md.NewConverter("", true, nil)
		if markdown, err := converter.ConvertString(content); err == nil {
			content = markdown
		}
	}

	truncated := false
	lines := strings.Split(content, "\n")
	if len(lines) > maxReadLines {
		lines = lines[:maxReadLines]
		content = strings.Join(lines, "\n")
		truncated = true
	}

	return message.ToolResult{
		Content:   content,
		Truncated: truncated,
	}
}

func init() {
	Register(&WebFetchTool{})
}
