// Package message defines the canonical history types shared by the turn
// driver, context manager, tool dispatcher, and every LLM provider adapter.
// All packages import from here to avoid circular dependencies.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Status classifies how a tool execution finished.
type Status string

const (
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusCanceled Status = "canceled"
)

// Message represents one entry in the conversation history.
//
// A ToolCall from the spec's data model is an assistant Message carrying
// one or more ToolCalls; a ToolOutput is a RoleToolResult message carrying
// exactly one ToolResult referencing its call by ID. Insertion order into a
// history slice is semantically significant.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	Images     []ImageData `json:"images,omitempty"`
	Thinking   string      `json:"thinking,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	IsSummary  bool        `json:"is_summary,omitempty"`
}

// ImageData represents image data for multimodal messages.
type ImageData struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
	FileName  string `json:"file_name"`
	Size      int    `json:"size"`
}

// ToolCall represents a tool call emitted by the model. ID is the stable
// call_id used to pair it with its later ToolResult.
type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ToolResult is the dual-channel outcome of executing one ToolCall.
//
// Content is what the spec calls llm_content: the summarized variant fed
// back into history. UIContent, when non-empty, is the fuller rendering
// shown to the user; tools that produce identical UI/LLM output leave it
// empty and callers fall back to Content.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name,omitempty"`
	Content    string `json:"content"`
	UIContent  string `json:"ui_content,omitempty"`
	Status     Status `json:"status,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// UI returns the fuller rendering shown to a human, falling back to Content.
func (r ToolResult) UI() string {
	if r.UIContent != "" {
		return r.UIContent
	}
	return r.Content
}

// SystemMessage creates a system-classified message (used for compaction
// summaries and the initial system prompt).
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message with optional images.
func UserMessage(text string, images []ImageData) Message {
	return Message{
		Role:    RoleUser,
		Content: text,
		Images:  images,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(text, thinking string, calls []ToolCall) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   text,
		Thinking:  thinking,
		ToolCalls: calls,
	}
}

// ErrorResult creates an error ToolResult for a tool call.
func ErrorResult(tc ToolCall, content string) *ToolResult {
	return &ToolResult{
		ToolCallID: tc.ID,
		ToolName:   tc.Name,
		Content:    content,
		Status:     StatusError,
		IsError:    true,
	}
}

// CanceledResult creates the synthetic ToolResult normalization inserts for
// a ToolCall that never received a real output.
func CanceledResult(tc ToolCall) *ToolResult {
	return &ToolResult{
		ToolCallID: tc.ID,
		ToolName:   tc.Name,
		Content:    "Tool execution was interrupted.",
		Status:     StatusCanceled,
		IsError:    true,
	}
}

// ToolResultMessage wraps a ToolResult in a history message.
func ToolResultMessage(result ToolResult) Message {
	if result.Status == "" {
		if result.IsError {
			result.Status = StatusError
		} else {
			result.Status = StatusOK
		}
	}
	return Message{
		Role:       RoleToolResult,
		ToolResult: &result,
	}
}

// ParseToolInput deserializes JSON tool input into a params map.
func ParseToolInput(input string) (map[string]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return nil, err
	}
	return params, nil
}

// BuildConversationText renders messages as plain text for the compaction
// summarization prompt (internal/contextmgr).
func BuildConversationText(msgs []Message) string {
	var sb strings.Builder
	sb.WriteString("Summarize this coding session. Preserve file paths referenced, ")
	sb.WriteString("outstanding user requests, decisions taken, and any error outcomes.\n\n")

	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			fmt.Fprintf(&sb, "System: %s\n\n", msg.Content)
		case RoleToolResult:
			if msg.ToolResult != nil {
				content := msg.ToolResult.Content
				if len(content) > 500 {
					content = content[:500] + "...[truncated]"
				}
				fmt.Fprintf(&sb, "[Tool Result: %s]\n%s\n\n", msg.ToolResult.ToolName, content)
			}
		case RoleUser:
			fmt.Fprintf(&sb, "User: %s\n\n", msg.Content)
		case RoleAssistant:
			if msg.Content != "" {
				fmt.Fprintf(&sb, "Assistant: %s\n\n", msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				fmt.Fprintf(&sb, "[Tool Call: %s]\n", tc.Name)
			}
		}
	}

	return sb.String()
}

// CompletionResponse represents a completion response from an LLM provider.
type CompletionResponse struct {
	Content    string     `json:"content,omitempty"`
	Thinking   string     `json:"thinking,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason"` // "end_turn", "tool_use", "max_tokens"
	Usage      Usage      `json:"usage"`
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChunkType represents the type of a stream chunk.
type ChunkType string

const (
	ChunkTypeText      ChunkType = "text"
	ChunkTypeThinking  ChunkType = "thinking"
	ChunkTypeToolStart ChunkType = "tool_start"
	ChunkTypeToolInput ChunkType = "tool_input"
	ChunkTypeDone      ChunkType = "done"
	ChunkTypeError     ChunkType = "error"
)

// StreamChunk represents one chunk in a provider's streaming response. It
// is the concrete form of the spec's {ContentDelta | ReasoningDelta |
// ToolCallDelta | Complete | Error} streaming interface.
type StreamChunk struct {
	Type     ChunkType
	Text     string              // ContentDelta (Type==Text) or ReasoningDelta (Type==Thinking)
	ToolID   string              // ToolCallDelta
	ToolName string              // ToolCallDelta, set only on the first fragment
	Response *CompletionResponse // Complete; the provider's consolidated response (content, tool calls, stop reason, usage)
	Error    error
}
