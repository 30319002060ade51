// Package token provides the token budget and counter (spec component C1):
// a thread-safe estimator of message/tool cost and a running budget that
// the context manager checks before every model request.
package token

import (
	"sync"
	"unicode/utf8"

	"github.com/yanmxa/gencode/internal/message"
)

// charsPerToken approximates English-ish source/prose token density.
// Estimation need not match any provider's tokenizer exactly; it only has
// to be monotonic in message length and stable across runs.
const charsPerToken = 3.6

// EstimateText estimates the token cost of a raw string.
func EstimateText(s string) int {
	if s == "" {
		return 0
	}
	n := utf8.RuneCountInString(s)
	est := int(float64(n)/charsPerToken + 0.5)
	if est < 1 {
		est = 1
	}
	return est
}

// EstimateMessage estimates the token cost of one history message, including
// its tool call arguments and tool result content. ANSI escape sequences are
// stripped first (§6: "ANSI parsing never counts escape codes as tokens").
func EstimateMessage(m message.Message) int {
	total := EstimateText(stripANSI(m.Content)) + EstimateText(m.Thinking)
	for _, tc := range m.ToolCalls {
		total += EstimateText(tc.Name) + EstimateText(stripANSI(tc.Input)) + 4 // call envelope overhead
	}
	if m.ToolResult != nil {
		total += EstimateText(stripANSI(m.ToolResult.Content)) + 4
	}
	for range m.Images {
		total += 256 // flat per-image estimate; exact vision tokenization is provider-specific
	}
	return total
}

// EstimateTool estimates the token cost of one tool's schema declaration,
// per the documentation tier it was rendered at (§4.4).
func EstimateTool(name, description string, tier string) int {
	base := EstimateText(name) + EstimateText(description)
	switch tier {
	case "full":
		return base + 110
	case "progressive":
		return base + 30
	default: // "minimal"
		return base + 5
	}
}

// EstimateHistory sums EstimateMessage over a whole history.
func EstimateHistory(history []message.Message) int {
	total := 0
	for _, m := range history {
		total += EstimateMessage(m)
	}
	return total
}

// Counter is a thread-safe token budget tracker. Multiple readers may call
// Remaining concurrently with a single writer calling Reserve/Release.
type Counter struct {
	mu        sync.RWMutex
	limit     int
	used      int
	reserved  int
}

// NewCounter creates a Counter with the given total budget (input token
// limit for the active model).
func NewCounter(limit int) *Counter {
	return &Counter{limit: limit}
}

// Limit returns the total configured budget.
func (c *Counter) Limit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limit
}

// SetLimit updates the total budget (e.g. on model switch).
func (c *Counter) SetLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = limit
}

// Used returns tokens accounted so far via Append/Reserve.
func (c *Counter) Used() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.used + c.reserved
}

// Remaining returns the budget left, never negative.
func (c *Counter) Remaining() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	remaining := c.limit - c.used - c.reserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Ratio returns Used()/Limit(), or 0 if no limit is configured.
func (c *Counter) Ratio() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.limit <= 0 {
		return 0
	}
	return float64(c.used+c.reserved) / float64(c.limit)
}

// Reserve provisionally accounts n tokens (e.g. for an in-flight request)
// before the real usage is known.
func (c *Counter) Reserve(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserved += n
}

// Release gives back n previously reserved tokens.
func (c *Counter) Release(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserved -= n
	if c.reserved < 0 {
		c.reserved = 0
	}
}

// Append commits n tokens as permanently used (e.g. after a response lands),
// clearing any matching reservation.
func (c *Counter) Append(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reserved > 0 {
		take := n
		if take > c.reserved {
			take = c.reserved
		}
		c.reserved -= take
	}
	c.used += n
}

// Reset sets used to newUsed and zeroes the reserved counter (e.g. right
// after compaction replaces history with a summary).
func (c *Counter) Reset(newUsed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.used = newUsed
	c.reserved = 0
}

// stripANSI removes terminal escape sequences so they are never counted as
// tokens and never reach a model's context.
func stripANSI(s string) string {
	var out []byte
	i := 0
	b := []byte(s)
	for i < len(b) {
		if b[i] == 0x1b && i+1 < len(b) && b[i+1] == '[' {
			j := i + 2
			for j < len(b) && !(b[j] >= 0x40 && b[j] <= 0x7e) {
				j++
			}
			if j < len(b) {
				j++
			}
			i = j
			continue
		}
		out = append(out, b[i])
		i++
	}
	return string(out)
}
