package tool

import (
	"fmt"
	"strings"

	"github.com/yanmxa/gencode/internal/token"
)

// defaultToolResultBudget is the llm_content token ceiling that capLines
// and capText apply when called with maxTokens <= 0. No tool in this
// package calls them, so tool results are bounded only by each tool's own
// line, match, entry and size caps.
const defaultToolResultBudget = 2000

// capLines truncates a slice of text lines to at most maxTokens worth of
// estimated tokens, returning the kept lines and whether truncation
// occurred.
func capLines(lines []string, maxTokens int) ([]string, bool) {
	if maxTokens <= 0 {
		maxTokens = defaultToolResultBudget
	}
	used := 0
	for i, l := range lines {
		used += token.EstimateText(l)
		if used > maxTokens {
			return lines[:i], true
		}
	}
	return lines, false
}

// capText truncates raw text to at most maxTokens worth of estimated
// tokens, reporting whether it had to cut; it appends no note.
func capText(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		maxTokens = defaultToolResultBudget
	}
	if token.EstimateText(text) <= maxTokens {
		return text, false
	}
	// chars-per-token heuristic mirrors internal/token's estimator, so the
	// cut point and the budget check agree.
	maxChars := int(float64(maxTokens) * 3.6)
	if maxChars >= len(text) {
		return text, false
	}
	return text[:maxChars], true
}

// summaryNote appends a standard truncation notice, used across the
// Read/Glob/Ls summarizers so truncation reads the same way in the
// transcript (Grep writes its own "more matches truncated" note).
func summaryNote(kept, total int, noun string) string {
	if kept >= total {
		return ""
	}
	return fmt.Sprintf("\n... (%d more %s, %d shown)", total-kept, noun, kept)
}

func joinWithNote(lines []string, truncated bool, total int, noun string) string {
	body := strings.Join(lines, "\n")
	if truncated {
		body += summaryNote(len(lines), total, noun)
	}
	return body
}
