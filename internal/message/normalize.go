package message

// NormalizeReport summarizes the repairs Normalize made to a history.
type NormalizeReport struct {
	MissingOutputsFixed int
	OrphansRemoved      int
}

// Normalize restores the pairing invariant: for every ToolCall there exists
// at most one later ToolResult with the same call_id, and every ToolResult
// has a prior matching ToolCall.
//
// Dangling calls (no ToolResult anywhere in history) get a synthetic
// Canceled ToolResult inserted immediately after the assistant message that
// issued them. ToolResults with no matching call, or a second ToolResult
// for a call that already has one, are dropped as orphans.
//
// Normalize is idempotent: Normalize(Normalize(h)) == Normalize(h).
func Normalize(history []Message) ([]Message, NormalizeReport) {
	callKnown := make(map[string]bool)
	for _, m := range history {
		if m.Role == RoleAssistant {
			for _, tc := range m.ToolCalls {
				callKnown[tc.ID] = true
			}
		}
	}

	hasOutputAnywhere := make(map[string]bool)
	for _, m := range history {
		if m.Role == RoleToolResult && m.ToolResult != nil {
			id := m.ToolResult.ToolCallID
			if callKnown[id] {
				hasOutputAnywhere[id] = true
			}
		}
	}

	var report NormalizeReport
	out := make([]Message, 0, len(history))
	placed := make(map[string]bool)

	for _, m := range history {
		if m.Role == RoleToolResult && m.ToolResult != nil {
			id := m.ToolResult.ToolCallID
			if !callKnown[id] {
				report.OrphansRemoved++
				continue
			}
			if placed[id] {
				report.OrphansRemoved++
				continue
			}
			placed[id] = true
			out = append(out, m)
			continue
		}

		out = append(out, m)

		if m.Role == RoleAssistant && len(m.ToolCalls) > 0 {
			for _, tc := range m.ToolCalls {
				if hasOutputAnywhere[tc.ID] || placed[tc.ID] {
					continue
				}
				out = append(out, ToolResultMessage(*CanceledResult(tc)))
				placed[tc.ID] = true
				report.MissingOutputsFixed++
			}
		}
	}

	return out, report
}
