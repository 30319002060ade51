package session

import (
	"time"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/turn"
)

// SessionMetadata contains metadata about a session
type SessionMetadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Cwd          string    `json:"cwd"`
	MessageCount int       `json:"messageCount"`
}

// Session is the single JSON artifact snapshotted after each terminal
// transition of the turn driver (spec.md §4.8). History is stored as
// message.Message directly — it already carries the json tags needed for
// a stable on-disk shape, so no separate wire-format type is needed.
// Ledger is the turn driver's append-only decision ledger: compact,
// structured records for post-hoc analysis, never raw tool output.
// Phase records which turn-driver state the session was in when last
// snapshotted; Resume always normalizes History and returns to Idle
// regardless of what Phase says, since any tool call left pending by a
// killed process must become a synthetic Canceled output rather than be
// replayed.
type Session struct {
	Metadata           SessionMetadata       `json:"metadata"`
	History            []message.Message     `json:"history"`
	Ledger             []turn.DecisionRecord `json:"ledger,omitempty"`
	Phase              turn.Phase            `json:"phase,omitempty"`
	LoopDetectDisabled bool                  `json:"loopDetectDisabled,omitempty"`
}
