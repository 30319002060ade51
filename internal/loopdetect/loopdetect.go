// Package loopdetect implements the loop detector (spec component C6):
// duplicate tool-call recognition with an interactive override.
package loopdetect

import (
	"sync"

	"github.com/yanmxa/gencode/internal/safety"
)

const defaultThreshold = 3

// Detector counts occurrences of each CommandSignature within a session.
// When a signature's count strictly exceeds Threshold, the next
// RecordCall for that signature reports Detected — i.e. the
// (threshold+1)-th call triggers.
type Detector struct {
	mu               sync.Mutex
	threshold        int
	counts           map[string]int
	enabled          bool
	disabledSession  bool
}

// New creates a Detector with the given threshold (default 3 when <= 0).
func New(threshold int) *Detector {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Detector{
		threshold: threshold,
		counts:    make(map[string]int),
		enabled:   true,
	}
}

// RecordCall records one occurrence of sig and reports whether this call
// crossed the threshold. Returns false unconditionally once disabled for
// the session.
func (d *Detector) RecordCall(sig safety.CommandSignature) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled || d.disabledSession {
		d.counts[sig.Hash()]++
		return false
	}

	d.counts[sig.Hash()]++
	return d.counts[sig.Hash()] > d.threshold
}

// PeekCount returns the current count for sig without recording a call.
func (d *Detector) PeekCount(sig safety.CommandSignature) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[sig.Hash()]
}

// WouldTrigger reports whether the next RecordCall for sig would report
// Detected, without mutating state.
func (d *Detector) WouldTrigger(sig safety.CommandSignature) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled || d.disabledSession {
		return false
	}
	return d.counts[sig.Hash()]+1 > d.threshold
}

// Reset clears all recorded counts (used after the user picks "keep
// enabled" on a detected loop — the specific call is skipped and counting
// restarts clean).
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counts = make(map[string]int)
}

// Enable turns detection back on.
func (d *Detector) Enable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = true
}

// Disable turns detection off for subsequent RecordCall checks, without
// marking it as a permanent per-session override (Enable can undo this).
func (d *Detector) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = false
}

// DisableForSession bypasses detection for the remainder of the session;
// unlike Disable, Enable cannot undo this short of constructing a new
// Detector (or restoring one from a snapshot that predates the opt-out).
func (d *Detector) DisableForSession() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabledSession = true
	d.enabled = false
}

// DisabledForSession reports whether the user has opted out for the rest
// of the session.
func (d *Detector) DisabledForSession() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disabledSession
}

// Snapshot captures enough state to persist and restore a Detector across
// a session resume.
type Snapshot struct {
	Threshold       int            `json:"threshold"`
	Counts          map[string]int `json:"counts"`
	Enabled         bool           `json:"enabled"`
	DisabledSession bool           `json:"disabled_for_session"`
}

// Snapshot returns a serializable copy of the detector's state.
func (d *Detector) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	counts := make(map[string]int, len(d.counts))
	for k, v := range d.counts {
		counts[k] = v
	}
	return Snapshot{
		Threshold:       d.threshold,
		Counts:          counts,
		Enabled:         d.enabled,
		DisabledSession: d.disabledSession,
	}
}

// Restore rebuilds a Detector from a Snapshot.
func Restore(s Snapshot) *Detector {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	counts := s.Counts
	if counts == nil {
		counts = make(map[string]int)
	}
	return &Detector{
		threshold:       threshold,
		counts:          counts,
		enabled:         s.Enabled,
		disabledSession: s.DisabledSession,
	}
}
