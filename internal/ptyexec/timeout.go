package ptyexec

import "time"

// Timeout bounds shared by every component that runs a child command.
// resolve_timeout (spec.md §4.9) is the sole place these numbers live; no
// other package should hardcode a timeout default or ceiling.
const (
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 3600 * time.Second
	DefaultTimeout = 600 * time.Second
)

// ResolveTimeout clamps a caller-requested timeout to [MinTimeout,
// MaxTimeout], substituting DefaultTimeout when none was requested (nil)
// or the request was zero. Negative requests are treated as unset.
func ResolveTimeout(requested *time.Duration) time.Duration {
	if requested == nil {
		return DefaultTimeout
	}
	t := *requested
	if t <= 0 {
		return DefaultTimeout
	}
	if t > MaxTimeout {
		return MaxTimeout
	}
	if t < MinTimeout {
		return MinTimeout
	}
	return t
}

// ResolveTimeoutSeconds is a convenience wrapper for callers (config,
// tool-call arguments) that carry timeouts as plain seconds.
func ResolveTimeoutSeconds(requestedSeconds int) time.Duration {
	if requestedSeconds <= 0 {
		return DefaultTimeout
	}
	d := time.Duration(requestedSeconds) * time.Second
	return ResolveTimeout(&d)
}
