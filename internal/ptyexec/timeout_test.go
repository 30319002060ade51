package ptyexec

import (
	"testing"
	"time"
)

func dur(s int) *time.Duration {
	d := time.Duration(s) * time.Second
	return &d
}

func TestResolveTimeoutNilUsesDefault(t *testing.T) {
	if got := ResolveTimeout(nil); got != DefaultTimeout {
		t.Fatalf("expected default %s, got %s", DefaultTimeout, got)
	}
}

func TestResolveTimeoutZeroUsesDefault(t *testing.T) {
	if got := ResolveTimeout(dur(0)); got != DefaultTimeout {
		t.Fatalf("expected default %s, got %s", DefaultTimeout, got)
	}
}

func TestResolveTimeoutClampsAboveMax(t *testing.T) {
	if got := ResolveTimeout(dur(100000)); got != MaxTimeout {
		t.Fatalf("expected clamp to max %s, got %s", MaxTimeout, got)
	}
}

func TestResolveTimeoutClampsBelowMin(t *testing.T) {
	if got := ResolveTimeout(dur(1)); got != MinTimeout {
		t.Fatalf("expected clamp to min %s, got %s", MinTimeout, got)
	}
}

func TestResolveTimeoutPassesThroughMidRange(t *testing.T) {
	if got := ResolveTimeout(dur(120)); got != 120*time.Second {
		t.Fatalf("expected 120s unchanged, got %s", got)
	}
}

func TestResolveTimeoutAlwaysInBounds(t *testing.T) {
	for _, secs := range []int{-5, 0, 1, 9, 10, 11, 600, 3599, 3600, 3601, 1_000_000} {
		got := ResolveTimeout(dur(secs))
		if got < MinTimeout || got > MaxTimeout {
			t.Fatalf("resolve_timeout(%d) = %s is outside [%s, %s]", secs, got, MinTimeout, MaxTimeout)
		}
	}
	if got := ResolveTimeout(nil); got < MinTimeout || got > MaxTimeout {
		t.Fatalf("resolve_timeout(None) = %s is outside bounds", got)
	}
}

func TestResolveTimeoutSecondsConvenience(t *testing.T) {
	if got := ResolveTimeoutSeconds(0); got != DefaultTimeout {
		t.Fatalf("expected default for 0 seconds, got %s", got)
	}
	if got := ResolveTimeoutSeconds(120); got != 120*time.Second {
		t.Fatalf("expected 120s, got %s", got)
	}
}
