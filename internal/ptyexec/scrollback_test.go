package ptyexec

import (
	"fmt"
	"strings"
	"testing"
)

func TestScrollbackRetainsLinesUnderBound(t *testing.T) {
	s := NewScrollback(10, 1024)
	s.Write([]byte("one\ntwo\nthree\n"))
	lines := s.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "one" || lines[2] != "three" {
		t.Fatalf("unexpected lines: %v", lines)
	}
	if s.Overflowed() {
		t.Fatal("should not have overflowed")
	}
}

func TestScrollbackEvictsOldestOnLineBound(t *testing.T) {
	s := NewScrollback(3, 1<<20)
	for i := 0; i < 5; i++ {
		s.Write([]byte(fmt.Sprintf("line%d\n", i)))
	}
	if s.LineCount() != 3 {
		t.Fatalf("expected line count clamped to 3, got %d", s.LineCount())
	}
	lines := s.Lines()
	if lines[0] != "line2" {
		t.Fatalf("expected oldest surviving line to be line2, got %v", lines)
	}
	if !s.Overflowed() {
		t.Fatal("expected overflow to be recorded")
	}
}

func TestScrollbackEvictsOldestOnByteBound(t *testing.T) {
	s := NewScrollback(1000, 10)
	s.Write([]byte("aaaaa\n"))
	s.Write([]byte("bbbbb\n"))
	s.Write([]byte("cc\n"))

	if s.CurrentBytes() > 10 {
		t.Fatalf("invariant violated: current_bytes=%d > max_bytes=10", s.CurrentBytes())
	}
	if !s.Overflowed() {
		t.Fatal("expected overflow once byte bound was exceeded")
	}
}

func TestScrollbackInvariantHoldsUnderSustainedWrites(t *testing.T) {
	s := NewScrollback(50, 500)
	for i := 0; i < 1000; i++ {
		s.Write([]byte(strings.Repeat("x", 20) + "\n"))
		if s.CurrentBytes() > 500 {
			t.Fatalf("iteration %d: current_bytes=%d exceeds max_bytes=500", i, s.CurrentBytes())
		}
		if s.LineCount() > 50 {
			t.Fatalf("iteration %d: line count %d exceeds max_lines=50", i, s.LineCount())
		}
	}
}

func TestScrollbackFlushRetainsPartialTrailingLine(t *testing.T) {
	s := NewScrollback(10, 1024)
	s.Write([]byte("complete\nno-newline-yet"))
	if s.LineCount() != 1 {
		t.Fatalf("expected only the newline-terminated line before flush, got %d", s.LineCount())
	}
	s.Flush()
	lines := s.Lines()
	if len(lines) != 2 || lines[1] != "no-newline-yet" {
		t.Fatalf("expected flush to surface the partial tail, got %v", lines)
	}
}

func TestScrollbackStringPrependsOverflowNotice(t *testing.T) {
	s := NewScrollback(2, 1<<20)
	s.Write([]byte("a\nb\nc\n"))
	out := s.String()
	if !strings.Contains(out, "truncated") {
		t.Fatalf("expected overflow notice in rendered output, got %q", out)
	}
}

func TestScrollbackDefaultsAppliedForNonPositiveBounds(t *testing.T) {
	s := NewScrollback(0, 0)
	if s.maxLines != DefaultMaxLines || s.maxBytes != DefaultMaxBytes {
		t.Fatalf("expected defaults, got maxLines=%d maxBytes=%d", s.maxLines, s.maxBytes)
	}
}

func TestScrollbackCancelMark(t *testing.T) {
	s := NewScrollback(10, 1024)
	if s.Canceled() {
		t.Fatal("should start uncanceled")
	}
	s.MarkCanceled()
	if !s.Canceled() {
		t.Fatal("expected canceled after MarkCanceled")
	}
}
