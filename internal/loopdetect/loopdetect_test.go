package loopdetect

import (
	"testing"

	"github.com/yanmxa/gencode/internal/safety"
)

func sig(s string) safety.CommandSignature {
	return safety.CommandSignature{ToolName: "Bash", ArgJSON: s}
}

func TestThresholdTriggersOnFourthCall(t *testing.T) {
	d := New(3)
	s := sig(`{"command":"git status"}`)

	for i := 0; i < 3; i++ {
		if d.RecordCall(s) {
			t.Fatalf("call %d should not have triggered yet", i+1)
		}
	}
	if !d.RecordCall(s) {
		t.Fatal("4th identical call should trigger detection")
	}
}

func TestDifferentSignaturesDoNotInterfere(t *testing.T) {
	d := New(3)
	a, b := sig("a"), sig("b")
	for i := 0; i < 3; i++ {
		d.RecordCall(a)
	}
	if d.RecordCall(b) {
		t.Fatal("a different signature should not trigger from a's count")
	}
}

func TestResetClearsCounts(t *testing.T) {
	d := New(3)
	s := sig("x")
	for i := 0; i < 4; i++ {
		d.RecordCall(s)
	}
	d.Reset()
	if d.PeekCount(s) != 0 {
		t.Fatalf("expected count reset to 0, got %d", d.PeekCount(s))
	}
	for i := 0; i < 3; i++ {
		if d.RecordCall(s) {
			t.Fatalf("call %d after reset should not trigger", i+1)
		}
	}
}

func TestDisableForSessionBypassesPermanently(t *testing.T) {
	d := New(3)
	s := sig("y")
	d.DisableForSession()
	for i := 0; i < 10; i++ {
		if d.RecordCall(s) {
			t.Fatal("disabled-for-session detector must never report Detected")
		}
	}
	d.Enable()
	if d.RecordCall(s) {
		t.Fatal("Enable should not undo DisableForSession")
	}
	if !d.DisabledForSession() {
		t.Fatal("expected DisabledForSession to remain true")
	}
}

func TestWouldTriggerDoesNotMutate(t *testing.T) {
	d := New(1)
	s := sig("z")
	d.RecordCall(s)
	if !d.WouldTrigger(s) {
		t.Fatal("expected next call to be predicted as triggering")
	}
	if d.PeekCount(s) != 1 {
		t.Fatalf("WouldTrigger must not mutate state, count=%d", d.PeekCount(s))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := New(3)
	s := sig("w")
	d.RecordCall(s)
	d.RecordCall(s)

	snap := d.Snapshot()
	restored := Restore(snap)

	if restored.PeekCount(s) != 2 {
		t.Fatalf("expected restored count 2, got %d", restored.PeekCount(s))
	}
	if restored.RecordCall(s) {
		t.Fatal("3rd call should not trigger yet")
	}
	if !restored.RecordCall(s) {
		t.Fatal("4th call should trigger after restore")
	}
}

func TestThresholdParameterized(t *testing.T) {
	for _, threshold := range []int{1, 2, 5} {
		d := New(threshold)
		s := sig("v")
		for i := 0; i < threshold; i++ {
			if d.RecordCall(s) {
				t.Fatalf("threshold=%d: call %d should not trigger", threshold, i+1)
			}
		}
		if !d.RecordCall(s) {
			t.Fatalf("threshold=%d: call %d should trigger", threshold, threshold+1)
		}
	}
}
