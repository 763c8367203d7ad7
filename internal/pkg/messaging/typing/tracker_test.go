package typing

import (
	"sort"
	"testing"
	"time"
)

func TestTrackerStartStop(t *testing.T) {
	t.Parallel()

	tr := NewTracker(0)
	defer tr.Stop()

	if !tr.Start("conv-1", "alice") {
		t.Fatal("first start not reported as new")
	}
	// A keystroke refresh is not a state flip.
	if tr.Start("conv-1", "alice") {
		t.Fatal("refresh reported as new")
	}

	if got := tr.Typing("conv-1"); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("Typing = %v, want [alice]", got)
	}
	if got := tr.Typing("conv-2"); got != nil {
		t.Fatalf("Typing for other conversation = %v, want nil", got)
	}

	if !tr.StopTyping("conv-1", "alice") {
		t.Fatal("stop of live entry not reported")
	}
	if tr.StopTyping("conv-1", "alice") {
		t.Fatal("duplicate stop reported as a change")
	}
	if got := tr.Typing("conv-1"); got != nil {
		t.Fatalf("Typing after stop = %v, want nil", got)
	}
}

func TestTrackerExpiry(t *testing.T) {
	t.Parallel()

	tr := NewTracker(time.Minute)
	defer tr.Stop()

	base := time.Now()
	tr.now = func() time.Time { return base }

	tr.Start("conv-1", "alice")
	tr.Start("conv-1", "bob")

	// Just inside the window both are visible.
	tr.now = func() time.Time { return base.Add(59 * time.Second) }
	if got := tr.Typing("conv-1"); len(got) != 2 {
		t.Fatalf("Typing inside ttl = %v, want two users", got)
	}

	// bob refreshes; only alice's deadline lapses.
	tr.Start("conv-1", "bob")
	tr.now = func() time.Time { return base.Add(61 * time.Second) }
	if got := tr.Typing("conv-1"); len(got) != 1 || got[0] != "bob" {
		t.Fatalf("Typing past alice's deadline = %v, want [bob]", got)
	}

	// An expired entry counts as gone even before the sweeper runs.
	tr.now = func() time.Time { return base.Add(5 * time.Minute) }
	if got := tr.Typing("conv-1"); got != nil {
		t.Fatalf("Typing long past ttl = %v, want nil", got)
	}
}

func TestTrackerStopAllFor(t *testing.T) {
	t.Parallel()

	tr := NewTracker(0)
	defer tr.Stop()

	tr.Start("conv-1", "alice")
	tr.Start("conv-2", "alice")
	tr.Start("conv-1", "bob")

	got := tr.StopAllFor("alice")
	sort.Strings(got)
	if len(got) != 2 || got[0] != "conv-1" || got[1] != "conv-2" {
		t.Fatalf("StopAllFor = %v, want [conv-1 conv-2]", got)
	}

	if users := tr.Typing("conv-1"); len(users) != 1 || users[0] != "bob" {
		t.Fatalf("conv-1 typists = %v, want [bob]", users)
	}
	if users := tr.Typing("conv-2"); users != nil {
		t.Fatalf("conv-2 typists = %v, want nil", users)
	}

	if got := tr.StopAllFor("alice"); got != nil {
		t.Fatalf("repeat StopAllFor = %v, want nil", got)
	}
}

func TestTrackerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := NewTracker(0)
	tr.Stop()
	tr.Stop()
}
