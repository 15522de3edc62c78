package game

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestElapsedAndConsume(t *testing.T) {
	s := newSeat(Identity{ID: "u1", Nick: "Alice"}, 60000, nil, nil)

	// stopped clock consumes nothing
	if got := s.ElapsedAndConsume(5000, 0); got != 60000 {
		t.Fatalf("stopped clock consumed time: %d", got)
	}

	s.StartClock(10000)
	if got := s.ElapsedAndConsume(14000, 1000); got != 57000 {
		t.Fatalf("remaining = %d, want 57000 (60000 - 4000 + 1000)", got)
	}
	if s.clockStartedAt != 0 {
		t.Fatalf("consume should stop the clock")
	}

	// a large enough increment can grow the budget
	s.StartClock(20000)
	if got := s.ElapsedAndConsume(20500, 2000); got != 58500 {
		t.Fatalf("remaining = %d, want 58500", got)
	}

	// overdue consumption goes non-positive
	s.StartClock(30000)
	if got := s.ElapsedAndConsume(100000, 0); got > 0 {
		t.Fatalf("overdue clock should go non-positive, got %d", got)
	}
}

func TestRebindCancelsGraceTimer(t *testing.T) {
	var fired atomic.Bool
	s := newSeat(Identity{ID: "u1", Nick: "Alice"}, 60000, nil, nil)
	s.onGraceExpired = func(*Seat) { fired.Store(true) }

	s.MarkOffline(20 * time.Millisecond)
	if s.online {
		t.Fatalf("seat should be offline")
	}
	s.Rebind(Identity{ID: "u1", Nick: "Alice"})
	if !s.online {
		t.Fatalf("rebind should bring the seat back online")
	}

	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Fatalf("grace callback fired after rebind")
	}
}

func TestResetForNewGame(t *testing.T) {
	s := newSeat(Identity{ID: "u1", Nick: "Alice"}, 60000, nil, nil)
	s.ready = true
	s.drawOffered = true
	s.rematchRequested = true
	s.StartClock(1000)
	s.remainingMs = 123

	s.ResetForNewGame(90000)
	if s.ready || s.drawOffered || s.rematchRequested {
		t.Fatalf("flags survived reset")
	}
	if s.remainingMs != 90000 || s.clockStartedAt != 0 {
		t.Fatalf("clock not reinitialized: remaining=%d started=%d", s.remainingMs, s.clockStartedAt)
	}
}

func TestSnapshotIsYou(t *testing.T) {
	s := newSeat(Identity{ID: "u1", Nick: "Alice"}, 60000, nil, nil)
	if !s.Snapshot("u1").IsYou {
		t.Fatalf("owner should see isYou")
	}
	if s.Snapshot("u2").IsYou {
		t.Fatalf("other viewers must not see isYou")
	}
	snap := s.Snapshot("u2")
	if snap.Nick != "Alice" || snap.TimeLeft != 60000 || !snap.Online {
		t.Fatalf("snapshot = %+v", snap)
	}
}
