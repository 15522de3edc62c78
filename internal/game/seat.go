package game

import (
	"time"

	"github.com/akcyp/chess-online/pkg/wire"
)

// Identity is the opaque per-connection identity supplied by the session
// layer. It is stable across reconnects.
type Identity struct {
	ID   string
	Nick string
}

// Seat binds one identity to a match color and tracks its readiness,
// offers and clock. Seats are not self-locking: every access happens under
// the owning room's mutex, including the timer callbacks, which the room
// routes back through its own serialization point.
type Seat struct {
	identity Identity
	online   bool

	ready            bool
	drawOffered      bool
	rematchRequested bool

	remainingMs    int64
	clockStartedAt int64 // wall-clock ms, 0 while the clock is stopped

	graceTimer *time.Timer
	clockTimer *time.Timer

	onGraceExpired func(s *Seat)
	onTimeExpired  func(s *Seat)
}

func newSeat(id Identity, initialMs int64, onGraceExpired, onTimeExpired func(s *Seat)) *Seat {
	return &Seat{
		identity:       id,
		online:         true,
		remainingMs:    initialMs,
		onGraceExpired: onGraceExpired,
		onTimeExpired:  onTimeExpired,
	}
}

// IsUser reports whether the seat is bound to the given identity.
func (s *Seat) IsUser(id string) bool { return s.identity.ID == id }

// Rebind points the seat at a fresh connection for the same logical
// participant and cancels any pending disconnect timer. Cancellation here
// is mandatory: the grace callback also re-checks state under the room
// lock, but a rebound seat must never be torn down by a stale timer.
func (s *Seat) Rebind(id Identity) {
	s.stopGraceTimer()
	s.identity = id
	s.online = true
}

// MarkOffline starts the disconnect grace window.
func (s *Seat) MarkOffline(grace time.Duration) {
	s.online = false
	s.stopGraceTimer()
	s.graceTimer = time.AfterFunc(grace, func() { s.onGraceExpired(s) })
}

// MarkOnline cancels the grace window without touching the identity.
func (s *Seat) MarkOnline() {
	s.stopGraceTimer()
	s.online = true
}

// StartClock marks the clock running from now and arms the expiry timer
// for the remaining budget.
func (s *Seat) StartClock(nowMs int64) {
	s.clockStartedAt = nowMs
	s.stopClockTimer()
	if s.remainingMs > 0 {
		s.clockTimer = time.AfterFunc(time.Duration(s.remainingMs)*time.Millisecond, func() { s.onTimeExpired(s) })
	}
}

// StopClock stops the clock without consuming time.
func (s *Seat) StopClock() {
	s.clockStartedAt = 0
	s.stopClockTimer()
}

// ElapsedAndConsume stops the clock and charges the elapsed wall time
// minus the increment credit against the remaining budget. The result may
// be negative or zero, which signals a time forfeit to the caller.
func (s *Seat) ElapsedAndConsume(nowMs, incrementMs int64) int64 {
	if s.clockStartedAt == 0 {
		return s.remainingMs
	}
	delta := (nowMs - s.clockStartedAt) - incrementMs
	s.remainingMs -= delta
	s.StopClock()
	return s.remainingMs
}

// ResetForNewGame clears flags, reinitializes the clock budget and cancels
// every pending timer.
func (s *Seat) ResetForNewGame(initialMs int64) {
	s.stopClockTimer()
	s.ready = false
	s.drawOffered = false
	s.rematchRequested = false
	s.remainingMs = initialMs
	s.clockStartedAt = 0
}

// release cancels all timers; called when the seat is vacated.
func (s *Seat) release() {
	s.stopGraceTimer()
	s.stopClockTimer()
}

// Snapshot returns the seat as seen by one viewer. IsYou is true only for
// the bound identity.
func (s *Seat) Snapshot(viewerID string) *wire.PlayerState {
	return &wire.PlayerState{
		Nick:         s.identity.Nick,
		Online:       s.online,
		TimeLeft:     s.remainingMs,
		TimerStartTs: s.clockStartedAt,
		IsYou:        s.identity.ID == viewerID,
	}
}

func (s *Seat) stopGraceTimer() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

func (s *Seat) stopClockTimer() {
	if s.clockTimer != nil {
		s.clockTimer.Stop()
		s.clockTimer = nil
	}
}
