// Package game implements the game-room orchestrator: seat occupancy, the
// readiness handshake, turn-based clock accounting, reconnection grace and
// the rematch cycle.
package game

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akcyp/chess-online/internal/engine"
	"github.com/akcyp/chess-online/internal/obslog"
	"github.com/akcyp/chess-online/internal/protocol"
	"github.com/akcyp/chess-online/internal/ws"
	"github.com/akcyp/chess-online/pkg/wire"
)

// Config is immutable for the life of a room.
type Config struct {
	ID        string
	Private   bool
	Minutes   float64
	Increment int
}

// Options carry the room's environment. Zero values get defaults; Now is
// overridable for deterministic clock tests.
type Options struct {
	DisconnectGrace  time.Duration
	IdleTimeout      time.Duration
	OnPreviewChanged func()
	OnIdle           func()
	Now              func() int64
}

// GameRoom composes the broadcast room, two seats and the rules engine.
// All state transitions, including timer callbacks, are serialized through
// one mutex; broadcasts fan out through per-connection queues and never
// run while the mutex is held by a mutation in another goroutine's send
// path.
type GameRoom struct {
	cfg Config

	mu      sync.Mutex
	room    *ws.Room
	white   *Seat
	black   *Seat
	eng     *engine.Engine
	started bool

	grace       time.Duration
	idleTimeout time.Duration
	idleTimer   *time.Timer

	onPreviewChanged func()
	onIdle           func()
	now              func() int64
}

func NewGameRoom(cfg Config, opts Options) *GameRoom {
	g := &GameRoom{
		cfg:              cfg,
		eng:              engine.New(),
		grace:            opts.DisconnectGrace,
		idleTimeout:      opts.IdleTimeout,
		onPreviewChanged: opts.OnPreviewChanged,
		onIdle:           opts.OnIdle,
		now:              opts.Now,
	}
	if g.grace <= 0 {
		g.grace = 30 * time.Second
	}
	if g.idleTimeout <= 0 {
		g.idleTimeout = 45 * time.Second
	}
	if g.now == nil {
		g.now = func() int64 { return time.Now().UnixMilli() }
	}
	g.room = ws.NewRoom(ws.Hooks{
		BeforeJoin: g.rebindOnJoin,
		AfterJoin:  g.pushStateTo,
		AfterLeave: g.markLeaverOffline,
	})
	// a freshly created room is empty; tear it down if nobody shows up
	g.armIdleTimer()
	return g
}

func (g *GameRoom) ID() string      { return g.cfg.ID }
func (g *GameRoom) IsPrivate() bool { return g.cfg.Private }

func (g *GameRoom) initialMs() int64 { return int64(g.cfg.Minutes * 60000) }

// Preview is the lobby-facing summary.
func (g *GameRoom) Preview() wire.GamePreview {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := wire.GamePreview{
		ID:      g.cfg.ID,
		Player1: "---",
		Player2: "---",
		Time:    wire.TimeControl{Minutes: g.cfg.Minutes, Increment: g.cfg.Increment},
	}
	if g.white != nil {
		p.Player1 = g.white.identity.Nick
	}
	if g.black != nil {
		p.Player2 = g.black.identity.Nick
	}
	return p
}

// OnAttach implements ws.Handler for the transport layer.
func (g *GameRoom) OnAttach(c ws.Client) {
	g.mu.Lock()
	g.stopIdleTimer()
	g.mu.Unlock()
	g.room.Attach(c)
}

// OnDetach implements ws.Handler.
func (g *GameRoom) OnDetach(c ws.Client) {
	g.room.Detach(c)
}

// OnAction implements ws.Handler. Payloads that fail validation answer
// {"error": ...} to the offender only; room-state rejections stay silent.
func (g *GameRoom) OnAction(c ws.Client, raw []byte) {
	action, err := protocol.ParseGameAction(raw)
	if err != nil {
		c.Send(wire.ErrorMessage{Error: err.Error()})
		return
	}
	switch a := action.(type) {
	case wire.PlayAction:
		g.handlePlay(c, a.Color)
	case wire.ReadyAction:
		g.handleReady(c, a.Ready)
	case wire.MoveAction:
		g.handleMove(c, a)
	case wire.OfferDrawAction:
		g.handleOfferDraw(c)
	case wire.ResignAction:
		g.handleResign(c)
	case wire.RematchAction:
		g.handleRematch(c)
	}
}

// rebindOnJoin reclaims the seat of a returning participant before the
// connection is added to the broadcast set.
func (g *GameRoom) rebindOnJoin(c ws.Client) {
	g.mu.Lock()
	rebound := false
	id := Identity{ID: c.ID(), Nick: c.Name()}
	if g.white != nil && g.white.IsUser(c.ID()) {
		g.white.Rebind(id)
		rebound = true
	}
	if g.black != nil && g.black.IsUser(c.ID()) {
		g.black.Rebind(id)
		rebound = true
	}
	g.mu.Unlock()
	if rebound {
		obslog.L().Info("seat_rebind", zap.String("room_id", g.cfg.ID), zap.String("user_id", c.ID()))
		g.broadcastState()
	}
}

// pushStateTo sends the full personalized snapshot to a newly attached
// connection.
func (g *GameRoom) pushStateTo(c ws.Client) {
	base, whiteID, blackID := g.stateBase()
	c.Send(personalize(base, whiteID, blackID, c.ID()))
}

// markLeaverOffline starts the disconnect grace window for a bound seat.
// The seat is kept so a reconnect within the window preserves the match.
func (g *GameRoom) markLeaverOffline(c ws.Client) {
	g.mu.Lock()
	offline := false
	if g.white != nil && g.white.IsUser(c.ID()) {
		g.white.MarkOffline(g.grace)
		offline = true
	}
	if g.black != nil && g.black.IsUser(c.ID()) {
		g.black.MarkOffline(g.grace)
		offline = true
	}
	empty := g.room.Len() == 0
	if empty {
		g.armIdleTimer()
	}
	g.mu.Unlock()
	if offline {
		obslog.L().Info("seat_offline", zap.String("room_id", g.cfg.ID), zap.String("user_id", c.ID()))
		g.broadcastState()
	}
}

func (g *GameRoom) handlePlay(c ws.Client, color string) {
	if color == "exit" {
		g.handleExit(c)
		return
	}
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	target := &g.white
	opposite := g.black
	if color == "black" {
		target = &g.black
		opposite = g.white
	}
	if *target != nil || (opposite != nil && opposite.IsUser(c.ID())) {
		g.mu.Unlock()
		return
	}
	*target = newSeat(Identity{ID: c.ID(), Nick: c.Name()}, g.initialMs(), g.onGraceExpired, g.onTimeExpired)
	g.mu.Unlock()
	obslog.L().Info("seat_claim",
		zap.String("room_id", g.cfg.ID),
		zap.String("user_id", c.ID()),
		zap.String("color", color),
	)
	g.broadcastState()
	g.notifyPreview()
}

func (g *GameRoom) handleExit(c ws.Client) {
	g.mu.Lock()
	over := g.eng.GameOver()
	if g.started && !over {
		g.mu.Unlock()
		return
	}
	vacated := false
	if g.white != nil && g.white.IsUser(c.ID()) {
		g.white.release()
		g.white = nil
		vacated = true
	} else if g.black != nil && g.black.IsUser(c.ID()) {
		g.black.release()
		g.black = nil
		vacated = true
	}
	if !vacated {
		g.mu.Unlock()
		return
	}
	if g.white == nil && g.black == nil && over {
		g.resetLocked()
	}
	g.mu.Unlock()
	obslog.L().Info("seat_vacate", zap.String("room_id", g.cfg.ID), zap.String("user_id", c.ID()))
	g.broadcastState()
	g.notifyPreview()
}

func (g *GameRoom) handleReady(c ws.Client, ready bool) {
	g.mu.Lock()
	seat := g.seatOf(c.ID())
	if seat == nil || seat.ready == ready {
		g.mu.Unlock()
		return
	}
	seat.ready = ready
	startedNow := false
	if !g.started && !g.eng.GameOver() &&
		g.white != nil && g.white.ready && g.black != nil && g.black.ready {
		g.started = true
		g.white.remainingMs = g.initialMs()
		g.black.remainingMs = g.initialMs()
		g.white.StartClock(g.now())
		startedNow = true
	}
	g.mu.Unlock()
	if startedNow {
		obslog.L().Info("game_start",
			zap.String("room_id", g.cfg.ID),
			zap.Float64("minutes", g.cfg.Minutes),
			zap.Int("increment", g.cfg.Increment),
		)
	}
	g.broadcastState()
}

func (g *GameRoom) handleMove(c ws.Client, mv wire.MoveAction) {
	g.mu.Lock()
	seat, color := g.seatAndColorOf(c.ID())
	if seat == nil || !g.started || g.eng.GameOver() || g.eng.Turn() != color {
		g.mu.Unlock()
		return
	}
	if err := g.eng.ApplyMove(mv.From, mv.To, mv.Promotion); err != nil {
		// illegal move: no mutation, no broadcast
		g.mu.Unlock()
		return
	}
	remaining := seat.ElapsedAndConsume(g.now(), int64(g.cfg.Increment)*1000)
	forfeited := remaining <= 0
	if forfeited {
		g.eng.Resign(color)
	} else if !g.eng.GameOver() {
		g.opponentSeat(color).StartClock(g.now())
	}
	over := g.eng.GameOver()
	g.mu.Unlock()
	obslog.L().Info("game_move",
		zap.String("room_id", g.cfg.ID),
		zap.String("user_id", c.ID()),
		zap.String("uci", mv.From+mv.To+mv.Promotion),
		zap.Int64("remaining_ms", remaining),
		zap.Bool("game_over", over),
	)
	g.broadcastState()
}

func (g *GameRoom) handleResign(c ws.Client) {
	g.mu.Lock()
	seat, color := g.seatAndColorOf(c.ID())
	if seat == nil || !g.started || g.eng.GameOver() {
		g.mu.Unlock()
		return
	}
	g.consumeRunningClockLocked()
	g.eng.Resign(color)
	g.mu.Unlock()
	obslog.L().Info("game_resign", zap.String("room_id", g.cfg.ID), zap.String("user_id", c.ID()))
	g.broadcastState()
}

func (g *GameRoom) handleOfferDraw(c ws.Client) {
	g.mu.Lock()
	seat, _ := g.seatAndColorOf(c.ID())
	if seat == nil || !g.started || g.eng.GameOver() {
		g.mu.Unlock()
		return
	}
	seat.drawOffered = !seat.drawOffered
	agreed := g.white != nil && g.white.drawOffered && g.black != nil && g.black.drawOffered
	if agreed {
		g.consumeRunningClockLocked()
		g.eng.DeclareDraw()
	}
	g.mu.Unlock()
	obslog.L().Info("game_offer_draw",
		zap.String("room_id", g.cfg.ID),
		zap.String("user_id", c.ID()),
		zap.Bool("agreed", agreed),
	)
	g.broadcastState()
}

func (g *GameRoom) handleRematch(c ws.Client) {
	g.mu.Lock()
	seat, _ := g.seatAndColorOf(c.ID())
	if seat == nil || !g.eng.GameOver() {
		g.mu.Unlock()
		return
	}
	seat.rematchRequested = !seat.rematchRequested
	// an empty seat counts as wanting the rematch, so a lone remaining
	// player can reset the board without an opponent to agree with
	whiteWants := g.white == nil || g.white.rematchRequested
	blackWants := g.black == nil || g.black.rematchRequested
	restarted := whiteWants && blackWants
	if restarted {
		g.white, g.black = g.black, g.white
		g.resetLocked()
	}
	g.mu.Unlock()
	obslog.L().Info("game_rematch",
		zap.String("room_id", g.cfg.ID),
		zap.String("user_id", c.ID()),
		zap.Bool("restarted", restarted),
	)
	g.broadcastState()
	if restarted {
		g.notifyPreview()
	}
}

// onGraceExpired fires when a disconnected participant did not return in
// time: the side is force-resigned while a match runs, and the seat is
// vacated either way.
func (g *GameRoom) onGraceExpired(s *Seat) {
	g.mu.Lock()
	color, ok := g.colorOfSeat(s)
	if !ok || s.online {
		// stale timer: the seat was rebound or vacated meanwhile
		g.mu.Unlock()
		return
	}
	if g.started && !g.eng.GameOver() {
		g.consumeRunningClockLocked()
		g.eng.Resign(color)
	}
	s.release()
	if color == engine.White {
		g.white = nil
	} else {
		g.black = nil
	}
	if g.white == nil && g.black == nil && g.eng.GameOver() {
		g.resetLocked()
	}
	g.mu.Unlock()
	obslog.L().Info("seat_grace_expired",
		zap.String("room_id", g.cfg.ID),
		zap.String("color", string(color)),
	)
	g.broadcastState()
	g.notifyPreview()
}

// onTimeExpired fires when a running clock hits zero.
func (g *GameRoom) onTimeExpired(s *Seat) {
	g.mu.Lock()
	color, ok := g.colorOfSeat(s)
	if !ok || s.clockStartedAt == 0 || !g.started || g.eng.GameOver() {
		g.mu.Unlock()
		return
	}
	s.remainingMs -= g.now() - s.clockStartedAt
	s.StopClock()
	g.eng.Resign(color)
	g.mu.Unlock()
	obslog.L().Info("game_time_forfeit",
		zap.String("room_id", g.cfg.ID),
		zap.String("color", string(color)),
	)
	g.broadcastState()
}

// consumeRunningClockLocked charges elapsed time, without increment,
// against whichever clock is running. At most one can be.
func (g *GameRoom) consumeRunningClockLocked() {
	for _, s := range []*Seat{g.white, g.black} {
		if s != nil && s.clockStartedAt != 0 {
			s.ElapsedAndConsume(g.now(), 0)
		}
	}
}

// resetLocked replaces the engine and reinitializes both seats for a new
// game. The engine is never rewound to a prior position.
func (g *GameRoom) resetLocked() {
	g.eng = engine.New()
	g.started = false
	if g.white != nil {
		g.white.ResetForNewGame(g.initialMs())
	}
	if g.black != nil {
		g.black.ResetForNewGame(g.initialMs())
	}
}

func (g *GameRoom) seatOf(userID string) *Seat {
	s, _ := g.seatAndColorOf(userID)
	return s
}

func (g *GameRoom) seatAndColorOf(userID string) (*Seat, engine.Color) {
	if g.white != nil && g.white.IsUser(userID) {
		return g.white, engine.White
	}
	if g.black != nil && g.black.IsUser(userID) {
		return g.black, engine.Black
	}
	return nil, ""
}

func (g *GameRoom) colorOfSeat(s *Seat) (engine.Color, bool) {
	switch {
	case g.white == s:
		return engine.White, true
	case g.black == s:
		return engine.Black, true
	}
	return "", false
}

func (g *GameRoom) opponentSeat(c engine.Color) *Seat {
	if c == engine.White {
		return g.black
	}
	return g.white
}

func (g *GameRoom) armIdleTimer() {
	g.stopIdleTimer()
	g.idleTimer = time.AfterFunc(g.idleTimeout, func() {
		g.mu.Lock()
		idle := g.room.Len() == 0
		g.mu.Unlock()
		if idle && g.onIdle != nil {
			obslog.L().Info("room_idle", zap.String("room_id", g.cfg.ID))
			g.onIdle()
		}
	})
}

func (g *GameRoom) stopIdleTimer() {
	if g.idleTimer != nil {
		g.idleTimer.Stop()
		g.idleTimer = nil
	}
}

func (g *GameRoom) notifyPreview() {
	if g.onPreviewChanged != nil {
		g.onPreviewChanged()
	}
}
