package game

import (
	"github.com/akcyp/chess-online/internal/ws"
	"github.com/akcyp/chess-online/pkg/wire"
)

// stateBase builds the snapshot shared by all recipients, plus the bound
// identities needed to personalize the isYou flags per viewer.
func (g *GameRoom) stateBase() (wire.GameStateUpdate, string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	over := g.eng.GameOver()

	var turn *string
	if !over {
		t := string(g.eng.Turn())
		turn = &t
	}
	var winner *string
	if w := g.eng.Winner(); w != "" {
		winner = &w
	}

	st := wire.GameStateUpdate{
		Type: "updateGameState",
		Game: wire.GameState{
			FEN: g.eng.FEN(),
			TimeControl: wire.TimeControl{
				Minutes:   g.cfg.Minutes,
				Increment: g.cfg.Increment,
			},
			ReadyToPlay:    (g.white != nil && g.white.ready) || (g.black != nil && g.black.ready),
			RematchOffered: g.white == nil || g.white.rematchRequested || g.black == nil || g.black.rematchRequested,
			DrawOffered:    (g.white != nil && g.white.drawOffered) || (g.black != nil && g.black.drawOffered),
			GameStarted:    g.started,
			GameOver:       over,
			Turn:           turn,
			Winner:         winner,
		},
	}

	var whiteID, blackID string
	if g.white != nil {
		st.Players.White = g.white.Snapshot("")
		whiteID = g.white.identity.ID
	}
	if g.black != nil {
		st.Players.Black = g.black.Snapshot("")
		blackID = g.black.identity.ID
	}
	return st, whiteID, blackID
}

// personalize returns a copy of the base snapshot with the isYou flags set
// for one viewer. Player snapshots are copied by value so recipients never
// share mutable state.
func personalize(base wire.GameStateUpdate, whiteID, blackID, viewerID string) wire.GameStateUpdate {
	st := base
	if base.Players.White != nil {
		w := *base.Players.White
		w.IsYou = whiteID == viewerID
		st.Players.White = &w
	}
	if base.Players.Black != nil {
		b := *base.Players.Black
		b.IsYou = blackID == viewerID
		st.Players.Black = &b
	}
	return st
}

// broadcastState pushes the current snapshot to every attached connection,
// personalized per recipient.
func (g *GameRoom) broadcastState() {
	base, whiteID, blackID := g.stateBase()
	g.room.Each(func(c ws.Client) {
		c.Send(personalize(base, whiteID, blackID, c.ID()))
	})
}
