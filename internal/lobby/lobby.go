// Package lobby keeps the directory of game rooms and serves the lobby
// websocket: room listings, connected counts and create-game requests.
package lobby

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akcyp/chess-online/internal/game"
	"github.com/akcyp/chess-online/internal/obslog"
	"github.com/akcyp/chess-online/internal/protocol"
	"github.com/akcyp/chess-online/internal/ws"
	"github.com/akcyp/chess-online/pkg/wire"
)

// Lobby is the room registry. Its lock covers only the registry; each game
// room serializes its own state independently.
type Lobby struct {
	mu    sync.RWMutex
	games map[string]*game.GameRoom

	room *ws.Room

	disconnectGrace time.Duration
	roomDestroy     time.Duration
}

func New(disconnectGrace, roomDestroy time.Duration) *Lobby {
	l := &Lobby{
		games:           make(map[string]*game.GameRoom),
		disconnectGrace: disconnectGrace,
		roomDestroy:     roomDestroy,
	}
	l.room = ws.NewRoom(ws.Hooks{
		AfterJoin: func(c ws.Client) {
			c.Send(l.gamesUpdate())
			l.broadcastCount()
		},
		AfterLeave: func(c ws.Client) {
			l.broadcastCount()
		},
	})
	return l
}

// OnAttach implements ws.Handler.
func (l *Lobby) OnAttach(c ws.Client) { l.room.Attach(c) }

// OnDetach implements ws.Handler.
func (l *Lobby) OnDetach(c ws.Client) { l.room.Detach(c) }

// OnAction implements ws.Handler.
func (l *Lobby) OnAction(c ws.Client, raw []byte) {
	action, err := protocol.ParseLobbyAction(raw)
	if err != nil {
		c.Send(wire.ErrorMessage{Error: err.Error()})
		return
	}
	switch a := action.(type) {
	case wire.CreateGameAction:
		l.createGame(c, a)
	}
}

// Room returns the game room for id, or nil.
func (l *Lobby) Room(id string) *game.GameRoom {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.games[id]
}

func (l *Lobby) createGame(c ws.Client, a wire.CreateGameAction) {
	id := l.allocateID()
	room := game.NewGameRoom(game.Config{
		ID:        id,
		Private:   a.Private,
		Minutes:   a.Minutes,
		Increment: a.Increment,
	}, game.Options{
		DisconnectGrace:  l.disconnectGrace,
		IdleTimeout:      l.roomDestroy,
		OnPreviewChanged: l.broadcastGames,
		OnIdle:           func() { l.dropRoom(id) },
	})

	l.mu.Lock()
	l.games[id] = room
	l.mu.Unlock()

	obslog.L().Info("room_create",
		zap.String("room_id", id),
		zap.String("user_id", c.ID()),
		zap.Float64("minutes", a.Minutes),
		zap.Int("increment", a.Increment),
		zap.Bool("private", a.Private),
	)
	c.Send(wire.GameCreated{Type: "gameCreated", ID: id})
	if !a.Private {
		l.broadcastGames()
	}
}

func (l *Lobby) dropRoom(id string) {
	l.mu.Lock()
	_, ok := l.games[id]
	delete(l.games, id)
	l.mu.Unlock()
	if ok {
		obslog.L().Info("room_destroy", zap.String("room_id", id))
		l.broadcastGames()
	}
}

func (l *Lobby) gamesUpdate() wire.GamesUpdate {
	l.mu.RLock()
	rooms := make([]*game.GameRoom, 0, len(l.games))
	for _, r := range l.games {
		if !r.IsPrivate() {
			rooms = append(rooms, r)
		}
	}
	l.mu.RUnlock()

	previews := make([]wire.GamePreview, 0, len(rooms))
	for _, r := range rooms {
		previews = append(previews, r.Preview())
	}
	sort.Slice(previews, func(i, j int) bool { return previews[i].ID < previews[j].ID })
	return wire.GamesUpdate{Type: "updateGames", Games: previews}
}

func (l *Lobby) broadcastGames() {
	l.room.Broadcast(l.gamesUpdate())
}

func (l *Lobby) broadcastCount() {
	l.room.Broadcast(wire.LobbyPlayersUpdate{Type: "updatePlayers", Count: l.room.Len()})
}

// allocateID picks a short room id that is not in use.
func (l *Lobby) allocateID() string {
	for {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			panic(err)
		}
		id := hex.EncodeToString(b)
		l.mu.RLock()
		_, taken := l.games[id]
		l.mu.RUnlock()
		if !taken {
			return id
		}
	}
}
