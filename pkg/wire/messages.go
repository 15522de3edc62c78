// Package wire declares the JSON messages exchanged with clients over the
// lobby and game websockets.
package wire

// TimeControl mirrors the room configuration shown to clients.
type TimeControl struct {
	Minutes   float64 `json:"minutes"`
	Increment int     `json:"increment"`
}

// PlayerState is the per-seat snapshot inside a game state update. IsYou is
// personalized per recipient; every other field is identical for all
// recipients.
type PlayerState struct {
	Nick         string `json:"nick"`
	Online       bool   `json:"online"`
	TimeLeft     int64  `json:"timeLeft"`
	TimerStartTs int64  `json:"timerStartTs"`
	IsYou        bool   `json:"isYou"`
}

// GameState is the game block of a state update.
type GameState struct {
	FEN            string      `json:"fen"`
	TimeControl    TimeControl `json:"timeControl"`
	ReadyToPlay    bool        `json:"readyToPlay"`
	RematchOffered bool        `json:"rematchOffered"`
	DrawOffered    bool        `json:"drawOffered"`
	GameStarted    bool        `json:"gameStarted"`
	GameOver       bool        `json:"gameOver"`
	Turn           *string     `json:"turn"`
	Winner         *string     `json:"winner"`
}

// Players holds both seat snapshots; an empty seat is null on the wire.
type Players struct {
	White *PlayerState `json:"white"`
	Black *PlayerState `json:"black"`
}

// GameStateUpdate is the full personalized snapshot pushed to every
// connection attached to a game room after each successful transition.
type GameStateUpdate struct {
	Type    string    `json:"type"` // "updateGameState"
	Game    GameState `json:"game"`
	Players Players   `json:"players"`
}

// GamePreview is the lobby-facing summary of a room.
type GamePreview struct {
	ID      string      `json:"id"`
	Player1 string      `json:"player1"`
	Player2 string      `json:"player2"`
	Time    TimeControl `json:"time"`
}

// GamesUpdate lists the previews of all public rooms.
type GamesUpdate struct {
	Type  string        `json:"type"` // "updateGames"
	Games []GamePreview `json:"games"`
}

// LobbyPlayersUpdate carries the lobby connection count.
type LobbyPlayersUpdate struct {
	Type  string `json:"type"` // "updatePlayers"
	Count int    `json:"count"`
}

// GameCreated answers a createGame action.
type GameCreated struct {
	Type string `json:"type"` // "gameCreated"
	ID   string `json:"id,omitempty"`
}

// ErrorMessage is sent only to the connection whose payload failed
// validation.
type ErrorMessage struct {
	Error string `json:"error"`
}
