package wire

// Inbound client actions. Raw payloads are validated by internal/protocol
// before these values reach any room.

// PlayAction claims or leaves a seat. Color is "white", "black" or "exit".
type PlayAction struct {
	Type  string `json:"type"` // "play"
	Color string `json:"color"`
}

// ReadyAction toggles the readiness handshake.
type ReadyAction struct {
	Type  string `json:"type"` // "ready"
	Ready bool   `json:"ready"`
}

// MoveAction plays a move in coordinate form, e.g. from "e2" to "e4".
// Promotion is empty or one of "q", "r", "b", "n".
type MoveAction struct {
	Type      string `json:"type"` // "move"
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// OfferDrawAction toggles the sender's draw offer.
type OfferDrawAction struct {
	Type string `json:"type"` // "offerdraw"
}

// ResignAction resigns the game for the sender's side.
type ResignAction struct {
	Type string `json:"type"` // "resign"
}

// RematchAction toggles the sender's rematch request after game over.
type RematchAction struct {
	Type string `json:"type"` // "rematch"
}

// CreateGameAction asks the lobby to open a new room.
type CreateGameAction struct {
	Type      string  `json:"type"` // "createGame"
	Minutes   float64 `json:"minutes"`
	Increment int     `json:"increment"`
	Private   bool    `json:"private"`
}
