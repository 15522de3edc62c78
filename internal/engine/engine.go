// Package engine adapts the chess rules library behind the narrow surface
// the game room needs: apply a move, read the result, force an outcome.
package engine

import (
	"errors"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Color identifies a side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

var ErrIllegalMove = errors.New("illegal move")

// Engine owns one game of chess. Instances are replaced wholesale on
// rematch, never rewound.
type Engine struct {
	game *nchess.Game
}

func New() *Engine {
	return &Engine{game: nchess.NewGame()}
}

// ApplyMove plays a coordinate move ("e2", "e4", optional promotion piece
// "q"/"r"/"b"/"n"). The position is untouched when the move is illegal.
func (e *Engine) ApplyMove(from, to, promotion string) error {
	uci := strings.ToLower(from + to + promotion)
	if err := e.game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return ErrIllegalMove
	}
	return nil
}

// Turn returns the side to move.
func (e *Engine) Turn() Color {
	if e.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

// GameOver reports whether the game reached a terminal state, including
// forced outcomes recorded through Resign or DeclareDraw.
func (e *Engine) GameOver() bool {
	return e.game.Outcome() != nchess.NoOutcome
}

// Winner returns "white", "black" or "draw" once the game is over, and ""
// while it is still active.
func (e *Engine) Winner() string {
	switch e.game.Outcome() {
	case nchess.WhiteWon:
		return "white"
	case nchess.BlackWon:
		return "black"
	case nchess.Draw:
		return "draw"
	}
	return ""
}

// FEN serializes the current position.
func (e *Engine) FEN() string {
	return e.game.FEN()
}

// Resign records a win for the opponent of the given side.
func (e *Engine) Resign(c Color) {
	if c == White {
		e.game.Resign(nchess.White)
		return
	}
	e.game.Resign(nchess.Black)
}

// DeclareDraw records an agreed draw.
func (e *Engine) DeclareDraw() {
	_ = e.game.Draw(nchess.DrawOffer)
}
