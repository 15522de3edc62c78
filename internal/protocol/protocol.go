// Package protocol turns raw websocket payloads into validated action
// values. Rooms only ever see values that passed validation here.
package protocol

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/akcyp/chess-online/pkg/wire"
)

var (
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrInvalidType    = errors.New("invalid action type")
	ErrInvalidPayload = errors.New("invalid data")
)

var squareRe = regexp.MustCompile(`^[a-h][1-8]$`)

// Allowed time control steps, matching the create-game form: fractional
// minutes below 2, whole minutes to 20, then coarser steps up to 180.
var minutesSteps = buildMinutesSteps()
var incrementSteps = buildIncrementSteps()

func buildMinutesSteps() map[float64]bool {
	m := make(map[float64]bool)
	for i := 1; i <= 7; i++ {
		m[0.25*float64(i)] = true
	}
	for i := 2; i <= 20; i++ {
		m[float64(i)] = true
	}
	for i := 0; i < 5; i++ {
		m[float64(25+i*5)] = true
	}
	for i := 0; i < 9; i++ {
		m[float64(60+i*15)] = true
	}
	return m
}

func buildIncrementSteps() map[int]bool {
	m := make(map[int]bool)
	for i := 0; i <= 20; i++ {
		m[i] = true
	}
	for i := 0; i < 5; i++ {
		m[25+i*5] = true
	}
	for i := 0; i < 5; i++ {
		m[60+i*30] = true
	}
	return m
}

type envelope struct {
	Type string `json:"type"`
}

// ParseGameAction validates a game-socket payload. The returned value is
// one of the wire action structs.
func ParseGameAction(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrInvalidJSON
	}
	switch env.Type {
	case "play":
		var a wire.PlayAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		switch a.Color {
		case "white", "black", "exit":
			return a, nil
		}
		return nil, ErrInvalidPayload
	case "ready":
		var a wire.ReadyAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		return a, nil
	case "move":
		var a wire.MoveAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		if !squareRe.MatchString(a.From) || !squareRe.MatchString(a.To) {
			return nil, ErrInvalidPayload
		}
		switch a.Promotion {
		case "", "q", "r", "b", "n":
			return a, nil
		}
		return nil, ErrInvalidPayload
	case "offerdraw":
		return wire.OfferDrawAction{Type: env.Type}, nil
	case "resign":
		return wire.ResignAction{Type: env.Type}, nil
	case "rematch":
		return wire.RematchAction{Type: env.Type}, nil
	}
	return nil, ErrInvalidType
}

// ParseLobbyAction validates a lobby-socket payload.
func ParseLobbyAction(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrInvalidJSON
	}
	switch env.Type {
	case "createGame":
		var a wire.CreateGameAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		if !minutesSteps[a.Minutes] || !incrementSteps[a.Increment] {
			return nil, ErrInvalidPayload
		}
		return a, nil
	}
	return nil, ErrInvalidType
}
