// Package ws holds the websocket connection and room primitives shared by
// the lobby and the game rooms.
package ws

// Client is one attached connection: a stable identity plus an ordered,
// non-blocking outbound queue. The identity is supplied by the session
// layer and survives reconnects.
type Client interface {
	ID() string
	Name() string
	Send(msg any)
}

// Handler receives the lifecycle of a connection bound to one room. The
// three slots are fixed at construction; there is no runtime listener
// registry.
type Handler interface {
	OnAttach(c Client)
	OnDetach(c Client)
	OnAction(c Client, raw []byte)
}
