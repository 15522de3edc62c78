package ws

import "sync"

// Hooks are the fixed lifecycle slots a room owner installs at
// construction. Nil slots are skipped.
type Hooks struct {
	BeforeJoin  func(c Client)
	AfterJoin   func(c Client)
	BeforeLeave func(c Client)
	AfterLeave  func(c Client)
}

// Room is the broadcast primitive: the set of connections currently
// attached to one session. A client may be attached without holding a
// seat (spectator). Broadcast fans out through each connection's own
// queue, so one dead client cannot stall the others.
type Room struct {
	mu      sync.RWMutex
	clients map[Client]struct{}
	hooks   Hooks
}

func NewRoom(hooks Hooks) *Room {
	return &Room{clients: make(map[Client]struct{}), hooks: hooks}
}

func (r *Room) Attach(c Client) {
	if r.hooks.BeforeJoin != nil {
		r.hooks.BeforeJoin(c)
	}
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
	if r.hooks.AfterJoin != nil {
		r.hooks.AfterJoin(c)
	}
}

func (r *Room) Detach(c Client) {
	r.mu.Lock()
	_, ok := r.clients[c]
	r.mu.Unlock()
	if !ok {
		return
	}
	if r.hooks.BeforeLeave != nil {
		r.hooks.BeforeLeave(c)
	}
	r.mu.Lock()
	delete(r.clients, c)
	r.mu.Unlock()
	if r.hooks.AfterLeave != nil {
		r.hooks.AfterLeave(c)
	}
}

// Broadcast sends msg to every attached client.
func (r *Room) Broadcast(msg any) {
	for _, c := range r.snapshot() {
		c.Send(msg)
	}
}

// BroadcastExcept sends msg to every attached client but one.
func (r *Room) BroadcastExcept(msg any, except Client) {
	for _, c := range r.snapshot() {
		if c != except {
			c.Send(msg)
		}
	}
}

// Each calls fn for every attached client.
func (r *Room) Each(fn func(c Client)) {
	for _, c := range r.snapshot() {
		fn(c)
	}
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}
