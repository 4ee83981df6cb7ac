package http

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/proto"
)

const (
	counterConnections = "connections"
	counterDrops       = "drops"
)

// client is one accepted websocket connection as seen by the room registry.
type client struct {
	id         string
	appID      string
	send       chan proto.Outbound
	cancel     context.CancelFunc
	terminated atomic.Bool
	rooms      map[string]struct{}
}

func newClient(id, appID string, buffer int, cancel context.CancelFunc) *client {
	return &client{
		id:     id,
		appID:  appID,
		send:   make(chan proto.Outbound, buffer),
		cancel: cancel,
		rooms:  make(map[string]struct{}),
	}
}

// deliver queues a frame without blocking. A full buffer drops the frame.
func (c *client) deliver(frame proto.Outbound) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Rooms tracks which connections sit in which rooms, per application, and
// implements core.Transport on top of the websocket clients.
type Rooms struct {
	mu       sync.RWMutex
	clients  map[string]*client
	rooms    map[string]map[string]map[*client]struct{} // appID -> room -> members
	counters core.Counters
	log      *zerolog.Logger
}

var _ core.Transport = (*Rooms)(nil)

// NewRooms creates an empty room registry.
func NewRooms(counters core.Counters, logger *zerolog.Logger) *Rooms {
	return &Rooms{
		clients:  make(map[string]*client),
		rooms:    make(map[string]map[string]map[*client]struct{}),
		counters: counters,
		log:      logger,
	}
}

func (r *Rooms) register(c *client) {
	r.mu.Lock()
	r.clients[c.id] = c
	r.mu.Unlock()
	r.counters.Incr(counterConnections, 1)
}

// unregister removes the client from every room it is still in.
func (r *Rooms) unregister(c *client) {
	r.mu.Lock()
	for room := range c.rooms {
		r.removeLocked(c, room)
	}
	delete(r.clients, c.id)
	r.mu.Unlock()
	r.counters.Decr(counterConnections, 1)
}

func (r *Rooms) lookupLocked(appID, connID string) *client {
	c, ok := r.clients[connID]
	if !ok || c.appID != appID {
		return nil
	}
	return c
}

func (r *Rooms) removeLocked(c *client, room string) {
	delete(c.rooms, room)
	members := r.rooms[c.appID][room]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms[c.appID], room)
	}
	if len(r.rooms[c.appID]) == 0 {
		delete(r.rooms, c.appID)
	}
}

// Join implements core.Transport.
func (r *Rooms) Join(appID, connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.lookupLocked(appID, connID)
	if c == nil {
		return
	}
	if r.rooms[appID] == nil {
		r.rooms[appID] = make(map[string]map[*client]struct{})
	}
	if r.rooms[appID][room] == nil {
		r.rooms[appID][room] = make(map[*client]struct{})
	}
	r.rooms[appID][room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave implements core.Transport.
func (r *Rooms) Leave(appID, connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.lookupLocked(appID, connID); c != nil {
		r.removeLocked(c, room)
	}
}

// InRoom implements core.Transport.
func (r *Rooms) InRoom(appID, connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := r.lookupLocked(appID, connID)
	if c == nil {
		return false
	}
	_, ok := c.rooms[room]
	return ok
}

// Emit implements core.Transport.
func (r *Rooms) Emit(appID, room, event, exclude string, args ...any) int {
	frame := proto.Outbound{Event: event, Args: args}

	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for c := range r.rooms[appID][room] {
		if c.id == exclude {
			continue
		}
		if c.deliver(frame) {
			delivered++
			continue
		}
		r.counters.Incr(counterDrops, 1)
		r.log.Debug().Str("app_id", appID).Str("conn_id", c.id).Str("event", event).Msg("dropped frame for slow consumer")
	}
	return delivered
}

// EmitTo implements core.Transport.
func (r *Rooms) EmitTo(appID, connID, event string, args ...any) {
	r.mu.RLock()
	c := r.lookupLocked(appID, connID)
	r.mu.RUnlock()
	if c == nil {
		return
	}
	if !c.deliver(proto.Outbound{Event: event, Args: args}) {
		r.counters.Incr(counterDrops, 1)
	}
}

// Disconnect implements core.Transport. The connection's handler notices the
// cancellation, closes the socket and runs the router's disconnect cleanup.
func (r *Rooms) Disconnect(appID, connID string) {
	r.mu.RLock()
	c := r.lookupLocked(appID, connID)
	r.mu.RUnlock()
	if c == nil {
		return
	}
	c.terminated.Store(true)
	c.cancel()
}

// RoomSize returns how many connections are in room.
func (r *Rooms) RoomSize(appID, room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[appID][room])
}
