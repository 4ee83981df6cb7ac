package core

// Conn identifies a connection within its namespace.
type Conn struct {
	AppID string
	ID    string
}

// Transport is the connection layer the router drives. Rooms are scoped per
// application. Implementations must be safe for concurrent use and must not
// call back into the Router synchronously.
type Transport interface {
	// Join adds the connection to room.
	Join(appID, connID, room string)
	// Leave removes the connection from room. Leaving a room never joined is a no-op.
	Leave(appID, connID, room string)
	// InRoom reports whether the connection is currently in room.
	InRoom(appID, connID, room string) bool
	// Emit sends event to every connection in room except exclude and
	// returns the number of connections it was delivered to.
	Emit(appID, room, event, exclude string, args ...any) int
	// EmitTo sends event to a single connection.
	EmitTo(appID, connID, event string, args ...any)
	// Disconnect terminates the connection. The transport later reports the
	// closed connection back through Router.Disconnect.
	Disconnect(appID, connID string)
}

// Counters receives metric updates from the core.
type Counters interface {
	Incr(name string, n int64)
	Decr(name string, n int64)
}

// Counter names.
const (
	CounterSubscriptions   = "subscriptions"
	CounterPresenceMembers = "presence.members"
	CounterTerminations    = "terminations"
	CounterRelayed         = "relayed"
	CounterPublished       = "published"
)

type nopCounters struct{}

func (nopCounters) Incr(string, int64) {}
func (nopCounters) Decr(string, int64) {}
