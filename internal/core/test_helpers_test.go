package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testApp    = "app-key"
	testSecret = "s3cr3t"
)

type emission struct {
	Event   string
	Room    string
	To      string
	Exclude string
	Args    []any
}

// fakeTransport is an in-memory Transport that records what the router asks of it.
type fakeTransport struct {
	mu           sync.Mutex
	rooms        map[string]map[string]struct{}
	emissions    []emission
	disconnected []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{rooms: make(map[string]map[string]struct{})}
}

func roomKey(appID, room string) string { return appID + "/" + room }

func (f *fakeTransport) Join(appID, connID, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := roomKey(appID, room)
	if f.rooms[key] == nil {
		f.rooms[key] = make(map[string]struct{})
	}
	f.rooms[key][connID] = struct{}{}
}

func (f *fakeTransport) Leave(appID, connID, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := roomKey(appID, room)
	delete(f.rooms[key], connID)
	if len(f.rooms[key]) == 0 {
		delete(f.rooms, key)
	}
}

func (f *fakeTransport) InRoom(appID, connID, room string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[roomKey(appID, room)][connID]
	return ok
}

func (f *fakeTransport) Emit(appID, room, event, exclude string, args ...any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id := range f.rooms[roomKey(appID, room)] {
		if id != exclude {
			n++
		}
	}
	f.emissions = append(f.emissions, emission{Event: event, Room: room, Exclude: exclude, Args: args})
	return n
}

func (f *fakeTransport) EmitTo(appID, connID, event string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{Event: event, To: connID, Args: args})
}

func (f *fakeTransport) Disconnect(appID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, connID)
}

func (f *fakeTransport) events(name string) []emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emission
	for _, e := range f.emissions {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = nil
}

func newTestRouter(t *testing.T) (*Router, *fakeTransport) {
	t.Helper()

	reg, err := NewRegistry([]App{{Key: testApp, Secret: testSecret}})
	require.NoError(t, err)

	ft := newFakeTransport()
	return NewRouter(reg, ft, nil), ft
}

func presenceOf(t *testing.T, r *Router) *PresenceStore {
	t.Helper()

	ns, err := r.registry.Lookup(testApp)
	require.NoError(t, err)
	return ns.presence
}
