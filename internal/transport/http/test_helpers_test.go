package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirepush/internal/config"
	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/metrics"
)

const (
	testApp    = "app-key"
	testSecret = "s3cr3t"
)

type testEnv struct {
	server  *httptest.Server
	router  *core.Router
	rooms   *Rooms
	metrics *metrics.Metrics
}

type frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

func (f frame) arg(t *testing.T, i int, v any) {
	t.Helper()
	require.Greater(t, len(f.Args), i, "frame %s has no arg %d", f.Event, i)
	require.NoError(t, json.Unmarshal(f.Args[i], v))
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	reg, err := core.NewRegistry([]core.App{{Key: testApp, Secret: testSecret}})
	require.NoError(t, err)

	m := metrics.New(nil, 0)
	rooms := NewRooms(m, &logger)
	router := core.NewRouter(reg, rooms, &logger, core.WithCounters(m))

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(router, rooms, m, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, router: router, rooms: rooms, metrics: m}
}

func (e *testEnv) wsURL(appID string) string {
	return strings.Replace(e.server.URL, "http", "ws", 1) + "/ws/" + appID
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// dial connects to the test app and returns the connection with its id.
func (e *testEnv) dial(t *testing.T, ctx context.Context) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, e.wsURL(testApp), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	established := mustFrame(t, ctx, conn, core.EventConnectionEstablished)
	var id string
	established.arg(t, 0, &id)
	require.NotEmpty(t, id)
	return conn, id
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, args ...any) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"event": event, "args": args}))
}

// mustFrame reads frames until one with the given event arrives.
func mustFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) frame {
	t.Helper()

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			t.Fatalf("expected frame %q, read failed: %v", event, err)
		}
		if f.Event == event {
			return f
		}
	}
}

// nextFrame reads exactly one frame.
func nextFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func privateSubscribe(t *testing.T, ctx context.Context, conn *websocket.Conn, connID, channel string) {
	t.Helper()
	key := core.Sign(testSecret, connID, channel, core.ChannelPrivate, "")
	send(t, ctx, conn, core.EventSubscribe, channel, key)
}

func presenceSubscribe(t *testing.T, ctx context.Context, conn *websocket.Conn, connID, channel, data string) {
	t.Helper()
	key := core.Sign(testSecret, connID, channel, core.ChannelPresence, data)
	send(t, ctx, conn, core.EventSubscribe, channel, key, data)
}
