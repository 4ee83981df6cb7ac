package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCounters(t *testing.T) {
	m := New(nil, 0)

	m.Incr("connections", 3)
	m.Decr("connections", 1)
	m.Incr("published", 1)

	assert.Equal(t, int64(2), m.Count("connections"))
	assert.Equal(t, int64(1), m.Count("published"))
	assert.Zero(t, m.Count("missing"))
}

func TestWriteJSON(t *testing.T) {
	m := New(nil, 0)
	m.Incr("relayed", 4)

	var buf bytes.Buffer
	m.WriteJSON(&buf)

	var snapshot map[string]map[string]int64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snapshot))
	assert.Equal(t, int64(4), snapshot["relayed"]["count"])
}

func TestRunWritesFinalSnapshot(t *testing.T) {
	out := &lockedBuffer{}
	m := New(out, time.Hour)
	m.Incr("drops", 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Contains(t, out.String(), `"drops"`)
}

func TestRunDisabled(t *testing.T) {
	m := New(&bytes.Buffer{}, 0)
	// Returns immediately when periodic reports are off.
	m.Run(context.Background())
}
