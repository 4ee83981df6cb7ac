package metrics

import (
	"context"
	"io"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Metrics keeps named counters and periodically reports them as JSON.
type Metrics struct {
	reg  gometrics.Registry
	out  io.Writer
	tick time.Duration
}

// New creates a metrics set with its own registry. Reports go to out every
// tick; a zero tick disables periodic reports.
func New(out io.Writer, tick time.Duration) *Metrics {
	return &Metrics{
		reg:  gometrics.NewRegistry(),
		out:  out,
		tick: tick,
	}
}

// Incr adds i to the named counter.
func (m *Metrics) Incr(name string, i int64) {
	gometrics.GetOrRegisterCounter(name, m.reg).Inc(i)
}

// Decr subtracts i from the named counter.
func (m *Metrics) Decr(name string, i int64) {
	gometrics.GetOrRegisterCounter(name, m.reg).Dec(i)
}

// Count returns the current value of the named counter.
func (m *Metrics) Count(name string) int64 {
	return gometrics.GetOrRegisterCounter(name, m.reg).Count()
}

// WriteJSON writes one snapshot of all counters to w.
func (m *Metrics) WriteJSON(w io.Writer) {
	gometrics.WriteJSONOnce(m.reg, w)
}

// Run reports counters every tick until ctx is done, then writes a final
// snapshot.
func (m *Metrics) Run(ctx context.Context) {
	if m.tick <= 0 || m.out == nil {
		return
	}
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.WriteJSON(m.out)
		case <-ctx.Done():
			m.WriteJSON(m.out)
			return
		}
	}
}
