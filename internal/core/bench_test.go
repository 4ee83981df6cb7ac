package core

import (
	"fmt"
	"testing"
)

type nopTransport struct{}

func (nopTransport) Join(string, string, string)                     {}
func (nopTransport) Leave(string, string, string)                    {}
func (nopTransport) InRoom(string, string, string) bool              { return true }
func (nopTransport) Emit(string, string, string, string, ...any) int { return 0 }
func (nopTransport) EmitTo(string, string, string, ...any)           {}
func (nopTransport) Disconnect(string, string)                       {}

func benchmarkPresenceChurn(b *testing.B, members int) {
	reg, err := NewRegistry([]App{{Key: testApp, Secret: testSecret}})
	if err != nil {
		b.Fatal(err)
	}
	r := NewRouter(reg, nopTransport{}, nil)
	const channel = "presence-bench"

	for i := 0; i < members; i++ {
		id := fmt.Sprintf("m%d", i)
		data := fmt.Sprintf(`{"userId":"%d"}`, i)
		if err := r.Subscribe(conn(id), channel, presenceKey(id, channel, data), data); err != nil {
			b.Fatal(err)
		}
	}

	data := `{"userId":"churn"}`
	key := presenceKey("churn", channel, data)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := r.Subscribe(conn("churn"), channel, key, data); err != nil {
			b.Fatal(err)
		}
		r.Disconnect(conn("churn"))
	}
}

func BenchmarkPresenceChurn_10(b *testing.B)  { benchmarkPresenceChurn(b, 10) }
func BenchmarkPresenceChurn_100(b *testing.B) { benchmarkPresenceChurn(b, 100) }
func BenchmarkPresenceChurn_500(b *testing.B) { benchmarkPresenceChurn(b, 500) }
