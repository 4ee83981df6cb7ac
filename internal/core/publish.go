package core

import "github.com/rs/zerolog"

// Publisher injects server-originated events into channels. Callers are
// trusted: no channel type check or authorization happens here.
type Publisher struct {
	registry  *Registry
	transport Transport
	counters  Counters
	log       *zerolog.Logger
}

// NewPublisher creates a publisher sharing the router's registry and transport.
func NewPublisher(r *Router) *Publisher {
	return &Publisher{
		registry:  r.registry,
		transport: r.transport,
		counters:  r.counters,
		log:       r.log,
	}
}

// Publish emits event with (channel, payload) to every connection in
// channel's room, except excludeConnID when non-empty, and returns how many
// connections it reached.
func (p *Publisher) Publish(appID, channel, event string, payload any, excludeConnID string) (int, error) {
	ns, err := p.registry.Lookup(appID)
	if err != nil {
		return 0, err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	delivered := p.transport.Emit(appID, channel, event, excludeConnID, channel, payload)
	p.counters.Incr(CounterPublished, 1)
	p.log.Debug().
		Str("app_id", appID).
		Str("channel", channel).
		Str("event", event).
		Int("delivered", delivered).
		Msg("published")
	return delivered, nil
}
