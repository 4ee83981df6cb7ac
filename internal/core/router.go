package core

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Router implements the connection-scoped handlers: subscribe, unsubscribe,
// client event relay and disconnect. Every handler holds the namespace lock
// for its whole run, so presence read-modify-write sequences and the events
// they trigger never interleave within one namespace.
type Router struct {
	registry  *Registry
	transport Transport
	counters  Counters
	log       *zerolog.Logger
}

// Option customizes a Router.
type Option func(*Router)

// WithCounters reports handler activity to c.
func WithCounters(c Counters) Option {
	return func(r *Router) {
		if c != nil {
			r.counters = c
		}
	}
}

// NewRouter creates a router over the given registry and transport.
func NewRouter(registry *Registry, transport Transport, logger *zerolog.Logger, opts ...Option) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Router{
		registry:  registry,
		transport: transport,
		counters:  nopCounters{},
		log:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the router resolves namespaces from.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Subscribe joins conn to channel after validating the name and auth key.
// An invalid name or a bad key terminates the connection. A malformed
// presence payload only rejects this subscription. The returned error
// describes the outcome; the connection has already been dealt with.
func (r *Router) Subscribe(conn Conn, channel, authKey, data string) error {
	ns, err := r.registry.Lookup(conn.AppID)
	if err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	typ, err := Classify(channel)
	if err != nil {
		r.terminate(conn, channel, err)
		return err
	}
	if !Authorize(typ, ns.secret, conn.ID, channel, authKey, data) {
		r.terminate(conn, channel, ErrUnauthorized)
		return ErrUnauthorized
	}

	if typ != ChannelPresence {
		r.transport.Join(conn.AppID, conn.ID, channel)
		r.counters.Incr(CounterSubscriptions, 1)
		r.log.Debug().Str("app_id", conn.AppID).Str("conn_id", conn.ID).Str("channel", channel).Msg("subscribed")
		return nil
	}

	member, err := ParseMember(data)
	if err != nil {
		r.log.Info().Err(err).Str("app_id", conn.AppID).Str("conn_id", conn.ID).Str("channel", channel).Msg("presence subscription rejected")
		r.transport.EmitTo(conn.AppID, conn.ID, EventSubscriptionError, channel, coreError(ErrCodeMalformedPayload, err.Error()))
		return err
	}
	member.ConnectionID = conn.ID

	r.transport.Join(conn.AppID, conn.ID, channel)
	r.counters.Incr(CounterSubscriptions, 1)

	rejoin := ns.presence.Holds(channel, conn.ID)
	alreadyMember := ns.presence.Join(channel, member)
	if !rejoin {
		r.counters.Incr(CounterPresenceMembers, 1)
	}

	r.transport.EmitTo(conn.AppID, conn.ID, EventPresenceSubscribed, channel, ns.presence.Snapshot(channel))
	if !alreadyMember {
		r.transport.Emit(conn.AppID, channel, EventPresenceJoining, conn.ID, channel, member)
	}

	r.log.Debug().
		Str("app_id", conn.AppID).
		Str("conn_id", conn.ID).
		Str("channel", channel).
		Str("user_id", member.UserID).
		Bool("already_member", alreadyMember).
		Msg("presence subscribed")
	return nil
}

// Unsubscribe removes conn from channel. Unknown or repeated unsubscribes
// are no-ops.
func (r *Router) Unsubscribe(conn Conn, channel string) {
	ns, err := r.registry.Lookup(conn.AppID)
	if err != nil {
		return
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if typ, err := Classify(channel); err == nil && typ == ChannelPresence {
		r.leavePresence(ns, conn, channel)
	}
	r.transport.Leave(conn.AppID, conn.ID, channel)
}

// Relay forwards a client event to the other members of channel. Only
// client- prefixed events on private or presence channels the connection has
// joined are forwarded; anything else is dropped silently.
func (r *Router) Relay(conn Conn, channel, event string, data json.RawMessage) bool {
	typ, err := Classify(channel)
	if err != nil || !typ.Authenticated() {
		return false
	}
	if !strings.HasPrefix(event, ClientEventPrefix) {
		return false
	}

	ns, err := r.registry.Lookup(conn.AppID)
	if err != nil {
		return false
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if !r.transport.InRoom(conn.AppID, conn.ID, channel) {
		return false
	}
	r.transport.Emit(conn.AppID, channel, event, conn.ID, channel, data)
	r.counters.Incr(CounterRelayed, 1)
	return true
}

// Disconnect drops every presence entry conn holds in its namespace. The
// presence store is the source of truth here, not the transport's room
// bookkeeping, so no entry can outlive the connection.
func (r *Router) Disconnect(conn Conn) {
	ns, err := r.registry.Lookup(conn.AppID)
	if err != nil {
		return
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	for _, channel := range ns.presence.Channels() {
		if !ns.presence.Holds(channel, conn.ID) {
			continue
		}
		r.leavePresence(ns, conn, channel)
		r.transport.Leave(conn.AppID, conn.ID, channel)
	}
	r.log.Debug().Str("app_id", ns.AppID()).Str("conn_id", conn.ID).Msg("disconnected")
}

// leavePresence must be called with the namespace lock held.
func (r *Router) leavePresence(ns *Namespace, conn Conn, channel string) {
	member, stillPresent, ok := ns.presence.Leave(channel, conn.ID)
	if !ok {
		return
	}
	r.counters.Decr(CounterPresenceMembers, 1)
	if !stillPresent {
		r.transport.Emit(ns.AppID(), channel, EventPresenceLeaving, conn.ID, channel, member)
	}
}

func (r *Router) terminate(conn Conn, channel string, reason error) {
	code := ErrCodeInvalidChannel
	if errors.Is(reason, ErrUnauthorized) {
		code = ErrCodeUnauthorized
	}
	r.log.Warn().
		Str("app_id", conn.AppID).
		Str("conn_id", conn.ID).
		Str("channel", channel).
		Str("reason", code).
		Msg("terminating connection")
	r.counters.Incr(CounterTerminations, 1)
	r.transport.Disconnect(conn.AppID, conn.ID)
}
