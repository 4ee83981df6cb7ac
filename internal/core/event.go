package core

// Wire event names.
const (
	EventSubscribe    = "subscribe"
	EventUnsubscribe  = "unsubscribe"
	EventChannelEvent = "channel:event"

	EventConnectionEstablished = "connection:established"
	EventPresenceSubscribed    = "presence:subscribed"
	EventPresenceJoining       = "presence:joining"
	EventPresenceLeaving       = "presence:leaving"
	EventSubscriptionError     = "subscription:error"

	// ClientEventPrefix marks events a client may relay to its peers.
	ClientEventPrefix = "client-"
)
