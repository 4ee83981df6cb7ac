package proto

import "encoding/json"

// Inbound is a frame received from a client: an event name followed by its
// ordered arguments.
type Inbound struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

// Outbound is a frame sent to a client.
type Outbound struct {
	Event string `json:"event"`
	Args  []any  `json:"args"`
}

// String decodes argument i as a string. Missing and null arguments decode
// to the empty string; any other non-string value yields its literal JSON
// text.
func (in Inbound) String(i int) string {
	if i >= len(in.Args) {
		return ""
	}
	raw := in.Args[i]
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Raw returns argument i untouched, or JSON null when it is missing.
func (in Inbound) Raw(i int) json.RawMessage {
	if i >= len(in.Args) || len(in.Args[i]) == 0 {
		return json.RawMessage("null")
	}
	return in.Args[i]
}

// SubscribeArgs are the arguments of a subscribe frame.
type SubscribeArgs struct {
	Channel string
	AuthKey string
	Data    string
}

// ParseSubscribe extracts (channel, authKey, data?) from a subscribe frame.
func ParseSubscribe(in Inbound) SubscribeArgs {
	return SubscribeArgs{
		Channel: in.String(0),
		AuthKey: in.String(1),
		Data:    in.String(2),
	}
}

// ChannelEventArgs are the arguments of a channel:event frame.
type ChannelEventArgs struct {
	Channel string
	Event   string
	Data    json.RawMessage
}

// ParseChannelEvent extracts (channel, event, data) from a channel:event frame.
func ParseChannelEvent(in Inbound) ChannelEventArgs {
	return ChannelEventArgs{
		Channel: in.String(0),
		Event:   in.String(1),
		Data:    in.Raw(2),
	}
}

// PublishRequest is the body of a trusted publish call.
type PublishRequest struct {
	Channel  string          `json:"channel" binding:"required"`
	Event    string          `json:"event" binding:"required"`
	Data     json.RawMessage `json:"data"`
	SocketID string          `json:"socket_id,omitempty"`
}

// PublishResponse reports how many connections received a published event.
type PublishResponse struct {
	Delivered int `json:"delivered"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
