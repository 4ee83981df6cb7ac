package core

import (
	"fmt"
	"regexp"
)

// ChannelType is the trust level of a channel, derived from its name prefix.
type ChannelType string

const (
	ChannelPublic   ChannelType = "public"
	ChannelPrivate  ChannelType = "private"
	ChannelPresence ChannelType = "presence"
)

var channelPattern = regexp.MustCompile(`^(?:(private|presence)-)?([-a-zA-Z0-9_=@,.;]+)$`)

// Classify parses a channel name into its type.
func Classify(channel string) (ChannelType, error) {
	m := channelPattern.FindStringSubmatch(channel)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannelName, channel)
	}
	switch m[1] {
	case "private":
		return ChannelPrivate, nil
	case "presence":
		return ChannelPresence, nil
	default:
		return ChannelPublic, nil
	}
}

// Authenticated reports whether subscribing requires a signed auth key.
func (t ChannelType) Authenticated() bool {
	return t == ChannelPrivate || t == ChannelPresence
}
