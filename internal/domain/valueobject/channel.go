package valueobject

import (
	"fmt"
	"strings"
)

// Channel identifies how a message reached the user. It is carried as metadata only.
type Channel struct {
	value string
}

var (
	ChannelUnknown = Channel{value: "UNKNOWN"}
	ChannelEmail   = Channel{value: "EMAIL"}
	ChannelSMS     = Channel{value: "SMS"}
	ChannelCall    = Channel{value: "CALL"}
)

// ChannelFromString parses a channel name. An empty string yields ChannelUnknown.
func ChannelFromString(s string) (Channel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "UNKNOWN":
		return ChannelUnknown, nil
	case "EMAIL":
		return ChannelEmail, nil
	case "SMS":
		return ChannelSMS, nil
	case "CALL":
		return ChannelCall, nil
	default:
		return Channel{}, fmt.Errorf("invalid channel: %s", s)
	}
}

// String returns the string representation.
func (c Channel) String() string {
	if c.value == "" {
		return ChannelUnknown.value
	}
	return c.value
}

// Equal checks equality with another Channel.
func (c Channel) Equal(other Channel) bool {
	return c.String() == other.String()
}
