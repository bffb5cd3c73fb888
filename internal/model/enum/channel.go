package enum

// Channel identifies a live feed kind exposed by the fan-out hub.
type Channel uint8

const (
	ChannelUnknown Channel = iota
	ChannelTick
	ChannelAnomaly
)

func (c Channel) String() string {
	switch c {
	case ChannelTick:
		return "tick"
	case ChannelAnomaly:
		return "anomaly"
	default:
		return "unknown"
	}
}

// IsAvailable reports whether the channel can be subscribed to.
func (c Channel) IsAvailable() bool {
	return c == ChannelTick || c == ChannelAnomaly
}
