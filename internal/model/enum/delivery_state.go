package enum

// DeliveryState is the lifecycle state of a subscription.
type DeliveryState uint8

const (
	DeliveryConnected DeliveryState = iota
	DeliveryDraining
	DeliveryClosed
)

func (d DeliveryState) String() string {
	switch d {
	case DeliveryConnected:
		return "connected"
	case DeliveryDraining:
		return "draining"
	case DeliveryClosed:
		return "closed"
	default:
		return "unknown"
	}
}
