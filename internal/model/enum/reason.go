package enum

// AlertReason classifies which signal tripped an anomaly alert.
type AlertReason uint8

const (
	ReasonUnknown AlertReason = iota
	ReasonVolumeSpike
	ReasonPriceDeviation
	ReasonCombined
)

func (r AlertReason) String() string {
	switch r {
	case ReasonVolumeSpike:
		return "volume-spike"
	case ReasonPriceDeviation:
		return "price-deviation"
	case ReasonCombined:
		return "combined"
	default:
		return "unknown"
	}
}
