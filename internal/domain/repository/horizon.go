package repository

// Horizon labels.
const (
	HorizonShort  = "short"
	HorizonMedium = "medium"
	HorizonLong   = "long"
)

// DefaultHorizons in batch order.
var DefaultHorizons = []string{HorizonShort, HorizonMedium, HorizonLong}

// IsValidHorizon returns true if h is a supported horizon.
func IsValidHorizon(h string) bool {
	switch h {
	case HorizonShort, HorizonMedium, HorizonLong:
		return true
	default:
		return false
	}
}

// HorizonSteps is how many candles ahead the label looks for each horizon.
func HorizonSteps(h string) int {
	switch h {
	case HorizonMedium:
		return 3
	case HorizonLong:
		return 7
	default:
		return 1
	}
}
