package fireworks

import "strings"

const (
	tierSmallMarker = "small"
	tierLargeMarker = "large"

	smallScale   = 0.25
	largeScale   = 1.0
	defaultScale = 1.0
)

// TierScale maps a product identifier to the velocity scale of a show.
// Any string is accepted; identifiers naming neither tier get the default.
func TierScale(tier string) float64 {
	switch {
	case strings.Contains(tier, tierSmallMarker):
		return smallScale
	case strings.Contains(tier, tierLargeMarker):
		return largeScale
	default:
		return defaultScale
	}
}
