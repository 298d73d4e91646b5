package domain

import "math"

// RefundFraction maps cancellation lead time (hours until departure)
// to the fraction of the booking amount returned to the passenger.
//
//	>= 24h  -> 0.9
//	12..24h -> 0.7
//	 6..12h -> 0.5
//	 <  6h  -> 0 (including past departures)
func RefundFraction(hoursUntilDeparture float64) float64 {
	switch {
	case hoursUntilDeparture >= 24:
		return 0.9
	case hoursUntilDeparture >= 12:
		return 0.7
	case hoursUntilDeparture >= 6:
		return 0.5
	default:
		return 0
	}
}

// RefundAmount computes the refund for totalAmount when cancelling
// hoursUntilDeparture hours before the trip leaves.
func RefundAmount(totalAmount int64, hoursUntilDeparture float64) int64 {
	return int64(math.Round(float64(totalAmount) * RefundFraction(hoursUntilDeparture)))
}
