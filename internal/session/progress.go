package session

import "math"

// Progress returns how far along the trip is, in percent, from the straight-line
// distance still to cover and the planned route distance:
//
//	clamp(0, 100, 100 - remaining/total*100)
//
// ok is false when total is unknown or not positive.
func Progress(remainingMeters float64, totalMeters *float64) (percent float64, ok bool) {
	if totalMeters == nil || *totalMeters <= 0 || math.IsNaN(*totalMeters) || math.IsNaN(remainingMeters) {
		return 0, false
	}
	p := 100 - remainingMeters / *totalMeters*100
	return math.Min(100, math.Max(0, p)), true
}
