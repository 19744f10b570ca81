// Package units provides shared constants and conversions for angle units
package units

import "math"

// Unit constants
const (
	Radians = "rad"
	Degrees = "deg"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Radians, Degrees}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "rad, deg"
}

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ConvertAngle converts an angle from radians to the target units.
// Trajectories are computed and stored in radians.
func ConvertAngle(rad float64, targetUnits string) float64 {
	switch targetUnits {
	case Degrees:
		return RadiansToDegrees(rad)
	default:
		return rad // default to radians if unknown unit
	}
}

// RoundSignificant rounds v to n significant figures. n <= 0 returns v
// unchanged, as do zero, NaN and infinite values.
func RoundSignificant(v float64, n int) float64 {
	if n <= 0 || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	magnitude := math.Floor(math.Log10(math.Abs(v)))
	scale := math.Pow(10, float64(n-1)-magnitude)
	return math.Round(v*scale) / scale
}
