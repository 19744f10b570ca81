package rotation

import (
	"fmt"
	"math"
)

// TwoPi is the width of the default Euler angle range.
const TwoPi = 2 * math.Pi

// FixAngle reduces a into [lower, upper) by whole multiples of the range
// width. NaN and infinite inputs return NaN.
//
// upper <= lower is a caller bug and panics.
func FixAngle(a, lower, upper float64) float64 {
	if !(upper > lower) {
		panic(fmt.Sprintf("rotation: FixAngle bounds [%g, %g) are empty", lower, upper))
	}
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return math.NaN()
	}
	span := upper - lower
	r := math.Mod(a-lower, span)
	if r < 0 {
		r += span
	}
	out := lower + r
	if out >= upper {
		// r+span can round up to exactly span.
		out = lower
	}
	return out
}

// WrapAngle is FixAngle(a, 0, 2π).
func WrapAngle(a float64) float64 {
	return FixAngle(a, 0, TwoPi)
}
