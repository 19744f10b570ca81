package rotation

import (
	"fmt"
	"math"

	"github.com/banshee-data/texture.report/internal/units"
)

// gimbalEpsilon is the squared half-angle term below which Φ is treated as
// 0 or π and φ2 is folded into φ1.
const gimbalEpsilon = 1e-20

// EulerAngle is a Bunge (φ1, Φ, φ2) triple in radians.
type EulerAngle struct {
	Phi1 float64
	Phi  float64
	Phi2 float64
}

// Euler returns the triple (phi1, Phi, phi2) without wrapping.
func Euler(phi1, Phi, phi2 float64) EulerAngle {
	return EulerAngle{Phi1: phi1, Phi: Phi, Phi2: phi2}
}

// EulerDegrees builds an EulerAngle from degrees.
func EulerDegrees(phi1, Phi, phi2 float64) EulerAngle {
	return EulerAngle{
		Phi1: units.DegreesToRadians(phi1),
		Phi:  units.DegreesToRadians(Phi),
		Phi2: units.DegreesToRadians(phi2),
	}
}

// Quaternion implements Orientation.
func (e EulerAngle) Quaternion() Quaternion { return ToQuaternion(e) }

// Components returns (φ1, Φ, φ2).
func (e EulerAngle) Components() [3]float64 {
	return [3]float64{e.Phi1, e.Phi, e.Phi2}
}

// Wrap returns e with every angle reduced into [0, 2π).
func (e EulerAngle) Wrap() EulerAngle {
	return EulerAngle{WrapAngle(e.Phi1), WrapAngle(e.Phi), WrapAngle(e.Phi2)}
}

// Degrees returns (φ1, Φ, φ2) in degrees.
func (e EulerAngle) Degrees() [3]float64 {
	return [3]float64{
		units.RadiansToDegrees(e.Phi1),
		units.RadiansToDegrees(e.Phi),
		units.RadiansToDegrees(e.Phi2),
	}
}

func (e EulerAngle) String() string {
	d := e.Degrees()
	return fmt.Sprintf("(%.4g°, %.4g°, %.4g°)", d[0], d[1], d[2])
}

// ToQuaternion converts Bunge angles to the passive orientation quaternion
//
//	q = (cos(Φ/2)cos σ, -sin(Φ/2)cos δ, -sin(Φ/2)sin δ, -cos(Φ/2)sin σ)
//
// with σ = (φ1+φ2)/2 and δ = (φ1-φ2)/2. The result has W >= 0.
func ToQuaternion(e EulerAngle) Quaternion {
	sigma := (e.Phi1 + e.Phi2) / 2
	delta := (e.Phi1 - e.Phi2) / 2
	c := math.Cos(e.Phi / 2)
	s := math.Sin(e.Phi / 2)
	q := Quaternion{
		W: c * math.Cos(sigma),
		X: -s * math.Cos(delta),
		Y: -s * math.Sin(delta),
		Z: -c * math.Sin(sigma),
	}
	if q.W < 0 {
		q = q.Neg()
	}
	return q
}

// ToEuler converts an orientation quaternion to wrapped Bunge angles. At
// Φ ≈ 0 or Φ ≈ π only φ1+φ2 (or φ1-φ2) is defined; φ2 is then reported
// as 0 and the whole in-plane rotation is carried by φ1.
func ToEuler(q Quaternion) EulerAngle {
	q = q.Normalize()
	cc := q.W*q.W + q.Z*q.Z
	ss := q.X*q.X + q.Y*q.Y
	Phi := 2 * math.Atan2(math.Sqrt(ss), math.Sqrt(cc))

	var phi1, phi2 float64
	switch {
	case ss < gimbalEpsilon:
		Phi = 0
		phi1 = 2 * math.Atan2(-q.Z, q.W)
	case cc < gimbalEpsilon:
		Phi = math.Pi
		phi1 = 2 * math.Atan2(-q.Y, -q.X)
	default:
		sigma := math.Atan2(-q.Z, q.W)
		delta := math.Atan2(-q.Y, -q.X)
		phi1 = sigma + delta
		phi2 = sigma - delta
	}
	return EulerAngle{Phi1: phi1, Phi: Phi, Phi2: phi2}.Wrap()
}
