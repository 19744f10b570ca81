package rotation

import (
	"fmt"
	"math"
)

// normEpsilon is the squared norm below which a quaternion is treated as
// zero and cannot be normalised.
const normEpsilon = 1e-24

// Orientation is anything that can be expressed as an orientation
// quaternion. Both Quaternion and EulerAngle satisfy it.
type Orientation interface {
	Quaternion() Quaternion
}

// Quaternion is a rotation quaternion (W, X, Y, Z).
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity returns the identity rotation (1, 0, 0, 0).
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternion returns the normalised quaternion with the given components.
// A zero-length input yields the identity.
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, X: x, Y: y, Z: z}.Normalize()
}

// FromAxisAngle returns the rotation of angle radians about axis. A zero
// axis yields the identity.
func FromAxisAngle(axis Vec3, angle float64) Quaternion {
	n := axis.Norm()
	if n == 0 {
		return Identity()
	}
	s := math.Sin(angle/2) / n
	return Quaternion{
		W: math.Cos(angle / 2),
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
	}
}

// Quaternion implements Orientation.
func (q Quaternion) Quaternion() Quaternion { return q }

// Euler converts q to Euler-Bunge angles.
func (q Quaternion) Euler() EulerAngle { return ToEuler(q) }

// Components returns q as an array in (W, X, Y, Z) order.
func (q Quaternion) Components() [4]float64 {
	return [4]float64{q.W, q.X, q.Y, q.Z}
}

// FromComponents is the inverse of Components. The result is not normalised.
func FromComponents(c [4]float64) Quaternion {
	return Quaternion{W: c[0], X: c[1], Y: c[2], Z: c[3]}
}

// Dot returns the 4-D inner product of q and r.
func (q Quaternion) Dot(r Quaternion) float64 {
	return q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
}

// Norm returns the Euclidean length of q.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.Dot(q))
}

// IsValid reports whether q is finite and long enough to normalize into
// a rotation.
func (q Quaternion) IsValid() bool {
	for _, c := range q.Components() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return q.Dot(q) >= normEpsilon
}

// Normalize returns q scaled to unit length. A zero quaternion yields the
// identity rather than NaNs.
func (q Quaternion) Normalize() Quaternion {
	sq := q.Dot(q)
	if sq < normEpsilon {
		return Identity()
	}
	inv := 1 / math.Sqrt(sq)
	return Quaternion{W: q.W * inv, X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv}
}

// Neg returns -q, the same rotation on the other sheet of the double cover.
func (q Quaternion) Neg() Quaternion {
	return Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Conjugate returns (W, -X, -Y, -Z).
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Invert returns q⁻¹. For unit quaternions this is the conjugate; other
// inputs are divided by their squared norm.
func Invert(q Quaternion) Quaternion {
	sq := q.Dot(q)
	if sq < normEpsilon {
		return Identity()
	}
	c := q.Conjugate()
	return Quaternion{W: c.W / sq, X: c.X / sq, Y: c.Y / sq, Z: c.Z / sq}
}

// Compose returns the Hamilton product q1 ⊗ q2. As rotation matrices this
// is R(q1)·R(q2): q2 is applied first.
func Compose(q1, q2 Quaternion) Quaternion {
	return Quaternion{
		W: q1.W*q2.W - q1.X*q2.X - q1.Y*q2.Y - q1.Z*q2.Z,
		X: q1.W*q2.X + q1.X*q2.W + q1.Y*q2.Z - q1.Z*q2.Y,
		Y: q1.W*q2.Y - q1.X*q2.Z + q1.Y*q2.W + q1.Z*q2.X,
		Z: q1.W*q2.Z + q1.X*q2.Y - q1.Y*q2.X + q1.Z*q2.W,
	}
}

// CanonicalizeSign returns q or -q, whichever has a non-negative dot
// product with reference. Averaging sums must be built from canonicalised
// samples so that antipodal copies of one rotation reinforce.
func CanonicalizeSign(q, reference Quaternion) Quaternion {
	if q.Dot(reference) < 0 {
		return q.Neg()
	}
	return q
}

// Rotate applies R(q) to v. For an orientation quaternion this takes a
// sample-frame vector into crystal coordinates.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Matrix returns the 3x3 rotation matrix R(q), with R(q)·v == q.Rotate(v).
func (q Quaternion) Matrix() Matrix3 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return Matrix3{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// Angle returns the rotation angle of q in [0, π].
func (q Quaternion) Angle() float64 {
	w := math.Abs(q.Normalize().W)
	return 2 * math.Acos(math.Min(w, 1))
}

// IsUnit reports whether ‖q‖ is within tol of one.
func (q Quaternion) IsUnit(tol float64) bool {
	return math.Abs(q.Norm()-1) <= tol
}

// EqualRotation reports whether q and r describe the same rotation to
// within tol, accounting for the double cover.
func EqualRotation(q, r Quaternion, tol float64) bool {
	return 1-math.Abs(q.Normalize().Dot(r.Normalize())) <= tol
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%.6g, %.6g, %.6g, %.6g)", q.W, q.X, q.Y, q.Z)
}
