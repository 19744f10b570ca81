package rotation

import "math"

// parallelEpsilon is the margin above -1 at which u·v counts as antiparallel.
const parallelEpsilon = 1e-12

// Vec3 is a 3-vector. Miller indices are carried as Vec3 too; they need
// not be unit length.
type Vec3 struct {
	X, Y, Z float64
}

// V returns the vector (x, y, z).
func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// VecFromSlice builds a Vec3 from the first three elements of s. It
// reports false when s is too short.
func VecFromSlice(s []float64) (Vec3, bool) {
	if len(s) < 3 {
		return Vec3{}, false
	}
	return Vec3{s[0], s[1], s[2]}, true
}

// Add returns v + u.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{v.X + u.X, v.Y + u.Y, v.Z + u.Z}
}

// Sub returns v - u.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{v.X - u.X, v.Y - u.Y, v.Z - u.Z}
}

// Scale returns k·v.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// Dot returns v · u.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Slice returns the components as a slice.
func (v Vec3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// IsZero reports whether every component is exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Approx reports whether v and u agree component-wise within tol.
func (v Vec3) Approx(u Vec3, tol float64) bool {
	return math.Abs(v.X-u.X) <= tol && math.Abs(v.Y-u.Y) <= tol && math.Abs(v.Z-u.Z) <= tol
}

// Cross returns v × u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return Vec3{
		v.Y*u.Z - v.Z*u.Y,
		v.Z*u.X - v.X*u.Z,
		v.X*u.Y - v.Y*u.X,
	}
}

// Unit returns v scaled to unit length, or false for the zero vector.
func (v Vec3) Unit() (Vec3, bool) {
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [3][3]float64

// MatrixFromColumns builds the matrix whose columns are a, b and c.
func MatrixFromColumns(a, b, c Vec3) Matrix3 {
	return Matrix3{
		{a.X, b.X, c.X},
		{a.Y, b.Y, c.Y},
		{a.Z, b.Z, c.Z},
	}
}

// Col returns column i.
func (m Matrix3) Col(i int) Vec3 {
	return Vec3{m[0][i], m[1][i], m[2][i]}
}

// MulVec returns m·v.
func (m Matrix3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns mᵀ.
func (m Matrix3) Transpose() Matrix3 {
	var t Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// Det returns the determinant of m.
func (m Matrix3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// IsRotation reports whether m is orthonormal with determinant +1 to
// within tol.
func (m Matrix3) IsRotation(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := m.Col(i).Dot(m.Col(j))
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(d-want) > tol {
				return false
			}
		}
	}
	return math.Abs(m.Det()-1) <= tol
}

// FromMatrix returns the unit quaternion q with q.Matrix() == m, using
// Shepperd's branch on the largest diagonal term. m must be a proper
// rotation. The result has W >= 0.
func FromMatrix(m Matrix3) Quaternion {
	var q Quaternion
	trace := m[0][0] + m[1][1] + m[2][2]
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1)
		q = Quaternion{
			W: s / 4,
			X: (m[2][1] - m[1][2]) / s,
			Y: (m[0][2] - m[2][0]) / s,
			Z: (m[1][0] - m[0][1]) / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := 2 * math.Sqrt(1+m[0][0]-m[1][1]-m[2][2])
		q = Quaternion{
			W: (m[2][1] - m[1][2]) / s,
			X: s / 4,
			Y: (m[0][1] + m[1][0]) / s,
			Z: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := 2 * math.Sqrt(1+m[1][1]-m[0][0]-m[2][2])
		q = Quaternion{
			W: (m[0][2] - m[2][0]) / s,
			X: (m[0][1] + m[1][0]) / s,
			Y: s / 4,
			Z: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m[2][2]-m[0][0]-m[1][1])
		q = Quaternion{
			W: (m[1][0] - m[0][1]) / s,
			X: (m[0][2] + m[2][0]) / s,
			Y: (m[1][2] + m[2][1]) / s,
			Z: s / 4,
		}
	}
	q = q.Normalize()
	if q.W < 0 {
		q = q.Neg()
	}
	return q
}

// RotationBetween returns the shortest rotation q with q.Rotate(û) == v̂.
// It reports false if either vector is zero. Antiparallel inputs get a
// half turn about an arbitrary perpendicular axis.
func RotationBetween(u, v Vec3) (Quaternion, bool) {
	un, ok := u.Unit()
	if !ok {
		return Identity(), false
	}
	vn, ok := v.Unit()
	if !ok {
		return Identity(), false
	}
	d := un.Dot(vn)
	if d < -1+parallelEpsilon {
		axis := un.Cross(Vec3{X: 1})
		if axis.Norm() < 1e-6 {
			axis = un.Cross(Vec3{Y: 1})
		}
		return FromAxisAngle(axis, math.Pi), true
	}
	c := un.Cross(vn)
	return Quaternion{W: 1 + d, X: c.X, Y: c.Y, Z: c.Z}.Normalize(), true
}
