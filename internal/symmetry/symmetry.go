// Package symmetry encodes crystal lattice symmetry and the
// symmetry-aware angular distance between two orientations.
//
// Groups are immutable after construction and safe for concurrent use.
package symmetry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/texture.report/internal/rotation"
)

// Lattice names a lattice family.
type Lattice string

// Cubic is the only lattice family implemented.
const Cubic Lattice = "cubic"

var (
	// ErrUnsupportedLattice is matched by *UnsupportedLatticeError.
	ErrUnsupportedLattice = errors.New("symmetry: unsupported lattice")
	// ErrDegenerateFrame is matched by *DegenerateFrameError.
	ErrDegenerateFrame = errors.New("symmetry: degenerate crystal frame")
)

// UnsupportedLatticeError is returned for a lattice family with no group.
type UnsupportedLatticeError struct {
	Lattice string
}

func (e *UnsupportedLatticeError) Error() string {
	return fmt.Sprintf("symmetry: unsupported lattice %q", e.Lattice)
}

func (e *UnsupportedLatticeError) Is(target error) bool {
	return target == ErrUnsupportedLattice
}

// Group is an immutable set of proper rotations under which a lattice is
// indistinguishable from itself.
type Group struct {
	lattice   Lattice
	operators []rotation.Quaternion
}

// Lattice returns the lattice family the group belongs to.
func (g *Group) Lattice() Lattice { return g.lattice }

// Len returns the number of operators.
func (g *Group) Len() int { return len(g.operators) }

// Operators returns a copy of the group's rotation operators.
func (g *Group) Operators() []rotation.Quaternion {
	out := make([]rotation.Quaternion, len(g.operators))
	copy(out, g.operators)
	return out
}

// cubicGroup is built once; the group is read-only afterwards.
var cubicGroup = newCubicGroup()

// ForLattice returns the symmetry group of the named lattice family. Names
// are matched case-insensitively.
func ForLattice(name string) (*Group, error) {
	switch Lattice(strings.ToLower(strings.TrimSpace(name))) {
	case Cubic:
		return cubicGroup, nil
	default:
		return nil, &UnsupportedLatticeError{Lattice: name}
	}
}

// CubicGroup returns the 24-operator cubic rotation group.
func CubicGroup() *Group { return cubicGroup }

// newCubicGroup enumerates the signed permutation matrices with
// determinant +1: the rotation group of the cube.
func newCubicGroup() *Group {
	perms := [6][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2},
		{1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	g := &Group{lattice: Cubic}
	for _, p := range perms {
		for signs := 0; signs < 8; signs++ {
			var m rotation.Matrix3
			for row := 0; row < 3; row++ {
				s := 1.0
				if signs&(1<<row) != 0 {
					s = -1
				}
				m[row][p[row]] = s
			}
			if m.Det() < 0 {
				continue
			}
			g.operators = append(g.operators, rotation.FromMatrix(m))
		}
	}
	return g
}

// Misorientation returns the smallest rotation angle, in radians, between
// a and every symmetric equivalent op∘b of b. The result is symmetric in a
// and b and unchanged by composing either input with an operator of g.
func Misorientation(a, b rotation.Orientation, g *Group) float64 {
	qa := a.Quaternion().Normalize()
	qb := b.Quaternion().Normalize()
	best := math.Pi
	for _, op := range g.operators {
		d := math.Abs(qa.Dot(rotation.Compose(op, qb)))
		angle := 2 * math.Acos(clamp(d, -1, 1))
		if angle < best {
			best = angle
		}
	}
	return best
}

// MisorientationFor resolves the lattice by name before calling
// Misorientation.
func MisorientationFor(a, b rotation.Orientation, lattice string) (float64, error) {
	g, err := ForLattice(lattice)
	if err != nil {
		return 0, err
	}
	return Misorientation(a, b, g), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
