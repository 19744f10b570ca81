package symmetry

import (
	"fmt"

	"github.com/banshee-data/texture.report/internal/rotation"
)

// frameEpsilon is the minimum |n̂ × b̂| for a usable plane/direction pair.
const frameEpsilon = 1e-9

// DegenerateFrameError is returned when a plane and direction cannot span
// a crystal frame.
type DegenerateFrameError struct {
	Plane     rotation.Vec3
	Direction rotation.Vec3
	Reason    string
}

func (e *DegenerateFrameError) Error() string {
	return fmt.Sprintf("symmetry: degenerate frame for plane %v direction %v: %s",
		e.Plane.Slice(), e.Direction.Slice(), e.Reason)
}

func (e *DegenerateFrameError) Is(target error) bool {
	return target == ErrDegenerateFrame
}

// DirectionPairToOrientation returns the orientation of a crystal whose
// plane (hkl) lies in the sample x-y plane with direction [uvw] along
// sample x. The orientation matrix has columns {b̂, n̂×b̂, n̂}: the sample
// axes in crystal coordinates, right-handed.
//
// A direction that is not perpendicular to the plane normal is projected
// onto the plane first so the frame stays orthonormal.
func DirectionPairToOrientation(plane, direction rotation.Vec3) (rotation.Quaternion, error) {
	n, ok := plane.Unit()
	if !ok {
		return rotation.Identity(), &DegenerateFrameError{Plane: plane, Direction: direction, Reason: "zero plane normal"}
	}
	d, ok := direction.Unit()
	if !ok {
		return rotation.Identity(), &DegenerateFrameError{Plane: plane, Direction: direction, Reason: "zero direction"}
	}
	if n.Cross(d).Norm() < frameEpsilon {
		return rotation.Identity(), &DegenerateFrameError{Plane: plane, Direction: direction, Reason: "plane normal parallel to direction"}
	}

	b, _ := d.Sub(n.Scale(d.Dot(n))).Unit()
	t := n.Cross(b)
	return rotation.FromMatrix(rotation.MatrixFromColumns(b, t, n)), nil
}
