// Package family selects grains whose orientation puts a chosen crystal
// direction along a chosen sample axis, within an angular tolerance.
package family

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/symmetry"
	"github.com/banshee-data/texture.report/internal/units"
)

// exactMatch is the misorientation, in radians, treated as zero. arccos
// near 1 cannot resolve much below this.
const exactMatch = 1e-6

var (
	// ErrZeroSampleAxis is returned when the sample axis has no direction.
	ErrZeroSampleAxis = errors.New("family: zero sample axis")
	// ErrInvalidThreshold is returned for a negative or NaN threshold.
	ErrInvalidThreshold = errors.New("family: invalid threshold")
)

// Spec is a named family query.
type Spec struct {
	Name             string
	Plane            rotation.Vec3
	Direction        rotation.Vec3
	SampleAxis       rotation.Vec3
	ThresholdDegrees float64
	Lattice          string
}

// Classify runs the query against orientations.
func (s Spec) Classify(orientations []rotation.Orientation) ([]int, error) {
	lattice := s.Lattice
	if lattice == "" {
		lattice = string(symmetry.Cubic)
	}
	indices, err := Classify(orientations, s.Plane, s.Direction, s.SampleAxis, s.ThresholdDegrees, lattice)
	if err != nil && s.Name != "" {
		return nil, fmt.Errorf("family %q: %w", s.Name, err)
	}
	return indices, err
}

// Target returns the reference orientation of a family: the crystal frame
// with plane in the sample x-y plane and direction along sample x.
func Target(plane, direction rotation.Vec3) (rotation.Quaternion, error) {
	return symmetry.DirectionPairToOrientation(plane, direction)
}

// Classify returns the indices of the orientations that carry direction
// (in crystal coordinates, with plane as the accompanying normal) along
// sampleAxis to within thresholdDegrees, accounting for the lattice
// symmetry. Each orientation is first composed with the rotation taking
// sample x onto sampleAxis, then compared with Target(plane, direction).
//
// Indices follow input order. A threshold of zero keeps only orientations
// equivalent to the target up to floating-point error; 180° keeps all.
func Classify(orientations []rotation.Orientation, plane, direction, sampleAxis rotation.Vec3, thresholdDegrees float64, lattice string) ([]int, error) {
	if thresholdDegrees < 0 || math.IsNaN(thresholdDegrees) {
		return nil, fmt.Errorf("%w: %g°", ErrInvalidThreshold, thresholdDegrees)
	}
	group, err := symmetry.ForLattice(lattice)
	if err != nil {
		return nil, err
	}
	target, err := Target(plane, direction)
	if err != nil {
		return nil, err
	}
	toAxis, ok := rotation.RotationBetween(rotation.V(1, 0, 0), sampleAxis)
	if !ok {
		return nil, ErrZeroSampleAxis
	}

	threshold := units.DegreesToRadians(thresholdDegrees)
	all := thresholdDegrees >= 180
	indices := []int{}
	for i, o := range orientations {
		if all {
			indices = append(indices, i)
			continue
		}
		aligned := rotation.Compose(o.Quaternion().Normalize(), toAxis)
		angle := symmetry.Misorientation(aligned, target, group)
		if angle < threshold || angle <= exactMatch {
			indices = append(indices, i)
		}
	}
	return indices, nil
}
