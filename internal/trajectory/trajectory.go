// Package trajectory assembles per-grain orientation sequences for
// comparison and plotting, and converts them to and from the g{id}_*
// column layout used by the summary tables.
package trajectory

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/texture.report/internal/aggregate"
	"github.com/banshee-data/texture.report/internal/rotation"
)

// ErrUnknownGrain is returned when a grain has no trajectory.
var ErrUnknownGrain = errors.New("trajectory: unknown grain")

// DeduplicateConsecutive drops every element equal to its immediate
// predecessor, keeping the first of each run. The input is not modified.
func DeduplicateConsecutive[T comparable](seq []T) []T {
	out := make([]T, 0, len(seq))
	for i, v := range seq {
		if i > 0 && v == seq[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DeduplicateConsecutiveWithin is DeduplicateConsecutive with Euler angles
// compared component-wise to within tol, absolute or relative. A tol of
// zero is exact comparison.
func DeduplicateConsecutiveWithin(seq []rotation.EulerAngle, tol float64) []rotation.EulerAngle {
	if tol <= 0 {
		return DeduplicateConsecutive(seq)
	}
	out := make([]rotation.EulerAngle, 0, len(seq))
	for i, e := range seq {
		if i > 0 {
			a, b := e.Components(), seq[i-1].Components()
			if floats.EqualApprox(a[:], b[:], tol) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// Build returns the deduplicated trajectory of one grain. It does not
// modify series.
func Build(series aggregate.Series, grainID int) ([]rotation.EulerAngle, error) {
	seq, ok := series[grainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGrain, grainID)
	}
	return DeduplicateConsecutive(seq), nil
}

// BuildAll builds the trajectory of every listed grain, or of every grain
// in series when grainIDs is nil.
func BuildAll(series aggregate.Series, grainIDs []int) (map[int][]rotation.EulerAngle, error) {
	if grainIDs == nil {
		grainIDs = series.GrainIDs()
	}
	out := make(map[int][]rotation.EulerAngle, len(grainIDs))
	for _, id := range grainIDs {
		seq, err := Build(series, id)
		if err != nil {
			return nil, err
		}
		out[id] = seq
	}
	return out, nil
}

// Initial returns the first orientation of each listed grain, in order.
// Grains with an empty trajectory are reported as unknown.
func Initial(trajectories map[int][]rotation.EulerAngle, grainIDs []int) ([]rotation.Orientation, error) {
	out := make([]rotation.Orientation, len(grainIDs))
	for i, id := range grainIDs {
		seq := trajectories[id]
		if len(seq) == 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnknownGrain, id)
		}
		out[i] = seq[0]
	}
	return out, nil
}
