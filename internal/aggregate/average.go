package aggregate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/texture.report/internal/rotation"
)

// AverageOrientation returns the equal-weight attitude average of samples:
// the principal eigenvector of Σ qᵢqᵢᵀ. The result minimises the summed
// squared chordal distance to the samples, does not depend on their order
// or signs, and is returned on the same sheet as the first sample.
func AverageOrientation(samples []rotation.Quaternion) (rotation.Quaternion, error) {
	return AverageOrientationWeighted(samples, nil)
}

// AverageOrientationWeighted is AverageOrientation with per-sample weights,
// typically element volumes. A nil slice, or weights summing to zero,
// weights every sample equally. Samples must be finite and non-zero.
func AverageOrientationWeighted(samples []rotation.Quaternion, weights []float64) (rotation.Quaternion, error) {
	if len(samples) == 0 {
		return rotation.Quaternion{}, ErrEmptyGrain
	}
	if weights != nil {
		if len(weights) != len(samples) {
			return rotation.Quaternion{}, fmt.Errorf("%w: %d weights for %d samples", ErrInvalidWeight, len(weights), len(samples))
		}
		for i, w := range weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return rotation.Quaternion{}, fmt.Errorf("%w: weight %d is %g", ErrInvalidWeight, i, w)
			}
		}
		if floats.Sum(weights) == 0 {
			weights = nil
		}
	}

	for i, q := range samples {
		if !q.IsValid() {
			return rotation.Quaternion{}, fmt.Errorf("%w: sample %d is %v", ErrInvalidOrientation, i, q.Components())
		}
	}

	ref := samples[0].Normalize()
	qs := make([]rotation.Quaternion, len(samples))
	for i, q := range samples {
		qs[i] = rotation.CanonicalizeSign(q.Normalize(), ref)
	}
	avg, _ := rotation.PrincipalEigenvector(rotation.OuterSum(qs, weights))
	return rotation.CanonicalizeSign(avg, ref), nil
}

