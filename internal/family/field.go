package family

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyFamily is returned when averaging over no grains.
	ErrEmptyFamily = errors.New("family: no grains")
	// ErrMissingSeries is returned when a member grain has no series.
	ErrMissingSeries = errors.New("family: missing grain series")
)

// AverageField returns the per-timestep mean of a per-grain scalar series
// over the member grains. weights holds a per-grain, per-timestep series
// such as grain volume; at each timestep where the members' weights total
// a positive value the mean is weighted by them, otherwise every grain
// counts once. A member with no weight series weighs zero. All member
// series must have the same length.
func AverageField(series, weights map[int][]float64, members []int) ([]float64, error) {
	if len(members) == 0 {
		return nil, ErrEmptyFamily
	}
	n := -1
	for _, id := range members {
		s, ok := series[id]
		if !ok {
			return nil, fmt.Errorf("%w: grain %d", ErrMissingSeries, id)
		}
		if n >= 0 && len(s) != n {
			return nil, fmt.Errorf("family: grain %d has %d timesteps, want %d", id, len(s), n)
		}
		n = len(s)
	}
	for _, id := range members {
		if w, ok := weights[id]; ok && len(w) != n {
			return nil, fmt.Errorf("family: grain %d has %d weights, want %d", id, len(w), n)
		}
	}

	out := make([]float64, n)
	column := make([]float64, len(members))
	w := make([]float64, len(members))
	for t := 0; t < n; t++ {
		for i, id := range members {
			column[i] = series[id][t]
			w[i] = 0
			if ws, ok := weights[id]; ok {
				w[i] = ws[t]
			}
		}
		if weights != nil && floats.Sum(w) > 0 {
			out[t] = stat.Mean(column, w)
		} else {
			out[t] = stat.Mean(column, nil)
		}
	}
	return out, nil
}
