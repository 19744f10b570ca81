package aggregate

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldAverages returns the mean of a scalar field over every element at
// each timestep, in timestep order. Every sample must carry the field.
// Values are summed in row order so repeated runs agree bit for bit.
func FieldAverages(snapshots []Snapshot, field string) ([]float64, error) {
	steps, err := indexSnapshots(snapshots)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(steps))
	for i, step := range steps {
		if len(step.byElement) == 0 {
			return nil, fmt.Errorf("aggregate: timestep %d: %w", step.timestep, ErrEmptyGrain)
		}
		values := make([]float64, 0, len(step.order))
		for _, id := range step.order {
			v, err := step.byElement[id].Field(field)
			if err != nil {
				return nil, fmt.Errorf("aggregate: timestep %d: %w", step.timestep, err)
			}
			values = append(values, v)
		}
		out[i] = stat.Mean(values, nil)
	}
	return out, nil
}

// GrainFieldSeries returns, per grain, the mean of a scalar field over the
// grain's elements at each timestep. A non-empty weightField weights the
// mean by that field; weights summing to zero fall back to equal weights.
func GrainFieldSeries(snapshots []Snapshot, membership Membership, field, weightField string) (map[int][]float64, error) {
	steps, err := indexSnapshots(snapshots)
	if err != nil {
		return nil, err
	}

	out := make(map[int][]float64, len(membership))
	for _, id := range membership.GrainIDs() {
		series := make([]float64, len(steps))
		for i, step := range steps {
			samples := step.members(membership[id])
			if len(samples) == 0 {
				return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, ErrEmptyGrain)
			}
			values := make([]float64, len(samples))
			var weights []float64
			if weightField != "" {
				weights = make([]float64, len(samples))
			}
			for j, sample := range samples {
				if values[j], err = sample.Field(field); err != nil {
					return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, err)
				}
				if weights != nil {
					if weights[j], err = sample.Field(weightField); err != nil {
						return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, err)
					}
				}
			}
			if weights != nil && floats.Sum(weights) == 0 {
				weights = nil
			}
			series[i] = stat.Mean(values, weights)
		}
		out[id] = series
	}
	return out, nil
}

// GrainFieldTotals returns, per grain, the sum of a scalar field over the
// grain's elements at each timestep, typically the grain volume. Elements
// are taken from membership, not from the grain IDs of each snapshot.
func GrainFieldTotals(snapshots []Snapshot, membership Membership, field string) (map[int][]float64, error) {
	steps, err := indexSnapshots(snapshots)
	if err != nil {
		return nil, err
	}

	out := make(map[int][]float64, len(membership))
	for _, id := range membership.GrainIDs() {
		totals := make([]float64, len(steps))
		for i, step := range steps {
			samples := step.members(membership[id])
			if len(samples) == 0 {
				return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, ErrEmptyGrain)
			}
			for _, sample := range samples {
				v, err := sample.Field(field)
				if err != nil {
					return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, err)
				}
				totals[i] += v
			}
		}
		out[id] = totals
	}
	return out, nil
}
