package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/texture.report/internal/monitoring"
	"github.com/banshee-data/texture.report/internal/rotation"
)

// Options controls GrainOrientationSeries.
type Options struct {
	// Reorient inverts every average, converting between the active and
	// passive conventions.
	Reorient bool
	// OffsetFirst adds π to φ1 at the first timestep only.
	OffsetFirst bool
	// Workers bounds the number of grains averaged concurrently. Values
	// below 2 run sequentially.
	Workers int
	// WeightField names the element scalar used as averaging weight. Empty
	// weights every element equally.
	WeightField string
	// Progress receives one step per finished grain. May be nil.
	Progress *monitoring.Progress
}

// Series maps a grain ID to its orientation at each timestep, in order.
type Series map[int][]rotation.EulerAngle

// GrainIDs returns the grain IDs in ascending order.
func (s Series) GrainIDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// GrainOrientationSeries averages every grain of membership at every
// snapshot. Snapshots may arrive in any order but their timesteps must be
// distinct and contiguous. A grain with no member present in some snapshot
// fails with ErrEmptyGrain.
//
// Grains are independent and are fanned out over opts.Workers goroutines;
// ctx is checked before each grain starts.
func GrainOrientationSeries(ctx context.Context, snapshots []Snapshot, membership Membership, opts Options) (Series, error) {
	steps, err := indexSnapshots(snapshots)
	if err != nil {
		return nil, err
	}

	ids := membership.GrainIDs()
	results := make([][]rotation.EulerAngle, len(ids))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trajectory, err := grainTrajectory(id, membership[id], steps, opts)
			if err != nil {
				return err
			}
			results[i] = trajectory
			opts.Progress.Step("grain %d: %d timesteps", id, len(trajectory))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series := make(Series, len(ids))
	for i, id := range ids {
		series[id] = results[i]
	}
	return series, nil
}

func grainTrajectory(id int, elements []int, steps []stepIndex, opts Options) ([]rotation.EulerAngle, error) {
	grain := NewGrain(id, elements)
	qs := make([]rotation.Quaternion, 0, len(elements))
	var ws []float64

	for pos, step := range steps {
		qs = qs[:0]
		ws = ws[:0]
		for _, sample := range step.members(elements) {
			qs = append(qs, sample.Orientation)
			if opts.WeightField != "" {
				w, err := sample.Field(opts.WeightField)
				if err != nil {
					return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, err)
				}
				ws = append(ws, w)
			}
		}

		var weights []float64
		if opts.WeightField != "" {
			weights = ws
		}
		avg, err := AverageOrientationWeighted(qs, weights)
		if err != nil {
			return nil, fmt.Errorf("aggregate: grain %d timestep %d: %w", id, step.timestep, err)
		}
		if opts.Reorient {
			avg = rotation.Invert(avg)
		}
		e := rotation.ToEuler(avg)
		if pos == 0 && opts.OffsetFirst {
			e.Phi1 += math.Pi
		}
		if err := grain.Append(step.timestep, e.Wrap()); err != nil {
			return nil, err
		}
	}
	return grain.Trajectory(), nil
}
