package aggregate

import (
	"fmt"

	"github.com/banshee-data/texture.report/internal/rotation"
)

// Grain is a fixed set of elements and the orientation trajectory they
// average to. The trajectory only grows, one timestep at a time.
type Grain struct {
	id         int
	elements   []int
	start      int
	trajectory []rotation.EulerAngle
}

// NewGrain returns an empty-trajectory grain owning a copy of elements.
func NewGrain(id int, elements []int) *Grain {
	owned := make([]int, len(elements))
	copy(owned, elements)
	return &Grain{id: id, elements: owned}
}

func (g *Grain) ID() int { return g.id }

// Elements returns a copy of the owned element IDs.
func (g *Grain) Elements() []int {
	out := make([]int, len(g.elements))
	copy(out, g.elements)
	return out
}

// Start returns the timestep of the first trajectory entry.
func (g *Grain) Start() int { return g.start }

// Len returns the number of trajectory entries.
func (g *Grain) Len() int { return len(g.trajectory) }

// Trajectory returns a copy of the orientation sequence.
func (g *Grain) Trajectory() []rotation.EulerAngle {
	out := make([]rotation.EulerAngle, len(g.trajectory))
	copy(out, g.trajectory)
	return out
}

// Append adds the orientation for timestep. The first call fixes the start
// timestep; every later call must supply the next one.
func (g *Grain) Append(timestep int, e rotation.EulerAngle) error {
	if len(g.trajectory) == 0 {
		g.start = timestep
	} else if want := g.start + len(g.trajectory); timestep != want {
		return fmt.Errorf("%w: grain %d got timestep %d, want %d", ErrTrajectoryGap, g.id, timestep, want)
	}
	g.trajectory = append(g.trajectory, e)
	return nil
}
