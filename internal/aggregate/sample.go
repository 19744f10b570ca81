package aggregate

import (
	"fmt"
	"sort"

	"github.com/banshee-data/texture.report/internal/rotation"
)

// ElementSample is one element's row in a snapshot.
type ElementSample struct {
	ElementID   int
	GrainID     int
	Orientation rotation.Quaternion
	// Fields holds optional scalars such as stress or volume.
	Fields map[string]float64
}

// Field returns the named scalar.
func (s ElementSample) Field(name string) (float64, error) {
	v, ok := s.Fields[name]
	if !ok {
		return 0, &UnknownFieldError{Field: name, ElementID: s.ElementID}
	}
	return v, nil
}

// Snapshot is every element sample recorded at one timestep.
type Snapshot struct {
	Timestep int
	Samples  []ElementSample
}

// Membership maps a grain ID to the IDs of the elements it owns, ascending.
type Membership map[int][]int

// MembershipFromSnapshot derives grain membership from one snapshot,
// normally the last and most complete one. Repeated element IDs are kept
// once.
func MembershipFromSnapshot(s Snapshot) Membership {
	seen := make(map[int]bool, len(s.Samples))
	m := make(Membership)
	for _, sample := range s.Samples {
		if seen[sample.ElementID] {
			continue
		}
		seen[sample.ElementID] = true
		m[sample.GrainID] = append(m[sample.GrainID], sample.ElementID)
	}
	for _, elements := range m {
		sort.Ints(elements)
	}
	return m
}

// GrainIDs returns the grain IDs in ascending order.
func (m Membership) GrainIDs() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Restrict returns the membership of the listed grains only. IDs with no
// entry in m are ignored.
func (m Membership) Restrict(ids []int) Membership {
	out := make(Membership, len(ids))
	for _, id := range ids {
		if elements, ok := m[id]; ok {
			out[id] = elements
		}
	}
	return out
}

// stepIndex is a snapshot keyed by element ID, for membership lookups.
// order lists the element IDs in first-seen row order.
type stepIndex struct {
	timestep  int
	byElement map[int]*ElementSample
	order     []int
}

// indexSnapshots orders snapshots by timestep and indexes their samples.
// Timesteps must be distinct and contiguous.
func indexSnapshots(snapshots []Snapshot) ([]stepIndex, error) {
	ordered := make([]Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestep < ordered[j].Timestep
	})

	steps := make([]stepIndex, len(ordered))
	for i := range ordered {
		s := &ordered[i]
		if i > 0 {
			prev := ordered[i-1].Timestep
			switch {
			case s.Timestep == prev:
				return nil, fmt.Errorf("%w: %d", ErrDuplicateTimestep, s.Timestep)
			case s.Timestep != prev+1:
				return nil, fmt.Errorf("%w: timestep %d follows %d", ErrTrajectoryGap, s.Timestep, prev)
			}
		}
		idx := stepIndex{timestep: s.Timestep, byElement: make(map[int]*ElementSample, len(s.Samples))}
		for j := range s.Samples {
			id := s.Samples[j].ElementID
			if _, seen := idx.byElement[id]; !seen {
				idx.order = append(idx.order, id)
			}
			idx.byElement[id] = &s.Samples[j]
		}
		steps[i] = idx
	}
	return steps, nil
}

// members returns the samples of the listed elements present in the step.
func (s stepIndex) members(elements []int) []*ElementSample {
	out := make([]*ElementSample, 0, len(elements))
	for _, id := range elements {
		if sample, ok := s.byElement[id]; ok {
			out = append(out, sample)
		}
	}
	return out
}
