package aggregate

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGrain is returned when an average is requested over no samples.
	ErrEmptyGrain = errors.New("aggregate: no samples to average")
	// ErrUnknownField is matched by *UnknownFieldError.
	ErrUnknownField = errors.New("aggregate: unknown field")
	// ErrDuplicateTimestep is returned when two snapshots share a timestep.
	ErrDuplicateTimestep = errors.New("aggregate: duplicate timestep")
	// ErrTrajectoryGap is returned when a trajectory would skip a timestep.
	ErrTrajectoryGap = errors.New("aggregate: trajectory gap")
	// ErrInvalidWeight is returned for negative or non-finite weights.
	ErrInvalidWeight = errors.New("aggregate: invalid weight")
	// ErrInvalidOrientation is returned for a zero or non-finite quaternion.
	ErrInvalidOrientation = errors.New("aggregate: invalid orientation")
)

// UnknownFieldError reports a scalar field missing from an element sample.
type UnknownFieldError struct {
	Field     string
	ElementID int
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("aggregate: element %d has no field %q", e.ElementID, e.Field)
}

func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}
