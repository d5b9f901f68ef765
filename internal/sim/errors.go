package sim

import (
	"errors"
	"fmt"
)

// ErrNonFinite indicates a block whose state went NaN or Inf.
var ErrNonFinite = errors.New("sim: non-finite block state")

// StateError wraps an error with the substep it was detected after.
type StateError struct {
	Substep uint64
	MaxX    float64
	Wrapped error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v (after substep %d)", e.Wrapped, e.Substep)
}

func (e *StateError) Unwrap() error {
	return e.Wrapped
}
