package game

import "errors"

// ValidationError covers malformed, out-of-phase, or out-of-turn actions.
// The action is dropped without touching shared state; where useful the
// reason is relayed to the offending player only.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func rejection(reason string) error {
	return &ValidationError{Reason: reason}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// CapacityError rejects a join against a full or already-started session.
type CapacityError struct {
	Reason string
}

func (e *CapacityError) Error() string { return e.Reason }

// CompositionError rejects a start with an invalid role mix or duplicate
// survivor classes.
type CompositionError struct {
	Reason string
}

func (e *CompositionError) Error() string { return e.Reason }
