package automaton

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrPreconditionViolation   = errors.New("precondition violation")
	ErrStructuralInconsistency = errors.New("structural inconsistency")

	// ErrNonexistentElement is returned when removing a node or arc that is not present.
	ErrNonexistentElement = fmt.Errorf("%w: nonexistent element", ErrStructuralInconsistency)

	// ErrNullArgument is returned for negative node or label handles.
	ErrNullArgument = fmt.Errorf("%w: null argument", ErrInvalidArgument)

	ErrUnsupportedOnDeterministic    = fmt.Errorf("%w: unsupported on deterministic instances", ErrPreconditionViolation)
	ErrUnsupportedOnNondeterministic = fmt.Errorf("%w: only available on deterministic instances", ErrPreconditionViolation)
)
