package sat

import (
	"errors"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrContradiction is returned when a constraint is trivially false under the unit
	// clauses already committed.
	ErrContradiction = errors.New("contradiction")

	// ErrSolverTimeout is returned when a bounded solve exceeds its deadline. It is distinct
	// from an unsatisfiable verdict.
	ErrSolverTimeout = errors.New("solver timeout")

	// ErrNoModel is returned when reading a model that no satisfiable solve produced.
	ErrNoModel = errors.New("no model available")

	ErrOutOfVariables = errors.New("out of variables")
)
