package sat

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Core The contract of an incremental CNF backend. Variables are positive ints allocated
// from 1 upwards, and a literal is a variable or its negation.
type Core interface {
	NumVariables() int
	NumClauses() int

	// NewFreeVariables Allocates n fresh variables and returns them in increasing order.
	NewFreeVariables(n int) ([]int, error)

	AddClause(literals ...int) error
	AddClauseAtLeast(degree int, literals ...int) error
	AddClauseAtMost(degree int, literals ...int) error

	// FindItSatisfiable Solves the constraints added so far. The verdict is kept until the
	// next constraint is added.
	FindItSatisfiable() (bool, error)

	// Model Returns the literal of every variable as assigned by the last satisfiable solve.
	Model() ([]int, error)
	ModelTruthyVariables() (*bitset.BitSet, error)
	ModelFalsyVariables() (*bitset.BitSet, error)

	// Reset Discards every variable, constraint and model.
	Reset()
}

// Solver Derives guarded, equivalence and ordering constraints from the clauses and
// cardinality constraints of a Core.
type Solver struct {
	Core
}

func NewSolver(core Core) *Solver {
	return &Solver{Core: core}
}

func (s *Solver) NewFreeVariable() (int, error) {
	vars, err := s.NewFreeVariables(1)
	if err != nil {
		return 0, err
	}
	return vars[0], nil
}

func (s *Solver) AddClauseExactly(degree int, literals ...int) error {
	if err := s.AddClauseAtLeast(degree, literals...); err != nil {
		return err
	}
	return s.AddClauseAtMost(degree, literals...)
}

// AddClauseIf Adds the clause so that it only has to hold when indicator is true.
func (s *Solver) AddClauseIf(indicator int, literals ...int) error {
	clause := make([]int, 0, len(literals)+1)
	clause = append(clause, literals...)
	clause = append(clause, -indicator)
	return s.AddClause(clause...)
}

// AddClauseAtLeastIf Pads the literals with degree slack variables that are all true
// exactly when indicator is false.
func (s *Solver) AddClauseAtLeastIf(indicator, degree int, literals ...int) error {
	if degree < 1 {
		return nil
	}
	padding, err := s.NewFreeVariables(degree)
	if err != nil {
		return err
	}
	if err := s.AddClauseAtLeast(degree, concat(literals, padding)...); err != nil {
		return err
	}
	return s.SyncLiterals(append(padding, -indicator)...)
}

// AddClauseAtMostIf Pads the literals with len(literals)-degree slack variables that are
// all true exactly when indicator is true.
func (s *Solver) AddClauseAtMostIf(indicator, degree int, literals ...int) error {
	if degree < 0 {
		return fmt.Errorf("%w: negative degree %d", ErrInvalidArgument, degree)
	}
	if len(literals) <= degree {
		return nil
	}
	padding, err := s.NewFreeVariables(len(literals) - degree)
	if err != nil {
		return err
	}
	if err := s.AddClauseAtMost(len(literals), concat(literals, padding)...); err != nil {
		return err
	}
	return s.SyncLiterals(append(padding, indicator)...)
}

func (s *Solver) AddClauseExactlyIf(indicator, degree int, literals ...int) error {
	if err := s.AddClauseAtLeastIf(indicator, degree, literals...); err != nil {
		return err
	}
	return s.AddClauseAtMostIf(indicator, degree, literals...)
}

// AddClauseBlocking Forbids the conjunction of the literals.
func (s *Solver) AddClauseBlocking(literals ...int) error {
	return s.AddClause(negated(literals)...)
}

func (s *Solver) AddClauseBlockingIf(indicator int, literals ...int) error {
	return s.AddClause(append(negated(literals), -indicator)...)
}

func (s *Solver) AddImplication(antecedent, consequent int) error {
	return s.AddClause(-antecedent, consequent)
}

func (s *Solver) AddImplicationIf(indicator, antecedent, consequent int) error {
	return s.AddClause(-indicator, -antecedent, consequent)
}

func (s *Solver) AddImplications(antecedent int, consequents ...int) error {
	for _, consequent := range consequents {
		if err := s.AddImplication(antecedent, consequent); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) AddImplicationsIf(indicator, antecedent int, consequents ...int) error {
	for _, consequent := range consequents {
		if err := s.AddImplicationIf(indicator, antecedent, consequent); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) MarkAsEquivalent(literal1, literal2 int) error {
	if err := s.AddClause(-literal1, literal2); err != nil {
		return err
	}
	return s.AddClause(literal1, -literal2)
}

// MarkEachAsEquivalent Chains the literals in a cycle of implications.
func (s *Solver) MarkEachAsEquivalent(literals ...int) error {
	if len(literals) < 2 {
		return nil
	}
	for i := 0; i < len(literals)-1; i++ {
		if err := s.AddClause(-literals[i], literals[i+1]); err != nil {
			return err
		}
	}
	return s.AddClause(-literals[len(literals)-1], literals[0])
}

func (s *Solver) SyncLiterals(literals ...int) error {
	return s.MarkEachAsEquivalent(literals...)
}

func (s *Solver) SetLiteralsTruthy(literals ...int) error {
	for _, literal := range literals {
		if err := s.AddClause(literal); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) SetLiteralsFalsy(literals ...int) error {
	for _, literal := range literals {
		if err := s.AddClause(-literal); err != nil {
			return err
		}
	}
	return nil
}

// FindModel Solves and returns the model, or nil if the constraints are unsatisfiable.
func (s *Solver) FindModel() ([]int, error) {
	ok, err := s.FindItSatisfiable()
	if err != nil || !ok {
		return nil, err
	}
	return s.Model()
}

// MarkAsGreaterEqualInBinary
// Constrains the bit vector upper to be greater than or equal to lower, reading both as
// unsigned binary numbers with the most significant digit first.
func (s *Solver) MarkAsGreaterEqualInBinary(upper, lower []int) error {
	if len(upper) == 0 || len(lower) == 0 {
		return fmt.Errorf("%w: zero length bit vector", ErrInvalidArgument)
	}

	delta := len(upper) - len(lower)
	common := min(len(upper), len(lower))
	greater, err := s.NewFreeVariables(common + 1)
	if err != nil {
		return err
	}

	if delta > 0 {
		// upper is greater already once its extra high digits hold any value
		high := upper[:delta]
		if err := s.AddClauseIf(greater[0], high...); err != nil {
			return err
		}
		for _, digit := range high {
			if err := s.AddImplication(digit, greater[0]); err != nil {
				return err
			}
		}
		return s.greaterEqualAtDigits(greater, upper[delta:], lower)
	}

	if err := s.SetLiteralsFalsy(greater[0]); err != nil {
		return err
	}
	if err := s.SetLiteralsFalsy(lower[:-delta]...); err != nil {
		return err
	}
	return s.greaterEqualAtDigits(greater, upper, lower[-delta:])
}

func (s *Solver) greaterEqualAtDigits(greater, upper, lower []int) error {
	for i := range upper {
		already, here := greater[i], greater[i+1]
		d1, d2 := upper[i], lower[i]
		clauses := [][]int{
			// not greater yet: the digits must not decrease
			{already, -d2, d1},
			// here <- already || (d1 && !d2)
			{-already, here},
			{-d1, d2, here},
			// here -> already || (d1 && !d2)
			{already, d1, -here},
			{already, -d2, -here},
		}
		for _, clause := range clauses {
			if err := s.AddClause(clause...); err != nil {
				return err
			}
		}
	}
	return nil
}

func concat(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func negated(literals []int) []int {
	out := make([]int, len(literals))
	for i, literal := range literals {
		out[i] = -literal
	}
	return out
}
