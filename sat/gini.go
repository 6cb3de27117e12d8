package sat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// DefaultMaxVariables The default ceiling on allocated variables.
const DefaultMaxVariables = 1_000_000

type giniOptions struct {
	timeout      time.Duration
	maxVariables int
	logger       *slog.Logger
}

type Option func(*giniOptions)

// WithTimeout Bounds every solve. A non-positive duration solves without a bound.
func WithTimeout(timeout time.Duration) Option {
	return func(o *giniOptions) {
		o.timeout = timeout
	}
}

func WithMaxVariables(n int) Option {
	return func(o *giniOptions) {
		o.maxVariables = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *giniOptions) {
		o.logger = logger
	}
}

type verdict int

const (
	unsolved verdict = iota
	satisfiable
	unsatisfiable
)

// Gini A Core over the gini solver. Every variable is an input of one logic circuit, which
// also hosts the sorting networks of cardinality constraints before they are lowered into
// clauses. Unit clauses are tracked so that later constraints are simplified against them.
// It is not safe for concurrent use.
type Gini struct {
	opts giniOptions

	g    *gini.Gini
	c    *logic.C
	lits []z.Lit // indexed by variable, lits[0] is unused

	truthy *bitset.BitSet
	falsy  *bitset.BitSet

	numClauses int
	verdict    verdict
	model      []int
}

func NewGini(opts ...Option) *Gini {
	o := giniOptions{maxVariables: DefaultMaxVariables}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	s := &Gini{opts: o}
	s.Reset()
	return s
}

func (s *Gini) Reset() {
	s.g = gini.New()
	s.c = logic.NewC()
	s.g.Add(s.c.T)
	s.g.Add(0)
	s.lits = []z.Lit{z.LitNull}
	s.truthy = bitset.New(0)
	s.falsy = bitset.New(0)
	s.numClauses = 0
	s.verdict = unsolved
	s.model = nil
}

func (s *Gini) NumVariables() int {
	return len(s.lits) - 1
}

func (s *Gini) NumClauses() int {
	return s.numClauses
}

func (s *Gini) NewFreeVariables(n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: cannot allocate %d variables", ErrInvalidArgument, n)
	}
	if s.NumVariables()+n > s.opts.maxVariables {
		return nil, fmt.Errorf("%w: %d allocated, %d requested, ceiling %d",
			ErrOutOfVariables, s.NumVariables(), n, s.opts.maxVariables)
	}
	vars := make([]int, n)
	for i := range vars {
		vars[i] = len(s.lits)
		s.lits = append(s.lits, s.c.Lit())
	}
	return vars, nil
}

func (s *Gini) lit(literal int) (z.Lit, error) {
	v := literal
	if v < 0 {
		v = -v
	}
	if v == 0 || v > s.NumVariables() {
		return z.LitNull, fmt.Errorf("%w: unknown literal %d", ErrInvalidArgument, literal)
	}
	if literal < 0 {
		return s.lits[v].Not(), nil
	}
	return s.lits[v], nil
}

func (s *Gini) valueOf(literal int) (assigned, value bool) {
	v := uint(literal)
	if literal < 0 {
		v = uint(-literal)
	}
	switch {
	case s.truthy.Test(v):
		return true, literal > 0
	case s.falsy.Test(v):
		return true, literal < 0
	}
	return false, false
}

// simplify Drops the literals falsified by unit clauses. The boolean is true if a literal
// is already satisfied, in which case the constraint holds trivially.
func (s *Gini) simplify(literals []int) ([]int, bool, error) {
	free := make([]int, 0, len(literals))
	for _, literal := range literals {
		if _, err := s.lit(literal); err != nil {
			return nil, false, err
		}
		assigned, value := s.valueOf(literal)
		if !assigned {
			free = append(free, literal)
			continue
		}
		if value {
			return nil, true, nil
		}
	}
	return free, false, nil
}

func (s *Gini) commit(literal int) {
	if literal > 0 {
		s.truthy.Set(uint(literal))
	} else {
		s.falsy.Set(uint(-literal))
	}
}

func (s *Gini) addRaw(literals ...int) {
	for _, literal := range literals {
		m, _ := s.lit(literal)
		s.g.Add(m)
	}
	s.g.Add(0)
	s.numClauses++
}

func (s *Gini) invalidate() {
	s.verdict = unsolved
	s.model = nil
}

// contradict Records an unsatisfiable constraint, so that every later solve reports it.
func (s *Gini) contradict(format string, args ...any) error {
	s.g.Add(s.c.F)
	s.g.Add(0)
	s.numClauses++
	return fmt.Errorf("%w: "+format, append([]any{ErrContradiction}, args...)...)
}

func (s *Gini) AddClause(literals ...int) error {
	s.invalidate()
	free, satisfied, err := s.simplify(literals)
	if err != nil || satisfied {
		return err
	}
	switch len(free) {
	case 0:
		return s.contradict("clause %v", literals)
	case 1:
		s.commit(free[0])
	}
	s.addRaw(free...)
	return nil
}

func (s *Gini) AddClauseAtLeast(degree int, literals ...int) error {
	s.invalidate()
	free, falsified, err := s.simplifyCardinality(literals)
	if err != nil {
		return err
	}
	degree -= len(literals) - len(free) - falsified
	switch {
	case degree <= 0:
		return nil
	case degree > len(free):
		return s.contradict("at least %d of %v", degree, literals)
	case degree == 1:
		return s.AddClause(free...)
	case degree == len(free):
		for _, literal := range free {
			s.commit(literal)
			s.addRaw(literal)
		}
		return nil
	}
	return s.addCardinality(free, func(cs *logic.CardSort) z.Lit { return cs.Geq(degree) })
}

func (s *Gini) AddClauseAtMost(degree int, literals ...int) error {
	s.invalidate()
	free, falsified, err := s.simplifyCardinality(literals)
	if err != nil {
		return err
	}
	degree -= len(literals) - len(free) - falsified
	switch {
	case degree < 0:
		return s.contradict("at most %d of %v", degree, literals)
	case len(free) <= degree:
		return nil
	case degree == 0:
		for _, literal := range free {
			s.commit(-literal)
			s.addRaw(-literal)
		}
		return nil
	case degree == 1:
		for i := 0; i < len(free); i++ {
			for j := i + 1; j < len(free); j++ {
				s.addRaw(-free[i], -free[j])
			}
		}
		return nil
	}
	return s.addCardinality(free, func(cs *logic.CardSort) z.Lit { return cs.Leq(degree) })
}

// simplifyCardinality Splits the literals into the unassigned ones and the number of
// literals falsified by unit clauses. The literals satisfied by unit clauses are the rest.
func (s *Gini) simplifyCardinality(literals []int) (free []int, falsified int, err error) {
	free = make([]int, 0, len(literals))
	for _, literal := range literals {
		if _, err := s.lit(literal); err != nil {
			return nil, 0, err
		}
		assigned, value := s.valueOf(literal)
		switch {
		case !assigned:
			free = append(free, literal)
		case !value:
			falsified++
		}
	}
	return free, falsified, nil
}

func (s *Gini) addCardinality(literals []int, bound func(*logic.CardSort) z.Lit) error {
	ms := make([]z.Lit, len(literals))
	for i, literal := range literals {
		ms[i], _ = s.lit(literal)
	}
	root := bound(s.c.CardSort(ms))
	s.c.ToCnfFrom(s.g, root)
	s.g.Add(root)
	s.g.Add(0)
	s.numClauses++
	return nil
}

func (s *Gini) FindItSatisfiable() (bool, error) {
	switch s.verdict {
	case satisfiable:
		return true, nil
	case unsatisfiable:
		return false, nil
	}

	start := time.Now()
	var result int
	if s.opts.timeout > 0 {
		result = s.g.Try(s.opts.timeout)
	} else {
		result = s.g.Solve()
	}
	elapsed := time.Since(start)

	switch result {
	case 1:
		s.opts.logger.Debug("found a solution", "variables", s.NumVariables(), "clauses", s.numClauses, "elapsed", elapsed)
		s.verdict = satisfiable
		s.model = s.readModel()
		return true, nil
	case -1:
		s.opts.logger.Debug("found it unsatisfiable", "variables", s.NumVariables(), "clauses", s.numClauses, "elapsed", elapsed)
		s.verdict = unsatisfiable
		return false, nil
	}
	s.opts.logger.Warn("failed to solve in time", "timeout", s.opts.timeout, "elapsed", elapsed)
	return false, fmt.Errorf("%w: gave up after %s", ErrSolverTimeout, elapsed)
}

func (s *Gini) readModel() []int {
	maxVar := s.g.MaxVar()
	model := make([]int, s.NumVariables())
	for v := 1; v <= s.NumVariables(); v++ {
		m := s.lits[v]
		model[v-1] = -v
		if m.Var() <= maxVar && s.g.Value(m) {
			model[v-1] = v
		}
	}
	return model
}

func (s *Gini) Model() ([]int, error) {
	if s.verdict != satisfiable {
		return nil, ErrNoModel
	}
	model := make([]int, len(s.model))
	copy(model, s.model)
	return model, nil
}

func (s *Gini) ModelTruthyVariables() (*bitset.BitSet, error) {
	return s.modelVariables(true)
}

func (s *Gini) ModelFalsyVariables() (*bitset.BitSet, error) {
	return s.modelVariables(false)
}

func (s *Gini) modelVariables(truthy bool) (*bitset.BitSet, error) {
	if s.verdict != satisfiable {
		return nil, ErrNoModel
	}
	vars := bitset.New(uint(len(s.model) + 1))
	for _, literal := range s.model {
		if (literal > 0) == truthy {
			v := literal
			if v < 0 {
				v = -v
			}
			vars.Set(uint(v))
		}
	}
	return vars, nil
}
