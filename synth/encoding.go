package synth

import (
	"fmt"
	"log/slog"

	automaton "github.com/geange/fsasynth"
	"github.com/geange/fsasynth/sat"
)

const startState = 0

type direction int

const (
	forward direction = iota
	backward
)

// FSAEncoding
// Encodes the deterministic automata of a bounded number of states over an alphabet as SAT
// constraints, so that structural and language constraints select automata from the solver's
// models. State 0 is the start state. Variable blocks:
//
//	transitions[src][code][dst]  the arc src -code-> dst exists
//	accepts[state]               the state is accepting
type FSAEncoding[S comparable] struct {
	solver    *sat.Solver
	numStates int
	alphabet  *automaton.Alphabet[S]
	logger    *slog.Logger

	transitions [][][]int
	accepts     []int

	noUnreachableStateEnsured bool
	noDeadEndStateEnsured     bool
}

type EncodingOption func(*encodingOptions)

type encodingOptions struct {
	logger *slog.Logger
}

func WithLogger(logger *slog.Logger) EncodingOption {
	return func(o *encodingOptions) {
		o.logger = logger
	}
}

// NewFSAEncoding Allocates the transition and accept indicators of automata with numStates
// states, and constrains them to be deterministic, to have some transition and some accept
// state, and to be ordered so that most isomorphic instances are ruled out.
func NewFSAEncoding[S comparable](solver *sat.Solver, numStates int, alphabet *automaton.Alphabet[S],
	opts ...EncodingOption) (*FSAEncoding[S], error) {
	if solver == nil || alphabet == nil {
		return nil, fmt.Errorf("%w: solver and alphabet are required", automaton.ErrNullArgument)
	}
	if numStates < 1 {
		return nil, fmt.Errorf("%w: %d states", automaton.ErrInvalidArgument, numStates)
	}
	options := encodingOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	e := &FSAEncoding[S]{
		solver:    solver,
		numStates: numStates,
		alphabet:  alphabet,
		logger:    options.logger,
	}
	c := e.newConstraints()
	e.prepareTransitionIndicators(c)
	e.prepareAcceptIndicators(c)
	e.ensureDeterminism(c)
	e.breakSymmetries(c)
	if c.err != nil {
		return nil, c.err
	}
	return e, nil
}

func (e *FSAEncoding[S]) NumStates() int {
	return e.numStates
}

func (e *FSAEncoding[S]) Alphabet() *automaton.Alphabet[S] {
	return e.alphabet
}

func (e *FSAEncoding[S]) Solver() *sat.Solver {
	return e.solver
}

func (e *FSAEncoding[S]) prepareTransitionIndicators(c *constraints) {
	k := e.alphabet.Size()
	e.transitions = make([][][]int, e.numStates)
	all := make([]int, 0, e.numStates*k*e.numStates)
	for src := range e.transitions {
		e.transitions[src] = make([][]int, k)
		for code := range e.transitions[src] {
			e.transitions[src][code] = c.vars(e.numStates)
			all = append(all, e.transitions[src][code]...)
		}
	}
	// at least one transition overall
	c.clause(all...)
}

func (e *FSAEncoding[S]) prepareAcceptIndicators(c *constraints) {
	e.accepts = c.vars(e.numStates)
	// at least one accept state
	c.clause(e.accepts...)
}

func (e *FSAEncoding[S]) ensureDeterminism(c *constraints) {
	for src := range e.transitions {
		c.falsy(e.transitions[src][automaton.EpsilonCode]...)
		for code := 1; code < e.alphabet.Size(); code++ {
			c.atMost(1, e.transitions[src][code]...)
		}
	}
}

// breakSymmetries Orders the non-start states by their (accept, self-loop per symbol) bit
// vectors, the accept flag being the most significant digit.
func (e *FSAEncoding[S]) breakSymmetries(c *constraints) {
	order := make([][]int, e.numStates-1)
	for i := range order {
		state := i + 1
		order[i] = make([]int, 0, e.alphabet.Size()+1)
		order[i] = append(order[i], e.accepts[state])
		for code := range e.transitions[state] {
			order[i] = append(order[i], e.transitions[state][code][state])
		}
	}
	for i := len(order) - 1; i > 0; i-- {
		c.greaterEqual(order[i], order[i-1])
	}
}

// prepareDistanceIndicators Allocates one block per state selecting exactly one distance
// in [0, n-1].
func (e *FSAEncoding[S]) prepareDistanceIndicators(c *constraints) [][]int {
	dist := make([][]int, e.numStates)
	for state := range dist {
		dist[state] = c.vars(e.numStates)
		c.exactly(1, dist[state]...)
	}
	return dist
}

// encodePossibleDistByTransIf
// When required holds, some transition must witness the distance of curr: an arc between
// prev and curr, in the given direction, with prev one step closer.
func (e *FSAEncoding[S]) encodePossibleDistByTransIf(c *constraints, required, curr int, dist [][]int, dir direction) {
	witnesses := make([]int, 0, e.numStates*e.alphabet.Size()*e.numStates)
	for prev := 0; prev < e.numStates; prev++ {
		for code := 0; code < e.alphabet.Size(); code++ {
			causes := c.vars(e.numStates)
			witnesses = append(witnesses, causes...)
			c.falsy(causes[0])
			for d := 1; d < e.numStates; d++ {
				arc := e.transitions[prev][code][curr]
				if dir == backward {
					arc = e.transitions[curr][code][prev]
				}
				prevCloser := dist[prev][d-1]
				currAtD := dist[curr][d]

				// causes[d] <-> arc && prevCloser && currAtD
				c.implications(causes[d], arc, prevCloser, currAtD)
				c.clause(-arc, -prevCloser, -currAtD, causes[d])
			}
		}
	}
	c.clauseIf(required, witnesses...)
}

// EnsureNoUnreachableState Every state must be reachable from the start state. Calling it
// again has no effect.
func (e *FSAEncoding[S]) EnsureNoUnreachableState() error {
	if e.noUnreachableStateEnsured {
		return nil
	}

	c := e.newConstraints()
	dist := e.prepareDistanceIndicators(c)
	c.truthy(dist[startState][0])
	notStart := c.vars(1)[0]
	c.truthy(notStart)
	for state := 1; state < e.numStates; state++ {
		c.falsy(dist[state][0])
		e.encodePossibleDistByTransIf(c, notStart, state, dist, forward)
	}
	if c.err != nil {
		return c.err
	}

	e.noUnreachableStateEnsured = true
	return nil
}

// EnsureNoDeadEndState Every state must reach some accept state. Calling it again has no
// effect.
func (e *FSAEncoding[S]) EnsureNoDeadEndState() error {
	if e.noDeadEndStateEnsured {
		return nil
	}

	c := e.newConstraints()
	dist := e.prepareDistanceIndicators(c)
	for state := 0; state < e.numStates; state++ {
		c.equivalent(e.accepts[state], dist[state][0])
		e.encodePossibleDistByTransIf(c, -e.accepts[state], state, dist, backward)
	}
	if c.err != nil {
		return c.err
	}

	e.noDeadEndStateEnsured = true
	return nil
}

// EnsureNoDanglingState Every state must be both reachable and co-reachable.
func (e *FSAEncoding[S]) EnsureNoDanglingState() error {
	if err := e.EnsureNoUnreachableState(); err != nil {
		return err
	}
	return e.EnsureNoDeadEndState()
}

// EnsureNoWordPurelyMadeOf Forbids accepting any non-empty word made of the given symbols
// only. The epsilon among the symbols is ignored and the empty word stays allowed.
func (e *FSAEncoding[S]) EnsureNoWordPurelyMadeOf(symbols []S) error {
	codes := make([]int, 0, len(symbols))
	for _, symbol := range symbols {
		code, ok := e.alphabet.Encode(symbol)
		if !ok {
			return fmt.Errorf("%w: symbol %v not in alphabet", automaton.ErrInvalidArgument, symbol)
		}
		if code != automaton.EpsilonCode {
			codes = append(codes, code)
		}
	}

	c := e.newConstraints()

	// pure[q]: q is reached by a word of the symbols; pure[n] stands for the start state
	// reached by a non-empty one.
	pure := c.vars(e.numStates + 1)
	c.truthy(pure[startState])
	backToStart := pure[e.numStates]
	for qi := 0; qi < e.numStates; qi++ {
		if qi == startState {
			c.implication(e.accepts[qi], -backToStart)
		} else {
			c.implication(e.accepts[qi], -pure[qi])
		}
		for qj := 0; qj < e.numStates; qj++ {
			reached := pure[qj]
			if qj == startState {
				reached = backToStart
			}
			for _, code := range codes {
				c.implicationIf(pure[qi], e.transitions[qi][code][qj], reached)
			}
		}
	}
	return c.err
}

// BlockCurrentInstance Forbids the structure of the automaton in the current model, so that
// the next solve yields a different one.
func (e *FSAEncoding[S]) BlockCurrentInstance() error {
	truthy, err := e.solver.ModelTruthyVariables()
	if err != nil {
		return err
	}
	track := make([]int, 0, len(e.accepts)*(1+e.alphabet.Size()*e.numStates))
	signed := func(v int) int {
		if truthy.Test(uint(v)) {
			return v
		}
		return -v
	}
	for _, v := range e.accepts {
		track = append(track, signed(v))
	}
	for src := range e.transitions {
		for code := range e.transitions[src] {
			for _, v := range e.transitions[src][code] {
				track = append(track, signed(v))
			}
		}
	}
	return e.solver.AddClauseBlocking(track...)
}

// Resolve
// Decodes the current model into an automaton with states s0..s{n-1}, s0 being the start
// state. Returns nil without error if the constraints are unsatisfiable.
func (e *FSAEncoding[S]) Resolve() (*automaton.Automaton[S], error) {
	ok, err := e.solver.FindItSatisfiable()
	if err != nil || !ok {
		return nil, err
	}
	truthy, err := e.solver.ModelTruthyVariables()
	if err != nil {
		return nil, err
	}

	b := automaton.NewBuilderV1(e.alphabet, e.numStates)
	for state := 0; state < e.numStates; state++ {
		b.AddNamedState(fmt.Sprintf("s%d", state))
	}
	for state, v := range e.accepts {
		if truthy.Test(uint(v)) {
			if err := b.SetAsAccept(state); err != nil {
				return nil, err
			}
		}
	}
	for src := range e.transitions {
		for code := range e.transitions[src] {
			for dst, v := range e.transitions[src][code] {
				if !truthy.Test(uint(v)) {
					continue
				}
				if err := b.AddTransition(src, dst, e.alphabet.Decode(code)); err != nil {
					return nil, err
				}
			}
		}
	}
	return b.Build()
}
