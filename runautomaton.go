package automaton

import (
	"github.com/bits-and-blooms/bitset"
)

// RunAutomaton A deterministic complete automaton compiled into a dense transition table, for
// repeated membership tests.
type RunAutomaton[S comparable] struct {
	alphabet    *Alphabet[S]
	numStates   int
	numSymbols  int
	start       int
	accept      *bitset.BitSet
	transitions []int
}

// NewRunAutomaton Determinizes and completes a, then tabulates its transitions.
func NewRunAutomaton[S comparable](a *Automaton[S]) (*RunAutomaton[S], error) {
	d, err := Determinize(a)
	if err != nil {
		return nil, err
	}
	c, err := Complete(d)
	if err != nil {
		return nil, err
	}

	numSymbols := c.alphabet.Size()
	transitions := make([]int, c.NumStates()*numSymbols)
	for s := 0; s < c.NumStates(); s++ {
		for code := 0; code < numSymbols; code++ {
			transitions[s*numSymbols+code] = c.graph.step(s, code)
		}
	}

	return &RunAutomaton[S]{
		alphabet:    c.alphabet,
		numStates:   c.NumStates(),
		numSymbols:  numSymbols,
		start:       c.start,
		accept:      c.AcceptStates(),
		transitions: transitions,
	}, nil
}

func (r *RunAutomaton[S]) Alphabet() *Alphabet[S] {
	return r.alphabet
}

func (r *RunAutomaton[S]) NumStates() int {
	return r.numStates
}

func (r *RunAutomaton[S]) Start() int {
	return r.start
}

func (r *RunAutomaton[S]) IsAccept(state int) bool {
	return state >= 0 && r.accept.Test(uint(state))
}

// Step Returns the state obtained by reading the symbol code from state, or -1 for the epsilon
// code.
func (r *RunAutomaton[S]) Step(state, code int) int {
	return r.transitions[state*r.numSymbols+code]
}

// Run Returns true if the given word is accepted by this automaton
func (r *RunAutomaton[S]) Run(word []S) (bool, error) {
	codes, err := r.alphabet.encodeWord(word)
	if err != nil {
		return false, err
	}
	p := r.start
	for _, code := range codes {
		p = r.Step(p, code)
	}
	return r.IsAccept(p), nil
}
