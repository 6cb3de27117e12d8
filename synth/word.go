package synth

import (
	"fmt"

	automaton "github.com/geange/fsasynth"
)

// CertainWord A word of fixed length whose symbols are chosen by the solver: one block of
// indicators per position, exactly one of which is set in a model. The epsilon is never
// chosen.
type CertainWord[S comparable] struct {
	enc        *FSAEncoding[S]
	characters [][]int // [pos][code]
}

func (e *FSAEncoding[S]) newCertainWord(c *constraints, length int) *CertainWord[S] {
	w := &CertainWord[S]{enc: e, characters: make([][]int, length)}
	for pos := range w.characters {
		possible := c.vars(e.alphabet.Size())
		c.falsy(possible[automaton.EpsilonCode])
		c.clause(possible...)
		w.characters[pos] = possible
	}
	return w
}

// makeWord Pins a certain word to the given symbols, skipping the epsilon.
func (e *FSAEncoding[S]) makeWord(c *constraints, word []S) (*CertainWord[S], error) {
	codes := make([]int, 0, len(word))
	for _, symbol := range word {
		code, ok := e.alphabet.Encode(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: symbol %v not in alphabet", automaton.ErrInvalidArgument, symbol)
		}
		if code != automaton.EpsilonCode {
			codes = append(codes, code)
		}
	}
	w := e.newCertainWord(c, len(codes))
	for pos, code := range codes {
		c.truthy(w.characters[pos][code])
	}
	return w, nil
}

func (w *CertainWord[S]) Len() int {
	return len(w.characters)
}

func (w *CertainWord[S]) Alphabet() *automaton.Alphabet[S] {
	return w.enc.alphabet
}

func (w *CertainWord[S]) code(pos int, symbol S) (int, error) {
	if pos < 0 || pos >= len(w.characters) {
		return 0, fmt.Errorf("%w: position %d of a word of length %d", automaton.ErrInvalidArgument, pos, len(w.characters))
	}
	code, ok := w.enc.alphabet.Encode(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: symbol %v not in alphabet", automaton.ErrInvalidArgument, symbol)
	}
	if code == automaton.EpsilonCode {
		return 0, fmt.Errorf("%w: epsilon symbol not allowed", automaton.ErrInvalidArgument)
	}
	return code, nil
}

// CharacterIndicator Returns the variable that is true when symbol is at pos.
func (w *CertainWord[S]) CharacterIndicator(pos int, symbol S) (int, error) {
	code, err := w.code(pos, symbol)
	if err != nil {
		return 0, err
	}
	return w.characters[pos][code], nil
}

func (w *CertainWord[S]) SetCharacterAt(pos int, symbol S) error {
	v, err := w.CharacterIndicator(pos, symbol)
	if err != nil {
		return err
	}
	return w.enc.solver.SetLiteralsTruthy(v)
}

// EnsureAcceptedBy Constrains the word to be accepted by the given automaton, which is
// determinized and completed first. Symbols the automaton does not know cannot occur.
func (w *CertainWord[S]) EnsureAcceptedBy(a *automaton.Automaton[S]) error {
	run, err := automaton.NewRunAutomaton(a)
	if err != nil {
		return err
	}

	c := w.enc.newConstraints()
	numStates := run.NumStates()
	steps := make([][]int, len(w.characters)+1)
	for pos := range steps {
		steps[pos] = c.vars(numStates)
		c.clause(steps[pos]...)
	}
	c.truthy(steps[0][run.Start()])

	for pos, possible := range w.characters {
		for qi := 0; qi < numStates; qi++ {
			takenQi := steps[pos][qi]
			for code := 1; code < len(possible); code++ {
				symbolHere := possible[code]
				runCode, ok := run.Alphabet().Encode(w.enc.alphabet.Decode(code))
				if !ok {
					c.clause(-takenQi, -symbolHere)
					continue
				}
				dest := run.Step(qi, runCode)
				for qj := 0; qj < numStates; qj++ {
					if qj != dest {
						c.clause(-takenQi, -steps[pos+1][qj], -symbolHere)
					}
				}
			}
		}
	}

	last := steps[len(w.characters)]
	for q := 0; q < numStates; q++ {
		if !run.IsAccept(q) {
			c.falsy(last[q])
		}
	}
	return c.err
}

// Resolve Decodes the word from the current model.
func (w *CertainWord[S]) Resolve() ([]S, error) {
	truthy, err := w.enc.solver.ModelTruthyVariables()
	if err != nil {
		return nil, err
	}
	word := make([]S, len(w.characters))
	for pos, possible := range w.characters {
		found := false
		for code, v := range possible {
			if truthy.Test(uint(v)) {
				word[pos] = w.enc.alphabet.Decode(code)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: no symbol at position %d", automaton.ErrStructuralInconsistency, pos)
		}
	}
	return word, nil
}

// prepareSteps Allocates one block of state indicators per read position, the first one
// being the start state.
func (e *FSAEncoding[S]) prepareSteps(c *constraints, length int) [][]int {
	steps := make([][]int, length+1)
	for pos := range steps {
		steps[pos] = c.vars(e.numStates)
	}
	return steps
}

func (e *FSAEncoding[S]) ensureAcceptingIf(c *constraints, activated int, w *CertainWord[S]) {
	steps := e.prepareSteps(c, w.Len())
	for _, step := range steps {
		c.clause(step...)
	}
	c.truthy(steps[0][startState])

	// the taken steps read the word
	for pos, possible := range w.characters {
		for qi := 0; qi < e.numStates; qi++ {
			takenQi := steps[pos][qi]
			for qj := 0; qj < e.numStates; qj++ {
				takenQj := steps[pos+1][qj]
				for code, symbolHere := range possible {
					arc := e.transitions[qi][code][qj]
					c.clauseIf(activated, -takenQi, -takenQj, -symbolHere, arc)
				}
			}
		}
	}

	// and end in an accept state
	last := steps[w.Len()]
	for q := 0; q < e.numStates; q++ {
		c.implicationIf(activated, last[q], e.accepts[q])
	}
}

// prepareFailures Defines failedAlready[i+1] <-> failAt[i] || failedAlready[i], with
// failedAlready[0] false.
func (e *FSAEncoding[S]) prepareFailures(c *constraints, length int) (failAt, failedAlready []int) {
	failAt = c.vars(length)
	failedAlready = c.vars(length + 1)
	for i, failsHere := range failAt {
		c.implication(failsHere, failedAlready[i+1])
		c.implication(failedAlready[i], failedAlready[i+1])
		c.clause(-failedAlready[i+1], failedAlready[i], failsHere)
	}
	c.falsy(failedAlready[0])
	return failAt, failedAlready
}

func (e *FSAEncoding[S]) ensureNotAcceptingIf(c *constraints, activated int, w *CertainWord[S]) {
	failAt, failedAlready := e.prepareFailures(c, w.Len())

	steps := e.prepareSteps(c, w.Len())
	for pos, step := range steps {
		c.clauseIf(-failedAlready[pos], step...)
	}
	c.truthy(steps[0][startState])

	// the run either follows the word or fails for lack of a transition
	for pos, possible := range w.characters {
		alreadyFailed := failedAlready[pos]
		failsHere := failAt[pos]
		for qi := 0; qi < e.numStates; qi++ {
			takenQi := steps[pos][qi]
			for qj := 0; qj < e.numStates; qj++ {
				takenQj := steps[pos+1][qj]
				for code, symbolHere := range possible {
					arc := e.transitions[qi][code][qj]
					c.clauseIf(activated, alreadyFailed, failsHere, -takenQi, -takenQj, -symbolHere, arc)
					c.clauseIf(activated, alreadyFailed, -failsHere, -takenQi, -symbolHere, -arc)
				}
			}
		}
	}

	// and does not end in an accept state
	failedBeforeEnd := failedAlready[w.Len()]
	last := steps[w.Len()]
	for q := 0; q < e.numStates; q++ {
		c.clauseIf(activated, failedBeforeEnd, -last[q], -e.accepts[q])
	}
}

// EnsureAccepting Constrains the automata to accept the word.
func (e *FSAEncoding[S]) EnsureAccepting(word []S) error {
	c := e.newConstraints()
	w, err := e.makeWord(c, word)
	if err != nil {
		return err
	}
	activated := c.vars(1)[0]
	e.ensureAcceptingIf(c, activated, w)
	c.truthy(activated)
	return c.err
}

// EnsureNoAccepting Constrains the automata to reject the word.
func (e *FSAEncoding[S]) EnsureNoAccepting(word []S) error {
	c := e.newConstraints()
	w, err := e.makeWord(c, word)
	if err != nil {
		return err
	}
	activated := c.vars(1)[0]
	e.ensureNotAcceptingIf(c, activated, w)
	c.truthy(activated)
	return c.err
}

// WhetherAcceptWord Ties the membership of the word to indicator: accepted when it is true,
// rejected when it is false.
func (e *FSAEncoding[S]) WhetherAcceptWord(indicator int, word []S) error {
	c := e.newConstraints()
	w, err := e.makeWord(c, word)
	if err != nil {
		return err
	}
	e.ensureAcceptingIf(c, indicator, w)
	e.ensureNotAcceptingIf(c, -indicator, w)
	return c.err
}

// EnsureAcceptingCertainWordIf Returns a word of the given length, with symbols left to the
// solver, that the automata accept when indicator is true.
func (e *FSAEncoding[S]) EnsureAcceptingCertainWordIf(indicator, length int) (*CertainWord[S], error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: word length %d", automaton.ErrInvalidArgument, length)
	}
	c := e.newConstraints()
	w := e.newCertainWord(c, length)
	e.ensureAcceptingIf(c, indicator, w)
	if c.err != nil {
		return nil, c.err
	}
	return w, nil
}
