package automaton

import (
	"fmt"
	"iter"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Transition A transition of an automaton, decoded to its symbol.
type Transition[S comparable] struct {
	Source, Dest int
	Symbol       S
}

// Automaton Represents a finite-state automaton over an alphabet. States are the integers
// 0..NumStates()-1; exactly one of them is the start state. Transitions live in a
// TransitionGraph labeled with the alphabet's symbol codes. An Automaton is never modified once
// built: algebra operations return new automata, so automata can be shared freely.
type Automaton[S comparable] struct {
	alphabet *Alphabet[S]
	graph    *TransitionGraph
	start    int
	isAccept *bitset.BitSet
	names    []string

	// True if no state has an epsilon transition or two transitions leaving with the same symbol.
	deterministic bool
}

// Builder Incrementally creates an automaton. State handles returned by AddState stay valid until
// Build, which renumbers the surviving states densely in creation order.
type Builder[S comparable] struct {
	alphabet *Alphabet[S]
	graph    *TransitionGraph
	start    int
	isAccept *bitset.BitSet
	names    []string
}

func NewBuilder[S comparable](alphabet *Alphabet[S]) *Builder[S] {
	return NewBuilderV1(alphabet, 2)
}

// NewBuilderV1 Creates a builder sized for about numStates states.
func NewBuilderV1[S comparable](alphabet *Alphabet[S], numStates int) *Builder[S] {
	return &Builder[S]{
		alphabet: alphabet,
		graph:    NewTransitionGraph(numStates),
		start:    -1,
		isAccept: bitset.New(uint(numStates)),
		names:    make([]string, 0, numStates),
	}
}

func (b *Builder[S]) Alphabet() *Alphabet[S] {
	return b.alphabet
}

// AddState Create a new state. The first state created is the start state unless SetAsStart
// picks another one.
func (b *Builder[S]) AddState() int {
	return b.AddNamedState("")
}

// AddNamedState Create a new state carrying a display name.
func (b *Builder[S]) AddNamedState(name string) int {
	state := b.graph.AddNode()
	b.names = append(b.names, name)
	if b.start == -1 {
		b.start = state
	}
	return state
}

// NumStates Number of live states.
func (b *Builder[S]) NumStates() int {
	return int(b.graph.live.Count())
}

func (b *Builder[S]) checkState(state int) error {
	if !b.graph.HasNode(state) {
		return fmt.Errorf("%w: state %d not owned by this automaton", ErrStructuralInconsistency, state)
	}
	return nil
}

func (b *Builder[S]) encode(symbol S) (int, error) {
	code, ok := b.alphabet.Encode(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: symbol %v not in alphabet", ErrStructuralInconsistency, symbol)
	}
	return code, nil
}

// RemoveState Removes a state and every transition touching it. Removing the start state
// leaves the builder without one until SetAsStart is called again.
func (b *Builder[S]) RemoveState(state int) error {
	if err := b.graph.RemoveNode(state); err != nil {
		return err
	}
	b.isAccept.Clear(uint(state))
	if b.start == state {
		b.start = -1
	}
	return nil
}

func (b *Builder[S]) SetAsStart(state int) error {
	if err := b.checkState(state); err != nil {
		return err
	}
	b.start = state
	return nil
}

func (b *Builder[S]) SetAsAccept(state int) error {
	if err := b.checkState(state); err != nil {
		return err
	}
	b.isAccept.Set(uint(state))
	return nil
}

func (b *Builder[S]) UnsetAccept(state int) error {
	if err := b.checkState(state); err != nil {
		return err
	}
	b.isAccept.Clear(uint(state))
	return nil
}

func (b *Builder[S]) IsAccept(state int) bool {
	return state >= 0 && b.isAccept.Test(uint(state))
}

// AddTransition Add a new transition; adding an existing transition has no effect.
func (b *Builder[S]) AddTransition(source, dest int, symbol S) error {
	code, err := b.encode(symbol)
	if err != nil {
		return err
	}
	return b.addTransitionCode(source, dest, code)
}

func (b *Builder[S]) AddEpsilonTransition(source, dest int) error {
	return b.addTransitionCode(source, dest, EpsilonCode)
}

func (b *Builder[S]) addTransitionCode(source, dest, code int) error {
	if err := b.checkState(source); err != nil {
		return err
	}
	if err := b.checkState(dest); err != nil {
		return err
	}
	return b.graph.AddArc(source, dest, code)
}

func (b *Builder[S]) RemoveTransition(source, dest int, symbol S) error {
	code, err := b.encode(symbol)
	if err != nil {
		return err
	}
	return b.graph.RemoveArc(source, dest, code)
}

// Build Finishes the automaton. Removed states are compacted away; a builder without states
// yields a single non-accepting state. The builder must not be used afterwards.
func (b *Builder[S]) Build() (*Automaton[S], error) {
	if b.NumStates() == 0 {
		b.AddState()
	}
	if b.start == -1 {
		return nil, fmt.Errorf("%w: no start state", ErrStructuralInconsistency)
	}

	if int(b.graph.live.Count()) == b.graph.NumNodes() {
		return newAutomaton(b.alphabet, b.graph, b.start, b.isAccept, b.names), nil
	}

	mapping := make([]int, b.graph.NumNodes())
	graph := NewTransitionGraph(b.NumStates())
	isAccept := bitset.New(uint(b.NumStates()))
	names := make([]string, 0, b.NumStates())
	for s := range mapping {
		mapping[s] = -1
		if b.graph.HasNode(s) {
			mapping[s] = graph.AddNode()
			names = append(names, b.names[s])
			if b.isAccept.Test(uint(s)) {
				isAccept.Set(uint(mapping[s]))
			}
		}
	}
	for arc := range b.graph.Arcs() {
		if err := graph.AddArc(mapping[arc.From], mapping[arc.To], arc.Label); err != nil {
			return nil, err
		}
	}
	return newAutomaton(b.alphabet, graph, mapping[b.start], isAccept, names), nil
}

func newAutomaton[S comparable](alphabet *Alphabet[S], graph *TransitionGraph, start int,
	isAccept *bitset.BitSet, names []string) *Automaton[S] {
	return &Automaton[S]{
		alphabet:      alphabet,
		graph:         graph,
		start:         start,
		isAccept:      isAccept,
		names:         names,
		deterministic: graph.IsArcDeterministic(),
	}
}

func (a *Automaton[S]) Alphabet() *Alphabet[S] {
	return a.alphabet
}

// NumStates How many states this automaton has.
func (a *Automaton[S]) NumStates() int {
	return a.graph.NumNodes()
}

func (a *Automaton[S]) NumTransitions() int {
	return a.graph.NumArcs()
}

func (a *Automaton[S]) StartState() int {
	return a.start
}

// IsAccept Returns true if this state is an accept state.
func (a *Automaton[S]) IsAccept(state int) bool {
	return state >= 0 && a.isAccept.Test(uint(state))
}

// AcceptStates Returns a copy of the accept states.
func (a *Automaton[S]) AcceptStates() *bitset.BitSet {
	res := bitset.New(uint(a.NumStates()))
	res.InPlaceUnion(a.isAccept)
	return res
}

// NonAcceptStates Returns the states that are not accepting.
func (a *Automaton[S]) NonAcceptStates() *bitset.BitSet {
	res := a.allStates()
	res.InPlaceDifference(a.isAccept)
	return res
}

func (a *Automaton[S]) allStates() *bitset.BitSet {
	n := uint(a.NumStates())
	res := bitset.New(n)
	for i := uint(0); i < n; i++ {
		res.Set(i)
	}
	return res
}

// StateName Returns the display name of the state, or "s<state>" if it has none.
func (a *Automaton[S]) StateName(state int) string {
	if name := a.nameOf(state); name != "" {
		return name
	}
	return fmt.Sprintf("s%d", state)
}

func (a *Automaton[S]) nameOf(state int) string {
	if state >= 0 && state < len(a.names) {
		return a.names[state]
	}
	return ""
}

// TransitionGraph Returns the underlying graph. Callers must treat it as read-only.
func (a *Automaton[S]) TransitionGraph() *TransitionGraph {
	return a.graph
}

// IsDeterministic Returns true if this automaton is deterministic (no epsilon transitions, and
// for every state only one transition for each symbol).
func (a *Automaton[S]) IsDeterministic() bool {
	return a.deterministic
}

// Transitions Iterates over all transitions ordered by source, symbol code, destination.
func (a *Automaton[S]) Transitions() iter.Seq[Transition[S]] {
	return func(yield func(Transition[S]) bool) {
		for arc := range a.graph.Arcs() {
			if !yield(Transition[S]{Source: arc.From, Dest: arc.To, Symbol: a.alphabet.Decode(arc.Label)}) {
				return
			}
		}
	}
}

// Successor Returns the destination of state on symbol in a deterministic automaton, or -1.
func (a *Automaton[S]) Successor(state int, symbol S) (int, error) {
	if !a.deterministic {
		return -1, ErrUnsupportedOnNondeterministic
	}
	code, ok := a.alphabet.Encode(symbol)
	if !ok {
		return -1, fmt.Errorf("%w: symbol %v not in alphabet", ErrInvalidArgument, symbol)
	}
	return a.graph.step(state, code), nil
}

// IncompleteStates Returns the states lacking a transition on some non-epsilon symbol.
func (a *Automaton[S]) IncompleteStates() ([]int, error) {
	if !a.deterministic {
		return nil, ErrUnsupportedOnNondeterministic
	}
	res := make([]int, 0)
	for s := 0; s < a.NumStates(); s++ {
		if len(a.graph.out[s]) < a.alphabet.Size()-1 {
			res = append(res, s)
		}
	}
	return res, nil
}

func (a *Automaton[S]) IsComplete() (bool, error) {
	incomplete, err := a.IncompleteStates()
	if err != nil {
		return false, err
	}
	return len(incomplete) == 0, nil
}

// ReachableStates Returns the states reachable from the start state.
func (a *Automaton[S]) ReachableStates() *bitset.BitSet {
	return a.search(bitset.New(uint(a.NumStates())).Set(uint(a.start)), a.graph.SuccessorsOf)
}

// CoReachableStates Returns the states from which an accept state is reachable.
func (a *Automaton[S]) CoReachableStates() *bitset.BitSet {
	return a.search(a.AcceptStates(), a.graph.PredecessorsOf)
}

func (a *Automaton[S]) search(seeds *bitset.BitSet, next func(int) *bitset.BitSet) *bitset.BitSet {
	seen := seeds.Clone()
	workList := make([]int, 0, seeds.Count())
	for s, ok := seeds.NextSet(0); ok; s, ok = seeds.NextSet(s + 1) {
		workList = append(workList, int(s))
	}
	for len(workList) > 0 {
		state := workList[0]
		workList = workList[1:]
		succ := next(state)
		for d, ok := succ.NextSet(0); ok; d, ok = succ.NextSet(d + 1) {
			if !seen.Test(d) {
				seen.Set(d)
				workList = append(workList, int(d))
			}
		}
	}
	return seen
}

func (a *Automaton[S]) UnreachableStates() *bitset.BitSet {
	res := a.allStates()
	res.InPlaceDifference(a.ReachableStates())
	return res
}

func (a *Automaton[S]) DeadEndStates() *bitset.BitSet {
	res := a.allStates()
	res.InPlaceDifference(a.CoReachableStates())
	return res
}

// DanglingStates Returns the states that are unreachable or dead-end.
func (a *Automaton[S]) DanglingStates() *bitset.BitSet {
	res := a.UnreachableStates()
	res.InPlaceUnion(a.DeadEndStates())
	return res
}

// String Renders a flat dump: alphabet, start, accept states and one line per transition.
func (a *Automaton[S]) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "alphabet: %v\n", a.alphabet)
	fmt.Fprintf(sb, "states: %d\n", a.NumStates())
	fmt.Fprintf(sb, "start: %s\n", a.StateName(a.start))
	sb.WriteString("accept:")
	for s, ok := a.isAccept.NextSet(0); ok; s, ok = a.isAccept.NextSet(s + 1) {
		sb.WriteString(" ")
		sb.WriteString(a.StateName(int(s)))
	}
	sb.WriteString("\n")
	for t := range a.Transitions() {
		fmt.Fprintf(sb, "%s -%v-> %s\n", a.StateName(t.Source), t.Symbol, a.StateName(t.Dest))
	}
	return sb.String()
}
