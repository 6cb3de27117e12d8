package automaton

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// TransitionDecider Decides the symbol of a product transition from the symbols of both
// operands; ok=false suppresses the transition.
type TransitionDecider[S comparable] func(x, y S) (S, bool)

// StateAttributeDecider Decides whether a product state accepts.
type StateAttributeDecider func(x, y bool) bool

// Matched Pairs identical symbols only.
func Matched[S comparable](x, y S) (S, bool) {
	return x, x == y
}

func And(x, y bool) bool {
	return x && y
}

func Or(x, y bool) bool {
	return x || y
}

// Determinize
// Determinizes the given automaton by subset construction over epsilon-closed state sets.
// Worst case complexity: exponential in number of states. Subsets without any state are not
// materialized, so the result is generally incomplete. A deterministic automaton is returned
// as is.
func Determinize[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	if a.IsDeterministic() {
		return a, nil
	}

	b := NewBuilderV1(a.alphabet, a.NumStates())

	// Same initial values and state will always have the same hashCode
	initial := NewFrozenIntSet(a.graph.closure(bitset.New(uint(a.NumStates())).Set(uint(a.start))))
	newState := NewHashMap[int](WithCapacity(a.NumStates()))
	newState.Set(initial, b.AddState())

	worklist := []*FrozenIntSet{initial}
	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		src, _ := newState.Get(current)
		if current.Intersects(a.isAccept) {
			b.isAccept.Set(uint(src))
		}

		for code := 1; code < a.alphabet.Size(); code++ {
			next := a.graph.closureStep(current.Bits(), code)
			if next.None() {
				continue
			}
			key := NewFrozenIntSet(next)
			dest, seen := newState.GetOrCompute(key, b.AddState)
			if !seen {
				worklist = append(worklist, key)
			}
			b.graph.addArc(src, dest, code)
		}
	}

	return b.Build()
}

// Complete
// Adds a sink state with self-loops on every symbol and routes each missing transition to it.
// Only deterministic automata can be completed; a complete automaton is returned as is.
func Complete[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	incomplete, err := a.IncompleteStates()
	if err != nil {
		return nil, err
	}
	if len(incomplete) == 0 {
		return a, nil
	}

	b := NewBuilderV1(a.alphabet, a.NumStates()+1)
	offset, err := copyStates(b, a)
	if err != nil {
		return nil, err
	}
	markAccepts(b, a, offset)
	b.start = offset + a.start

	sink := b.AddNamedState("sink")
	for code := 1; code < a.alphabet.Size(); code++ {
		b.graph.addArc(sink, sink, code)
		for _, s := range incomplete {
			if a.graph.step(s, code) == -1 {
				b.graph.addArc(offset+s, sink, code)
			}
		}
	}
	return b.Build()
}

// Complement
// Returns a (deterministic, complete) automaton that accepts the complement of the language of
// the given automaton over its alphabet.
func Complement[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	d, err := Determinize(a)
	if err != nil {
		return nil, err
	}
	c, err := Complete(d)
	if err != nil {
		return nil, err
	}
	// The graph is immutable once built, so the complement shares it.
	return newAutomaton(c.alphabet, c.graph, c.start, c.NonAcceptStates(), c.names), nil
}

var _ Hashable = &statePair{}

type statePair struct {
	s1, s2 int
}

func (p *statePair) Hash() uint64 {
	return mixPair(p.s1, p.s2)
}

func (p *statePair) Equals(other Hashable) bool {
	o, ok := other.(*statePair)
	return ok && o.s1 == p.s1 && o.s2 == p.s2
}

// Product
// Builds the product of two automata over alphabet. Only the pairs reachable from the pair of
// start states are created. An epsilon transition of either operand moves that operand alone;
// two symbol transitions move together when transitions agrees on a symbol, which must belong
// to alphabet. Agreeing on the epsilon of alphabet yields an epsilon transition. A pair accepts
// when accepts says so.
func Product[S comparable](a1, a2 *Automaton[S], alphabet *Alphabet[S],
	transitions TransitionDecider[S], accepts StateAttributeDecider) (*Automaton[S], error) {
	if a1.alphabet.Epsilon() != alphabet.Epsilon() || a2.alphabet.Epsilon() != alphabet.Epsilon() {
		return nil, fmt.Errorf("%w: operands disagree on epsilon", ErrInvalidArgument)
	}
	return productOf(a1, a2, alphabet, productSteps[S, S, S]{both: transitions}, accepts)
}

// productSteps The symbol moves of a product. both moves the operands together; first and
// second, when set, move one operand alone on one of its symbols. ok=false suppresses a move.
type productSteps[A, B, R comparable] struct {
	both   func(x A, y B) (R, bool)
	first  func(x A) (R, bool)
	second func(y B) (R, bool)
}

// productOf Builds the reachable product of a1 and a2 over alphabet. A move yielding the
// epsilon of alphabet becomes an epsilon transition; any other symbol must belong to alphabet.
func productOf[A, B, R comparable](a1 *Automaton[A], a2 *Automaton[B], alphabet *Alphabet[R],
	steps productSteps[A, B, R], accepts StateAttributeDecider) (*Automaton[R], error) {
	// Only reachable pairs are built, usually far fewer than |Q1|*|Q2|.
	capacity := a1.NumStates() + a2.NumStates()
	b := NewBuilderV1(alphabet, capacity)
	newState := NewHashMap[int](WithCapacity(capacity))
	worklist := make([]*statePair, 0)

	visit := func(p *statePair) int {
		s, seen := newState.GetOrCompute(p, b.AddState)
		if !seen {
			if accepts(a1.IsAccept(p.s1), a2.IsAccept(p.s2)) {
				b.isAccept.Set(uint(s))
			}
			worklist = append(worklist, p)
		}
		return s
	}
	encode := func(symbol R) (int, error) {
		code, ok := alphabet.Encode(symbol)
		if !ok {
			return 0, fmt.Errorf("%w: product symbol %v not in alphabet", ErrInvalidArgument, symbol)
		}
		return code, nil
	}
	visit(&statePair{s1: a1.start, s2: a2.start})

	for len(worklist) > 0 {
		p := worklist[0]
		worklist = worklist[1:]
		src, _ := newState.Get(p)

		eps1 := a1.graph.SuccessorsOfLabel(p.s1, EpsilonCode)
		for d, ok := eps1.NextSet(0); ok; d, ok = eps1.NextSet(d + 1) {
			b.graph.addArc(src, visit(&statePair{s1: int(d), s2: p.s2}), EpsilonCode)
		}
		eps2 := a2.graph.SuccessorsOfLabel(p.s2, EpsilonCode)
		for d, ok := eps2.NextSet(0); ok; d, ok = eps2.NextSet(d + 1) {
			b.graph.addArc(src, visit(&statePair{s1: p.s1, s2: int(d)}), EpsilonCode)
		}

		labels1 := a1.graph.ArcLabelsOf(p.s1)
		labels2 := a2.graph.ArcLabelsOf(p.s2)
		for _, l1 := range labels1 {
			if l1 == EpsilonCode {
				continue
			}
			dests1 := a1.graph.out[p.s1][l1]
			if steps.first != nil {
				if symbol, ok := steps.first(a1.alphabet.Decode(l1)); ok {
					code, err := encode(symbol)
					if err != nil {
						return nil, err
					}
					for d1, ok := dests1.NextSet(0); ok; d1, ok = dests1.NextSet(d1 + 1) {
						b.graph.addArc(src, visit(&statePair{s1: int(d1), s2: p.s2}), code)
					}
				}
			}
			for _, l2 := range labels2 {
				if l2 == EpsilonCode {
					continue
				}
				symbol, ok := steps.both(a1.alphabet.Decode(l1), a2.alphabet.Decode(l2))
				if !ok {
					continue
				}
				code, err := encode(symbol)
				if err != nil {
					return nil, err
				}
				dests2 := a2.graph.out[p.s2][l2]
				for d1, ok := dests1.NextSet(0); ok; d1, ok = dests1.NextSet(d1 + 1) {
					for d2, ok := dests2.NextSet(0); ok; d2, ok = dests2.NextSet(d2 + 1) {
						b.graph.addArc(src, visit(&statePair{s1: int(d1), s2: int(d2)}), code)
					}
				}
			}
		}

		if steps.second == nil {
			continue
		}
		for _, l2 := range labels2 {
			if l2 == EpsilonCode {
				continue
			}
			symbol, ok := steps.second(a2.alphabet.Decode(l2))
			if !ok {
				continue
			}
			code, err := encode(symbol)
			if err != nil {
				return nil, err
			}
			dests2 := a2.graph.out[p.s2][l2]
			for d2, ok := dests2.NextSet(0); ok; d2, ok = dests2.NextSet(d2 + 1) {
				b.graph.addArc(src, visit(&statePair{s1: p.s1, s2: int(d2)}), code)
			}
		}
	}

	return b.Build()
}

// Intersect
// Returns an automaton that accepts the intersection of the languages of the given automata.
// The result is free of dangling states; an empty intersection yields the canonical automaton
// accepting nothing.
func Intersect[S comparable](a1, a2 *Automaton[S]) (*Automaton[S], error) {
	p, err := Product(a1, a2, a1.alphabet, Matched[S], And)
	if err != nil {
		return nil, err
	}
	if IsLanguageEmpty(p) {
		return AcceptsNoneOf(defaultAutomata, a1.alphabet), nil
	}
	return TrimDangling(p)
}

// Union
// Returns an automaton that accepts the union of the languages of the given automata. Over
// equal alphabets a new start state is linked to both start states by epsilon transitions;
// otherwise the union is computed as a product, see UnionProduct.
func Union[S comparable](a1, a2 *Automaton[S]) (*Automaton[S], error) {
	if a1.alphabet.Epsilon() != a2.alphabet.Epsilon() {
		return nil, fmt.Errorf("%w: operands disagree on epsilon", ErrInvalidArgument)
	}
	if !a1.alphabet.Equal(a2.alphabet) {
		return UnionProduct(a1, a2)
	}

	b := NewBuilderV1(a1.alphabet, a1.NumStates()+a2.NumStates()+1)

	// Create initial state:
	start := b.AddState()

	for _, a := range []*Automaton[S]{a1, a2} {
		offset, err := copyStates(b, a)
		if err != nil {
			return nil, err
		}
		markAccepts(b, a, offset)
		b.graph.addArc(start, offset+a.start, EpsilonCode)
	}
	return b.Build()
}

// UnionProduct
// Computes the union as the product of both operands, lifted to the merged alphabet,
// determinized and completed. The result is deterministic and complete.
func UnionProduct[S comparable](a1, a2 *Automaton[S]) (*Automaton[S], error) {
	merged, err := a1.alphabet.Union(a2.alphabet)
	if err != nil {
		return nil, err
	}
	c1, err := liftComplete(a1, merged)
	if err != nil {
		return nil, err
	}
	c2, err := liftComplete(a2, merged)
	if err != nil {
		return nil, err
	}
	return Product(c1, c2, merged, Matched[S], Or)
}

func liftComplete[S comparable](a *Automaton[S], alphabet *Alphabet[S]) (*Automaton[S], error) {
	r, err := Relabel(a, alphabet)
	if err != nil {
		return nil, err
	}
	d, err := Determinize(r)
	if err != nil {
		return nil, err
	}
	return Complete(d)
}

// Relabel
// Moves the automaton onto alphabet, which must contain every symbol of the current one and
// share its epsilon. The language is unchanged.
func Relabel[S comparable](a *Automaton[S], alphabet *Alphabet[S]) (*Automaton[S], error) {
	if a.alphabet == alphabet {
		return a, nil
	}
	b := NewBuilderV1(alphabet, a.NumStates())
	offset, err := copyStates(b, a)
	if err != nil {
		return nil, err
	}
	markAccepts(b, a, offset)
	b.start = offset + a.start
	return b.Build()
}

// Project
// Maps every symbol of the automaton through projector onto alphabet. Transitions whose symbol
// the projector rejects are dropped, epsilon transitions are kept. States no longer reachable
// are trimmed.
func Project[S, R comparable](a *Automaton[S], alphabet *Alphabet[R], projector func(S) (R, bool)) (*Automaton[R], error) {
	translate := make([]int, a.alphabet.Size())
	for code := 1; code < a.alphabet.Size(); code++ {
		translate[code] = -1
		symbol, ok := projector(a.alphabet.Decode(code))
		if !ok {
			continue
		}
		projected, ok := alphabet.Encode(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: projected symbol %v not in alphabet", ErrInvalidArgument, symbol)
		}
		translate[code] = projected
	}

	b := NewBuilderV1(alphabet, a.NumStates())
	for s := 0; s < a.NumStates(); s++ {
		b.AddNamedState(a.nameOf(s))
		if a.IsAccept(s) {
			b.isAccept.Set(uint(s))
		}
	}
	b.start = a.start
	for arc := range a.graph.Arcs() {
		if label := translate[arc.Label]; label >= 0 {
			b.graph.addArc(arc.From, arc.To, label)
		}
	}

	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	return TrimUnreachable(p)
}

// TrimUnreachable Removes the states that cannot be reached from the start state.
func TrimUnreachable[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	return retain(a, a.ReachableStates())
}

// TrimDeadEnd Removes the states from which no accept state can be reached. The start state is
// always kept.
func TrimDeadEnd[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	live := a.CoReachableStates()
	live.Set(uint(a.start))
	return retain(a, live)
}

// TrimDangling Removes unreachable and dead-end states, keeping the start state.
func TrimDangling[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	live := a.ReachableStates()
	live.InPlaceIntersection(a.CoReachableStates())
	live.Set(uint(a.start))
	return retain(a, live)
}

// retain Returns the sub-automaton over the live states; a itself if every state is live.
func retain[S comparable](a *Automaton[S], live *bitset.BitSet) (*Automaton[S], error) {
	if int(live.Count()) == a.NumStates() {
		return a, nil
	}

	b := NewBuilderV1(a.alphabet, int(live.Count()))
	mapping := make([]int, a.NumStates())
	for s := range mapping {
		mapping[s] = -1
	}
	for s, ok := live.NextSet(0); ok; s, ok = live.NextSet(s + 1) {
		mapping[s] = b.AddNamedState(a.nameOf(int(s)))
		if a.IsAccept(int(s)) {
			b.isAccept.Set(uint(mapping[s]))
		}
	}
	b.start = mapping[a.start]

	// filter out transitions touching removed states:
	for arc := range a.graph.Arcs() {
		if mapping[arc.From] >= 0 && mapping[arc.To] >= 0 {
			b.graph.addArc(mapping[arc.From], mapping[arc.To], arc.Label)
		}
	}
	return b.Build()
}

// Concatenate
// Returns an automaton that accepts the concatenation of the languages of the given automata.
// Accept states of each operand are linked to the start of the next one by epsilon
// transitions. Every operand is moved onto the alphabet of the first one.
func Concatenate[S comparable](automata ...*Automaton[S]) (*Automaton[S], error) {
	if len(automata) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidArgument)
	}

	alphabet := automata[0].alphabet
	numStates := 0
	for _, a := range automata {
		numStates += a.NumStates()
	}
	b := NewBuilderV1(alphabet, numStates)

	var prevAccepts []int
	for i, a := range automata {
		offset, err := copyStates(b, a)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			b.start = offset + a.start
		}
		for _, p := range prevAccepts {
			b.graph.addArc(p, offset+a.start, EpsilonCode)
		}
		prevAccepts = prevAccepts[:0]
		for s, ok := a.isAccept.NextSet(0); ok; s, ok = a.isAccept.NextSet(s + 1) {
			prevAccepts = append(prevAccepts, offset+int(s))
		}
	}
	for _, p := range prevAccepts {
		b.isAccept.Set(uint(p))
	}
	return b.Build()
}

// Star
// Returns an automaton that accepts the Kleene star (zero or more concatenated repetitions) of
// the language of the given automaton.
func Star[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	b := NewBuilderV1(a.alphabet, a.NumStates()+1)
	start := b.AddState()
	b.isAccept.Set(uint(start))

	offset, err := copyStates(b, a)
	if err != nil {
		return nil, err
	}
	b.graph.addArc(start, offset+a.start, EpsilonCode)
	for s, ok := a.isAccept.NextSet(0); ok; s, ok = a.isAccept.NextSet(s + 1) {
		b.graph.addArc(offset+int(s), start, EpsilonCode)
	}
	return b.Build()
}

// Optional
// Returns an automaton that accepts the union of the empty word and the language of the given
// automaton.
func Optional[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	b := NewBuilderV1(a.alphabet, a.NumStates()+1)
	start := b.AddState()
	b.isAccept.Set(uint(start))

	offset, err := copyStates(b, a)
	if err != nil {
		return nil, err
	}
	markAccepts(b, a, offset)
	b.graph.addArc(start, offset+a.start, EpsilonCode)
	return b.Build()
}

// Repeat
// Returns an automaton that accepts between min and max concatenated repetitions of the
// language of the given automaton. A negative max means no upper bound.
func Repeat[S comparable](a *Automaton[S], min, max int) (*Automaton[S], error) {
	if min < 0 {
		return nil, fmt.Errorf("%w: negative repetition %d", ErrInvalidArgument, min)
	}
	if max >= 0 && min > max {
		return AcceptsNoneOf(defaultAutomata, a.alphabet), nil
	}

	as := make([]*Automaton[S], 0, min+1)
	for i := 0; i < min; i++ {
		as = append(as, a)
	}
	if max < 0 {
		star, err := Star(a)
		if err != nil {
			return nil, err
		}
		as = append(as, star)
	} else if max > min {
		opt, err := Optional(a)
		if err != nil {
			return nil, err
		}
		for i := min; i < max; i++ {
			as = append(as, opt)
		}
	}

	if len(as) == 0 {
		return AcceptsEmptyWordOf(a.alphabet), nil
	}
	return Concatenate(as...)
}

// copyStates Appends the states and transitions of a to the builder, translating symbol codes
// into the builder's alphabet. Accept flags and the start state are left to the caller. Returns
// the handle of a's state 0 in the builder.
func copyStates[S comparable](b *Builder[S], a *Automaton[S]) (int, error) {
	translate, err := labelTranslation(a.alphabet, b.alphabet)
	if err != nil {
		return 0, err
	}

	offset := b.graph.NumNodes()
	for s := 0; s < a.NumStates(); s++ {
		b.AddNamedState(a.nameOf(s))
	}
	for arc := range a.graph.Arcs() {
		b.graph.addArc(offset+arc.From, offset+arc.To, translate[arc.Label])
	}
	return offset, nil
}

func markAccepts[S comparable](b *Builder[S], a *Automaton[S], offset int) {
	for s, ok := a.isAccept.NextSet(0); ok; s, ok = a.isAccept.NextSet(s + 1) {
		b.isAccept.Set(uint(offset) + s)
	}
}

// labelTranslation Maps every code of from onto the code of the same symbol in to.
func labelTranslation[S comparable](from, to *Alphabet[S]) ([]int, error) {
	res := make([]int, from.Size())
	if from == to {
		for code := range res {
			res[code] = code
		}
		return res, nil
	}
	if from.Epsilon() != to.Epsilon() {
		return nil, fmt.Errorf("%w: alphabets disagree on epsilon", ErrInvalidArgument)
	}
	for code, symbol := range from.symbols {
		translated, ok := to.Encode(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: symbol %v not in alphabet %v", ErrInvalidArgument, symbol, to)
		}
		res[code] = translated
	}
	return res, nil
}
