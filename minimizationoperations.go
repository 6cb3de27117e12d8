package automaton

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Minimize
// Minimizes (and determinizes if not already deterministic) the given automaton using Hopcroft's
// algorithm. The result is complete. The empty and the universal language yield the canonical
// automata of the alphabet.
func Minimize[S comparable](a *Automaton[S]) (*Automaton[S], error) {
	if IsLanguageEmpty(a) {
		// Fastmatch for common case
		return AcceptsNoneOf(defaultAutomata, a.alphabet), nil
	}

	d, err := Determinize(a)
	if err != nil {
		return nil, err
	}
	d, err = TrimUnreachable(d)
	if err != nil {
		return nil, err
	}
	d, err = Complete(d)
	if err != nil {
		return nil, err
	}

	initial := make([][]int, 0, 2)
	for _, set := range []*bitset.BitSet{d.AcceptStates(), d.NonAcceptStates()} {
		if set.Any() {
			initial = append(initial, NewFrozenIntSet(set).GetArray())
		}
	}
	partition, err := RefinePartition(d, initial)
	if err != nil {
		return nil, err
	}

	if len(partition) == 1 && d.IsAccept(partition[0][0]) {
		return AcceptsAllOf(defaultAutomata, a.alphabet), nil
	}
	return quotient(d, partition), nil
}

// quotient Collapses every block of the partition into one state. The blocks must be compatible
// with the transitions of the deterministic automaton a.
func quotient[S comparable](a *Automaton[S], partition [][]int) *Automaton[S] {
	blockOf := make([]int, a.NumStates())
	for i, block := range partition {
		for _, s := range block {
			blockOf[s] = i
		}
	}

	graph := NewTransitionGraph(len(partition))
	isAccept := bitset.New(uint(len(partition)))
	names := make([]string, len(partition))
	for range partition {
		graph.AddNode()
	}
	for i, block := range partition {
		rep := block[0]
		if a.IsAccept(rep) {
			isAccept.Set(uint(i))
		}
		for _, label := range a.graph.ArcLabelsOf(rep) {
			graph.addArc(i, blockOf[a.graph.step(rep, label)], label)
		}
	}
	return newAutomaton(a.alphabet, graph, blockOf[a.start], isAccept, names)
}

// RefinePartition
// Refines partition, a cover of the states of a deterministic complete automaton by disjoint
// blocks, into the coarsest partition compatible with its transitions (Hopcroft). Whenever a
// block splits, the smaller half is queued as a splitter. The blocks of the result are sorted
// and ordered by their smallest state.
func RefinePartition[S comparable](a *Automaton[S], partition [][]int) ([][]int, error) {
	complete, err := a.IsComplete()
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, fmt.Errorf("%w: automaton is not complete", ErrPreconditionViolation)
	}

	numStates := a.NumStates()
	numSymbols := a.alphabet.Size()

	blocks := make([]*bitset.BitSet, 0, len(partition))
	blockOf := make([]int, numStates)
	for s := range blockOf {
		blockOf[s] = -1
	}
	for i, states := range partition {
		if len(states) == 0 {
			return nil, fmt.Errorf("%w: empty block %d", ErrInvalidArgument, i)
		}
		block := bitset.New(uint(numStates))
		for _, s := range states {
			if s < 0 || s >= numStates || blockOf[s] != -1 {
				return nil, fmt.Errorf("%w: state %d misplaced in partition", ErrInvalidArgument, s)
			}
			blockOf[s] = i
			block.Set(uint(s))
		}
		blocks = append(blocks, block)
	}
	for s, b := range blockOf {
		if b == -1 {
			return nil, fmt.Errorf("%w: state %d not covered by partition", ErrInvalidArgument, s)
		}
	}

	type splitter struct {
		block, label int
	}
	pending := make([]splitter, 0)
	queued := make([][]bool, 0, len(blocks))
	enqueue := func(block, label int) {
		queued[block][label] = true
		pending = append(pending, splitter{block: block, label: label})
	}
	for i := range blocks {
		queued = append(queued, make([]bool, numSymbols))
		for label := 1; label < numSymbols; label++ {
			enqueue(i, label)
		}
	}

	for len(pending) > 0 {
		sp := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		queued[sp.block][sp.label] = false

		// states leading into the splitter
		into := bitset.New(uint(numStates))
		splitBlock := blocks[sp.block]
		for s, ok := splitBlock.NextSet(0); ok; s, ok = splitBlock.NextSet(s + 1) {
			if preds, ok := a.graph.in[s][sp.label]; ok {
				into.InPlaceUnion(preds)
			}
		}

		touched := make([]int, 0)
		seen := make(map[int]struct{})
		for s, ok := into.NextSet(0); ok; s, ok = into.NextSet(s + 1) {
			if _, ok := seen[blockOf[s]]; !ok {
				seen[blockOf[s]] = struct{}{}
				touched = append(touched, blockOf[s])
			}
		}

		for _, y := range touched {
			inside := blocks[y].Intersection(into)
			if inside.Count() == blocks[y].Count() {
				continue
			}
			outside := blocks[y].Difference(into)

			blocks[y] = inside
			z := len(blocks)
			blocks = append(blocks, outside)
			queued = append(queued, make([]bool, numSymbols))
			for s, ok := outside.NextSet(0); ok; s, ok = outside.NextSet(s + 1) {
				blockOf[s] = z
			}

			for label := 1; label < numSymbols; label++ {
				switch {
				case queued[y][label]:
					enqueue(z, label)
				case inside.Count() <= outside.Count():
					enqueue(y, label)
				default:
					enqueue(z, label)
				}
			}
		}
	}

	res := make([][]int, 0, len(blocks))
	for _, block := range blocks {
		res = append(res, NewFrozenIntSet(block).GetArray())
	}
	slices.SortFunc(res, func(x, y []int) int {
		return x[0] - y[0]
	})
	return res, nil
}
