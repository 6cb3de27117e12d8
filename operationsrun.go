package automaton

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Accepts Returns true if the word is accepted by this automaton. Epsilon symbols in the word
// are skipped.
func (a *Automaton[S]) Accepts(word []S) (bool, error) {
	codes, err := a.alphabet.encodeWord(word)
	if err != nil {
		return false, err
	}

	if a.deterministic {
		state := a.start
		for _, code := range codes {
			state = a.graph.step(state, code)
			if state == -1 {
				return false, nil
			}
		}
		return a.IsAccept(state), nil
	}

	current := a.graph.closure(bitset.New(uint(a.NumStates())).Set(uint(a.start)))
	for _, code := range codes {
		current = a.graph.closureStep(current, code)
		if current.None() {
			return false, nil
		}
	}
	return current.IntersectionCardinality(a.isAccept) > 0, nil
}

// AcceptsNone Returns true if the language of this automaton is empty.
func (a *Automaton[S]) AcceptsNone() bool {
	return IsLanguageEmpty(a)
}

// AcceptsAll Returns true if this automaton accepts every word over its alphabet.
func (a *Automaton[S]) AcceptsAll() (bool, error) {
	c, err := Complement(a)
	if err != nil {
		return false, err
	}
	return IsLanguageEmpty(c), nil
}

type backPointer struct {
	state, label int
}

// ShortestWord Returns a shortest accepted word, without epsilon symbols. The boolean is false
// if the language is empty.
func (a *Automaton[S]) ShortestWord() ([]S, bool) {
	numStates := a.NumStates()
	dist := make([]int, numStates)
	prev := make([]backPointer, numStates)
	for s := range dist {
		dist[s] = -1
	}

	// 0-1 breadth first search: epsilon transitions cost nothing, so they go to the front.
	dist[a.start] = 0
	prev[a.start] = backPointer{state: -1}
	deque := []int{a.start}
	done := bitset.New(uint(numStates))
	found := -1
	for len(deque) > 0 {
		state := deque[0]
		deque = deque[1:]
		if done.Test(uint(state)) {
			continue
		}
		done.Set(uint(state))
		if a.IsAccept(state) {
			found = state
			break
		}
		for _, label := range a.graph.ArcLabelsOf(state) {
			cost := 1
			if label == EpsilonCode {
				cost = 0
			}
			dests := a.graph.out[state][label]
			for d, ok := dests.NextSet(0); ok; d, ok = dests.NextSet(d + 1) {
				if dist[d] != -1 && dist[d] <= dist[state]+cost {
					continue
				}
				dist[d] = dist[state] + cost
				prev[d] = backPointer{state: state, label: label}
				if cost == 0 {
					deque = append([]int{int(d)}, deque...)
				} else {
					deque = append(deque, int(d))
				}
			}
		}
	}
	if found == -1 {
		return nil, false
	}

	word := make([]S, 0, dist[found])
	for s := found; prev[s].state != -1; s = prev[s].state {
		if prev[s].label != EpsilonCode {
			word = append(word, a.alphabet.Decode(prev[s].label))
		}
	}
	slices.Reverse(word)
	return word, true
}
