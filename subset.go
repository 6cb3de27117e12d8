package automaton

import (
	"fmt"
)

// IsLanguageEmpty
// Returns true if the given automaton accepts no words.
func IsLanguageEmpty[S comparable](a *Automaton[S]) bool {
	if a.IsAccept(a.start) {
		// Common case: it accepts the empty word
		return false
	}
	return a.ReachableStates().IntersectionCardinality(a.isAccept) == 0
}

// SubsetResult The verdict of a language containment check. When the check fails, Counterexample
// is a shortest word of the subset outside the container and Witness accepts all such words.
type SubsetResult[S comparable] struct {
	Passed         bool
	Counterexample []S
	Witness        *Automaton[S]
}

func passed[S comparable]() *SubsetResult[S] {
	return &SubsetResult[S]{Passed: true}
}

func failed[S comparable](witness *Automaton[S]) *SubsetResult[S] {
	word, _ := witness.ShortestWord()
	return &SubsetResult[S]{Counterexample: word, Witness: witness}
}

// CheckLanguageContainment
// Checks whether the language of subset is included in the language of container. Both automata
// must share their epsilon; symbols missing from either alphabet are never accepted by it.
func CheckLanguageContainment[S comparable](container, subset *Automaton[S]) (*SubsetResult[S], error) {
	if container.alphabet.Epsilon() != subset.alphabet.Epsilon() {
		return nil, fmt.Errorf("%w: automata disagree on epsilon", ErrInvalidArgument)
	}

	if IsLanguageEmpty(subset) {
		return passed[S](), nil
	}
	if IsLanguageEmpty(container) {
		return failed(subset), nil
	}

	merged, err := container.alphabet.Union(subset.alphabet)
	if err != nil {
		return nil, err
	}
	lifted, err := Relabel(container, merged)
	if err != nil {
		return nil, err
	}
	outside, err := Complement(lifted)
	if err != nil {
		return nil, err
	}
	if IsLanguageEmpty(outside) {
		return passed[S](), nil
	}

	witness, err := Intersect(outside, subset)
	if err != nil {
		return nil, err
	}
	if IsLanguageEmpty(witness) {
		return passed[S](), nil
	}
	return failed(witness), nil
}

// EquivalenceResult The verdict of a language equivalence check: Forward checks that the
// language of the first automaton is included in the second one, Backward the converse.
type EquivalenceResult[S comparable] struct {
	Equivalent bool
	Forward    *SubsetResult[S]
	Backward   *SubsetResult[S]
}

// CheckLanguageEquivalence
// Checks whether both automata accept the same language, by containment in both directions.
func CheckLanguageEquivalence[S comparable](a1, a2 *Automaton[S]) (*EquivalenceResult[S], error) {
	forward, err := CheckLanguageContainment(a2, a1)
	if err != nil {
		return nil, err
	}
	backward, err := CheckLanguageContainment(a1, a2)
	if err != nil {
		return nil, err
	}
	return &EquivalenceResult[S]{
		Equivalent: forward.Passed && backward.Passed,
		Forward:    forward,
		Backward:   backward,
	}, nil
}
