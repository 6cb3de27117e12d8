package automaton

import (
	"fmt"
)

// Pair A transducer symbol: reading In writes Out. Either side may be the epsilon of its
// alphabet, both at once only for the epsilon of the pair alphabet.
type Pair[S, T comparable] struct {
	In  S
	Out T
}

func (p Pair[S, T]) String() string {
	return fmt.Sprintf("%v/%v", p.In, p.Out)
}

func (p Pair[S, T]) flip() Pair[T, S] {
	return Pair[T, S]{In: p.Out, Out: p.In}
}

// NewPairAlphabet
// Returns the alphabet of every pair of an input and an output symbol. Its epsilon pairs both
// epsilons; a pair with one epsilon side is an ordinary symbol.
func NewPairAlphabet[S, T comparable](in *Alphabet[S], out *Alphabet[T]) *Alphabet[Pair[S, T]] {
	b := NewAlphabetBuilder(Pair[S, T]{In: in.Epsilon(), Out: out.Epsilon()})
	for _, x := range in.Symbols() {
		for _, y := range out.Symbols() {
			if in.IsEpsilon(x) && out.IsEpsilon(y) {
				continue
			}
			b.Add(Pair[S, T]{In: x, Out: y})
		}
	}
	return b.Build()
}

// InputAlphabet Returns the alphabet of the input sides of the pairs.
func InputAlphabet[S, T comparable](alphabet *Alphabet[Pair[S, T]]) *Alphabet[S] {
	b := NewAlphabetBuilder(alphabet.Epsilon().In)
	for _, p := range alphabet.NoEpsilonSymbols() {
		b.Add(p.In)
	}
	return b.Build()
}

// OutputAlphabet Returns the alphabet of the output sides of the pairs.
func OutputAlphabet[S, T comparable](alphabet *Alphabet[Pair[S, T]]) *Alphabet[T] {
	b := NewAlphabetBuilder(alphabet.Epsilon().Out)
	for _, p := range alphabet.NoEpsilonSymbols() {
		b.Add(p.Out)
	}
	return b.Build()
}

// Domain Returns an automaton accepting the words the transducer reads.
func Domain[S, T comparable](f *Automaton[Pair[S, T]]) (*Automaton[S], error) {
	return Project(f, InputAlphabet(f.alphabet), func(p Pair[S, T]) (S, bool) {
		return p.In, true
	})
}

// Range Returns an automaton accepting the words the transducer writes.
func Range[S, T comparable](f *Automaton[Pair[S, T]]) (*Automaton[T], error) {
	return Project(f, OutputAlphabet(f.alphabet), func(p Pair[S, T]) (T, bool) {
		return p.Out, true
	})
}

// Inverse Swaps the input and output side of every transition.
func Inverse[S, T comparable](f *Automaton[Pair[S, T]]) (*Automaton[Pair[T, S]], error) {
	b := NewAlphabetBuilder(f.alphabet.Epsilon().flip())
	for _, p := range f.alphabet.NoEpsilonSymbols() {
		b.Add(p.flip())
	}
	return Project(f, b.Build(), func(p Pair[S, T]) (Pair[T, S], bool) {
		return p.flip(), true
	})
}

// MaskByInput
// Restricts the transducer to the input words accepted by fsa. Transitions reading epsilon
// move the transducer alone.
func MaskByInput[S, T comparable](f *Automaton[Pair[S, T]], fsa *Automaton[S]) (*Automaton[Pair[S, T]], error) {
	epsilon := f.alphabet.Epsilon().In
	if fsa.alphabet.Epsilon() != epsilon {
		return nil, fmt.Errorf("%w: mask disagrees on the input epsilon", ErrInvalidArgument)
	}
	steps := productSteps[Pair[S, T], S, Pair[S, T]]{
		both: func(p Pair[S, T], x S) (Pair[S, T], bool) {
			return p, p.In == x
		},
		first: func(p Pair[S, T]) (Pair[S, T], bool) {
			return p, p.In == epsilon
		},
	}
	return productOf(f, fsa, f.alphabet, steps, And)
}

// MaskByOutput
// Restricts the transducer to the output words accepted by fsa. Transitions writing epsilon
// move the transducer alone.
func MaskByOutput[S, T comparable](f *Automaton[Pair[S, T]], fsa *Automaton[T]) (*Automaton[Pair[S, T]], error) {
	epsilon := f.alphabet.Epsilon().Out
	if fsa.alphabet.Epsilon() != epsilon {
		return nil, fmt.Errorf("%w: mask disagrees on the output epsilon", ErrInvalidArgument)
	}
	steps := productSteps[Pair[S, T], T, Pair[S, T]]{
		both: func(p Pair[S, T], y T) (Pair[S, T], bool) {
			return p, p.Out == y
		},
		first: func(p Pair[S, T]) (Pair[S, T], bool) {
			return p, p.Out == epsilon
		},
	}
	return productOf(f, fsa, f.alphabet, steps, And)
}

// Compose
// Returns the transducer writing g(w) for each word w that f translates into an input of g.
// The output epsilon of f must be the input epsilon of g.
func Compose[S, T, U comparable](f *Automaton[Pair[S, T]], g *Automaton[Pair[T, U]]) (*Automaton[Pair[S, U]], error) {
	mid := f.alphabet.Epsilon().Out
	if g.alphabet.Epsilon().In != mid {
		return nil, fmt.Errorf("%w: transducers disagree on the shared epsilon", ErrInvalidArgument)
	}
	in := InputAlphabet(f.alphabet)
	out := OutputAlphabet(g.alphabet)
	steps := productSteps[Pair[S, T], Pair[T, U], Pair[S, U]]{
		both: func(p1 Pair[S, T], p2 Pair[T, U]) (Pair[S, U], bool) {
			return Pair[S, U]{In: p1.In, Out: p2.Out}, p1.Out == p2.In && p1.Out != mid
		},
		first: func(p1 Pair[S, T]) (Pair[S, U], bool) {
			return Pair[S, U]{In: p1.In, Out: out.Epsilon()}, p1.Out == mid
		},
		second: func(p2 Pair[T, U]) (Pair[S, U], bool) {
			return Pair[S, U]{In: in.Epsilon(), Out: p2.Out}, p2.In == mid
		},
	}
	return productOf(f, g, NewPairAlphabet(in, out), steps, And)
}

// PostImage Returns an automaton accepting every word f writes while reading a word of fsa.
func PostImage[S, T comparable](f *Automaton[Pair[S, T]], fsa *Automaton[S]) (*Automaton[T], error) {
	epsilon := f.alphabet.Epsilon().In
	if fsa.alphabet.Epsilon() != epsilon {
		return nil, fmt.Errorf("%w: automaton disagrees on the input epsilon", ErrInvalidArgument)
	}
	steps := productSteps[Pair[S, T], S, T]{
		both: func(p Pair[S, T], x S) (T, bool) {
			return p.Out, p.In == x
		},
		first: func(p Pair[S, T]) (T, bool) {
			return p.Out, p.In == epsilon
		},
	}
	return productOf(f, fsa, OutputAlphabet(f.alphabet), steps, And)
}

// PreImage Returns an automaton accepting every word f reads while writing a word of fsa.
func PreImage[S, T comparable](f *Automaton[Pair[S, T]], fsa *Automaton[T]) (*Automaton[S], error) {
	inv, err := Inverse(f)
	if err != nil {
		return nil, err
	}
	return PostImage(inv, fsa)
}

// PostImageOfWord Shortcut for PostImage of the automaton accepting only word.
func PostImageOfWord[S, T comparable](f *Automaton[Pair[S, T]], word []S) (*Automaton[T], error) {
	w, err := MakeWord(InputAlphabet(f.alphabet), word)
	if err != nil {
		return nil, err
	}
	return PostImage(f, w)
}

// PreImageOfWord Shortcut for PreImage of the automaton accepting only word.
func PreImageOfWord[S, T comparable](f *Automaton[Pair[S, T]], word []T) (*Automaton[S], error) {
	w, err := MakeWord(OutputAlphabet(f.alphabet), word)
	if err != nil {
		return nil, err
	}
	return PreImage(f, w)
}
