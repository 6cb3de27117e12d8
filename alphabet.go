package automaton

import (
	"fmt"
	"sync/atomic"
)

// EpsilonCode is the integer code of the epsilon symbol in every alphabet.
const EpsilonCode = 0

var alphabetIDs atomic.Uint64

// Alphabet An immutable set of symbols with one designated epsilon symbol. Symbols are coded as
// integers: epsilon is always 0, the other symbols follow in insertion order.
type Alphabet[S comparable] struct {
	id      uint64
	symbols []S
	index   map[S]int
}

// AlphabetBuilder accumulates symbols until Build freezes them.
type AlphabetBuilder[S comparable] struct {
	symbols []S
	index   map[S]int
}

func NewAlphabetBuilder[S comparable](epsilon S) *AlphabetBuilder[S] {
	return &AlphabetBuilder[S]{
		symbols: []S{epsilon},
		index:   map[S]int{epsilon: EpsilonCode},
	}
}

// Add Add a symbol; adding a symbol twice (or the epsilon) has no effect.
func (b *AlphabetBuilder[S]) Add(symbols ...S) *AlphabetBuilder[S] {
	for _, s := range symbols {
		if _, ok := b.index[s]; ok {
			continue
		}
		b.index[s] = len(b.symbols)
		b.symbols = append(b.symbols, s)
	}
	return b
}

// Build Freeze the accumulated symbols. The builder stays usable.
func (b *AlphabetBuilder[S]) Build() *Alphabet[S] {
	symbols := make([]S, len(b.symbols))
	copy(symbols, b.symbols)
	index := make(map[S]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	return &Alphabet[S]{
		id:      alphabetIDs.Add(1),
		symbols: symbols,
		index:   index,
	}
}

// NewAlphabet Shortcut for NewAlphabetBuilder(epsilon).Add(symbols...).Build().
func NewAlphabet[S comparable](epsilon S, symbols ...S) *Alphabet[S] {
	return NewAlphabetBuilder(epsilon).Add(symbols...).Build()
}

// ID Returns the identity of this alphabet, unique within the process.
func (a *Alphabet[S]) ID() uint64 {
	return a.id
}

// Size Number of symbols, epsilon included.
func (a *Alphabet[S]) Size() int {
	return len(a.symbols)
}

func (a *Alphabet[S]) Epsilon() S {
	return a.symbols[EpsilonCode]
}

func (a *Alphabet[S]) IsEpsilon(s S) bool {
	return s == a.symbols[EpsilonCode]
}

func (a *Alphabet[S]) Contains(s S) bool {
	_, ok := a.index[s]
	return ok
}

func (a *Alphabet[S]) Encode(s S) (int, bool) {
	code, ok := a.index[s]
	return code, ok
}

func (a *Alphabet[S]) Decode(code int) S {
	return a.symbols[code]
}

// Symbols Returns all symbols ordered by code, epsilon first.
func (a *Alphabet[S]) Symbols() []S {
	res := make([]S, len(a.symbols))
	copy(res, a.symbols)
	return res
}

func (a *Alphabet[S]) NoEpsilonSymbols() []S {
	res := make([]S, len(a.symbols)-1)
	copy(res, a.symbols[1:])
	return res
}

// Equal Reports whether both alphabets have the same epsilon and the same symbol set.
func (a *Alphabet[S]) Equal(other *Alphabet[S]) bool {
	if a == other {
		return true
	}
	if other == nil || len(a.symbols) != len(other.symbols) || a.Epsilon() != other.Epsilon() {
		return false
	}
	for s := range a.index {
		if _, ok := other.index[s]; !ok {
			return false
		}
	}
	return true
}

// Union Returns an alphabet holding the symbols of both; the epsilons must agree.
func (a *Alphabet[S]) Union(other *Alphabet[S]) (*Alphabet[S], error) {
	if a.Epsilon() != other.Epsilon() {
		return nil, fmt.Errorf("%w: alphabets disagree on epsilon", ErrInvalidArgument)
	}
	if a.Equal(other) {
		return a, nil
	}
	return NewAlphabetBuilder(a.Epsilon()).Add(a.symbols[1:]...).Add(other.symbols[1:]...).Build(), nil
}

func (a *Alphabet[S]) encodeWord(word []S) ([]int, error) {
	codes := make([]int, 0, len(word))
	for _, s := range word {
		code, ok := a.index[s]
		if !ok {
			return nil, fmt.Errorf("%w: symbol %v not in alphabet", ErrInvalidArgument, s)
		}
		if code == EpsilonCode {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func (a *Alphabet[S]) String() string {
	return fmt.Sprintf("%v (epsilon %v)", a.symbols[1:], a.Epsilon())
}
