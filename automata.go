package automaton

import (
	"github.com/bits-and-blooms/bitset"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultAutomataCapacity Number of canonical automata kept by the package default cache.
const DefaultAutomataCapacity = 256

var defaultAutomata = NewAutomata(DefaultAutomataCapacity)

type canonicalKind int

const (
	kindAcceptsNone canonicalKind = iota
	kindAcceptsAll
)

type canonicalKey struct {
	alphabet uint64
	kind     canonicalKind
}

// Automata Caches the canonical one-state automata of each alphabet, so that operations yielding
// the empty or the universal language return the same instance. Entries are keyed by alphabet
// identity and evicted least recently used first. Safe for concurrent use.
type Automata struct {
	cache *lru.Cache[canonicalKey, any]
}

// NewAutomata Creates a cache holding up to capacity automata; a capacity below one falls back
// to DefaultAutomataCapacity.
func NewAutomata(capacity int) *Automata {
	if capacity < 1 {
		capacity = DefaultAutomataCapacity
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[canonicalKey, any](capacity)
	return &Automata{cache: cache}
}

// Len Number of cached automata.
func (c *Automata) Len() int {
	return c.cache.Len()
}

// Purge Drops every cached automaton.
func (c *Automata) Purge() {
	c.cache.Purge()
}

// AcceptsNoneOf
// Returns the (deterministic, complete) automaton with the empty language over alphabet.
func AcceptsNoneOf[S comparable](c *Automata, alphabet *Alphabet[S]) *Automaton[S] {
	return canonical(c, alphabet, kindAcceptsNone)
}

// AcceptsAllOf
// Returns the (deterministic, complete) automaton that accepts all words over alphabet.
func AcceptsAllOf[S comparable](c *Automata, alphabet *Alphabet[S]) *Automaton[S] {
	return canonical(c, alphabet, kindAcceptsAll)
}

// AcceptsNone AcceptsNoneOf over the package default cache.
func AcceptsNone[S comparable](alphabet *Alphabet[S]) *Automaton[S] {
	return AcceptsNoneOf(defaultAutomata, alphabet)
}

// AcceptsAll AcceptsAllOf over the package default cache.
func AcceptsAll[S comparable](alphabet *Alphabet[S]) *Automaton[S] {
	return AcceptsAllOf(defaultAutomata, alphabet)
}

func canonical[S comparable](c *Automata, alphabet *Alphabet[S], kind canonicalKind) *Automaton[S] {
	key := canonicalKey{alphabet: alphabet.ID(), kind: kind}
	if v, ok := c.cache.Get(key); ok {
		if a, ok := v.(*Automaton[S]); ok {
			return a
		}
	}

	graph := NewTransitionGraph(1)
	s := graph.AddNode()
	for code := 1; code < alphabet.Size(); code++ {
		graph.addArc(s, s, code)
	}
	isAccept := bitset.New(1)
	if kind == kindAcceptsAll {
		isAccept.Set(uint(s))
	}
	a := newAutomaton(alphabet, graph, s, isAccept, nil)
	c.cache.Add(key, a)
	return a
}

// AcceptsEmptyWordOf
// Returns a new (deterministic) automaton that accepts only the empty word.
func AcceptsEmptyWordOf[S comparable](alphabet *Alphabet[S]) *Automaton[S] {
	graph := NewTransitionGraph(1)
	s := graph.AddNode()
	return newAutomaton(alphabet, graph, s, bitset.New(1).Set(uint(s)), nil)
}

// MakeWord
// Returns a new (deterministic) automaton that accepts only the given word. Epsilon symbols in
// the word are skipped.
func MakeWord[S comparable](alphabet *Alphabet[S], word []S) (*Automaton[S], error) {
	return AcceptingOnly(alphabet, word)
}

// AcceptingOnly
// Returns a new automaton that accepts exactly the given words. The words share the start state
// and get a chain of states each.
func AcceptingOnly[S comparable](alphabet *Alphabet[S], words ...[]S) (*Automaton[S], error) {
	b := NewBuilderV1(alphabet, 1)
	start := b.AddState()
	for _, word := range words {
		codes, err := alphabet.encodeWord(word)
		if err != nil {
			return nil, err
		}
		state := start
		for _, code := range codes {
			next := b.AddState()
			b.graph.addArc(state, next, code)
			state = next
		}
		b.isAccept.Set(uint(state))
	}
	return b.Build()
}
