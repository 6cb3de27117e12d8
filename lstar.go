package automaton

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMembershipCacheSize Number of membership answers a learner remembers.
const DefaultMembershipCacheSize = 4096

// Teacher Answers the queries of a learner about an unknown regular language.
type Teacher[S comparable] interface {
	// Accepts Membership query.
	Accepts(word []S) (bool, error)
	// Equivalent Equivalence query. When answer is wrong, counterexample is a word answer and
	// the unknown language disagree on.
	Equivalent(answer *Automaton[S]) (counterexample []S, ok bool, err error)
}

// AutomatonTeacher A Teacher whose unknown language is the language of an automaton.
type AutomatonTeacher[S comparable] struct {
	target *Automaton[S]
}

func NewAutomatonTeacher[S comparable](target *Automaton[S]) *AutomatonTeacher[S] {
	return &AutomatonTeacher[S]{target: target}
}

func (t *AutomatonTeacher[S]) Accepts(word []S) (bool, error) {
	return t.target.Accepts(word)
}

func (t *AutomatonTeacher[S]) Equivalent(answer *Automaton[S]) ([]S, bool, error) {
	res, err := CheckLanguageEquivalence(t.target, answer)
	if err != nil {
		return nil, false, err
	}
	switch {
	case res.Equivalent:
		return nil, true, nil
	case !res.Forward.Passed:
		return res.Forward.Counterexample, false, nil
	default:
		return res.Backward.Counterexample, false, nil
	}
}

type LearnOption func(*learnOptions)

type learnOptions struct {
	cacheSize int
	logger    *slog.Logger
}

func WithMembershipCacheSize(n int) LearnOption {
	return func(o *learnOptions) {
		o.cacheSize = n
	}
}

func WithLearnLogger(logger *slog.Logger) LearnOption {
	return func(o *learnOptions) {
		o.logger = logger
	}
}

// dtNode A node of the discrimination tree. An inner node holds a discriminator and sends a
// word to accept when the word followed by the discriminator is a member. A leaf holds the
// access word of a hypothesis state.
type dtNode[S comparable] struct {
	word   []S
	parent *dtNode[S]
	depth  int
	accept *dtNode[S]
	reject *dtNode[S]
	state  int
}

func (n *dtNode[S]) isLeaf() bool {
	return n.accept == nil
}

func (n *dtNode[S]) setChildren(accept, reject *dtNode[S]) {
	n.accept, n.reject = accept, reject
	for _, c := range []*dtNode[S]{accept, reject} {
		c.parent = n
		c.depth = n.depth + 1
	}
}

// lowestCommonAncestor Returns the deepest node having both a and b below it.
func lowestCommonAncestor[S comparable](a, b *dtNode[S]) *dtNode[S] {
	for a.depth > b.depth {
		a = a.parent
	}
	for b.depth > a.depth {
		b = b.parent
	}
	for a != b {
		a, b = a.parent, b.parent
	}
	return a
}

type learner[S comparable] struct {
	alphabet *Alphabet[S]
	symbols  []S
	teacher  Teacher[S]
	cache    *lru.Cache[string, bool]
	logger   *slog.Logger

	root   *dtNode[S]
	leaves []*dtNode[S]
	delta  [][]int
}

// Learn
// Learns the minimal deterministic complete automaton of the unknown language of teacher, over
// alphabet, by Kearns and Vazirani's variant of L*: hypothesis states are the leaves of a
// discrimination tree, and each counterexample splits one leaf. A counterexample is reused as
// long as the hypothesis misclassifies it.
func Learn[S comparable](ctx context.Context, alphabet *Alphabet[S], teacher Teacher[S],
	opts ...LearnOption) (*Automaton[S], error) {
	if alphabet == nil || teacher == nil {
		return nil, fmt.Errorf("%w: alphabet and teacher are required", ErrNullArgument)
	}
	options := learnOptions{cacheSize: DefaultMembershipCacheSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.cacheSize < 1 {
		options.cacheSize = DefaultMembershipCacheSize
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, bool](options.cacheSize)
	l := &learner[S]{
		alphabet: alphabet,
		symbols:  alphabet.NoEpsilonSymbols(),
		teacher:  teacher,
		cache:    cache,
		logger:   options.logger,
	}

	emptyAccepted, err := l.member(nil)
	if err != nil {
		return nil, err
	}
	trivial, err := l.trivialHypothesis(emptyAccepted)
	if err != nil {
		return nil, err
	}
	c, ok, err := teacher.Equivalent(trivial)
	if err != nil {
		return nil, err
	}
	if ok {
		return trivial, nil
	}
	if c, err = l.counterexample(trivial, c); err != nil {
		return nil, err
	}

	empty := &dtNode[S]{word: []S{}, state: 0}
	other := &dtNode[S]{word: c, state: 1}
	l.root = &dtNode[S]{word: []S{}}
	if emptyAccepted {
		l.root.setChildren(empty, other)
	} else {
		l.root.setChildren(other, empty)
	}
	l.leaves = []*dtNode[S]{empty, other}

	hypothesis, err := l.settle()
	if err != nil {
		return nil, err
	}
	for round := 1; ; round++ {
		l.logger.Debug("hypothesis", "round", round, "states", hypothesis.NumStates())
		wrong, err := l.misclassifies(hypothesis, c)
		if err != nil {
			return nil, err
		}
		if !wrong {
			c, ok, err = teacher.Equivalent(hypothesis)
			if err != nil {
				return nil, err
			}
			if ok {
				return hypothesis, nil
			}
			if c, err = l.counterexample(hypothesis, c); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.refine(c); err != nil {
			return nil, err
		}
		if hypothesis, err = l.settle(); err != nil {
			return nil, err
		}
	}
}

func (l *learner[S]) key(word []S) (string, error) {
	codes, err := l.alphabet.encodeWord(word)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, len(codes))
	for _, code := range codes {
		buf = binary.AppendUvarint(buf, uint64(code))
	}
	return string(buf), nil
}

func (l *learner[S]) member(word []S) (bool, error) {
	key, err := l.key(word)
	if err != nil {
		return false, err
	}
	if ok, cached := l.cache.Get(key); cached {
		return ok, nil
	}
	ok, err := l.teacher.Accepts(word)
	if err != nil {
		return false, err
	}
	l.cache.Add(key, ok)
	return ok, nil
}

func (l *learner[S]) misclassifies(hypothesis *Automaton[S], word []S) (bool, error) {
	want, err := l.member(word)
	if err != nil {
		return false, err
	}
	got, err := hypothesis.Accepts(word)
	if err != nil {
		return false, err
	}
	return got != want, nil
}

// counterexample Drops the epsilons of c and makes sure the hypothesis gets it wrong.
func (l *learner[S]) counterexample(hypothesis *Automaton[S], c []S) ([]S, error) {
	res := make([]S, 0, len(c))
	for _, s := range c {
		if !l.alphabet.Contains(s) {
			return nil, fmt.Errorf("%w: counterexample symbol %v not in alphabet", ErrInvalidArgument, s)
		}
		if !l.alphabet.IsEpsilon(s) {
			res = append(res, s)
		}
	}
	wrong, err := l.misclassifies(hypothesis, res)
	if err != nil {
		return nil, err
	}
	if !wrong {
		return nil, fmt.Errorf("%w: %v is no counterexample", ErrInvalidArgument, res)
	}
	return res, nil
}

func (l *learner[S]) trivialHypothesis(accept bool) (*Automaton[S], error) {
	b := NewBuilderV1(l.alphabet, 1)
	s := b.AddState()
	for _, symbol := range l.symbols {
		if err := b.AddTransition(s, s, symbol); err != nil {
			return nil, err
		}
	}
	if accept {
		if err := b.SetAsAccept(s); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func (l *learner[S]) sift(word []S) (*dtNode[S], error) {
	n := l.root
	for !n.isLeaf() {
		ok, err := l.member(slices.Concat(word, n.word))
		if err != nil {
			return nil, err
		}
		if ok {
			n = n.accept
		} else {
			n = n.reject
		}
	}
	return n, nil
}

// settle Builds the hypothesis of the current tree: one state per leaf, the successor of a
// state on a symbol being the leaf its access word followed by the symbol sifts to.
func (l *learner[S]) settle() (*Automaton[S], error) {
	l.delta = make([][]int, len(l.leaves))
	b := NewBuilderV1(l.alphabet, len(l.leaves))
	for range l.leaves {
		b.AddState()
	}
	for s, leaf := range l.leaves {
		l.delta[s] = make([]int, len(l.symbols))
		for i, symbol := range l.symbols {
			dest, err := l.sift(append(slices.Clip(leaf.word), symbol))
			if err != nil {
				return nil, err
			}
			l.delta[s][i] = dest.state
			if err := b.AddTransition(s, dest.state, symbol); err != nil {
				return nil, err
			}
		}
		accept, err := l.member(leaf.word)
		if err != nil {
			return nil, err
		}
		if accept {
			if err := b.SetAsAccept(s); err != nil {
				return nil, err
			}
		}
	}
	return b.Build()
}

// refine Finds the first prefix of c whose hypothesis state differs from the leaf it sifts
// to, and splits the leaf of the state reached one symbol earlier.
func (l *learner[S]) refine(c []S) error {
	state := 0
	for i, symbol := range c {
		code, _ := l.alphabet.Encode(symbol)
		prev := state
		state = l.delta[prev][code-1]
		sifted, err := l.sift(c[:i+1])
		if err != nil {
			return err
		}
		if sifted == l.leaves[state] {
			continue
		}
		lca := lowestCommonAncestor(sifted, l.leaves[state])
		discriminator := append([]S{symbol}, lca.word...)
		return l.split(l.leaves[prev], slices.Clone(c[:i]), discriminator)
	}
	return fmt.Errorf("%w: %v is no counterexample", ErrInvalidArgument, c)
}

// split Turns leaf into an inner node telling its access word apart from access by
// discriminator; access becomes the access word of a new state.
func (l *learner[S]) split(leaf *dtNode[S], access, discriminator []S) error {
	oldAccepted, err := l.member(slices.Concat(leaf.word, discriminator))
	if err != nil {
		return err
	}
	newAccepted, err := l.member(slices.Concat(access, discriminator))
	if err != nil {
		return err
	}
	if oldAccepted == newAccepted {
		return fmt.Errorf("%w: teacher answers inconsistently on %v", ErrInvalidArgument, discriminator)
	}

	old := &dtNode[S]{word: leaf.word, state: leaf.state}
	added := &dtNode[S]{word: access, state: len(l.leaves)}
	leaf.word = discriminator
	if oldAccepted {
		leaf.setChildren(old, added)
	} else {
		leaf.setChildren(added, old)
	}
	l.leaves[old.state] = old
	l.leaves = append(l.leaves, added)
	return nil
}
