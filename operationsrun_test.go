package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccepts(t *testing.T) {
	tests := []struct {
		name string
		a    *Automaton[string]
		word []string
		want bool
	}{
		{name: "empty word", a: abStar(t), word: nil, want: true},
		{name: "epsilon skipped", a: abStar(t), word: []string{"a", eps, "b"}, want: true},
		{name: "missing transition", a: abStar(t), word: word("aa"), want: false},
		{
			name: "nondeterministic",
			a:    newTestAutomaton(t, abAlphabet(), 3, []int{2}, "0 a 0", "0 b 0", "0 a 1", "1 b 2"),
			word: word("bbab"),
			want: true,
		},
		{
			name: "epsilon loop",
			a:    newTestAutomaton(t, abAlphabet(), 2, []int{1}, "0 ε 1", "1 ε 0", "1 a 1"),
			word: word("aaa"),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Accepts(tt.word)
			require.NoError(t, err)
			assert.Equalf(t, tt.want, got, "Accepts(%v)", tt.word)
		})
	}

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := abStar(t).Accepts([]string{"c"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestShortestWord(t *testing.T) {
	t.Run("testDeterministic", func(t *testing.T) {
		a := newTestAutomaton(t, abAlphabet(), 4, []int{3}, "0 a 1", "1 a 2", "2 a 3", "0 b 3")
		w, ok := a.ShortestWord()
		assert.True(t, ok)
		assert.Equal(t, []string{"b"}, w)
	})

	t.Run("testEmptyWord", func(t *testing.T) {
		w, ok := abStar(t).ShortestWord()
		assert.True(t, ok)
		assert.Empty(t, w)
	})

	t.Run("testEpsilonIsFree", func(t *testing.T) {
		a := newTestAutomaton(t, abAlphabet(), 5, []int{4},
			"0 a 1", "1 a 4", "0 ε 2", "2 ε 3", "3 b 4")
		w, ok := a.ShortestWord()
		assert.True(t, ok)
		assert.Equal(t, []string{"b"}, w)
	})

	t.Run("testEmptyLanguage", func(t *testing.T) {
		a := newTestAutomaton(t, abAlphabet(), 2, []int{1}, "1 a 1")
		_, ok := a.ShortestWord()
		assert.False(t, ok)
		assert.True(t, a.AcceptsNone())
	})
}

func TestAcceptsAll(t *testing.T) {
	universal := newTestAutomaton(t, abAlphabet(), 1, []int{0}, "0 a 0", "0 b 0")
	all, err := universal.AcceptsAll()
	require.NoError(t, err)
	assert.True(t, all)

	all, err = abStar(t).AcceptsAll()
	require.NoError(t, err)
	assert.False(t, all)
}

func TestRunAutomaton(t *testing.T) {
	a := newTestAutomaton(t, abAlphabet(), 3, []int{2}, "0 a 0", "0 b 0", "0 a 1", "1 b 2")
	r, err := NewRunAutomaton(a)
	require.NoError(t, err)
	assert.Equal(t, 3, r.NumStates())
	assert.Equal(t, -1, r.Step(r.Start(), EpsilonCode))

	for _, w := range []string{"", "a", "ab", "bab", "abb", "aab"} {
		want, err := a.Accepts(word(w))
		require.NoError(t, err)
		got, err := r.Run(word(w))
		require.NoError(t, err)
		assert.Equal(t, want, got, "word %q", w)
	}

	// every state has a successor on every symbol
	for s := 0; s < r.NumStates(); s++ {
		for code := 1; code < r.Alphabet().Size(); code++ {
			assert.GreaterOrEqual(t, r.Step(s, code), 0)
		}
	}
}
