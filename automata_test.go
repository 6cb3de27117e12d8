package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomata(t *testing.T) {
	t.Run("testSameInstance", func(t *testing.T) {
		c := NewAutomata(8)
		alphabet := abAlphabet()
		none := AcceptsNoneOf(c, alphabet)
		all := AcceptsAllOf(c, alphabet)
		assert.Same(t, none, AcceptsNoneOf(c, alphabet))
		assert.Same(t, all, AcceptsAllOf(c, alphabet))
		assert.NotSame(t, none, all)
		assert.Equal(t, 2, c.Len())

		assert.True(t, none.AcceptsNone())
		ok, err := all.AcceptsAll()
		require.NoError(t, err)
		assert.True(t, ok)
		complete, err := none.IsComplete()
		require.NoError(t, err)
		assert.True(t, complete)

		// equal alphabets are still distinct identities
		assert.NotSame(t, none, AcceptsNoneOf(c, abAlphabet()))
	})

	t.Run("testEviction", func(t *testing.T) {
		c := NewAutomata(1)
		a1, a2 := abAlphabet(), abAlphabet()
		first := AcceptsNoneOf(c, a1)
		AcceptsNoneOf(c, a2)
		assert.Equal(t, 1, c.Len())
		assert.NotSame(t, first, AcceptsNoneOf(c, a1))

		c.Purge()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("testDefaultCapacity", func(t *testing.T) {
		c := NewAutomata(0)
		AcceptsAllOf(c, abAlphabet())
		assert.Equal(t, 1, c.Len())
	})
}

func TestAcceptingOnly(t *testing.T) {
	alphabet := abAlphabet()
	a, err := AcceptingOnly(alphabet, word("ab"), word("b"), word("ab"))
	require.NoError(t, err)
	assertLanguage(t, a, []string{"ab", "b"}, []string{"", "a", "abb", "ba"})

	w, err := MakeWord(alphabet, []string{eps, "a", eps})
	require.NoError(t, err)
	assert.True(t, w.IsDeterministic())
	assertLanguage(t, w, []string{"a"}, []string{"", "aa"})

	_, err = AcceptingOnly(alphabet, word("abc"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	empty := AcceptsEmptyWordOf(alphabet)
	assertLanguage(t, empty, []string{""}, []string{"a"})
}
