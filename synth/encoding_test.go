package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	automaton "github.com/geange/fsasynth"
	"github.com/geange/fsasynth/sat"
)

var (
	alphabet1 = automaton.NewAlphabet("e", "a1")
	alphabet2 = automaton.NewAlphabet("e", "a1", "a2")
)

func newTestEncoding(t *testing.T, numStates int, alphabet *automaton.Alphabet[string]) *FSAEncoding[string] {
	t.Helper()
	enc, err := NewFSAEncoding(sat.NewSolver(sat.NewGini()), numStates, alphabet)
	require.NoError(t, err)
	return enc
}

// enumerateAll Checks every resolved instance and returns how many there are.
func enumerateAll(t *testing.T, enc *FSAEncoding[string], check func(a *automaton.Automaton[string])) int {
	t.Helper()
	count, err := Enumerate(context.Background(), enc, 0, func(a *automaton.Automaton[string]) bool {
		assert.True(t, a.IsDeterministic())
		assert.Equal(t, enc.NumStates(), a.NumStates())
		assert.Equal(t, 0, a.StartState())
		check(a)
		return true
	})
	require.NoError(t, err)
	return count
}

func accepts(t *testing.T, a *automaton.Automaton[string], word ...string) bool {
	t.Helper()
	ok, err := a.Accepts(word)
	require.NoError(t, err)
	return ok
}

func TestNewFSAEncoding(t *testing.T) {
	_, err := NewFSAEncoding(sat.NewSolver(sat.NewGini()), 0, alphabet1)
	assert.ErrorIs(t, err, automaton.ErrInvalidArgument)

	_, err = NewFSAEncoding[string](nil, 2, alphabet1)
	assert.ErrorIs(t, err, automaton.ErrNullArgument)

	enc := newTestEncoding(t, 3, alphabet2)
	a, err := enc.Resolve()
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "s0", a.StateName(0))
	assert.Equal(t, "s2", a.StateName(2))
	assert.Positive(t, a.NumTransitions())
	assert.Positive(t, a.AcceptStates().Count())
}

func TestFSAEncoding_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		ensure func(enc *FSAEncoding[string]) error
		empty  func(a *automaton.Automaton[string]) uint
		count  int
	}{
		{
			name:   "No unreachable state",
			ensure: (*FSAEncoding[string]).EnsureNoUnreachableState,
			empty:  func(a *automaton.Automaton[string]) uint { return a.UnreachableStates().Count() },
			count:  9,
		},
		{
			name:   "No dead-end state",
			ensure: (*FSAEncoding[string]).EnsureNoDeadEndState,
			empty:  func(a *automaton.Automaton[string]) uint { return a.DeadEndStates().Count() },
			count:  14,
		},
		{
			name:   "No dangling state",
			ensure: (*FSAEncoding[string]).EnsureNoDanglingState,
			empty:  func(a *automaton.Automaton[string]) uint { return a.DanglingStates().Count() },
			count:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := newTestEncoding(t, 2, alphabet1)
			require.NoError(t, tt.ensure(enc))
			// idempotent
			require.NoError(t, tt.ensure(enc))

			count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
				assert.Zero(t, tt.empty(a))
			})
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestFSAEncoding_Words(t *testing.T) {
	word1 := []string{"a1", "a1", "a1", "a1", "a1"}
	word2 := []string{"a1", "a1"}

	newDangling := func(t *testing.T) *FSAEncoding[string] {
		enc := newTestEncoding(t, 3, alphabet1)
		require.NoError(t, enc.EnsureNoDanglingState())
		return enc
	}

	t.Run("Accepting a word", func(t *testing.T) {
		enc := newDangling(t)
		require.NoError(t, enc.EnsureAccepting(word1))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.True(t, accepts(t, a, word1...))
			assert.Zero(t, a.DanglingStates().Count())
		})
		assert.Equal(t, 16, count)
	})

	t.Run("Not accepting a word", func(t *testing.T) {
		enc := newDangling(t)
		require.NoError(t, enc.EnsureNoAccepting(word1))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.False(t, accepts(t, a, word1...))
		})
		assert.Equal(t, 12, count)
	})

	t.Run("Accepting by indicator", func(t *testing.T) {
		enc := newDangling(t)
		yes, err := enc.Solver().NewFreeVariable()
		require.NoError(t, err)
		require.NoError(t, enc.Solver().SetLiteralsTruthy(yes))
		require.NoError(t, enc.WhetherAcceptWord(-yes, word1))
		require.NoError(t, enc.WhetherAcceptWord(yes, word2))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.False(t, accepts(t, a, word1...))
			assert.True(t, accepts(t, a, word2...))
		})
		assert.Equal(t, 8, count)
	})

	t.Run("Epsilon in words is skipped", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet1)
		require.NoError(t, enc.EnsureAccepting([]string{"e", "a1", "e"}))
		require.NoError(t, enc.EnsureNoAccepting(nil))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.True(t, accepts(t, a, "a1"))
			assert.False(t, accepts(t, a))
		})
		assert.Positive(t, count)
	})

	t.Run("Unknown symbol", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet1)
		assert.ErrorIs(t, enc.EnsureAccepting([]string{"a2"}), automaton.ErrInvalidArgument)
	})

	t.Run("Accepting and rejecting the same word", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet2)
		require.NoError(t, enc.EnsureNoDanglingState())
		word := []string{"a1", "a2"}
		require.NoError(t, enc.EnsureAccepting(word))
		require.NoError(t, enc.EnsureNoAccepting(word))

		ok, err := enc.Solver().FindItSatisfiable()
		require.NoError(t, err)
		assert.False(t, ok)
		a, err := enc.Resolve()
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("Accepting and rejecting several words", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet2)
		require.NoError(t, enc.EnsureNoDanglingState())
		require.NoError(t, enc.EnsureAccepting([]string{"a1", "a2"}))
		require.NoError(t, enc.EnsureAccepting([]string{"a2", "a2"}))
		require.NoError(t, enc.EnsureNoAccepting([]string{"a2", "a1"}))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.True(t, accepts(t, a, "a1", "a2"))
			assert.True(t, accepts(t, a, "a2", "a2"))
			assert.False(t, accepts(t, a, "a2", "a1"))
		})
		assert.Positive(t, count)
	})
}

func TestFSAEncoding_EnsureNoWordPurelyMadeOf(t *testing.T) {
	t.Run("Single symbol", func(t *testing.T) {
		word3 := []string{"a1", "a2", "a1"}
		word4 := []string{"a2", "a1", "a2"}
		enc := newTestEncoding(t, 2, alphabet2)
		require.NoError(t, enc.EnsureNoDanglingState())
		require.NoError(t, enc.EnsureAccepting(word3))
		require.NoError(t, enc.EnsureAccepting(word4))
		require.NoError(t, enc.EnsureNoWordPurelyMadeOf([]string{"a1"}))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.True(t, accepts(t, a, word3...))
			assert.True(t, accepts(t, a, word4...))
			assert.False(t, accepts(t, a, "a1"))
			assert.False(t, accepts(t, a, "a1", "a1"))
		})
		assert.Equal(t, 1, count)
	})

	t.Run("Whole alphabet", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet2)
		require.NoError(t, enc.EnsureNoDanglingState())
		require.NoError(t, enc.EnsureNoWordPurelyMadeOf(alphabet2.Symbols()))
		ok, err := enc.Solver().FindItSatisfiable()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Epsilon only", func(t *testing.T) {
		enc := newTestEncoding(t, 1, alphabet2)
		require.NoError(t, enc.EnsureAccepting(nil))
		require.NoError(t, enc.EnsureNoWordPurelyMadeOf([]string{alphabet2.Epsilon()}))
		count := enumerateAll(t, enc, func(a *automaton.Automaton[string]) {
			assert.True(t, accepts(t, a))
		})
		assert.Positive(t, count)
	})
}

func TestCertainWord(t *testing.T) {
	t.Run("Accepted by the synthesized automaton", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet2)
		require.NoError(t, enc.EnsureNoDanglingState())
		yes, err := enc.Solver().NewFreeVariable()
		require.NoError(t, err)
		w, err := enc.EnsureAcceptingCertainWordIf(yes, 3)
		require.NoError(t, err)
		require.NoError(t, enc.Solver().SetLiteralsTruthy(yes))
		require.NoError(t, w.SetCharacterAt(0, "a2"))
		assert.Equal(t, 3, w.Len())

		a, err := enc.Resolve()
		require.NoError(t, err)
		require.NotNil(t, a)
		word, err := w.Resolve()
		require.NoError(t, err)
		assert.Len(t, word, 3)
		assert.Equal(t, "a2", word[0])
		assert.True(t, accepts(t, a, word...))
	})

	t.Run("Accepted by a given automaton", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet2)
		yes, err := enc.Solver().NewFreeVariable()
		require.NoError(t, err)
		w, err := enc.EnsureAcceptingCertainWordIf(yes, 2)
		require.NoError(t, err)

		// words of a1* a2 only
		b := automaton.NewBuilder(alphabet2)
		s0, s1 := b.AddState(), b.AddState()
		require.NoError(t, b.AddTransition(s0, s0, "a1"))
		require.NoError(t, b.AddTransition(s0, s1, "a2"))
		require.NoError(t, b.SetAsAccept(s1))
		fsa, err := b.Build()
		require.NoError(t, err)
		require.NoError(t, w.EnsureAcceptedBy(fsa))

		ok, err := enc.Solver().FindItSatisfiable()
		require.NoError(t, err)
		require.True(t, ok)
		word, err := w.Resolve()
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2"}, word)
	})

	t.Run("Invalid characters", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet2)
		indicator, err := enc.Solver().NewFreeVariable()
		require.NoError(t, err)
		w, err := enc.EnsureAcceptingCertainWordIf(indicator, 2)
		require.NoError(t, err)

		_, err = w.CharacterIndicator(2, "a1")
		assert.ErrorIs(t, err, automaton.ErrInvalidArgument)
		_, err = w.CharacterIndicator(0, "e")
		assert.ErrorIs(t, err, automaton.ErrInvalidArgument)
		assert.ErrorIs(t, w.SetCharacterAt(0, "b"), automaton.ErrInvalidArgument)

		v, err := w.CharacterIndicator(1, "a2")
		require.NoError(t, err)
		assert.Positive(t, v)
	})
}

func TestEnumerate(t *testing.T) {
	t.Run("Limit", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet1)
		require.NoError(t, enc.EnsureNoUnreachableState())
		var seen []string
		count, err := Enumerate(context.Background(), enc, 4, func(a *automaton.Automaton[string]) bool {
			seen = append(seen, a.String())
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		// the blocked instances never come back
		rest, err := Enumerate(context.Background(), enc, 0, func(a *automaton.Automaton[string]) bool {
			assert.NotContains(t, seen, a.String())
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, 5, rest)
	})

	t.Run("Yield stops", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet1)
		count, err := Enumerate(context.Background(), enc, 0, func(*automaton.Automaton[string]) bool {
			return false
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Cancelled", func(t *testing.T) {
		enc := newTestEncoding(t, 2, alphabet1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		count, err := Enumerate(ctx, enc, 0, func(*automaton.Automaton[string]) bool {
			return true
		})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Zero(t, count)
	})
}
