package automaton

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = "ε"

func abAlphabet() *Alphabet[string] {
	return NewAlphabet(eps, "a", "b")
}

// newTestAutomaton Builds an automaton with states 0..numStates-1, state 0 being the start.
// Transitions are written "src symbol dst".
func newTestAutomaton(t *testing.T, alphabet *Alphabet[string], numStates int, accepts []int,
	transitions ...string) *Automaton[string] {
	t.Helper()
	b := NewBuilderV1(alphabet, numStates)
	for i := 0; i < numStates; i++ {
		b.AddState()
	}
	for _, s := range accepts {
		require.NoError(t, b.SetAsAccept(s))
	}
	for _, tr := range transitions {
		fields := strings.Fields(tr)
		require.Len(t, fields, 3)
		src, err := strconv.Atoi(fields[0])
		require.NoError(t, err)
		dst, err := strconv.Atoi(fields[2])
		require.NoError(t, err)
		require.NoError(t, b.AddTransition(src, dst, fields[1]))
	}
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

func word(s string) []string {
	res := make([]string, 0, len(s))
	for _, c := range s {
		res = append(res, string(c))
	}
	return res
}

// abStar accepts (ab)*.
func abStar(t *testing.T) *Automaton[string] {
	return newTestAutomaton(t, abAlphabet(), 2, []int{0}, "0 a 1", "1 b 0")
}

func TestBuilder(t *testing.T) {
	t.Run("testFirstStateIsStart", func(t *testing.T) {
		b := NewBuilder(abAlphabet())
		s0 := b.AddState()
		s1 := b.AddNamedState("q1")
		require.NoError(t, b.SetAsAccept(s1))
		require.NoError(t, b.AddTransition(s0, s1, "a"))

		a, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, s0, a.StartState())
		assert.Equal(t, 2, a.NumStates())
		assert.Equal(t, 1, a.NumTransitions())
		assert.Equal(t, "s0", a.StateName(0))
		assert.Equal(t, "q1", a.StateName(1))
		assert.True(t, a.IsDeterministic())
	})

	t.Run("testStructuralErrors", func(t *testing.T) {
		b := NewBuilder(abAlphabet())
		s0 := b.AddState()
		assert.ErrorIs(t, b.AddTransition(s0, s0, "c"), ErrStructuralInconsistency)
		assert.ErrorIs(t, b.AddTransition(s0, 5, "a"), ErrStructuralInconsistency)
		assert.ErrorIs(t, b.SetAsAccept(5), ErrStructuralInconsistency)
		assert.ErrorIs(t, b.RemoveTransition(s0, s0, "a"), ErrNonexistentElement)
	})

	t.Run("testRemoveStateCompacts", func(t *testing.T) {
		b := NewBuilder(abAlphabet())
		s0, s1, s2 := b.AddState(), b.AddState(), b.AddState()
		require.NoError(t, b.AddTransition(s0, s1, "a"))
		require.NoError(t, b.AddTransition(s1, s2, "b"))
		require.NoError(t, b.AddTransition(s0, s2, "b"))
		require.NoError(t, b.SetAsAccept(s2))
		require.NoError(t, b.RemoveState(s1))
		assert.Equal(t, 2, b.NumStates())

		a, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, 2, a.NumStates())
		assert.Equal(t, 1, a.NumTransitions())
		assert.True(t, a.IsAccept(1))
		ok, err := a.Accepts([]string{"b"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("testRemovedStart", func(t *testing.T) {
		b := NewBuilder(abAlphabet())
		s0 := b.AddState()
		b.AddState()
		require.NoError(t, b.RemoveState(s0))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrStructuralInconsistency)
	})

	t.Run("testEmptyBuilder", func(t *testing.T) {
		a, err := NewBuilder(abAlphabet()).Build()
		require.NoError(t, err)
		assert.Equal(t, 1, a.NumStates())
		assert.True(t, a.AcceptsNone())
	})
}

func TestAutomaton(t *testing.T) {
	t.Run("testQueries", func(t *testing.T) {
		a := abStar(t)
		assert.Equal(t, []int{0}, NewFrozenIntSet(a.AcceptStates()).GetArray())
		assert.Equal(t, []int{1}, NewFrozenIntSet(a.NonAcceptStates()).GetArray())

		next, err := a.Successor(0, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, next)
		next, err = a.Successor(0, "b")
		require.NoError(t, err)
		assert.Equal(t, -1, next)
		_, err = a.Successor(0, "c")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		incomplete, err := a.IncompleteStates()
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, incomplete)
		complete, err := a.IsComplete()
		require.NoError(t, err)
		assert.False(t, complete)

		transitions := make([]Transition[string], 0)
		for tr := range a.Transitions() {
			transitions = append(transitions, tr)
		}
		assert.Equal(t, []Transition[string]{
			{Source: 0, Dest: 1, Symbol: "a"},
			{Source: 1, Dest: 0, Symbol: "b"},
		}, transitions)
	})

	t.Run("testNondeterministicQueries", func(t *testing.T) {
		a := newTestAutomaton(t, abAlphabet(), 2, []int{1}, "0 a 0", "0 a 1")
		assert.False(t, a.IsDeterministic())
		_, err := a.IncompleteStates()
		assert.ErrorIs(t, err, ErrUnsupportedOnNondeterministic)
		_, err = a.Successor(0, "a")
		assert.ErrorIs(t, err, ErrUnsupportedOnNondeterministic)
	})

	t.Run("testDanglingStates", func(t *testing.T) {
		// 2 is unreachable, 3 is a dead end
		a := newTestAutomaton(t, abAlphabet(), 4, []int{1}, "0 a 1", "2 a 1", "0 b 3")
		assert.Equal(t, []int{2}, NewFrozenIntSet(a.UnreachableStates()).GetArray())
		assert.Equal(t, []int{3}, NewFrozenIntSet(a.DeadEndStates()).GetArray())
		assert.Equal(t, []int{2, 3}, NewFrozenIntSet(a.DanglingStates()).GetArray())
	})

	t.Run("testString", func(t *testing.T) {
		dump := abStar(t).String()
		assert.Contains(t, dump, "start: s0\n")
		assert.Contains(t, dump, "accept: s0\n")
		assert.Contains(t, dump, "s0 -a-> s1\n")
		assert.Contains(t, dump, "s1 -b-> s0\n")
	})
}
