package vata

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	automaton "github.com/geange/fsasynth"
)

// minimizingRunner Stands in for the external tool: "red" minimizes its input, "incl"
// checks containment of the first input in the second.
type minimizingRunner struct {
	alphabet *automaton.Alphabet[string]
	calls    [][]string
}

func (r *minimizingRunner) read(path string) (*automaton.Automaton[string], error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(r.alphabet, string(text))
}

func (r *minimizingRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)
	switch args[0] {
	case "red":
		a, err := r.read(args[1])
		if err != nil {
			return nil, err
		}
		m, err := automaton.Minimize(a)
		if err != nil {
			return nil, err
		}
		return []byte(Marshal(m)), nil
	case "incl":
		subsumer, err := r.read(args[1])
		if err != nil {
			return nil, err
		}
		includer, err := r.read(args[2])
		if err != nil {
			return nil, err
		}
		res, err := automaton.CheckLanguageContainment(includer, subsumer)
		if err != nil {
			return nil, err
		}
		if res.Passed {
			return []byte("1\n"), nil
		}
		return []byte("0\n"), nil
	}
	return nil, fmt.Errorf("unknown command %q", args[0])
}

type answerRunner string

func (r answerRunner) Run(context.Context, ...string) ([]byte, error) {
	return []byte(r), nil
}

func TestReduce(t *testing.T) {
	alphabet := testAlphabet()
	ctx := context.Background()
	runner := &minimizingRunner{alphabet: alphabet}
	r := NewReducer(runner)

	tests := []struct {
		name string
		expr string
	}{
		{"repeatedWord", "<a1><a1><a1>|<a1><a1><a1>"},
		{"star", "(<a1>|<a2>)*<a2>"},
		{"none", "#"},
		{"all", "(<a1>|<a2>)*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := automaton.ParseRegExp(alphabet, tt.expr)
			require.NoError(t, err)
			reduced, err := Reduce(ctx, r, a)
			require.NoError(t, err)
			assert.LessOrEqual(t, reduced.NumStates(), a.NumStates())
			assertSameLanguage(t, a, reduced)
		})
	}

	require.NotEmpty(t, runner.calls)
	for _, call := range runner.calls {
		assert.Len(t, call, 2)
		_, err := os.Stat(call[1])
		assert.True(t, os.IsNotExist(err), "temp file %s left behind", call[1])
	}
}

func TestCheckInclusion(t *testing.T) {
	alphabet := testAlphabet()
	ctx := context.Background()
	r := NewReducer(&minimizingRunner{alphabet: alphabet}, WithTempDir(t.TempDir()))

	word, err := automaton.MakeWord(alphabet, []string{"a1", "a2"})
	require.NoError(t, err)
	star, err := automaton.ParseRegExp(alphabet, "(<a1><a2>)*")
	require.NoError(t, err)

	included, err := CheckInclusion(ctx, r, word, star)
	require.NoError(t, err)
	assert.True(t, included)

	included, err = CheckInclusion(ctx, r, star, word)
	require.NoError(t, err)
	assert.False(t, included)

	t.Run("testUnexpectedAnswer", func(t *testing.T) {
		_, err := CheckInclusion(ctx, NewReducer(answerRunner("maybe")), word, star)
		assert.ErrorIs(t, err, ErrReducer)
	})

	t.Run("testArgs", func(t *testing.T) {
		runner := &minimizingRunner{alphabet: alphabet}
		r := NewReducer(runner, WithInclusionArgs("incl"), WithReduceArgs("red"))
		_, err := CheckInclusion(ctx, r, word, star)
		require.NoError(t, err)
		require.Len(t, runner.calls, 1)
		assert.Len(t, runner.calls[0], 3)
	})
}

func TestExecRunner(t *testing.T) {
	path, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	alphabet := testAlphabet()
	ctx := context.Background()

	// cat echoes the automaton back unchanged
	r := NewReducer(&ExecRunner{Path: path}, WithReduceArgs())
	a, err := automaton.ParseRegExp(alphabet, "<a2>+")
	require.NoError(t, err)
	got, err := Reduce(ctx, r, a)
	require.NoError(t, err)
	assert.Equal(t, a.NumStates(), got.NumStates())
	assertSameLanguage(t, a, got)

	t.Run("testFailure", func(t *testing.T) {
		r := NewReducer(&ExecRunner{Path: path}, WithReduceArgs("--no-such-flag"))
		_, err := Reduce(ctx, r, a)
		assert.ErrorIs(t, err, ErrReducer)
	})
}
