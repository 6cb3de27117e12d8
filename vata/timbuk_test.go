package vata

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	automaton "github.com/geange/fsasynth"
)

func testAlphabet() *automaton.Alphabet[string] {
	return automaton.NewAlphabet("e", "a1", "a2")
}

func assertSameLanguage(t *testing.T, want, got *automaton.Automaton[string]) {
	t.Helper()
	res, err := automaton.CheckLanguageEquivalence(want, got)
	require.NoError(t, err)
	assert.True(t, res.Equivalent, "want\n%s\ngot\n%s", want, got)
}

func TestEncoder(t *testing.T) {
	alphabet := testAlphabet()
	e := EncoderOf(alphabet)
	assert.Same(t, e, EncoderOf(alphabet))

	for code, symbol := range alphabet.Symbols() {
		token, ok := e.Encode(symbol)
		require.True(t, ok)
		assert.Equal(t, tokenOf(code), token)

		back, ok := e.Decode(token)
		require.True(t, ok)
		assert.Equal(t, symbol, back)
	}

	_, ok := e.Encode("b")
	assert.False(t, ok)
	_, ok = e.Decode("a3")
	assert.False(t, ok)

	other := automaton.NewAlphabet("e", "a2", "a1")
	token, ok := EncoderOf(other).Encode("a2")
	require.True(t, ok)
	assert.Equal(t, "a1", token)
}

func TestMarshal(t *testing.T) {
	alphabet := testAlphabet()
	a, err := automaton.MakeWord(alphabet, []string{"a2", "a1"})
	require.NoError(t, err)

	want := strings.Join([]string{
		"Ops init:0 a1:1 a2:1",
		"",
		"Automaton A",
		"States q0 q1 q2",
		"Final States q2",
		"Transitions",
		"init -> q0",
		"a2(q0) -> q1",
		"a1(q1) -> q2",
		"",
	}, "\n")
	if diff := cmp.Diff(want, Marshal(a)); diff != "" {
		t.Errorf("Marshal() mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal(t *testing.T) {
	alphabet := testAlphabet()

	t.Run("testRoundTrip", func(t *testing.T) {
		words, err := automaton.AcceptingOnly(alphabet,
			[]string{"a1", "a2"}, []string{"a2"}, []string{})
		require.NoError(t, err)
		star, err := automaton.ParseRegExp(alphabet, "(<a1><a2>)*")
		require.NoError(t, err)

		for _, a := range []*automaton.Automaton[string]{
			words,
			star,
			automaton.AcceptsAll(alphabet),
		} {
			got, err := Unmarshal(alphabet, Marshal(a))
			require.NoError(t, err)
			assert.Equal(t, a.NumStates(), got.NumStates())
			assertSameLanguage(t, a, got)
		}
	})

	t.Run("testStateNames", func(t *testing.T) {
		text := `Ops init:0 a1:1 a2:1

Automaton reduced
States p r
Final States r
Transitions
init -> r
a1(r) -> p
a2(p) -> r
`
		got, err := Unmarshal(alphabet, text)
		require.NoError(t, err)
		assert.Equal(t, 2, got.NumStates())
		assert.Equal(t, "r", got.StateName(got.StartState()))

		ok, err := got.Accepts([]string{"a1", "a2", "a1", "a2"})
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = got.Accepts([]string{"a1"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("testNoFinalStates", func(t *testing.T) {
		text := "Ops init:0 a1:1\n\nAutomaton A\nStates q0\nFinal States\nTransitions\ninit -> q0\na1(q0) -> q0\n"
		got, err := Unmarshal(alphabet, text)
		require.NoError(t, err)
		assert.True(t, got.AcceptsNone())
	})

	t.Run("testMalformed", func(t *testing.T) {
		tests := []struct {
			name string
			text string
		}{
			{"empty", ""},
			{"noOps", "Automaton A\nStates q0\nFinal States q0\nTransitions\ninit -> q0\n"},
			{"noStates", "Ops init:0\n\nAutomaton A\nFinal States q0\nTransitions\ninit -> q0\n"},
			{"noTransitions", "Ops init:0\n\nAutomaton A\nStates q0\nFinal States q0\n"},
			{"noInit", "Ops init:0 a1:1\n\nAutomaton A\nStates q0\nFinal States q0\nTransitions\na1(q0) -> q0\n"},
			{"unknownOperation", "Ops init:0\n\nAutomaton A\nStates q0\nFinal States q0\nTransitions\ninit -> q0\nb(q0) -> q0\n"},
			{"truncatedTransition", "Ops init:0 a1:1\n\nAutomaton A\nStates q0\nFinal States q0\nTransitions\ninit -> q0\na1(q0)\n"},
			{"truncatedAtEnd", "Ops init:0 a1:1\n\nAutomaton A\nStates q0\nFinal States q0\nTransitions\ninit -> q0\na1(q0)"},
			{"truncatedInit", "Ops init:0 a1:1\n\nAutomaton A\nStates q0\nFinal States q0\nTransitions\ninit ->"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Unmarshal(alphabet, tt.text)
				assert.ErrorIs(t, err, ErrMalformed)
				assert.ErrorIs(t, err, automaton.ErrInvalidArgument)
			})
		}
	})
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", []string{}},
		{"  \n", []string{}},
		{"init -> q0", []string{"init", "q0"}},
		{"a1(q0) -> q1\n", []string{"a1", "q0", "q1"}},
		{"\na2(q1)", []string{"a2", "q1"}},
		{"(q0)->(q1)", []string{"q0", "q1"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tokenize(tt.text)); diff != "" {
				t.Errorf("tokenize(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}
