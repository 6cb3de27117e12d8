package automaton

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fstIn  = NewAlphabet(eps, "a", "b")
	fstOut = NewAlphabet(eps, "x", "y")
)

// newTestTransducer Builds a transducer over in×out with states 0..numStates-1, state 0 being
// the start. Transitions are written "src in/out dst".
func newTestTransducer(t *testing.T, in, out *Alphabet[string], numStates int, accepts []int,
	transitions ...string) *Automaton[Pair[string, string]] {
	t.Helper()
	b := NewBuilderV1(NewPairAlphabet(in, out), numStates)
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
		x, y, ok := strings.Cut(fields[1], "/")
		require.True(t, ok)
		require.NoError(t, b.AddTransition(src, dst, Pair[string, string]{In: x, Out: y}))
	}
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

// letters Translates a to x and b to y.
func letters(t *testing.T) *Automaton[Pair[string, string]] {
	return newTestTransducer(t, fstIn, fstOut, 1, []int{0}, "0 a/x 0", "0 b/y 0")
}

func TestNewPairAlphabet(t *testing.T) {
	alphabet := NewPairAlphabet(fstIn, fstOut)
	assert.Equal(t, Pair[string, string]{In: eps, Out: eps}, alphabet.Epsilon())
	assert.Equal(t, 3*3, alphabet.Size())
	assert.True(t, alphabet.Contains(Pair[string, string]{In: "a", Out: eps}))
	assert.True(t, alphabet.Contains(Pair[string, string]{In: eps, Out: "y"}))

	assert.True(t, InputAlphabet(alphabet).Equal(fstIn))
	assert.True(t, OutputAlphabet(alphabet).Equal(fstOut))
	assert.Equal(t, "a/x", Pair[string, string]{In: "a", Out: "x"}.String())
}

func TestDomainAndRange(t *testing.T) {
	// reads a word of a's, then writes a y for free
	f := newTestTransducer(t, fstIn, fstOut, 2, []int{1}, "0 a/x 0", "0 ε/y 1")

	d, err := Domain(f)
	require.NoError(t, err)
	assertLanguage(t, d, []string{"", "a", "aaa"}, []string{"b", "ab"})

	r, err := Range(f)
	require.NoError(t, err)
	assertLanguage(t, r, []string{"y", "xy", "xxy"}, []string{"", "x", "yx"})
}

func TestPostImage(t *testing.T) {
	tests := []struct {
		name     string
		f        *Automaton[Pair[string, string]]
		word     string
		accepted []string
		rejected []string
	}{
		{"letters", letters(t), "ab", []string{"xy"}, []string{"", "x", "yx", "xyx"}},
		{"empty", letters(t), "", []string{""}, []string{"x"}},
		{"insertion", newTestTransducer(t, fstIn, fstOut, 2, []int{0}, "0 a/x 1", "1 ε/y 0"),
			"aa", []string{"xyxy"}, []string{"xx", "xyx"}},
		{"deletion", newTestTransducer(t, fstIn, fstOut, 1, []int{0}, "0 a/x 0", "0 b/ε 0"),
			"bab", []string{"x"}, []string{"", "xx"}},
		{"notInDomain", newTestTransducer(t, fstIn, fstOut, 1, []int{0}, "0 a/x 0"),
			"ab", nil, []string{"", "x", "xy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := PostImageOfWord(tt.f, word(tt.word))
			require.NoError(t, err)
			assertLanguage(t, img, tt.accepted, tt.rejected)
		})
	}

	t.Run("testLanguage", func(t *testing.T) {
		aStar := newTestAutomaton(t, fstIn, 1, []int{0}, "0 a 0")
		img, err := PostImage(letters(t), aStar)
		require.NoError(t, err)
		assertLanguage(t, img, []string{"", "x", "xxx"}, []string{"y", "xy"})
	})

	t.Run("testEpsilonMismatch", func(t *testing.T) {
		other := wordAutomaton(t, NewAlphabet("_", "a"), "a")
		_, err := PostImage(letters(t), other)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func wordAutomaton(t *testing.T, alphabet *Alphabet[string], w string) *Automaton[string] {
	t.Helper()
	a, err := MakeWord(alphabet, word(w))
	require.NoError(t, err)
	return a
}

func TestInverseAndPreImage(t *testing.T) {
	f := letters(t)
	inv, err := Inverse(f)
	require.NoError(t, err)
	assert.Equal(t, Pair[string, string]{In: eps, Out: eps}, inv.Alphabet().Epsilon())
	ok, err := inv.Accepts([]Pair[string, string]{{In: "x", Out: "a"}, {In: "y", Out: "b"}})
	require.NoError(t, err)
	assert.True(t, ok)

	img, err := PostImageOfWord(inv, word("yx"))
	require.NoError(t, err)
	assertLanguage(t, img, []string{"ba"}, []string{"ab", ""})

	pre, err := PreImageOfWord(f, word("yx"))
	require.NoError(t, err)
	assertLanguage(t, pre, []string{"ba"}, []string{"ab", "", "b"})
}

func TestMask(t *testing.T) {
	f := newTestTransducer(t, fstIn, fstOut, 2, []int{0}, "0 a/x 0", "0 b/y 0", "0 ε/y 1", "1 a/ε 0")

	t.Run("testByInput", func(t *testing.T) {
		aStar := newTestAutomaton(t, fstIn, 1, []int{0}, "0 a 0")
		m, err := MaskByInput(f, aStar)
		require.NoError(t, err)
		d, err := Domain(m)
		require.NoError(t, err)
		assertLanguage(t, d, []string{"", "a", "aa"}, []string{"b", "ab"})
		img, err := PostImageOfWord(m, word("a"))
		require.NoError(t, err)
		assertLanguage(t, img, []string{"x", "y"}, []string{"", "xy"})
	})

	t.Run("testByOutput", func(t *testing.T) {
		yStar := newTestAutomaton(t, fstOut, 1, []int{0}, "0 y 0")
		m, err := MaskByOutput(f, yStar)
		require.NoError(t, err)
		r, err := Range(m)
		require.NoError(t, err)
		assertLanguage(t, r, []string{"", "y", "yy"}, []string{"x", "xy"})
		d, err := Domain(m)
		require.NoError(t, err)
		assertLanguage(t, d, []string{"", "a", "b", "ab", "ba"}, nil)
	})

	t.Run("testEpsilonMismatch", func(t *testing.T) {
		_, err := MaskByOutput(f, wordAutomaton(t, NewAlphabet("_", "x"), "x"))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCompose(t *testing.T) {
	digits := NewAlphabet(eps, "1", "2")
	// x becomes 1, y is dropped
	g := newTestTransducer(t, fstOut, digits, 1, []int{0}, "0 x/1 0", "0 y/ε 0")

	fg, err := Compose(letters(t), g)
	require.NoError(t, err)
	assert.True(t, InputAlphabet(fg.Alphabet()).Equal(fstIn))
	assert.True(t, OutputAlphabet(fg.Alphabet()).Equal(digits))

	tests := []struct {
		word     string
		accepted []string
		rejected []string
	}{
		{"", []string{""}, []string{"1"}},
		{"ab", []string{"1"}, []string{"", "11"}},
		{"aba", []string{"11"}, []string{"1"}},
		{"bb", []string{""}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			img, err := PostImageOfWord(fg, word(tt.word))
			require.NoError(t, err)
			assertLanguage(t, img, tt.accepted, tt.rejected)
		})
	}

	t.Run("testEpsilonMoves", func(t *testing.T) {
		// f writes the x of a b one step late, h writes a 2 after each 1
		f := newTestTransducer(t, fstIn, fstOut, 2, []int{0}, "0 a/x 0", "0 b/ε 1", "1 ε/x 0")
		h := newTestTransducer(t, fstOut, digits, 2, []int{0}, "0 x/1 1", "1 ε/2 0")
		fh, err := Compose(f, h)
		require.NoError(t, err)
		img, err := PostImageOfWord(fh, word("ba"))
		require.NoError(t, err)
		assertLanguage(t, img, []string{"1212"}, []string{"12", "11", "1122"})
	})

	t.Run("testEpsilonMismatch", func(t *testing.T) {
		h := newTestTransducer(t, NewAlphabet("_", "x"), digits, 1, []int{0}, "0 x/1 0")
		_, err := Compose(letters(t), h)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}
