package vata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	automaton "github.com/geange/fsasynth"
)

// EncoderCacheCapacity Number of alphabets whose encoders are kept.
const EncoderCacheCapacity = 64

var (
	ErrMalformed = fmt.Errorf("%w: malformed Timbuk text", automaton.ErrInvalidArgument)

	encoders, _ = lru.New[uint64, any](EncoderCacheCapacity)

	separators = regexp.MustCompile(`(\s|\(|\)|->)+`)
)

// Encoder A bijection between the symbols of an alphabet and Timbuk operation names: the
// epsilon is a0 and the other symbols are a1, a2... in code order.
type Encoder[S comparable] struct {
	alphabet *automaton.Alphabet[S]
	decode   map[string]S
}

// EncoderOf Returns the encoder of the alphabet, cached by alphabet identity.
func EncoderOf[S comparable](alphabet *automaton.Alphabet[S]) *Encoder[S] {
	if v, ok := encoders.Get(alphabet.ID()); ok {
		if e, ok := v.(*Encoder[S]); ok {
			return e
		}
	}

	e := &Encoder[S]{
		alphabet: alphabet,
		decode:   make(map[string]S, alphabet.Size()),
	}
	for code, symbol := range alphabet.Symbols() {
		e.decode[tokenOf(code)] = symbol
	}
	encoders.Add(alphabet.ID(), e)
	return e
}

func tokenOf(code int) string {
	return "a" + strconv.Itoa(code)
}

func (e *Encoder[S]) Encode(symbol S) (string, bool) {
	code, ok := e.alphabet.Encode(symbol)
	if !ok {
		return "", false
	}
	return tokenOf(code), true
}

func (e *Encoder[S]) Decode(token string) (S, bool) {
	symbol, ok := e.decode[token]
	return symbol, ok
}

func stateToken(state int) string {
	return "q" + strconv.Itoa(state)
}

// Marshal Writes the automaton as a Timbuk tree automaton over unary operations, one per
// symbol, with the start state given by the nullary operation init.
func Marshal[S comparable](a *automaton.Automaton[S]) string {
	alphabet := a.Alphabet()
	sb := new(strings.Builder)

	sb.WriteString("Ops init:0")
	for code := 1; code < alphabet.Size(); code++ {
		fmt.Fprintf(sb, " %s:1", tokenOf(code))
	}
	sb.WriteString("\n\nAutomaton A\n")

	sb.WriteString("States")
	for s := 0; s < a.NumStates(); s++ {
		sb.WriteString(" ")
		sb.WriteString(stateToken(s))
	}
	sb.WriteString("\n")

	sb.WriteString("Final States")
	accepts := a.AcceptStates()
	for s, ok := accepts.NextSet(0); ok; s, ok = accepts.NextSet(s + 1) {
		sb.WriteString(" ")
		sb.WriteString(stateToken(int(s)))
	}
	sb.WriteString("\n")

	sb.WriteString("Transitions\n")
	fmt.Fprintf(sb, "init -> %s\n", stateToken(a.StartState()))
	for arc := range a.TransitionGraph().Arcs() {
		fmt.Fprintf(sb, "%s(%s) -> %s\n", tokenOf(arc.Label), stateToken(arc.From), stateToken(arc.To))
	}
	return sb.String()
}

// tokenize Splits on separators, dropping the empty tokens left around leading or trailing ones.
func tokenize(text string) []string {
	tokens := separators.Split(text, -1)
	res := tokens[:0]
	for _, token := range tokens {
		if token != "" {
			res = append(res, token)
		}
	}
	return res
}

type timbukParser struct {
	tokens []string
	pos    int
}

func (p *timbukParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *timbukParser) next() (string, error) {
	if p.done() {
		return "", fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	token := p.tokens[p.pos]
	p.pos++
	return token, nil
}

func (p *timbukParser) expect(want string) error {
	token, err := p.next()
	if err != nil {
		return err
	}
	if token != want {
		return fmt.Errorf("%w: expected %q, got %q", ErrMalformed, want, token)
	}
	return nil
}

// until Returns the tokens before the keyword and consumes the keyword.
func (p *timbukParser) until(keyword string) ([]string, error) {
	start := p.pos
	for !p.done() {
		if p.tokens[p.pos] == keyword {
			p.pos++
			return p.tokens[start : p.pos-1], nil
		}
		p.pos++
	}
	return nil, fmt.Errorf("%w: missing %q", ErrMalformed, keyword)
}

// Unmarshal
// Reads an automaton in the Timbuk format written by Marshal, with operation names decoded by
// the encoder of alphabet. States are named after their Timbuk names. A text without final
// states yields the automaton accepting nothing.
func Unmarshal[S comparable](alphabet *automaton.Alphabet[S], text string) (*automaton.Automaton[S], error) {
	p := &timbukParser{tokens: tokenize(text)}
	if err := p.expect("Ops"); err != nil {
		return nil, err
	}
	if _, err := p.until("Automaton"); err != nil {
		return nil, err
	}
	if _, err := p.next(); err != nil { // automaton name
		return nil, err
	}
	if err := p.expect("States"); err != nil {
		return nil, err
	}
	declared, err := p.until("Final")
	if err != nil {
		return nil, err
	}
	if err := p.expect("States"); err != nil {
		return nil, err
	}
	finals, err := p.until("Transitions")
	if err != nil {
		return nil, err
	}
	if len(finals) == 0 {
		return automaton.AcceptsNone(alphabet), nil
	}

	b := automaton.NewBuilderV1(alphabet, len(declared))
	states := make(map[string]int, len(declared))
	stateOf := func(name string) int {
		if s, ok := states[name]; ok {
			return s
		}
		s := b.AddNamedState(name)
		states[name] = s
		return s
	}
	for _, name := range declared {
		stateOf(name)
	}
	for _, name := range finals {
		if err := b.SetAsAccept(stateOf(name)); err != nil {
			return nil, err
		}
	}

	encoder := EncoderOf(alphabet)
	hasStart := false
	for !p.done() {
		op, err := p.next()
		if err != nil {
			return nil, err
		}
		if op == "init" {
			name, err := p.next()
			if err != nil {
				return nil, err
			}
			if err := b.SetAsStart(stateOf(name)); err != nil {
				return nil, err
			}
			hasStart = true
			continue
		}

		symbol, ok := encoder.Decode(op)
		if !ok {
			return nil, fmt.Errorf("%w: unknown operation %q", ErrMalformed, op)
		}
		src, err := p.next()
		if err != nil {
			return nil, err
		}
		dst, err := p.next()
		if err != nil {
			return nil, err
		}
		if err := b.AddTransition(stateOf(src), stateOf(dst), symbol); err != nil {
			return nil, err
		}
	}
	if !hasStart {
		return nil, fmt.Errorf("%w: no init transition", ErrMalformed)
	}
	return b.Build()
}
