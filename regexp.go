package automaton

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Kind int

const (
	REGEXP_UNION         = Kind(iota) // The union of two expressions
	REGEXP_CONCATENATION              // A sequence of two expressions
	REGEXP_INTERSECTION               // The intersection of two expressions
	REGEXP_OPTIONAL                   // An optional expression
	REGEXP_REPEAT                     // An expression that repeats
	REGEXP_REPEAT_MIN                 // An expression that repeats a minimum number of times
	REGEXP_REPEAT_MINMAX              // An expression that repeats a minimum and maximum number of times
	REGEXP_COMPLEMENT                 // The complement of an expression
	REGEXP_SYMBOL                     // A symbol
	REGEXP_SYMBOL_RANGE               // The single-rune symbols of a rune range
	REGEXP_ANYSYMBOL                  // Any symbol allowed
	REGEXP_EMPTY                      // An empty expression
	REGEXP_WORD                       // A word expression
	REGEXP_ANYWORD                    // Any word allowed
)

const (
	INTERSECTION = 0x0001
	COMPLEMENT   = 0x0002
	EMPTY        = 0x0004
	ANYWORD      = 0x0008
	NAMED        = 0x0010
	ALL          = 0xff
	NONE         = 0x0000
)

// RegExp A regular expression over string symbols. Single runes are symbols of their own;
// "<name>" denotes a symbol with a multi-rune name and "\"abc\"" a word of single-rune symbols.
//
//	regexp   ::= unionexp
//	unionexp ::= interexp | unionexp          (union)
//	interexp ::= concatexp & interexp         (intersection)
//	concatexp::= repeatexp concatexp          (concatenation)
//	repeatexp::= complexp ( ? | * | + | {n} | {n,} | {n,m} )*
//	complexp ::= ~ complexp                   (complement)
//	           | [ ^? classes ]               (symbol class, ranges a-z over single runes)
//	           | .                            (any symbol)
//	           | #                            (the empty language)
//	           | @                            (any word)
//	           | ()                           (the empty word)
//	           | ( unionexp ) | <name> | "word" | \c | c
type RegExp struct {
	kind       Kind
	exp1, exp2 *RegExp
	word       []string
	min, max   int
	from, to   rune

	originalString []rune
	flags          int
	pos            int
}

type regExpOption struct {
	syntaxFlags int
}

type RegExpOption func(*regExpOption)

// WithSyntaxFlags Restricts the optional operators to the given flags (default ALL).
func WithSyntaxFlags(flags int) RegExpOption {
	return func(o *regExpOption) {
		o.syntaxFlags = flags
	}
}

func NewRegExp(s string, options ...RegExpOption) (*RegExp, error) {
	opts := &regExpOption{
		syntaxFlags: ALL,
	}
	for _, fn := range options {
		fn(opts)
	}
	if opts.syntaxFlags > ALL {
		return nil, fmt.Errorf("%w: illegal syntax flag", ErrInvalidArgument)
	}

	parser := &RegExp{
		originalString: []rune(s),
		flags:          opts.syntaxFlags,
	}
	if len(s) == 0 {
		return makeWord(parser.flags, nil), nil
	}
	e, err := parser.parseUnionExp()
	if err != nil {
		return nil, err
	}
	if parser.pos < len(parser.originalString) {
		return nil, fmt.Errorf("%w: end-of-string expected at position %d", ErrInvalidArgument, parser.pos)
	}
	return e, nil
}

// ParseRegExp Parses the expression and builds its minimal automaton over alphabet.
func ParseRegExp(alphabet *Alphabet[string], s string) (*Automaton[string], error) {
	r, err := NewRegExp(s)
	if err != nil {
		return nil, err
	}
	return r.ToAutomaton(alphabet)
}

func newContainerNode(flags int, kind Kind, exp1, exp2 *RegExp) *RegExp {
	return &RegExp{kind: kind, exp1: exp1, exp2: exp2, flags: flags}
}

func newRepeatingNode(flags int, kind Kind, exp *RegExp, min, max int) *RegExp {
	return &RegExp{kind: kind, exp1: exp, min: min, max: max, flags: flags}
}

func makeUnion(flags int, exp1, exp2 *RegExp) *RegExp {
	return newContainerNode(flags, REGEXP_UNION, exp1, exp2)
}

func isWordLike(e *RegExp) bool {
	return e.kind == REGEXP_SYMBOL || e.kind == REGEXP_WORD
}

func makeConcatenation(flags int, exp1, exp2 *RegExp) *RegExp {
	if isWordLike(exp1) && isWordLike(exp2) {
		return makeWordRegExp(flags, exp1, exp2)
	}

	var rexp1, rexp2 *RegExp
	if exp1.kind == REGEXP_CONCATENATION && isWordLike(exp1.exp2) && isWordLike(exp2) {
		rexp1 = exp1.exp1
		rexp2 = makeWordRegExp(flags, exp1.exp2, exp2)
	} else if isWordLike(exp1) && exp2.kind == REGEXP_CONCATENATION && isWordLike(exp2.exp1) {
		rexp1 = makeWordRegExp(flags, exp1, exp2.exp1)
		rexp2 = exp2.exp2
	} else {
		rexp1 = exp1
		rexp2 = exp2
	}
	return newContainerNode(flags, REGEXP_CONCATENATION, rexp1, rexp2)
}

func makeWordRegExp(flags int, exp1, exp2 *RegExp) *RegExp {
	word := make([]string, 0, len(exp1.word)+len(exp2.word))
	word = append(word, exp1.word...)
	word = append(word, exp2.word...)
	return makeWord(flags, word)
}

func makeIntersection(flags int, exp1, exp2 *RegExp) *RegExp {
	return newContainerNode(flags, REGEXP_INTERSECTION, exp1, exp2)
}

func makeOptional(flags int, exp *RegExp) *RegExp {
	return newContainerNode(flags, REGEXP_OPTIONAL, exp, nil)
}

func makeRepeat(flags int, exp *RegExp) *RegExp {
	return newContainerNode(flags, REGEXP_REPEAT, exp, nil)
}

func makeRepeatMin(flags int, exp *RegExp, min int) *RegExp {
	return newRepeatingNode(flags, REGEXP_REPEAT_MIN, exp, min, 0)
}

func makeRepeatRange(flags int, exp *RegExp, min, max int) *RegExp {
	return newRepeatingNode(flags, REGEXP_REPEAT_MINMAX, exp, min, max)
}

func makeComplement(flags int, exp *RegExp) *RegExp {
	return newContainerNode(flags, REGEXP_COMPLEMENT, exp, nil)
}

func makeSymbol(flags int, symbol string) *RegExp {
	return &RegExp{kind: REGEXP_SYMBOL, word: []string{symbol}, flags: flags}
}

func makeSymbolRange(flags int, from, to rune) (*RegExp, error) {
	if from > to {
		return nil, fmt.Errorf("%w: invalid range %q-%q", ErrInvalidArgument, from, to)
	}
	return &RegExp{kind: REGEXP_SYMBOL_RANGE, from: from, to: to, flags: flags}, nil
}

func makeAnySymbol(flags int) *RegExp {
	return newContainerNode(flags, REGEXP_ANYSYMBOL, nil, nil)
}

func makeEmpty(flags int) *RegExp {
	return newContainerNode(flags, REGEXP_EMPTY, nil, nil)
}

func makeWord(flags int, word []string) *RegExp {
	return &RegExp{kind: REGEXP_WORD, word: word, flags: flags}
}

func makeAnyWord(flags int) *RegExp {
	return newContainerNode(flags, REGEXP_ANYWORD, nil, nil)
}

// Symbols Returns the symbols named by the expression, in order of first appearance. Ranges,
// any-symbol and any-word atoms name no symbol.
func (r *RegExp) Symbols() []string {
	seen := make(map[string]struct{})
	res := make([]string, 0)
	var walk func(e *RegExp)
	walk = func(e *RegExp) {
		if e == nil {
			return
		}
		for _, s := range e.word {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				res = append(res, s)
			}
		}
		walk(e.exp1)
		walk(e.exp2)
	}
	walk(r)
	return res
}

// ToAutomaton Builds the minimal automaton of the expression over alphabet. Every symbol the
// expression names must belong to alphabet.
func (r *RegExp) ToAutomaton(alphabet *Alphabet[string]) (*Automaton[string], error) {
	a, err := r.toAutomatonInternal(alphabet)
	if err != nil {
		return nil, err
	}
	if a.IsDeterministic() && r.kind <= REGEXP_COMPLEMENT {
		return a, nil
	}
	return Minimize(a)
}

func (r *RegExp) toAutomatonInternal(alphabet *Alphabet[string]) (*Automaton[string], error) {
	var a *Automaton[string]
	var err error
	switch r.kind {
	case REGEXP_UNION:
		list := make([]*Automaton[string], 0)
		if err := r.findLeaves(r.exp1, REGEXP_UNION, &list, alphabet); err != nil {
			return nil, err
		}
		if err := r.findLeaves(r.exp2, REGEXP_UNION, &list, alphabet); err != nil {
			return nil, err
		}
		a = list[0]
		for _, next := range list[1:] {
			if a, err = Union(a, next); err != nil {
				return nil, err
			}
		}
	case REGEXP_CONCATENATION:
		list := make([]*Automaton[string], 0)
		if err := r.findLeaves(r.exp1, REGEXP_CONCATENATION, &list, alphabet); err != nil {
			return nil, err
		}
		if err := r.findLeaves(r.exp2, REGEXP_CONCATENATION, &list, alphabet); err != nil {
			return nil, err
		}
		a, err = Concatenate(list...)
	case REGEXP_INTERSECTION:
		a1, err := r.exp1.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a2, err := r.exp2.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a, err = Intersect(a1, a2)
		if err != nil {
			return nil, err
		}
	case REGEXP_OPTIONAL:
		a1, err := r.exp1.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a, err = Optional(a1)
		if err != nil {
			return nil, err
		}
	case REGEXP_REPEAT:
		a1, err := r.exp1.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a, err = Star(a1)
		if err != nil {
			return nil, err
		}
	case REGEXP_REPEAT_MIN:
		a1, err := r.exp1.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a, err = Repeat(a1, r.min, -1)
		if err != nil {
			return nil, err
		}
	case REGEXP_REPEAT_MINMAX:
		a1, err := r.exp1.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a, err = Repeat(a1, r.min, r.max)
		if err != nil {
			return nil, err
		}
	case REGEXP_COMPLEMENT:
		a1, err := r.exp1.toAutomatonInternal(alphabet)
		if err != nil {
			return nil, err
		}
		a, err = Complement(a1)
		if err != nil {
			return nil, err
		}
	case REGEXP_SYMBOL, REGEXP_WORD:
		a, err = MakeWord(alphabet, r.word)
	case REGEXP_SYMBOL_RANGE:
		a, err = symbolsAutomaton(alphabet, func(symbol string) bool {
			runes := []rune(symbol)
			return len(runes) == 1 && runes[0] >= r.from && runes[0] <= r.to
		})
	case REGEXP_ANYSYMBOL:
		a, err = symbolsAutomaton(alphabet, func(string) bool {
			return true
		})
	case REGEXP_EMPTY:
		a = AcceptsNone(alphabet)
	case REGEXP_ANYWORD:
		a = AcceptsAll(alphabet)
	default:
		return nil, fmt.Errorf("%w: unknown expression kind %d", ErrInvalidArgument, r.kind)
	}
	if err != nil {
		return nil, err
	}
	if r.kind <= REGEXP_COMPLEMENT {
		return Minimize(a)
	}
	return a, nil
}

// symbolsAutomaton Accepts the one-symbol words whose symbol satisfies match.
func symbolsAutomaton(alphabet *Alphabet[string], match func(string) bool) (*Automaton[string], error) {
	b := NewBuilderV1(alphabet, 2)
	start := b.AddState()
	accept := b.AddState()
	b.isAccept.Set(uint(accept))
	for code, symbol := range alphabet.NoEpsilonSymbols() {
		if match(symbol) {
			b.graph.addArc(start, accept, code+1)
		}
	}
	return b.Build()
}

func (r *RegExp) findLeaves(exp *RegExp, kind Kind, list *[]*Automaton[string], alphabet *Alphabet[string]) error {
	if exp.kind == kind {
		if err := r.findLeaves(exp.exp1, kind, list, alphabet); err != nil {
			return err
		}
		return r.findLeaves(exp.exp2, kind, list, alphabet)
	}
	automaton, err := exp.toAutomatonInternal(alphabet)
	if err != nil {
		return err
	}
	*list = append(*list, automaton)
	return nil
}

func (r *RegExp) more() bool {
	return r.pos < len(r.originalString)
}

func (r *RegExp) peek(s string) bool {
	return r.more() && strings.ContainsRune(s, r.originalString[r.pos])
}

func (r *RegExp) match(c rune) bool {
	if r.pos >= len(r.originalString) {
		return false
	}
	if r.originalString[r.pos] == c {
		r.pos++
		return true
	}
	return false
}

func (r *RegExp) next() (rune, error) {
	if !r.more() {
		return 0, io.ErrUnexpectedEOF
	}
	ch := r.originalString[r.pos]
	r.pos++
	return ch, nil
}

func (r *RegExp) check(flags int) bool {
	return r.flags&flags != 0
}

func (r *RegExp) syntaxError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func (r *RegExp) parseUnionExp() (*RegExp, error) {
	e, err := r.parseInterExp()
	if err != nil {
		return nil, err
	}
	if r.match('|') {
		e2, err := r.parseUnionExp()
		if err != nil {
			return nil, err
		}
		e = makeUnion(r.flags, e, e2)
	}
	return e, nil
}

func (r *RegExp) parseInterExp() (*RegExp, error) {
	e, err := r.parseConcatExp()
	if err != nil {
		return nil, err
	}
	if r.check(INTERSECTION) && r.match('&') {
		e2, err := r.parseInterExp()
		if err != nil {
			return nil, err
		}
		e = makeIntersection(r.flags, e, e2)
	}
	return e, nil
}

func (r *RegExp) parseConcatExp() (*RegExp, error) {
	e, err := r.parseRepeatExp()
	if err != nil {
		return nil, err
	}
	if r.more() && !r.peek(")|") && (!r.check(INTERSECTION) || !r.peek("&")) {
		e2, err := r.parseConcatExp()
		if err != nil {
			return nil, err
		}
		e = makeConcatenation(r.flags, e, e2)
	}
	return e, nil
}

func (r *RegExp) parseInt() (int, bool, error) {
	start := r.pos
	for r.peek("0123456789") {
		r.pos++
	}
	if start == r.pos {
		return 0, false, nil
	}
	n, err := strconv.Atoi(string(r.originalString[start:r.pos]))
	if err != nil {
		return 0, false, r.syntaxError("bad integer at position %d", start)
	}
	return n, true, nil
}

func (r *RegExp) parseRepeatExp() (*RegExp, error) {
	e, err := r.parseComplExp()
	if err != nil {
		return nil, err
	}

	for r.peek("?*+{") {
		if r.match('?') {
			e = makeOptional(r.flags, e)
		} else if r.match('*') {
			e = makeRepeat(r.flags, e)
		} else if r.match('+') {
			e = makeRepeatMin(r.flags, e, 1)
		} else if r.match('{') {
			n, ok, err := r.parseInt()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, r.syntaxError("integer expected at position %d", r.pos)
			}
			m := n
			if r.match(',') {
				if m, ok, err = r.parseInt(); err != nil {
					return nil, err
				} else if !ok {
					m = -1
				}
			}
			if !r.match('}') {
				return nil, r.syntaxError("expected '}' at position %d", r.pos)
			}

			if m == -1 {
				e = makeRepeatMin(r.flags, e, n)
			} else {
				e = makeRepeatRange(r.flags, e, n, m)
			}
		}
	}

	return e, nil
}

func (r *RegExp) parseComplExp() (*RegExp, error) {
	if r.check(COMPLEMENT) && r.match('~') {
		e2, err := r.parseComplExp()
		if err != nil {
			return nil, err
		}
		return makeComplement(r.flags, e2), nil
	}
	return r.parseClassExp()
}

func (r *RegExp) parseClassExp() (*RegExp, error) {
	if r.match('[') {
		negate := false
		if r.match('^') {
			negate = true
		}
		e, err := r.parseClasses()
		if err != nil {
			return nil, err
		}
		if negate {
			e = makeIntersection(r.flags, makeAnySymbol(r.flags), makeComplement(r.flags, e))
		}
		if !r.match(']') {
			return nil, r.syntaxError("expected ']' at position %d", r.pos)
		}
		return e, nil
	}
	return r.parseSimpleExp()
}

func (r *RegExp) parseClasses() (*RegExp, error) {
	e, err := r.parseClass()
	if err != nil {
		return nil, err
	}
	for r.more() && !r.peek("]") {
		e2, err := r.parseClass()
		if err != nil {
			return nil, err
		}
		e = makeUnion(r.flags, e, e2)
	}
	return e, nil
}

func (r *RegExp) parseClass() (*RegExp, error) {
	if r.peek("<") {
		return r.parseSimpleExp()
	}
	c, err := r.parseCharExp()
	if err != nil {
		return nil, err
	}
	if r.match('-') {
		c2, err := r.parseCharExp()
		if err != nil {
			return nil, err
		}
		return makeSymbolRange(r.flags, c, c2)
	}
	return makeSymbol(r.flags, string(c)), nil
}

func (r *RegExp) parseSimpleExp() (*RegExp, error) {
	if r.match('.') {
		return makeAnySymbol(r.flags), nil
	} else if r.check(EMPTY) && r.match('#') {
		return makeEmpty(r.flags), nil
	} else if r.check(ANYWORD) && r.match('@') {
		return makeAnyWord(r.flags), nil
	} else if r.match('"') {
		start := r.pos
		for r.more() && !r.peek("\"") {
			r.pos++
		}
		if !r.match('"') {
			return nil, r.syntaxError("expected '\"' at position %d", r.pos)
		}
		word := make([]string, 0, r.pos-1-start)
		for _, c := range r.originalString[start : r.pos-1] {
			word = append(word, string(c))
		}
		return makeWord(r.flags, word), nil
	} else if r.match('(') {
		if r.match(')') {
			return makeWord(r.flags, nil), nil
		}
		e, err := r.parseUnionExp()
		if err != nil {
			return nil, err
		}
		if !r.match(')') {
			return nil, r.syntaxError("expected ')' at position %d", r.pos)
		}
		return e, nil
	} else if r.check(NAMED) && r.match('<') {
		start := r.pos
		for r.more() && !r.peek(">") {
			r.pos++
		}
		if !r.match('>') {
			return nil, r.syntaxError("expected '>' at position %d", r.pos)
		}
		if r.pos-1 == start {
			return nil, r.syntaxError("empty symbol name at position %d", start)
		}
		return makeSymbol(r.flags, string(r.originalString[start:r.pos-1])), nil
	}

	c, err := r.parseCharExp()
	if err != nil {
		return nil, err
	}
	return makeSymbol(r.flags, string(c)), nil
}

func (r *RegExp) parseCharExp() (rune, error) {
	r.match('\\')
	c, err := r.next()
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, r.syntaxError("unexpected end of expression at position %d", r.pos)
	}
	return c, err
}
