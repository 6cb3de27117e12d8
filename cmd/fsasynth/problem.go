package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	automaton "github.com/geange/fsasynth"
)

// DefaultEpsilon Name of the empty symbol when the problem does not give one.
const DefaultEpsilon = "eps"

var ErrProblem = errors.New("invalid problem")

// Problem A problem file: an alphabet, named automata and what to do with them.
type Problem struct {
	Epsilon  string          `yaml:"epsilon"`
	Symbols  []string        `yaml:"symbols"`
	Automata []AutomatonDecl `yaml:"automata"`
	Checks   []CheckDecl     `yaml:"checks"`
	Synth    *SynthDecl      `yaml:"synth"`
}

// AutomatonDecl An automaton given either by an expression or by its transitions, each
// written "source symbol destination".
type AutomatonDecl struct {
	Name        string   `yaml:"name"`
	Expr        string   `yaml:"expr"`
	Start       string   `yaml:"start"`
	Accept      []string `yaml:"accept"`
	Transitions []string `yaml:"transitions"`
}

const (
	CheckIncludes   = "includes"
	CheckEquivalent = "equivalent"
)

// CheckDecl Compares two named automata: "includes" passes when the language of Left contains
// the language of Right, "equivalent" when both are equal.
type CheckDecl struct {
	Kind  string `yaml:"kind"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// SynthDecl Constraints on the synthesized automata. Words are written as space separated
// symbols, the empty string being the empty word.
type SynthDecl struct {
	States          int      `yaml:"states"`
	NoUnreachable   bool     `yaml:"noUnreachable"`
	NoDeadEnd       bool     `yaml:"noDeadEnd"`
	NoDangling      bool     `yaml:"noDangling"`
	Accept          []string `yaml:"accept"`
	Reject          []string `yaml:"reject"`
	NotPurelyMadeOf []string `yaml:"notPurelyMadeOf"`
}

// Workspace The automata of a problem built over its alphabet, in declaration order.
type Workspace struct {
	Problem  *Problem
	Alphabet *automaton.Alphabet[string]
	Names    []string
	Automata map[string]*automaton.Automaton[string]
}

func ParseProblem(data []byte) (*Problem, error) {
	p := &Problem{}
	if err := yaml.UnmarshalWithOptions(data, p, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProblem, err)
	}
	if p.Epsilon == "" {
		p.Epsilon = DefaultEpsilon
	}
	return p, nil
}

func ReadProblem(r io.Reader) (*Problem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseProblem(data)
}

func parseWord(s string) []string {
	return strings.Fields(s)
}

func parseTransition(s string) (src, symbol, dst string, err error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return "", "", "", fmt.Errorf("%w: transition %q is not \"source symbol destination\"", ErrProblem, s)
	}
	return fields[0], fields[1], fields[2], nil
}

// alphabet Collects the declared symbols, then those used by the automata and words.
func (p *Problem) alphabet() (*automaton.Alphabet[string], map[string]*automaton.RegExp, error) {
	b := automaton.NewAlphabetBuilder(p.Epsilon).Add(p.Symbols...)
	exprs := make(map[string]*automaton.RegExp)
	for _, decl := range p.Automata {
		if decl.Expr != "" {
			r, err := automaton.NewRegExp(decl.Expr)
			if err != nil {
				return nil, nil, fmt.Errorf("automaton %s: %w", decl.Name, err)
			}
			exprs[decl.Name] = r
			b.Add(r.Symbols()...)
			continue
		}
		for _, t := range decl.Transitions {
			_, symbol, _, err := parseTransition(t)
			if err != nil {
				return nil, nil, fmt.Errorf("automaton %s: %w", decl.Name, err)
			}
			b.Add(symbol)
		}
	}
	if p.Synth != nil {
		for _, w := range append(append([]string{}, p.Synth.Accept...), p.Synth.Reject...) {
			b.Add(parseWord(w)...)
		}
		b.Add(p.Synth.NotPurelyMadeOf...)
	}
	return b.Build(), exprs, nil
}

// Compile Builds every automaton of the problem over a shared alphabet.
func (p *Problem) Compile() (*Workspace, error) {
	alphabet, exprs, err := p.alphabet()
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		Problem:  p,
		Alphabet: alphabet,
		Automata: make(map[string]*automaton.Automaton[string], len(p.Automata)),
	}
	for i, decl := range p.Automata {
		if decl.Name == "" {
			return nil, fmt.Errorf("%w: automaton %d has no name", ErrProblem, i)
		}
		if _, ok := ws.Automata[decl.Name]; ok {
			return nil, fmt.Errorf("%w: automaton %s declared twice", ErrProblem, decl.Name)
		}
		var a *automaton.Automaton[string]
		if r, ok := exprs[decl.Name]; ok {
			if len(decl.Transitions) > 0 || len(decl.Accept) > 0 || decl.Start != "" {
				return nil, fmt.Errorf("%w: automaton %s mixes expr with states", ErrProblem, decl.Name)
			}
			a, err = r.ToAutomaton(alphabet)
		} else {
			a, err = buildDecl(alphabet, decl)
		}
		if err != nil {
			return nil, fmt.Errorf("automaton %s: %w", decl.Name, err)
		}
		ws.Names = append(ws.Names, decl.Name)
		ws.Automata[decl.Name] = a
	}
	return ws, nil
}

func buildDecl(alphabet *automaton.Alphabet[string], decl AutomatonDecl) (*automaton.Automaton[string], error) {
	b := automaton.NewBuilder(alphabet)
	states := make(map[string]int)
	stateOf := func(name string) int {
		if s, ok := states[name]; ok {
			return s
		}
		s := b.AddNamedState(name)
		states[name] = s
		return s
	}

	if decl.Start != "" {
		stateOf(decl.Start)
	}
	for _, t := range decl.Transitions {
		src, symbol, dst, err := parseTransition(t)
		if err != nil {
			return nil, err
		}
		if err := b.AddTransition(stateOf(src), stateOf(dst), symbol); err != nil {
			return nil, err
		}
	}
	for _, name := range decl.Accept {
		if err := b.SetAsAccept(stateOf(name)); err != nil {
			return nil, err
		}
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: no states", ErrProblem)
	}
	return b.Build()
}

// Automaton Looks up a named automaton.
func (ws *Workspace) Automaton(name string) (*automaton.Automaton[string], error) {
	a, ok := ws.Automata[name]
	if !ok {
		return nil, fmt.Errorf("%w: no automaton named %q", ErrProblem, name)
	}
	return a, nil
}

// loadWorkspaces Reads the problem files, or stdin when none is given, and compiles them.
func loadWorkspaces(in io.Reader, files []string) ([]*Workspace, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}
	res := make([]*Workspace, 0, len(files))
	for _, file := range files {
		ws, err := loadWorkspace(in, file)
		if err != nil {
			return nil, fmt.Errorf("error processing %s: %w", file, err)
		}
		res = append(res, ws)
	}
	return res, nil
}

func loadWorkspace(in io.Reader, file string) (*Workspace, error) {
	r := in
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("could not open %q: %w", file, err)
		}
		defer f.Close()
		r = f
	}
	p, err := ReadProblem(r)
	if err != nil {
		return nil, err
	}
	return p.Compile()
}
