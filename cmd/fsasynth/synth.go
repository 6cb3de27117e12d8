package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/scott-cotton/cli"

	automaton "github.com/geange/fsasynth"
	"github.com/geange/fsasynth/sat"
	"github.com/geange/fsasynth/synth"
)

// solutionEnv The variables a -where expression sees.
type solutionEnv struct {
	States        int  `expr:"states"`
	Accepts       int  `expr:"accepts"`
	Transitions   int  `expr:"transitions"`
	Deterministic bool `expr:"deterministic"`
}

func envOf(a *automaton.Automaton[string]) solutionEnv {
	return solutionEnv{
		States:        a.NumStates(),
		Accepts:       int(a.AcceptStates().Count()),
		Transitions:   a.NumTransitions(),
		Deterministic: a.IsDeterministic(),
	}
}

func compileWhere(where string) (*vm.Program, error) {
	if where == "" {
		return nil, nil
	}
	prg, err := expr.Compile(where, expr.Env(solutionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: -where: %w", cli.ErrUsage, err)
	}
	return prg, nil
}

func selected(prg *vm.Program, a *automaton.Automaton[string]) (bool, error) {
	if prg == nil {
		return true, nil
	}
	res, err := expr.Run(prg, envOf(a))
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func synthesize(cfg *SynthConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Synth.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("%w: -limit must not be negative", cli.ErrUsage)
	}
	prg, err := compileWhere(cfg.Where)
	if err != nil {
		return err
	}
	workspaces, err := loadWorkspaces(cc.In, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	for _, ws := range workspaces {
		if ws.Problem.Synth == nil {
			return fmt.Errorf("%w: no synth section", ErrProblem)
		}
		enc, err := newEncoding(ws, cfg.MainConfig)
		if errors.Is(err, sat.ErrContradiction) {
			theLog.Info("no automaton satisfies the constraints", "reason", err)
			continue
		}
		if err != nil {
			return err
		}
		if _, err := enumerate(ctx, cc.Out, enc, prg, cfg.Limit); err != nil {
			return err
		}
	}
	return nil
}

// newEncoding Sets up the encoding of the synth section of the problem on a fresh solver.
func newEncoding(ws *Workspace, cfg *MainConfig) (*synth.FSAEncoding[string], error) {
	decl := ws.Problem.Synth
	solver := sat.NewSolver(sat.NewGini(
		sat.WithTimeout(cfg.solverTimeout()),
		sat.WithLogger(theLog)))
	enc, err := synth.NewFSAEncoding(solver, decl.States, ws.Alphabet, synth.WithLogger(theLog))
	if err != nil {
		return nil, err
	}

	switch {
	case decl.NoDangling || (decl.NoUnreachable && decl.NoDeadEnd):
		err = enc.EnsureNoDanglingState()
	case decl.NoUnreachable:
		err = enc.EnsureNoUnreachableState()
	case decl.NoDeadEnd:
		err = enc.EnsureNoDeadEndState()
	}
	if err != nil {
		return nil, err
	}
	for _, w := range decl.Accept {
		if err := enc.EnsureAccepting(parseWord(w)); err != nil {
			return nil, err
		}
	}
	for _, w := range decl.Reject {
		if err := enc.EnsureNoAccepting(parseWord(w)); err != nil {
			return nil, err
		}
	}
	if len(decl.NotPurelyMadeOf) > 0 {
		if err := enc.EnsureNoWordPurelyMadeOf(decl.NotPurelyMadeOf); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

// enumerate Prints the synthesized automata the filter selects, at most limit of them when
// limit is positive.
func enumerate(ctx context.Context, w io.Writer, enc *synth.FSAEncoding[string], prg *vm.Program, limit int) (int, error) {
	printed := 0
	var filterErr error
	_, err := synth.Enumerate(ctx, enc, 0, func(a *automaton.Automaton[string]) bool {
		ok, err := selected(prg, a)
		if err != nil {
			filterErr = err
			return false
		}
		if !ok {
			return true
		}
		if printed > 0 {
			fmt.Fprintln(w)
		}
		printed++
		fmt.Fprintf(w, "# solution %d\n", printed)
		fmt.Fprint(w, a)
		return limit <= 0 || printed < limit
	})
	if filterErr != nil {
		return printed, filterErr
	}
	if err != nil {
		return printed, err
	}
	if printed == 0 {
		theLog.Info("no automaton satisfies the constraints")
	}
	return printed, nil
}
