package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"

	automaton "github.com/geange/fsasynth"
)

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		return err
	}
	workspaces, err := loadWorkspaces(cc.In, args)
	if err != nil {
		return err
	}
	for i, ws := range workspaces {
		if i > 0 {
			fmt.Fprint(cc.Out, "\n---\n")
		}
		if err := dumpWorkspace(cc.Out, ws); err != nil {
			return err
		}
	}
	return nil
}

type derivation struct {
	name string
	fn   func(*automaton.Automaton[string]) (*automaton.Automaton[string], error)
}

var derivations = []derivation{
	{"determinized", automaton.Determinize[string]},
	{"minimized", automaton.Minimize[string]},
	{"complement", automaton.Complement[string]},
}

func dumpWorkspace(w io.Writer, ws *Workspace) error {
	heading := color.New(color.Bold).SprintfFunc()
	for _, name := range ws.Names {
		a := ws.Automata[name]
		fmt.Fprintln(w, heading("== %s ==", name))
		fmt.Fprint(w, a)
		if word, ok := a.ShortestWord(); ok {
			fmt.Fprintf(w, "shortest word: %q\n", word)
		}
		for _, d := range derivations {
			derived, err := d.fn(a)
			if err != nil {
				return fmt.Errorf("%s of %s: %w", d.name, name, err)
			}
			fmt.Fprintln(w, heading("-- %s --", d.name))
			fmt.Fprint(w, derived)
		}
	}
	return nil
}
