package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	"github.com/scott-cotton/cli"

	"github.com/geange/fsasynth/vata"
)

func reduce(cfg *ReduceConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Reduce.Parse(cc, args)
	if err != nil {
		return err
	}
	path, err := exec.LookPath(cfg.Cmd)
	if err != nil {
		return fmt.Errorf("%w: -cmd %q: %w", cli.ErrUsage, cfg.Cmd, err)
	}
	workspaces, err := loadWorkspaces(cc.In, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	r := vata.NewReducer(&vata.ExecRunner{Path: path}, vata.WithLogger(theLog))
	for _, ws := range workspaces {
		for _, name := range ws.Names {
			a := ws.Automata[name]
			reduced, err := vata.Reduce(ctx, r, a)
			if err != nil {
				return fmt.Errorf("reducing %s: %w", name, err)
			}
			theLog.Debug("reduced", "automaton", name, "from", a.NumStates(), "to", reduced.NumStates())
			fmt.Fprintf(cc.Out, "# %s\n", name)
			fmt.Fprint(cc.Out, vata.Marshal(reduced))
		}
	}
	return nil
}
