package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "fsasynth").
		WithSynopsis("fsasynth [opts] command [opts] [problem files]").
		WithDescription("fsasynth checks and synthesizes finite state automata described in problem files.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return fsasynthMain(cfg, cc, args)
		}).
		WithSubs(
			DumpCommand(cfg),
			CheckCommand(cfg),
			SynthCommand(cfg),
			ReduceCommand(cfg))
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Dump, "dump").
		WithAliases("d").
		WithSynopsis("dump [files]").
		WithDescription("dump each automaton with its determinized, minimized and complemented forms").
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithAliases("c").
		WithSynopsis("check [files]").
		WithDescription("run the inclusion and equivalence checks of the problem").
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}

func SynthCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SynthConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Synth, "synth").
		WithAliases("s").
		WithSynopsis("synth [-limit n] [-where expr] [files]").
		WithDescription("enumerate the automata satisfying the synth section of the problem").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return synthesize(cfg, cc, args)
		})
}

func ReduceCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ReduceConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Reduce, "reduce").
		WithAliases("r").
		WithSynopsis("reduce [-cmd binary] [files]").
		WithDescription("reduce each automaton of the problem with an external tree automata tool").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return reduce(cfg, cc, args)
		})
}
