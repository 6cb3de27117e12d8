package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	LogLevel string `cli:"name=log-level desc='log level: debug, info, warn or error'"`
	Timeout  int    `cli:"name=timeout desc='solver timeout in milliseconds, 0 for none'"`
	Color    bool   `cli:"name=color desc='color the verdicts'"`
	Gops     bool   `cli:"name=gops desc='start a gops diagnostics agent'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) solverTimeout() time.Duration {
	return time.Duration(cfg.Timeout) * time.Millisecond
}

// setupColor Colors are on when -color is given, or when it is not and the output is a terminal.
func (cfg *MainConfig) setupColor(cc *cli.Context) {
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		if opt.Value != nil {
			color.NoColor = !cfg.Color
			return
		}
		break
	}
	f, ok := cc.Out.(*os.File)
	color.NoColor = !ok || !isatty.IsTerminal(f.Fd())
}

type DumpConfig struct {
	*MainConfig

	Dump *cli.Command
}

type CheckConfig struct {
	*MainConfig

	Check *cli.Command
}

type SynthConfig struct {
	*MainConfig
	Limit int    `cli:"name=limit desc='max number of automata to print, 0 for all'"`
	Where string `cli:"name=where desc='expression over states, accepts, transitions and deterministic selecting the automata to print'"`

	Synth *cli.Command
}

type ReduceConfig struct {
	*MainConfig
	Cmd string `cli:"name=cmd desc='reducer binary' default=vata"`

	Reduce *cli.Command
}
