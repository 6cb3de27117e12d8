package vata

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	automaton "github.com/geange/fsasynth"
)

// ErrReducer is returned when the external reducer fails or answers unexpectedly.
var ErrReducer = fmt.Errorf("external reducer failed")

// Runner Runs the external reducer with the given arguments and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner Runs a binary as a child process.
type ExecRunner struct {
	Path string
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrReducer, r.Path, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

type reducerOptions struct {
	logger        *slog.Logger
	reduceArgs    []string
	inclusionArgs []string
	dir           string
}

type ReducerOption func(*reducerOptions)

func WithLogger(logger *slog.Logger) ReducerOption {
	return func(o *reducerOptions) {
		o.logger = logger
	}
}

// WithReduceArgs Arguments placed before the automaton file when reducing.
func WithReduceArgs(args ...string) ReducerOption {
	return func(o *reducerOptions) {
		o.reduceArgs = args
	}
}

// WithInclusionArgs Arguments placed before both automaton files when checking inclusion.
func WithInclusionArgs(args ...string) ReducerOption {
	return func(o *reducerOptions) {
		o.inclusionArgs = args
	}
}

// WithTempDir Directory receiving the automaton files handed to the reducer.
func WithTempDir(dir string) ReducerOption {
	return func(o *reducerOptions) {
		o.dir = dir
	}
}

// Reducer Exchanges automata with an external tree automata tool through Timbuk files.
type Reducer struct {
	runner Runner
	opts   reducerOptions
}

func NewReducer(runner Runner, opts ...ReducerOption) *Reducer {
	o := reducerOptions{
		logger:        slog.Default(),
		reduceArgs:    []string{"red"},
		inclusionArgs: []string{"incl"},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reducer{runner: runner, opts: o}
}

// run Writes each text to a file of its own and runs the reducer on them.
func (r *Reducer) run(ctx context.Context, args []string, texts ...string) ([]byte, error) {
	dir, err := os.MkdirTemp(r.opts.dir, "vata-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	all := append([]string{}, args...)
	for i, text := range texts {
		path := filepath.Join(dir, fmt.Sprintf("automaton%d.timbuk", i))
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return nil, err
		}
		all = append(all, path)
	}

	start := time.Now()
	out, err := r.runner.Run(ctx, all...)
	r.opts.logger.Debug("ran the reducer", "args", args, "elapsed", time.Since(start), "error", err)
	return out, err
}

// Reduce Returns an automaton equivalent to a, as reduced by the external tool.
func Reduce[S comparable](ctx context.Context, r *Reducer, a *automaton.Automaton[S]) (*automaton.Automaton[S], error) {
	out, err := r.run(ctx, r.opts.reduceArgs, Marshal(a))
	if err != nil {
		return nil, err
	}
	return Unmarshal(a.Alphabet(), string(out))
}

// CheckInclusion Reports whether the language of subsumer is included in the language of
// includer, as decided by the external tool answering 1 or 0.
func CheckInclusion[S comparable](ctx context.Context, r *Reducer, subsumer, includer *automaton.Automaton[S]) (bool, error) {
	out, err := r.run(ctx, r.opts.inclusionArgs, Marshal(subsumer), Marshal(includer))
	if err != nil {
		return false, err
	}
	switch answer := strings.TrimSpace(string(out)); answer {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected inclusion answer %q", ErrReducer, answer)
	}
}
