package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	automaton "github.com/geange/fsasynth"
)

var ErrCheckFailed = errors.New("check failed")

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	workspaces, err := loadWorkspaces(cc.In, args)
	if err != nil {
		return err
	}
	failed, total := 0, 0
	for _, ws := range workspaces {
		for _, decl := range ws.Problem.Checks {
			ok, err := runCheck(cc.Out, ws, decl)
			if err != nil {
				return err
			}
			total++
			if !ok {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCheckFailed, failed, total)
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return color.GreenString("PASS")
	}
	return color.RedString("FAIL")
}

func runCheck(w io.Writer, ws *Workspace, decl CheckDecl) (bool, error) {
	left, err := ws.Automaton(decl.Left)
	if err != nil {
		return false, err
	}
	right, err := ws.Automaton(decl.Right)
	if err != nil {
		return false, err
	}

	switch decl.Kind {
	case CheckIncludes:
		res, err := automaton.CheckLanguageContainment(left, right)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(w, "%s %s includes %s\n", verdict(res.Passed), decl.Left, decl.Right)
		if !res.Passed {
			fmt.Fprintf(w, "\tcounterexample: %q\n", res.Counterexample)
		}
		return res.Passed, nil

	case CheckEquivalent:
		res, err := automaton.CheckLanguageEquivalence(left, right)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(w, "%s %s equivalent to %s\n", verdict(res.Equivalent), decl.Left, decl.Right)
		if res.Equivalent {
			return true, nil
		}
		if !res.Forward.Passed {
			fmt.Fprintf(w, "\tonly in %s: %q\n", decl.Left, res.Forward.Counterexample)
		}
		if !res.Backward.Passed {
			fmt.Fprintf(w, "\tonly in %s: %q\n", decl.Right, res.Backward.Counterexample)
		}
		diff, err := minimizedDiff(left, right)
		if err != nil {
			return false, err
		}
		fmt.Fprint(w, diff)
		return false, nil
	}
	return false, fmt.Errorf("%w: unknown check kind %q", ErrProblem, decl.Kind)
}

// minimizedDiff Line diff between the dumps of the minimized automata.
func minimizedDiff(a1, a2 *automaton.Automaton[string]) (string, error) {
	m1, err := automaton.Minimize(a1)
	if err != nil {
		return "", err
	}
	m2, err := automaton.Minimize(a2)
	if err != nil {
		return "", err
	}
	return lineDiff(m1.String(), m2.String()), nil
}

func lineDiff(from, to string) string {
	dmp := diffpatch.New()
	fromChars, toChars, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(fromChars, toChars, false), lines)

	sb := new(strings.Builder)
	for _, d := range diffs {
		prefix, paint := "  ", fmt.Sprint
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix, paint = "- ", color.New(color.FgRed).Sprint
		case diffpatch.DiffInsert:
			prefix, paint = "+ ", color.New(color.FgGreen).Sprint
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(paint(prefix + strings.TrimSuffix(line, "\n")))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
