package synth

import (
	"context"
	"errors"

	automaton "github.com/geange/fsasynth"
	"github.com/geange/fsasynth/sat"
)

// Enumerate
// Yields the automata selected by the encoding one at a time, blocking each one before the next
// solve, so that no structure is yielded twice. It stops once the constraints become
// unsatisfiable, after limit automata when limit is positive, when yield returns false, or when
// ctx is done. Returns the number of automata yielded.
func Enumerate[S comparable](ctx context.Context, enc *FSAEncoding[S], limit int,
	yield func(*automaton.Automaton[S]) bool) (int, error) {
	count := 0
	for limit <= 0 || count < limit {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		instance, err := enc.Resolve()
		if err != nil {
			return count, err
		}
		if instance == nil {
			enc.logger.Debug("enumeration exhausted", "instances", count)
			return count, nil
		}
		count++
		enc.logger.Debug("resolved an instance", "index", count,
			"accepts", instance.AcceptStates().Count(), "transitions", instance.NumTransitions())
		if !yield(instance) {
			return count, nil
		}

		if err := enc.BlockCurrentInstance(); err != nil {
			if errors.Is(err, sat.ErrContradiction) {
				// the blocked structure was the only one left
				return count, nil
			}
			return count, err
		}
	}
	return count, nil
}
