package synth

import (
	"github.com/geange/fsasynth/sat"
)

// constraints Feeds a solver until the first error, which it keeps. Every method is a no-op
// afterwards, so encoders check err once at the end.
type constraints struct {
	s   *sat.Solver
	err error
}

func (e *FSAEncoding[S]) newConstraints() *constraints {
	return &constraints{s: e.solver}
}

// vars Allocates n variables. On error the returned ids are placeholders.
func (c *constraints) vars(n int) []int {
	if n < 1 {
		return nil
	}
	if c.err == nil {
		vars, err := c.s.NewFreeVariables(n)
		if err == nil {
			return vars
		}
		c.err = err
	}
	return make([]int, n)
}

func (c *constraints) do(add func() error) {
	if c.err == nil {
		c.err = add()
	}
}

func (c *constraints) clause(literals ...int) {
	c.do(func() error { return c.s.AddClause(literals...) })
}

func (c *constraints) clauseIf(indicator int, literals ...int) {
	c.do(func() error { return c.s.AddClauseIf(indicator, literals...) })
}

func (c *constraints) atMost(degree int, literals ...int) {
	c.do(func() error { return c.s.AddClauseAtMost(degree, literals...) })
}

func (c *constraints) exactly(degree int, literals ...int) {
	c.do(func() error { return c.s.AddClauseExactly(degree, literals...) })
}

func (c *constraints) truthy(literals ...int) {
	c.do(func() error { return c.s.SetLiteralsTruthy(literals...) })
}

func (c *constraints) falsy(literals ...int) {
	c.do(func() error { return c.s.SetLiteralsFalsy(literals...) })
}

func (c *constraints) implication(antecedent, consequent int) {
	c.do(func() error { return c.s.AddImplication(antecedent, consequent) })
}

func (c *constraints) implicationIf(indicator, antecedent, consequent int) {
	c.do(func() error { return c.s.AddImplicationIf(indicator, antecedent, consequent) })
}

func (c *constraints) implications(antecedent int, consequents ...int) {
	c.do(func() error { return c.s.AddImplications(antecedent, consequents...) })
}

func (c *constraints) equivalent(literal1, literal2 int) {
	c.do(func() error { return c.s.MarkAsEquivalent(literal1, literal2) })
}

func (c *constraints) greaterEqual(upper, lower []int) {
	c.do(func() error { return c.s.MarkAsGreaterEqualInBinary(upper, lower) })
}
