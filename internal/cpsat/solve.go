package cpsat

import (
	"context"
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// SolveParams controls one solve invocation.
type SolveParams struct {
	TimeLimit time.Duration
	// Seed namespaces the run; HiGHS itself is deterministic for a fixed
	// model build order, so the seed does not need to reach the solver.
	Seed int64
	// Workers is the requested solver parallelism. Solve does not pass it
	// to HiGHS, which chooses its own thread count; DefaultWorkers computes
	// min(16, varCount/10000), floor 1, but Solve does not apply it either.
	Workers int
}

// DefaultWorkers derives the solver parallelism from problem size.
func DefaultWorkers(problemSize int) int {
	w := problemSize / 10000
	if w < 1 {
		w = 1
	}
	if w > 16 {
		w = 16
	}
	return w
}

// Solution is the result of a solve.
type Solution struct {
	Status    Status
	Values    []bool
	Objective int64
}

// Value returns a variable's assignment in the solution.
func (s *Solution) Value(v Var) bool {
	return s.Values[v]
}

// Solve translates the decision model into a mixed-integer program and runs
// the HiGHS backend: boolean columns per variable, the weighted objective
// maximised, linear constraints verbatim, conflicts as pairwise at-most-one
// rows, and group cardinalities via indicator columns. The model build order
// is fixed, so identical params yield identical solutions.
func (m *Model) Solve(ctx context.Context, params SolveParams) Solution {
	if err := m.Validate(); err != nil {
		return Solution{Status: StatusInfeasible, Values: make([]bool, m.varCount)}
	}
	if m.varCount == 0 {
		return Solution{Status: StatusOptimal}
	}

	mipModel := mip.NewModel()
	mipModel.Objective().SetMaximize()

	vars := make([]mip.Bool, m.varCount)
	for i := range vars {
		vars[i] = mipModel.NewBool()
		if w := m.weights[i]; w != 0 {
			mipModel.Objective().NewTerm(float64(w), vars[i])
		}
	}

	for _, lc := range m.linear {
		c := mipModel.NewConstraint(mip.LessThanOrEqual, float64(lc.bound))
		for _, t := range lc.terms {
			c.NewTerm(float64(t.Coef), vars[t.Var])
		}
	}

	// Each conflict pair once: x_a + x_b <= 1.
	for a, partners := range m.conflicts {
		for _, b := range partners {
			if Var(a) < b {
				c := mipModel.NewConstraint(mip.LessThanOrEqual, 1)
				c.NewTerm(1, vars[a])
				c.NewTerm(1, vars[b])
			}
		}
	}

	// A group counts as active when any of its variables is set: x_v <= y_g
	// links the indicator, sum(y_g) <= k bounds the active groups.
	for _, gc := range m.groups {
		limit := mipModel.NewConstraint(mip.LessThanOrEqual, float64(gc.k))
		for _, g := range gc.groups {
			y := mipModel.NewBool()
			limit.NewTerm(1, y)
			for _, v := range g {
				link := mipModel.NewConstraint(mip.LessThanOrEqual, 0)
				link.NewTerm(1, vars[v])
				link.NewTerm(-1, y)
			}
		}
	}

	solver, err := mip.NewSolver(mip.Highs, mipModel)
	if err != nil {
		return Solution{Status: StatusUnknown, Values: make([]bool, m.varCount)}
	}

	timeLimit := params.TimeLimit
	if timeLimit <= 0 {
		timeLimit = time.Hour
	}
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeLimit {
			timeLimit = until
		}
	}

	solution, err := solver.Solve(mip.SolveOptions{Duration: timeLimit})
	if err != nil {
		return Solution{Status: StatusUnknown, Values: make([]bool, m.varCount)}
	}

	values := make([]bool, m.varCount)
	if !solution.IsOptimal() && !solution.IsSubOptimal() {
		// The time limit expired before any incumbent was found.
		return Solution{Status: StatusUnknown, Values: values}
	}

	var objective int64
	for i := range vars {
		if solution.Value(vars[i]) >= 0.9 {
			values[i] = true
			objective += m.weights[i]
		}
	}

	status := StatusFeasible
	if solution.IsOptimal() {
		status = StatusOptimal
	}
	return Solution{Status: status, Values: values, Objective: objective}
}
