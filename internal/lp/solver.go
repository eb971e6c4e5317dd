package lp

import (
	"context"
	"math/big"
)

// Status is the outcome of a solve
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	}
	return "unknown"
}

// Solution is an exact optimal point with its dual certificate.
//
// Duals[i] is the multiplier y_i of row i in the convention
// reducedCost_j = c_j − Σ_i y_i·A_ij. At an optimum of a ≤-row
// minimization every y_i is non-positive and is zero on rows with slack.
type Solution struct {
	Status     Status
	Values     []*big.Rat
	Objective  *big.Rat
	Duals      []*big.Rat
	Iterations int
}

// Solver solves a Problem. Implementations must return exact values.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
