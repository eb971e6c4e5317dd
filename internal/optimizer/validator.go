package optimizer

import (
	"fmt"
	"math"
	"math/big"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/lp"
)

// Validate re-checks a solver result independently and assembles the squad.
// All arithmetic is exact. The checks run in order:
//
//  1. every value is exactly 0 or 1
//  2. every row holds for the selected set
//  3. the dual certificate proves optimality (KKT conditions)
//  4. the reported objective matches Σ c_i·x_i
//  5. the squad holds exactly rules.SquadSize() players
//
// Any failure is returned as a typed error matching ErrInternalConsistency.
func Validate(problem *lp.Problem, cat *catalog.Catalog, sol *lp.Solution, rules Rules) (*Squad, error) {
	n := problem.NumVars()
	if sol == nil || sol.Status != lp.StatusOptimal {
		return nil, &OptimalityViolation{Reason: "solver did not report an optimal solution"}
	}
	if len(sol.Values) != n || cat.Len() != n {
		return nil, &OptimalityViolation{Reason: fmt.Sprintf("solver returned %d values for %d variables", len(sol.Values), n)}
	}

	selected, err := checkIntegrality(sol.Values)
	if err != nil {
		return nil, err
	}

	if err := checkRows(problem, sol.Values); err != nil {
		return nil, err
	}

	if err := checkCertificate(problem, sol); err != nil {
		return nil, err
	}

	objective := problem.ObjectiveValue(sol.Values)
	if sol.Objective == nil || objective.Cmp(sol.Objective) != 0 {
		reported := "<nil>"
		if sol.Objective != nil {
			reported = sol.Objective.RatString()
		}
		return nil, &OptimalityViolation{Reason: fmt.Sprintf("objective %s does not match recomputed %s", reported, objective.RatString())}
	}

	squad := newSquad(cat, selected, objective)
	if size := squad.Size(); size != rules.SquadSize() {
		return nil, &ConstraintViolation{
			Row:   "squad_size",
			Lhs:   big.NewRat(int64(size), 1),
			Bound: big.NewRat(int64(rules.SquadSize()), 1),
		}
	}
	return squad, nil
}

func checkIntegrality(values []*big.Rat) ([]bool, error) {
	one := big.NewRat(1, 1)
	selected := make([]bool, len(values))
	for i, v := range values {
		if v == nil {
			return nil, &IntegralityViolation{Index: i, Value: new(big.Rat)}
		}
		// A normalized Rat is an integer iff its denominator is 1.
		if !v.IsInt() || (v.Sign() != 0 && v.Cmp(one) != 0) {
			return nil, &IntegralityViolation{Index: i, Value: new(big.Rat).Set(v)}
		}
		selected[i] = v.Sign() != 0
	}
	return selected, nil
}

func checkRows(problem *lp.Problem, values []*big.Rat) error {
	for _, row := range problem.Rows {
		lhs := row.Eval(values)
		bound := new(big.Rat).SetFloat64(row.Bound)
		if lhs.Cmp(bound) > 0 {
			return &ConstraintViolation{Row: row.Name, Lhs: lhs, Bound: bound}
		}
	}
	return nil
}

// checkCertificate verifies the KKT conditions for
// min c·x s.t. Ax ≤ b, l ≤ x ≤ u with multipliers y:
//
//	y_i ≤ 0, and y_i = 0 where row i has slack
//	d_j = c_j − Σ_i y_i·A_ij is ≥ 0 at lower bound, ≤ 0 at upper, 0 between
func checkCertificate(problem *lp.Problem, sol *lp.Solution) error {
	if len(sol.Duals) != len(problem.Rows) {
		return &OptimalityViolation{Reason: fmt.Sprintf("expected %d row multipliers, got %d", len(problem.Rows), len(sol.Duals))}
	}

	n := problem.NumVars()
	reduced := make([]*big.Rat, n)
	for j, c := range problem.Objective {
		reduced[j] = new(big.Rat).SetFloat64(c)
	}

	tmp := new(big.Rat)
	for i, row := range problem.Rows {
		y := sol.Duals[i]
		if y == nil {
			return &OptimalityViolation{Reason: fmt.Sprintf("row %s has no multiplier", row.Name)}
		}
		if y.Sign() > 0 {
			return &OptimalityViolation{Reason: fmt.Sprintf("row %s multiplier %s is positive", row.Name, y.RatString())}
		}
		if y.Sign() != 0 {
			bound := new(big.Rat).SetFloat64(row.Bound)
			if row.Eval(sol.Values).Cmp(bound) != 0 {
				return &OptimalityViolation{Reason: fmt.Sprintf("row %s has slack but multiplier %s", row.Name, y.RatString())}
			}
		}
		for _, term := range row.Terms {
			tmp.SetFloat64(term.Coeff)
			tmp.Mul(tmp, y)
			reduced[term.Index].Sub(reduced[term.Index], tmp)
		}
	}

	for j := 0; j < n; j++ {
		x := sol.Values[j]
		lower := new(big.Rat).SetFloat64(problem.Lower[j])
		atLower := x.Cmp(lower) == 0
		atUpper := !math.IsInf(problem.Upper[j], 1) && x.Cmp(new(big.Rat).SetFloat64(problem.Upper[j])) == 0
		d := reduced[j]

		switch {
		case atLower && atUpper:
		case atLower && d.Sign() < 0:
			return &OptimalityViolation{Reason: fmt.Sprintf("variable %d at lower bound has negative reduced cost %s", j, d.RatString())}
		case atUpper && d.Sign() > 0:
			return &OptimalityViolation{Reason: fmt.Sprintf("variable %d at upper bound has positive reduced cost %s", j, d.RatString())}
		case !atLower && !atUpper && d.Sign() != 0:
			return &OptimalityViolation{Reason: fmt.Sprintf("variable %d between bounds has reduced cost %s", j, d.RatString())}
		}
	}
	return nil
}
