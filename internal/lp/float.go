package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

const defaultFloatTolerance = 1e-10

// FloatSimplex solves a Problem in float64 with gonum's simplex. Its
// values are approximate, so it only serves as an independent estimate of
// the optimal objective; it never stands in for ExactSimplex.
type FloatSimplex struct {
	Tolerance float64
}

// FloatSolution is an approximate optimum
type FloatSolution struct {
	Objective float64
	Values    []float64
}

// Solve converts p to standard form (Ax = b, x ≥ 0) by adding one slack per
// row and one per finite upper bound, then runs gonum's simplex.
func (f FloatSimplex) Solve(p *Problem) (*FloatSolution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := p.NumVars()
	m := len(p.Rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: no variables", ErrInvalidProblem)
	}

	var bounded []int
	for j, u := range p.Upper {
		if !math.IsInf(u, 1) {
			bounded = append(bounded, j)
		}
	}

	rows := m + len(bounded)
	cols := n + rows
	if rows == 0 {
		return nil, fmt.Errorf("%w: no constraints", ErrInvalidProblem)
	}

	c := make([]float64, cols)
	copy(c, p.Objective)

	// Row block [A | I] with b shifted by A·lower.
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	if m > 0 {
		coeffs := p.Matrix()
		a.Slice(0, m, 0, n).(*mat.Dense).Copy(coeffs)

		var shift mat.VecDense
		shift.MulVec(coeffs, mat.NewVecDense(n, p.Lower))
		for i, bound := range p.Bounds() {
			a.Set(i, n+i, 1)
			b[i] = bound - shift.AtVec(i)
		}
	}
	for k, j := range bounded {
		r := m + k
		a.Set(r, j, 1)
		a.Set(r, n+r, 1)
		b[r] = p.Upper[j] - p.Lower[j]
	}

	tol := f.Tolerance
	if tol <= 0 {
		tol = defaultFloatTolerance
	}

	opt, x, err := gonumlp.Simplex(c, a, b, tol, nil)
	if err != nil {
		switch {
		case errors.Is(err, gonumlp.ErrInfeasible):
			return nil, ErrInfeasible
		case errors.Is(err, gonumlp.ErrUnbounded):
			return nil, ErrUnbounded
		}
		return nil, fmt.Errorf("float simplex: %w", err)
	}

	values := make([]float64, n)
	for j := 0; j < n; j++ {
		values[j] = x[j] + p.Lower[j]
		opt += p.Objective[j] * p.Lower[j]
	}

	return &FloatSolution{Objective: opt, Values: values}, nil
}
