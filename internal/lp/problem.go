// Package lp models bounded linear programs of the form
//
//	minimize    c·x
//	subject to  A_i·x ≤ b_i   for every row i
//	            l ≤ x ≤ u
//
// and solves them over exact rational arithmetic.
package lp

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInfeasible is returned when no point satisfies every row and bound.
	ErrInfeasible = errors.New("lp: problem is infeasible")
	// ErrUnbounded is returned when the objective decreases without limit.
	ErrUnbounded = errors.New("lp: problem is unbounded")
	// ErrInvalidProblem is returned for malformed input.
	ErrInvalidProblem = errors.New("lp: invalid problem")
)

// Comparison is a row's relational operator. Only ≤ is supported; exact
// counts are expressed as a ≤ row paired with a mirrored -row ≤ -bound.
type Comparison int

const (
	LessEqual Comparison = iota
)

func (c Comparison) String() string {
	if c == LessEqual {
		return "<="
	}
	return fmt.Sprintf("Comparison(%d)", int(c))
}

// Term is one nonzero coefficient of a row.
type Term struct {
	Index int
	Coeff float64
}

// Row is a sparse constraint. Terms are sorted by Index with no duplicates.
type Row struct {
	Name  string
	Terms []Term
	Cmp   Comparison
	Bound float64
}

// Eval returns the exact left-hand side of the row at values.
func (r Row) Eval(values []*big.Rat) *big.Rat {
	sum := new(big.Rat)
	term := new(big.Rat)
	coeff := new(big.Rat)
	for _, t := range r.Terms {
		coeff.SetFloat64(t.Coeff)
		term.Mul(coeff, values[t.Index])
		sum.Add(sum, term)
	}
	return sum
}

// Satisfied reports whether the row holds at values, exactly.
func (r Row) Satisfied(values []*big.Rat) bool {
	bound := new(big.Rat).SetFloat64(r.Bound)
	return r.Eval(values).Cmp(bound) <= 0
}

// Problem is a bounded minimization LP.
type Problem struct {
	Objective []float64
	Lower     []float64
	Upper     []float64
	Rows      []Row
}

// NumVars returns the number of decision variables
func (p *Problem) NumVars() int {
	return len(p.Objective)
}

// Validate checks dimensions, finiteness and row shape.
func (p *Problem) Validate() error {
	n := len(p.Objective)
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("%w: %d objective coefficients but %d lower and %d upper bounds", ErrInvalidProblem, n, len(p.Lower), len(p.Upper))
	}

	for j := 0; j < n; j++ {
		if !finite(p.Objective[j]) {
			return fmt.Errorf("%w: objective[%d] is not finite", ErrInvalidProblem, j)
		}
		if !finite(p.Lower[j]) {
			return fmt.Errorf("%w: lower[%d] must be finite", ErrInvalidProblem, j)
		}
		if math.IsNaN(p.Upper[j]) || math.IsInf(p.Upper[j], -1) || p.Upper[j] < p.Lower[j] {
			return fmt.Errorf("%w: bounds of variable %d are inconsistent", ErrInvalidProblem, j)
		}
	}

	for i, row := range p.Rows {
		if row.Cmp != LessEqual {
			return fmt.Errorf("%w: row %d (%s) uses unsupported comparison %s", ErrInvalidProblem, i, row.Name, row.Cmp)
		}
		if !finite(row.Bound) {
			return fmt.Errorf("%w: row %d (%s) bound is not finite", ErrInvalidProblem, i, row.Name)
		}
		prev := -1
		for _, t := range row.Terms {
			if t.Index <= prev || t.Index >= n {
				return fmt.Errorf("%w: row %d (%s) has unsorted or out-of-range index %d", ErrInvalidProblem, i, row.Name, t.Index)
			}
			if !finite(t.Coeff) {
				return fmt.Errorf("%w: row %d (%s) has a non-finite coefficient", ErrInvalidProblem, i, row.Name)
			}
			prev = t.Index
		}
	}
	return nil
}

// Matrix returns the dense constraint matrix, one row per constraint.
// It returns nil for a problem with no rows or no variables.
func (p *Problem) Matrix() *mat.Dense {
	m, n := len(p.Rows), p.NumVars()
	if m == 0 || n == 0 {
		return nil
	}
	a := mat.NewDense(m, n, nil)
	for i, row := range p.Rows {
		for _, t := range row.Terms {
			a.Set(i, t.Index, t.Coeff)
		}
	}
	return a
}

// Bounds returns the right-hand side vector
func (p *Problem) Bounds() []float64 {
	b := make([]float64, len(p.Rows))
	for i, row := range p.Rows {
		b[i] = row.Bound
	}
	return b
}

// ObjectiveValue returns Σ c_j x_j exactly, reading each float64
// coefficient as the rational it represents.
func (p *Problem) ObjectiveValue(values []*big.Rat) *big.Rat {
	sum := new(big.Rat)
	term := new(big.Rat)
	for j, c := range p.Objective {
		term.SetFloat64(c)
		term.Mul(term, values[j])
		sum.Add(sum, term)
	}
	return sum
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
