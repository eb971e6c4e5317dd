package lp

import (
	"context"
	"errors"
	"math"
	"math/big"
)

// ErrIterationLimit is returned when MaxIterations is exhausted.
var ErrIterationLimit = errors.New("lp: iteration limit reached")

const defaultDegenerateLimit = 50

// ExactSimplex is a two-phase bounded-variable primal simplex over
// math/big.Rat. Variable bounds are handled implicitly (nonbasic variables
// sit at either bound), so the tableau only carries the constraint rows.
//
// Pricing is Dantzig's largest reduced cost. After DegenerateLimit
// consecutive zero-length steps it falls back to Bland's smallest-index
// rule until the objective moves again, which rules out cycling.
type ExactSimplex struct {
	// MaxIterations caps pivots plus bound flips. Zero means no cap.
	MaxIterations int
	// DegenerateLimit is the run of degenerate steps before switching to
	// Bland's rule. Zero selects a default.
	DegenerateLimit int
}

// NewExactSimplex returns a solver with default settings
func NewExactSimplex() *ExactSimplex {
	return &ExactSimplex{}
}

// Solve finds an optimal vertex of p or reports why none exists.
func (s *ExactSimplex) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	t := newTableau(p)

	if t.hasArtificials() {
		t.setPhaseOneCost()
		if err := s.iterate(ctx, t); err != nil {
			return nil, err
		}
		if t.artificialSum().Sign() > 0 {
			return nil, ErrInfeasible
		}
		t.fixArtificials()
	}

	t.setPhaseTwoCost(p)
	if err := s.iterate(ctx, t); err != nil {
		return nil, err
	}

	return t.solution(p), nil
}

func (s *ExactSimplex) iterate(ctx context.Context, t *tableau) error {
	limit := s.DegenerateLimit
	if limit <= 0 {
		limit = defaultDegenerateLimit
	}

	degenerate := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.MaxIterations > 0 && t.iterations >= s.MaxIterations {
			return ErrIterationLimit
		}

		col, dir := t.entering(degenerate >= limit)
		if col < 0 {
			return nil
		}

		step, row, toUpper := t.ratio(col, dir)
		if step == nil {
			return ErrUnbounded
		}

		if step.Sign() == 0 {
			degenerate++
		} else {
			degenerate = 0
		}

		t.move(col, dir, step, row, toUpper)
		t.iterations++
	}
}

// tableau holds B⁻¹A for the working system
//
//	M·[A | I | E]·(x', s, a) = M·(b − A·l)
//
// where x' = x − l, s are row slacks, a are artificials for rows whose
// shifted right-hand side is negative, and M negates exactly those rows.
type tableau struct {
	rows, cols int
	structural int

	a     [][]*big.Rat
	beta  []*big.Rat // values of basic variables, by row
	basis []int      // basic column of each row
	where []int      // row of a basic column, or -1

	upper      []*big.Rat // shifted upper bound, nil for +∞
	atUpper    []bool     // nonbasic status
	artificial []bool
	slackCol   []int

	cost []*big.Rat
	d    []*big.Rat // reduced costs

	lower      []*big.Rat
	iterations int
}

func newTableau(p *Problem) *tableau {
	nv := p.NumVars()
	m := len(p.Rows)

	lower := make([]*big.Rat, nv)
	for j, l := range p.Lower {
		lower[j] = new(big.Rat).SetFloat64(l)
	}

	rhs := make([]*big.Rat, m)
	negate := make([]bool, m)
	artificials := 0
	tmp := new(big.Rat)
	for i, row := range p.Rows {
		b := new(big.Rat).SetFloat64(row.Bound)
		for _, term := range row.Terms {
			if lower[term.Index].Sign() == 0 {
				continue
			}
			tmp.SetFloat64(term.Coeff)
			tmp.Mul(tmp, lower[term.Index])
			b.Sub(b, tmp)
		}
		rhs[i] = b
		if b.Sign() < 0 {
			negate[i] = true
			artificials++
		}
	}

	cols := nv + m + artificials
	t := &tableau{
		rows:       m,
		cols:       cols,
		structural: nv,
		a:          make([][]*big.Rat, m),
		beta:       make([]*big.Rat, m),
		basis:      make([]int, m),
		where:      make([]int, cols),
		upper:      make([]*big.Rat, cols),
		atUpper:    make([]bool, cols),
		artificial: make([]bool, cols),
		slackCol:   make([]int, m),
		cost:       make([]*big.Rat, cols),
		d:          make([]*big.Rat, cols),
		lower:      lower,
	}

	for j := 0; j < cols; j++ {
		t.where[j] = -1
		t.cost[j] = new(big.Rat)
		t.d[j] = new(big.Rat)
	}

	for j := 0; j < nv; j++ {
		if math.IsInf(p.Upper[j], 1) {
			continue
		}
		u := new(big.Rat).SetFloat64(p.Upper[j])
		t.upper[j] = u.Sub(u, lower[j])
	}

	art := nv + m
	for i, row := range p.Rows {
		cells := make([]*big.Rat, cols)
		for j := range cells {
			cells[j] = new(big.Rat)
		}
		for _, term := range row.Terms {
			cells[term.Index].SetFloat64(term.Coeff)
			if negate[i] {
				cells[term.Index].Neg(cells[term.Index])
			}
		}

		slack := nv + i
		t.slackCol[i] = slack
		if negate[i] {
			cells[slack].SetInt64(-1)
			cells[art].SetInt64(1)
			t.artificial[art] = true
			t.basis[i] = art
			t.beta[i] = new(big.Rat).Neg(rhs[i])
			art++
		} else {
			cells[slack].SetInt64(1)
			t.basis[i] = slack
			t.beta[i] = rhs[i]
		}
		t.where[t.basis[i]] = i
		t.a[i] = cells
	}

	return t
}

func (t *tableau) hasArtificials() bool {
	return t.cols > t.structural+t.rows
}

func (t *tableau) setPhaseOneCost() {
	for j := 0; j < t.cols; j++ {
		if t.artificial[j] {
			t.cost[j].SetInt64(1)
		} else {
			t.cost[j].SetInt64(0)
		}
	}
	t.price()
}

func (t *tableau) setPhaseTwoCost(p *Problem) {
	for j := 0; j < t.cols; j++ {
		if j < t.structural {
			t.cost[j].SetFloat64(p.Objective[j])
		} else {
			t.cost[j].SetInt64(0)
		}
	}
	t.price()
}

// price recomputes every reduced cost d_j = c_j − Σ_i c_B(i)·a_ij.
func (t *tableau) price() {
	tmp := new(big.Rat)
	for j := 0; j < t.cols; j++ {
		dj := t.d[j].Set(t.cost[j])
		for i := 0; i < t.rows; i++ {
			cb := t.cost[t.basis[i]]
			if cb.Sign() == 0 || t.a[i][j].Sign() == 0 {
				continue
			}
			tmp.Mul(cb, t.a[i][j])
			dj.Sub(dj, tmp)
		}
	}
}

func (t *tableau) artificialSum() *big.Rat {
	sum := new(big.Rat)
	for i, col := range t.basis {
		if t.artificial[col] {
			sum.Add(sum, t.beta[i])
		}
	}
	return sum
}

// fixArtificials pins every artificial to zero for phase two. Basic
// artificials then leave on the first step that would move them.
func (t *tableau) fixArtificials() {
	for j := 0; j < t.cols; j++ {
		if t.artificial[j] {
			t.upper[j] = new(big.Rat)
		}
	}
}

// entering picks an improving nonbasic column. dir is +1 when the column
// rises from its lower bound and -1 when it falls from its upper bound.
func (t *tableau) entering(bland bool) (col int, dir int) {
	col = -1
	var best *big.Rat
	for j := 0; j < t.cols; j++ {
		if t.where[j] >= 0 || t.artificial[j] {
			continue
		}
		if t.upper[j] != nil && t.upper[j].Sign() == 0 {
			continue
		}

		var dj int
		switch {
		case !t.atUpper[j] && t.d[j].Sign() < 0:
			dj = 1
		case t.atUpper[j] && t.d[j].Sign() > 0:
			dj = -1
		default:
			continue
		}

		if bland {
			return j, dj
		}
		abs := new(big.Rat).Abs(t.d[j])
		if col < 0 || abs.Cmp(best) > 0 {
			col, dir, best = j, dj, abs
		}
	}
	return col, dir
}

// ratio returns the longest feasible step for column col moving in dir.
// row is -1 when the limit is col's own opposite bound (a bound flip).
// A nil step means nothing limits the move.
func (t *tableau) ratio(col, dir int) (step *big.Rat, row int, toUpper bool) {
	row = -1
	if t.upper[col] != nil {
		step = new(big.Rat).Set(t.upper[col])
	}

	for i := 0; i < t.rows; i++ {
		alpha := t.a[i][col]
		if alpha.Sign() == 0 {
			continue
		}
		rate := new(big.Rat).Set(alpha)
		if dir < 0 {
			rate.Neg(rate)
		}

		var r *big.Rat
		up := false
		if rate.Sign() > 0 {
			r = new(big.Rat).Quo(t.beta[i], rate)
		} else {
			ub := t.upper[t.basis[i]]
			if ub == nil {
				continue
			}
			r = new(big.Rat).Sub(ub, t.beta[i])
			r.Quo(r, rate.Neg(rate))
			up = true
		}

		if step == nil {
			step, row, toUpper = r, i, up
			continue
		}
		switch c := r.Cmp(step); {
		case c < 0:
			step, row, toUpper = r, i, up
		case c == 0 && row >= 0 && t.basis[i] < t.basis[row]:
			step, row, toUpper = r, i, up
		}
	}
	return step, row, toUpper
}

// move advances col by step in dir and pivots it into row, or flips its
// bound when row is -1.
func (t *tableau) move(col, dir int, step *big.Rat, row int, toUpper bool) {
	if step.Sign() != 0 {
		delta := new(big.Rat).Set(step)
		if dir < 0 {
			delta.Neg(delta)
		}
		tmp := new(big.Rat)
		for i := 0; i < t.rows; i++ {
			if t.a[i][col].Sign() == 0 {
				continue
			}
			tmp.Mul(delta, t.a[i][col])
			t.beta[i].Sub(t.beta[i], tmp)
		}
	}

	if row < 0 {
		t.atUpper[col] = !t.atUpper[col]
		return
	}

	value := new(big.Rat)
	if t.atUpper[col] {
		value.Set(t.upper[col])
		value.Sub(value, step)
	} else {
		value.Set(step)
	}

	leaving := t.basis[row]
	t.where[leaving] = -1
	t.atUpper[leaving] = toUpper

	t.beta[row] = value
	t.pivot(row, col)
	t.basis[row] = col
	t.where[col] = row
	t.atUpper[col] = false
}

// pivot performs Gauss-Jordan elimination on column col using row r, and
// updates the reduced-cost row the same way.
func (t *tableau) pivot(r, col int) {
	inv := new(big.Rat).Inv(t.a[r][col])
	pr := t.a[r]
	for k := range pr {
		if pr[k].Sign() != 0 {
			pr[k].Mul(pr[k], inv)
		}
	}

	tmp := new(big.Rat)
	eliminate := func(target []*big.Rat) {
		f := new(big.Rat).Set(target[col])
		if f.Sign() == 0 {
			return
		}
		for k, v := range pr {
			if v.Sign() == 0 {
				continue
			}
			tmp.Mul(f, v)
			target[k].Sub(target[k], tmp)
		}
	}

	for i := 0; i < t.rows; i++ {
		if i != r {
			eliminate(t.a[i])
		}
	}
	eliminate(t.d)
}

func (t *tableau) value(j int) *big.Rat {
	v := new(big.Rat)
	switch {
	case t.where[j] >= 0:
		v.Set(t.beta[t.where[j]])
	case t.atUpper[j]:
		v.Set(t.upper[j])
	}
	return v
}

func (t *tableau) solution(p *Problem) *Solution {
	values := make([]*big.Rat, t.structural)
	for j := 0; j < t.structural; j++ {
		v := t.value(j)
		values[j] = v.Add(v, t.lower[j])
	}

	duals := make([]*big.Rat, t.rows)
	for i, col := range t.slackCol {
		duals[i] = new(big.Rat).Neg(t.d[col])
	}

	return &Solution{
		Status:     StatusOptimal,
		Values:     values,
		Objective:  p.ObjectiveValue(values),
		Duals:      duals,
		Iterations: t.iterations,
	}
}
