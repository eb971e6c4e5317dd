package optimizer

import (
	"fmt"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/lp"
)

// BuildProblem turns a catalog into the squad LP:
//
//	minimize  Σ (lambda·cost_i − expected_form_i)·x_i,  0 ≤ x_i ≤ 1
//
// with rows in this order:
//
//	team t:        Σ_{i on t} x_i ≤ MaxPerTeam          (TeamCount rows)
//	position p:    Σ_{i at p} x_i ≤ required_p          (one per position)
//	position p:   −Σ_{i at p} x_i ≤ −required_p         (one per position)
//
// Every column has one +1 in the team block and a single +1/−1 pair in the
// position blocks, so the matrix is totally unimodular and every vertex of
// the relaxation is integral. Exact counts are paired ≤ rows, never
// equality rows.
//
// The catalog must already be validated against rules.Layout().
func BuildProblem(cat *catalog.Catalog, lambda float64, rules Rules) *lp.Problem {
	n := cat.Len()
	positions := len(rules.Positions)

	problem := &lp.Problem{
		Objective: make([]float64, n),
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
		Rows:      make([]lp.Row, rules.NumRows()),
	}

	teamTerms := make([][]lp.Term, rules.TeamCount)
	posTerms := make([][]lp.Term, positions)

	for i := 0; i < n; i++ {
		player := cat.Player(i)

		problem.Objective[i] = lambda*player.Cost - player.ExpectedForm()
		problem.Upper[i] = 1

		teamTerms[player.TeamID] = append(teamTerms[player.TeamID], lp.Term{Index: i, Coeff: 1})
		posTerms[player.PositionID] = append(posTerms[player.PositionID], lp.Term{Index: i, Coeff: 1})
	}

	for t := 0; t < rules.TeamCount; t++ {
		problem.Rows[t] = lp.Row{
			Name:  fmt.Sprintf("team[%d]<=%d", t, rules.MaxPerTeam),
			Terms: teamTerms[t],
			Cmp:   lp.LessEqual,
			Bound: float64(rules.MaxPerTeam),
		}
	}

	for p, quota := range rules.Positions {
		required := float64(quota.Required)

		problem.Rows[rules.TeamCount+p] = lp.Row{
			Name:  fmt.Sprintf("%s<=%d", quota.Name, quota.Required),
			Terms: posTerms[p],
			Cmp:   lp.LessEqual,
			Bound: required,
		}

		mirrored := make([]lp.Term, len(posTerms[p]))
		for k, term := range posTerms[p] {
			mirrored[k] = lp.Term{Index: term.Index, Coeff: -1}
		}
		problem.Rows[rules.TeamCount+positions+p] = lp.Row{
			Name:  fmt.Sprintf("%s>=%d", quota.Name, quota.Required),
			Terms: mirrored,
			Cmp:   lp.LessEqual,
			Bound: -required,
		}
	}

	return problem
}
