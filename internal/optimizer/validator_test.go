package optimizer

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/fpl-squad/internal/lp"
)

func solvedGoalkeepers(t *testing.T) (*lp.Problem, *lp.Solution) {
	t.Helper()
	p := BuildProblem(goalkeeperCatalog(t), 0.01, goalkeeperRules())
	sol, err := lp.NewExactSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	return p, sol
}

func cloneSolution(sol *lp.Solution) *lp.Solution {
	out := &lp.Solution{
		Status:     sol.Status,
		Objective:  new(big.Rat).Set(sol.Objective),
		Iterations: sol.Iterations,
	}
	for _, v := range sol.Values {
		out.Values = append(out.Values, new(big.Rat).Set(v))
	}
	for _, y := range sol.Duals {
		out.Duals = append(out.Duals, new(big.Rat).Set(y))
	}
	return out
}

func TestValidate_AcceptsSolverOutput(t *testing.T) {
	p, sol := solvedGoalkeepers(t)

	squad, err := Validate(p, goalkeeperCatalog(t), sol, goalkeeperRules())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, squad.SelectedIndices())
	assert.Equal(t, 0, new(big.Rat).Neg(sol.Objective).Cmp(squad.ExactObjective))
	assert.Equal(t, []string{"Raya", "Alisson"}, []string{squad.Selected()[0].Name, squad.Selected()[1].Name})
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(sol *lp.Solution)
		check  func(t *testing.T, err error)
	}{
		{
			name: "fractional value",
			tamper: func(sol *lp.Solution) {
				sol.Values[1] = big.NewRat(1, 3)
			},
			check: func(t *testing.T, err error) {
				var iv *IntegralityViolation
				require.ErrorAs(t, err, &iv)
				assert.Equal(t, 1, iv.Index)
				assert.Equal(t, "1/3", iv.Value.RatString())
			},
		},
		{
			name: "value above one",
			tamper: func(sol *lp.Solution) {
				sol.Values[0] = big.NewRat(2, 1)
			},
			check: func(t *testing.T, err error) {
				var iv *IntegralityViolation
				require.ErrorAs(t, err, &iv)
				assert.Equal(t, 0, iv.Index)
			},
		},
		{
			name: "quota breached",
			tamper: func(sol *lp.Solution) {
				for i := range sol.Values {
					sol.Values[i] = big.NewRat(1, 1)
				}
			},
			check: func(t *testing.T, err error) {
				var cv *ConstraintViolation
				require.ErrorAs(t, err, &cv)
				assert.Equal(t, "GK<=2", cv.Row)
				assert.Equal(t, "4", cv.Lhs.RatString())
			},
		},
		{
			name: "missing certificate",
			tamper: func(sol *lp.Solution) {
				sol.Duals = nil
			},
			check: func(t *testing.T, err error) {
				var ov *OptimalityViolation
				require.ErrorAs(t, err, &ov)
				assert.Contains(t, ov.Reason, "row multipliers")
			},
		},
		{
			name: "positive multiplier",
			tamper: func(sol *lp.Solution) {
				sol.Duals[0] = big.NewRat(1, 1)
			},
			check: func(t *testing.T, err error) {
				var ov *OptimalityViolation
				require.ErrorAs(t, err, &ov)
				assert.Contains(t, ov.Reason, "positive")
			},
		},
		{
			name: "feasible but not optimal",
			tamper: func(sol *lp.Solution) {
				sol.Values[1] = big.NewRat(1, 1)
				sol.Values[2] = big.NewRat(0, 1)
			},
			check: func(t *testing.T, err error) {
				var ov *OptimalityViolation
				require.ErrorAs(t, err, &ov)
			},
		},
		{
			name: "objective mismatch",
			tamper: func(sol *lp.Solution) {
				sol.Objective = big.NewRat(-1, 1)
			},
			check: func(t *testing.T, err error) {
				var ov *OptimalityViolation
				require.ErrorAs(t, err, &ov)
				assert.Contains(t, ov.Reason, "objective")
			},
		},
		{
			name: "not optimal status",
			tamper: func(sol *lp.Solution) {
				sol.Status = lp.StatusInfeasible
			},
			check: func(t *testing.T, err error) {
				var ov *OptimalityViolation
				require.ErrorAs(t, err, &ov)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, sol := solvedGoalkeepers(t)
			tampered := cloneSolution(sol)
			tt.tamper(tampered)

			squad, err := Validate(p, goalkeeperCatalog(t), tampered, goalkeeperRules())
			assert.Nil(t, squad)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInternalConsistency)
			tt.check(t, err)
		})
	}
}
