package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/logger"
	"github.com/stitts-dev/fpl-squad/internal/lp"
)

// Result is one validated solve
type Result struct {
	RunID      string        `json:"run_id"`
	Lambda     float64       `json:"lambda"`
	Squad      *Squad        `json:"squad"`
	Duration   time.Duration `json:"duration"`
	Iterations int           `json:"iterations"`
}

// Optimizer runs build → solve → validate for one catalog and lambda.
type Optimizer struct {
	solver lp.Solver
	rules  Rules
	logger *logrus.Logger

	crossCheck          *lp.FloatSimplex
	crossCheckTolerance float64
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithCrossCheck re-solves every model with a float backend and rejects the
// result when the two objectives differ by more than tolerance.
func WithCrossCheck(solver lp.FloatSimplex, tolerance float64) Option {
	return func(o *Optimizer) {
		o.crossCheck = &solver
		o.crossCheckTolerance = tolerance
	}
}

// New creates an optimizer. A nil logger falls back to the package logger.
func New(solver lp.Solver, rules Rules, log *logrus.Logger, opts ...Option) *Optimizer {
	if log == nil {
		log = logger.GetLogger()
	}
	o := &Optimizer{
		solver:              solver,
		rules:               rules,
		logger:              log,
		crossCheckTolerance: 1e-6,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Rules returns the layout this optimizer enforces
func (o *Optimizer) Rules() Rules {
	return o.rules
}

// Optimize selects the squad maximizing Σ (expected_form − lambda·cost).
func (o *Optimizer) Optimize(ctx context.Context, cat *catalog.Catalog, lambda float64) (*Result, error) {
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrNegativeLambda, lambda)
	}
	if err := o.rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid league rules: %w", err)
	}
	if cat.Layout() != o.rules.Layout() {
		return nil, fmt.Errorf("catalog layout %+v does not match league rules %+v", cat.Layout(), o.rules.Layout())
	}

	runID := uuid.New().String()
	log := logger.WithSolveContext(o.logger, runID, lambda)
	start := time.Now()

	log.WithFields(logrus.Fields{
		"players":    cat.Len(),
		"teams":      o.rules.TeamCount,
		"squad_size": o.rules.SquadSize(),
	}).Info("Starting squad optimization")

	problem := BuildProblem(cat, lambda, o.rules)
	log.WithFields(logrus.Fields{
		"variables": problem.NumVars(),
		"rows":      len(problem.Rows),
	}).Debug("Model built")

	sol, err := o.solver.Solve(ctx, problem)
	if err != nil {
		log.WithError(err).Warn("Solver failed")
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return nil, fmt.Errorf("%w: %v", ErrInfeasibleModel, err)
		case errors.Is(err, lp.ErrUnbounded):
			return nil, fmt.Errorf("%w: %v", ErrUnboundedModel, err)
		}
		return nil, fmt.Errorf("solve failed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"iterations": sol.Iterations,
		"status":     sol.Status.String(),
	}).Debug("Solver finished")

	squad, err := Validate(problem, cat, sol, o.rules)
	if err != nil {
		log.WithError(err).Error("Solution rejected by validator")
		return nil, err
	}

	if o.crossCheck != nil {
		if err := o.runCrossCheck(problem, sol, log); err != nil {
			return nil, err
		}
	}

	result := &Result{
		RunID:      runID,
		Lambda:     lambda,
		Squad:      squad,
		Duration:   time.Since(start),
		Iterations: sol.Iterations,
	}

	log.WithFields(logrus.Fields{
		"objective":   squad.Objective,
		"total_cost":  squad.TotalCost,
		"total_form":  squad.TotalForm,
		"selected":    squad.Size(),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Squad optimization completed")

	return result, nil
}

func (o *Optimizer) runCrossCheck(problem *lp.Problem, sol *lp.Solution, log *logrus.Entry) error {
	approx, err := o.crossCheck.Solve(problem)
	if err != nil {
		return &OptimalityViolation{Reason: fmt.Sprintf("float cross-check failed: %v", err)}
	}
	exact, _ := sol.Objective.Float64()
	diff := math.Abs(exact - approx.Objective)

	log.WithFields(logrus.Fields{
		"exact_objective": exact,
		"float_objective": approx.Objective,
		"difference":      diff,
	}).Debug("Float cross-check")

	if diff > o.crossCheckTolerance*math.Max(1, math.Abs(exact)) {
		return &OptimalityViolation{Reason: fmt.Sprintf("float cross-check objective %g differs from exact %g", approx.Objective, exact)}
	}
	return nil
}
