package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/config"
	"github.com/stitts-dev/fpl-squad/internal/logger"
	"github.com/stitts-dev/fpl-squad/internal/lp"
	"github.com/stitts-dev/fpl-squad/internal/optimizer"
	"github.com/stitts-dev/fpl-squad/internal/report"
	"github.com/stitts-dev/fpl-squad/internal/scheduler"
	"github.com/stitts-dev/fpl-squad/internal/store"
)

const crossCheckTolerance = 1e-6

type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg *config.Config
	log *logrus.Logger

	// Global flags
	playersFile string
	source      string
	save        bool
	crossCheck  bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fpl-squad LAMBDA",
		Short: "Pick the fantasy squad that maximizes form minus LAMBDA × cost",
		Long: `fpl-squad selects 15 players (2 GK, 5 DEF, 5 MID, 3 FWD, at most 3 per
club) maximizing the sum of expected form minus LAMBDA times cost.

The selection is solved exactly and every result is checked for integrality,
feasibility and optimality before it is printed.

Exit codes: 0 success, 1 usage, 2 data load, 3 no feasible squad,
4 internal consistency failure, 5 other errors.`,
		Args:          lambdaArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: a.runSolve,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{cmd: cmd, err: err}
	})

	root.PersistentFlags().StringVar(&a.playersFile, "players", "", "path to the players JSON file (default from PLAYERS_FILE)")
	root.PersistentFlags().StringVar(&a.source, "source", "", "player source: file or api (default from PLAYER_SOURCE)")
	root.PersistentFlags().BoolVar(&a.save, "save", false, "persist validated runs to DATABASE_URL")
	root.PersistentFlags().BoolVar(&a.crossCheck, "cross-check", false, "re-solve in floating point and compare objectives")

	root.AddCommand(newSweepCmd(a), newHistoryCmd(a), newWatchCmd(a))
	return root
}

func lambdaArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError(cmd, "expected exactly one LAMBDA argument, got %d", len(args))
	}
	if _, err := parseLambda(args[0]); err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	return nil
}

func parseLambda(arg string) (float64, error) {
	lambda, err := strconv.ParseFloat(arg, 64)
	if err != nil || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return 0, fmt.Errorf("invalid LAMBDA %q: must be a number", arg)
	}
	if lambda < 0 {
		return 0, fmt.Errorf("invalid LAMBDA %q: must be non-negative", arg)
	}
	return lambda, nil
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		// Same exit code as a bad flag, without the usage text.
		return &usageError{err: fmt.Errorf("invalid configuration: %w", err)}
	}
	a.cfg = cfg
	a.log = logger.InitLoggerWithOutput(cfg.LogLevel, cfg.IsDevelopment(), a.stderr)

	if a.playersFile == "" {
		a.playersFile = cfg.PlayersFile
	}
	if a.source == "" {
		a.source = cfg.PlayerSource
	}
	if a.source != "file" && a.source != "api" {
		return newUsageError(cmd, "invalid --source %q: want file or api", a.source)
	}
	a.crossCheck = a.crossCheck || cfg.CrossCheck
	return nil
}

func (a *app) rules() (optimizer.Rules, error) {
	quotas, err := optimizer.ParseQuotas(a.cfg.PositionQuotas)
	if err != nil {
		return optimizer.Rules{}, err
	}
	rules := optimizer.Rules{
		TeamCount:  a.cfg.TeamCount,
		MaxPerTeam: a.cfg.MaxPerTeam,
		Positions:  quotas,
	}
	return rules, rules.Validate()
}

func (a *app) newOptimizer() (*optimizer.Optimizer, error) {
	rules, err := a.rules()
	if err != nil {
		return nil, fmt.Errorf("invalid league rules: %w", err)
	}
	var opts []optimizer.Option
	if a.crossCheck {
		opts = append(opts, optimizer.WithCrossCheck(lp.FloatSimplex{}, crossCheckTolerance))
	}
	return optimizer.New(lp.NewExactSimplex(), rules, a.log, opts...), nil
}

// newSource builds the configured player source, optionally behind the
// Redis element cache. The returned func releases the cache connection.
func (a *app) newSource(ctx context.Context) (catalog.Source, func(), error) {
	var src catalog.Source
	switch a.source {
	case "api":
		src = catalog.NewAPISource(catalog.APIConfig{
			BaseURL:          a.cfg.FPLAPIURL,
			Timeout:          a.cfg.ExternalAPITimeout,
			RequestsPerSec:   a.cfg.FPLRateLimit,
			FailureThreshold: a.cfg.CircuitBreakerThreshold,
		}, a.log)
	default:
		src = catalog.NewFileSource(a.playersFile)
	}

	if a.cfg.RedisURL == "" {
		return src, func() {}, nil
	}

	cache, err := catalog.NewRedisCacheFromURL(ctx, a.cfg.RedisURL)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, loading players without cache")
		return src, func() {}, nil
	}
	return catalog.NewCachedSource(src, cache, a.cfg.PlayersCacheTTL, a.log), func() { cache.Close() }, nil
}

func (a *app) loadCatalog(ctx context.Context, opt *optimizer.Optimizer) (*catalog.Catalog, string, error) {
	src, release, err := a.newSource(ctx)
	if err != nil {
		return nil, "", err
	}
	defer release()

	cat, err := catalog.Load(ctx, src, opt.Rules().Layout())
	if err != nil {
		return nil, "", err
	}
	logger.WithSource(src.Name()).WithField("players", cat.Len()).Debug("Player catalog loaded")
	return cat, src.Name(), nil
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.DatabaseURL, a.cfg.IsDevelopment())
}

func (a *app) runSolve(cmd *cobra.Command, args []string) error {
	lambda, err := parseLambda(args[0])
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	ctx := cmd.Context()

	opt, err := a.newOptimizer()
	if err != nil {
		return err
	}
	cat, sourceName, err := a.loadCatalog(ctx, opt)
	if err != nil {
		return err
	}

	result, err := opt.Optimize(ctx, cat, lambda)
	if err != nil {
		return err
	}

	if a.save {
		runs, err := a.openStore()
		if err != nil {
			return err
		}
		defer runs.Close()
		if _, err := runs.SaveRun(ctx, result, sourceName); err != nil {
			return err
		}
	}

	return report.WriteSquad(a.stdout, result.Squad)
}

func newSweepCmd(a *app) *cobra.Command {
	var from, to float64
	var steps, workers int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Solve over a grid of LAMBDA values and print one summary row each",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lambdas, err := optimizer.LambdaGrid(from, to, steps)
			if err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			if workers <= 0 {
				workers = a.cfg.SweepWorkers
			}
			ctx := cmd.Context()

			opt, err := a.newOptimizer()
			if err != nil {
				return err
			}
			cat, sourceName, err := a.loadCatalog(ctx, opt)
			if err != nil {
				return err
			}

			results, err := opt.Sweep(ctx, cat, lambdas, workers)
			if err != nil {
				return err
			}

			if a.save {
				runs, err := a.openStore()
				if err != nil {
					return err
				}
				defer runs.Close()
				for _, res := range results {
					if _, err := runs.SaveRun(ctx, res, sourceName); err != nil {
						return err
					}
				}
			}

			return report.WriteSweep(a.stdout, results)
		},
	}

	cmd.Flags().Float64Var(&from, "from", 0, "first LAMBDA of the grid")
	cmd.Flags().Float64Var(&to, "to", 1, "last LAMBDA of the grid")
	cmd.Flags().IntVar(&steps, "steps", 5, "number of grid points")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (default from SWEEP_WORKERS)")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.openStore()
			if err != nil {
				return err
			}
			defer runs.Close()

			stored, err := runs.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			summaries := make([]report.RunSummary, len(stored))
			for i, r := range stored {
				summaries[i] = r.Summary()
			}
			return report.WriteHistory(a.stdout, summaries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to list")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch LAMBDA",
		Short: "Re-fetch players and re-solve on a cron schedule until interrupted",
		Args:  lambdaArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lambda, err := parseLambda(args[0])
			if err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			if schedule == "" {
				schedule = a.cfg.WatchSchedule
			}
			ctx := cmd.Context()

			opt, err := a.newOptimizer()
			if err != nil {
				return err
			}
			src, release, err := a.newSource(ctx)
			if err != nil {
				return err
			}
			defer release()

			runs, err := a.openStore()
			if err != nil {
				return err
			}
			defer runs.Close()

			s := scheduler.New(src, opt, runs, scheduler.Config{
				Schedule: schedule,
				Lambda:   lambda,
			}, a.log)
			s.OnResult = func(res *optimizer.Result) {
				if err := report.WriteSquad(a.stdout, res.Squad); err != nil {
					a.log.WithError(err).Warn("Failed to print squad")
				}
			}

			if err := s.Start(ctx); err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default from WATCH_SCHEDULE)")
	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return newUsageError(cmd, "unexpected arguments: %v", args)
	}
	return nil
}
