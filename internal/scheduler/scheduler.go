// Package scheduler re-fetches the player catalog and re-solves the squad on
// a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/logger"
	"github.com/stitts-dev/fpl-squad/internal/optimizer"
	"github.com/stitts-dev/fpl-squad/internal/store"
)

// ErrRunInProgress is returned by RunOnce while another run is active
var ErrRunInProgress = errors.New("a scheduled run is already in progress")

// RunStore persists results. *store.Store satisfies it.
type RunStore interface {
	SaveRun(ctx context.Context, result *optimizer.Result, source string) (*store.SolveRun, error)
}

// Config holds the job parameters
type Config struct {
	Schedule string
	Lambda   float64
	Timeout  time.Duration
}

type Scheduler struct {
	source    catalog.Source
	optimizer *optimizer.Optimizer
	store     RunStore
	cfg       Config
	logger    *logrus.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	busy      atomic.Bool

	// ctx is cancelled by Stop; every run derives from it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnResult, when set, receives every successful result.
	OnResult func(*optimizer.Result)
}

// New creates a scheduler. store may be nil, in which case runs are only logged.
func New(source catalog.Source, opt *optimizer.Optimizer, runs RunStore, cfg Config, logger *logrus.Logger) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Scheduler{
		source:    source,
		optimizer: opt,
		store:     runs,
		cfg:       cfg,
		logger:    logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
		)),
	}
}

// Start schedules the job and runs it once immediately. Runs are cancelled
// when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.tick); err != nil {
		return fmt.Errorf("failed to schedule squad refresh %q: %w", s.cfg.Schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick()
	}()

	s.logger.WithFields(logrus.Fields{
		"schedule": s.cfg.Schedule,
		"lambda":   s.cfg.Lambda,
		"source":   s.source.Name(),
	}).Info("Squad scheduler started")
	return nil
}

// Stop cancels in-flight runs, halts scheduling and waits for every
// started run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancel()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.wg.Wait()

	s.isRunning = false
	s.logger.Info("Squad scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Debug("Skipping squad refresh, previous run still active")
			return
		}
		s.logger.WithError(err).Error("Scheduled squad refresh failed")
	}
}

// RunOnce loads the catalog, solves, and saves the result.
func (s *Scheduler) RunOnce(ctx context.Context) (*optimizer.Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.busy.Store(false)

	start := time.Now()
	cat, err := catalog.Load(ctx, s.source, s.optimizer.Rules().Layout())
	if err != nil {
		return nil, fmt.Errorf("failed to load players from %s: %w", s.source.Name(), err)
	}

	result, err := s.optimizer.Optimize(ctx, cat, s.cfg.Lambda)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if _, err := s.store.SaveRun(ctx, result, s.source.Name()); err != nil {
			return nil, err
		}
	}

	logger.WithSolveContext(s.logger, result.RunID, s.cfg.Lambda).WithFields(logrus.Fields{
		"players":     cat.Len(),
		"objective":   result.Squad.Objective,
		"total_cost":  result.Squad.TotalCost,
		"saved":       s.store != nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Squad refresh completed")

	if s.OnResult != nil {
		s.OnResult(result)
	}
	return result, nil
}
