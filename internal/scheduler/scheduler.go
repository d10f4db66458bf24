// Package scheduler drives periodic ETL sweeps and CSV refreshes.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kasparro/crypto-etl/internal/etl"
)

// SweepRunner executes one ETL cycle for every configured source.
type SweepRunner interface {
	RunAll(ctx context.Context) []etl.Result
}

// Refresher regenerates the CSV drop between sweeps.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Config holds scheduler configuration.
type Config struct {
	SweepInterval   time.Duration
	RefreshInterval time.Duration
}

// Scheduler runs sweeps on a fixed interval until stopped. A sweep in
// flight when Stop is called runs to completion so no transaction is
// cut off mid-cycle.
type Scheduler struct {
	cfg       Config
	runner    SweepRunner
	refresher Refresher // may be nil
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. refresher may be nil when no CSV drop is
// configured.
func New(cfg Config, runner SweepRunner, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		runner:    runner,
		refresher: refresher,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start launches the sweep and refresh loops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.sweepLoop()

	if s.refresher != nil {
		s.wg.Add(1)
		go s.refreshLoop()
	}

	s.logger.Info("scheduler started",
		"sweep_interval", s.cfg.SweepInterval,
		"refresh_interval", s.cfg.RefreshInterval,
	)
	return nil
}

// Stop signals the loops and waits for them, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	// Sweep immediately on start.
	s.sweep()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one full pass. The detached context lets an in-flight
// sweep finish its transactions during shutdown.
func (s *Scheduler) sweep() {
	start := time.Now()
	results := s.runner.RunAll(context.WithoutCancel(s.ctx))

	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	s.logger.Info("sweep complete",
		"succeeded", succeeded,
		"failed", failed,
		"elapsed", time.Since(start),
	)
}

func (s *Scheduler) refreshLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresher.Refresh(context.WithoutCancel(s.ctx)); err != nil {
				s.logger.Error("csv refresh failed", "error", err)
			}
		}
	}
}
