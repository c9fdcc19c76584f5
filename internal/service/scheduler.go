package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
)

type sweeper interface {
	SweepAutoApprove(ctx context.Context) (*dto.SweepResult, error)
}

type accuracyRecomputer interface {
	RecomputeEmployee(ctx context.Context, employeeID string) error
}

type employeeLister interface {
	ListActiveEmployeeIDs(ctx context.Context) ([]string, error)
}

// Scheduler runs the periodic background work: the auto-approval sweep and
// the accuracy metric recompute. Both loops stop when the start context is
// cancelled or Stop is called.
type Scheduler struct {
	sweeper   sweeper
	accuracy  accuracyRecomputer
	employees employeeLister
	logger    *zap.Logger

	sweepInterval     time.Duration
	recomputeInterval time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewScheduler wires the background loops. Non-positive intervals disable the
// corresponding loop.
func NewScheduler(sweeper sweeper, accuracy accuracyRecomputer, employees employeeLister, sweepInterval, recomputeInterval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		sweeper:           sweeper,
		accuracy:          accuracy,
		employees:         employees,
		logger:            logger,
		sweepInterval:     sweepInterval,
		recomputeInterval: recomputeInterval,
	}
}

// Start launches the loops. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	if s.sweeper != nil && s.sweepInterval > 0 {
		s.wg.Add(1)
		go s.runLoop(ctx, "sweep", s.sweepInterval, s.runSweep)
	}
	if s.accuracy != nil && s.employees != nil && s.recomputeInterval > 0 {
		s.wg.Add(1)
		go s.runLoop(ctx, "accuracy-recompute", s.recomputeInterval, s.runRecompute)
	}
	s.started = true
	s.logger.Info("scheduler started",
		zap.Duration("sweep_interval", s.sweepInterval),
		zap.Duration("recompute_interval", s.recomputeInterval))
}

// Stop cancels the loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	result, err := s.sweeper.SweepAutoApprove(ctx)
	if err != nil {
		s.logger.Error("auto-approval sweep failed", zap.Error(err))
		return
	}
	if result.Approved > 0 {
		s.logger.Info("auto-approval sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("approved", result.Approved))
	}
}

func (s *Scheduler) runRecompute(ctx context.Context) {
	ids, err := s.employees.ListActiveEmployeeIDs(ctx)
	if err != nil {
		s.logger.Error("accuracy recompute failed to list employees", zap.Error(err))
		return
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.accuracy.RecomputeEmployee(ctx, id); err != nil {
			s.logger.Error("accuracy recompute failed",
				zap.String("employee_id", id),
				zap.Error(err))
		}
	}
	s.logger.Info("accuracy recompute finished", zap.Int("employees", len(ids)))
}
