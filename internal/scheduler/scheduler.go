// Package scheduler triggers disbursement runs on a fixed cadence. A Redis
// lock keeps overlapping processes from running at the same time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"disburse/internal/models"

	"github.com/rs/zerolog"
)

var ErrRunInProgress = errors.New("disbursement run already in progress")

// releaseTimeout bounds the lock release after a run, which happens even when
// the run's context is already cancelled.
const releaseTimeout = 5 * time.Second

type Runner interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

type Locker interface {
	AcquireRunLock(ctx context.Context, ttl time.Duration) (token string, ok bool, err error)
	ReleaseRunLock(ctx context.Context, token string) error
}

type ReportStore interface {
	SaveRunReport(ctx context.Context, report *models.RunReport) error
}

type Scheduler struct {
	runner  Runner
	locker  Locker
	reports ReportStore

	Interval time.Duration
	LockTTL  time.Duration

	log    zerolog.Logger
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(runner Runner, locker Locker, reports ReportStore, interval, lockTTL time.Duration, log zerolog.Logger) *Scheduler {
	if runner == nil || locker == nil || reports == nil {
		panic("scheduler requires a runner, a locker and a report store")
	}
	return &Scheduler{
		runner:   runner,
		locker:   locker,
		reports:  reports,
		Interval: interval,
		LockTTL:  lockTTL,
		log:      log,
	}
}

// Start runs once immediately and then every Interval until Stop is called
// or ctx is done. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop(ctx)

	s.log.Info().Dur("interval", s.Interval).Msg("disbursement scheduler started")
}

// Stop cancels an in-flight run and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.log.Info().Msg("disbursement scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Info().Msg("scheduled run skipped, another run holds the lock")
	case err != nil:
		s.log.Error().Err(err).Msg("scheduled disbursement run failed")
	}
}

// RunOnce performs a single run under the lock and stores its report.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.RunReport, error) {
	token, ok, err := s.locker.AcquireRunLock(ctx, s.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.locker.ReleaseRunLock(releaseCtx, token); err != nil {
			s.log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()

	report, runErr := s.runner.Run(ctx)
	if report != nil {
		if err := s.reports.SaveRunReport(context.WithoutCancel(ctx), report); err != nil {
			s.log.Warn().Err(err).Str("run_id", report.ID).Msg("failed to store run report")
		}
	}
	if runErr != nil {
		return report, fmt.Errorf("disbursement run: %w", runErr)
	}
	return report, nil
}
