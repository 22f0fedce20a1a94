package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
	"github.com/noah-isme/subkeeper-api/pkg/jobs"
	"github.com/noah-isme/subkeeper-api/pkg/lock"
)

const (
	// SweepJobType identifies due-soon sweep jobs on the queue.
	SweepJobType = "due_soon_sweep"

	sweepLockName = "due-soon-sweep"
)

type dueSoonPromoter interface {
	PromoteDueSoon(ctx context.Context, from, to time.Time) (int64, error)
}

type sweepLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

type sweepObserver interface {
	ObserveSweep(result string, promoted int64, duration time.Duration, finishedAt time.Time)
}

// SweepServiceParams groups constructor dependencies. Locker is optional.
type SweepServiceParams struct {
	Repo    dueSoonPromoter
	Policy  *DuePolicy
	Locker  sweepLocker
	LockTTL time.Duration
	Metrics sweepObserver
	Logger  *zap.Logger
}

// SweepService promotes incomplete assignments entering the due-soon window.
type SweepService struct {
	repo    dueSoonPromoter
	policy  *DuePolicy
	locker  sweepLocker
	lockTTL time.Duration
	metrics sweepObserver
	logger  *zap.Logger
	now     func() time.Time
}

// NewSweepService constructs a SweepService.
func NewSweepService(params SweepServiceParams) *SweepService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SweepService{
		repo:    params.Repo,
		policy:  params.Policy,
		locker:  params.Locker,
		lockTTL: ttl,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// RefreshDueSoon moves every incomplete assignment that is due soon at now to
// the due-soon state and returns how many rows changed. Complete and already
// due-soon assignments are never touched, so repeating a call at the same
// instant changes nothing.
func (s *SweepService) RefreshDueSoon(ctx context.Context, now time.Time) (int64, error) {
	window := s.policy.Window(now)
	if window.Empty() {
		return 0, nil
	}
	return s.repo.PromoteDueSoon(ctx, window.From, window.To)
}

// Run performs one sweep at the current instant, guarded by the distributed
// lock when one is configured.
func (s *SweepService) Run(ctx context.Context) (*models.SweepResult, error) {
	startedAt := s.now()
	window := s.policy.Window(startedAt)
	result := &models.SweepResult{From: window.From, To: window.To, StartedAt: startedAt}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, sweepLockName, s.lockTTL)
		switch {
		case errors.Is(err, lock.ErrNotAcquired):
			s.logger.Info("due-soon sweep skipped, another instance holds the lock")
			s.observe("skipped", 0, 0, startedAt)
			result.Skipped = true
			return result, nil
		case err != nil:
			s.logger.Warn("due-soon sweep lock unavailable, sweeping without it", zap.Error(err))
		default:
			defer func() {
				if err := release(context.Background()); err != nil {
					s.logger.Warn("failed to release sweep lock", zap.Error(err))
				}
			}()
		}
	}

	promoted, err := s.RefreshDueSoon(ctx, startedAt)
	finishedAt := s.now()
	duration := finishedAt.Sub(startedAt)
	if err != nil {
		s.observe("failure", 0, duration, finishedAt)
		s.logger.Error("due-soon sweep failed",
			zap.Time("window_from", window.From), zap.Time("window_to", window.To), zap.Duration("duration", duration), zap.Error(err))
		return nil, appErrors.Internal(err, "due-soon sweep failed")
	}

	result.Promoted = promoted
	result.Duration = duration.Milliseconds()
	s.observe("success", promoted, duration, finishedAt)
	s.logger.Info("due-soon sweep finished",
		zap.String("policy", s.policy.Name()),
		zap.Int64("promoted", promoted),
		zap.Time("window_from", window.From),
		zap.Time("window_to", window.To),
		zap.Duration("duration", duration))
	return result, nil
}

// HandleJob adapts Run to the job queue.
func (s *SweepService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != SweepJobType {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	s.logger.Debug("due-soon sweep started", zap.String("job_id", job.ID), zap.Any("source", job.Payload))
	_, err := s.Run(ctx)
	return err
}

func (s *SweepService) observe(result string, promoted int64, duration time.Duration, at time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSweep(result, promoted, duration, at)
	}
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) (string, error)
}

// SweepDispatcher hands sweeps to the background queue without waiting for
// them to run.
type SweepDispatcher struct {
	queue  jobEnqueuer
	logger *zap.Logger
	now    func() time.Time
}

// NewSweepDispatcher constructs a SweepDispatcher.
func NewSweepDispatcher(queue jobEnqueuer, logger *zap.Logger) *SweepDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepDispatcher{queue: queue, logger: logger, now: time.Now}
}

// Dispatch enqueues a sweep. source names the trigger for the logs.
func (d *SweepDispatcher) Dispatch(source string) (*models.SweepTicket, error) {
	enqueuedAt := d.now().UTC()
	id, err := d.queue.TryEnqueue(jobs.Job{Type: SweepJobType, Payload: source, Enqueued: enqueuedAt})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "a sweep is already pending")
		}
		return nil, appErrors.Internal(err, "failed to enqueue sweep")
	}
	d.logger.Info("due-soon sweep enqueued", zap.String("job_id", id), zap.String("source", source))
	return &models.SweepTicket{JobID: id, EnqueuedAt: enqueuedAt}, nil
}
