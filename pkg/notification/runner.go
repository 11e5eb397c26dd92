package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/metrics"
)

// Locker serializes sweeps across runner replicas.
type Locker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

const sweepLockKey = "estagio:lock:deadline-sweep"

type Runner struct {
	sweeper  *Sweeper
	locker   Locker
	logger   *zap.Logger
	interval time.Duration
	window   int
	now      func() time.Time
}

func NewRunner(sweeper *Sweeper, locker Locker, logger *zap.Logger, interval time.Duration, window int) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{
		sweeper:  sweeper,
		locker:   locker,
		logger:   logger,
		interval: interval,
		window:   window,
		now:      time.Now,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("deadline sweeper starting",
		zap.Duration("interval", r.interval),
		zap.Int("alert_window_days", r.window),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("deadline sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many notices were created.
func (r *Runner) RunOnce(ctx context.Context) int {
	if r.locker != nil {
		token := uuid.NewString()
		ok, err := r.locker.TryLock(ctx, sweepLockKey, token, r.interval)
		if err != nil {
			r.logger.Warn("failed to acquire sweep lock, sweeping anyway", zap.Error(err))
		} else if !ok {
			r.logger.Info("another sweeper holds the lock")
			return 0
		} else {
			defer func() {
				if err := r.locker.Unlock(context.Background(), sweepLockKey, token); err != nil {
					r.logger.Warn("failed to release sweep lock", zap.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	created, err := r.sweeper.FindUpcomingDeadlineNotices(ctx, r.now(), r.window)
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Warn("deadline sweep failed", zap.Error(err))
		return 0
	}
	r.logger.Info("deadline sweep finished", zap.Int("created", len(created)))
	return len(created)
}
