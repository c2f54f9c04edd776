// workers/session_sweeper.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tote-sponsor-system/logger"
)

// SessionPurger deletes verification sessions whose expiry has passed.
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically garbage-collects expired verification sessions.
// Expiry is always re-checked at use time, so a late sweep is harmless.
type SessionSweeper struct {
	purger   SessionPurger
	interval time.Duration
	sched    gocron.Scheduler
}

func NewSessionSweeper(purger SessionPurger, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweeper{purger: purger, interval: interval}
}

func (w *SessionSweeper) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.sweep(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule session sweep: %w", err)
	}

	w.sched = sched
	sched.Start()
	logger.Info("session sweeper started", "interval", w.interval)
	return nil
}

func (w *SessionSweeper) Stop() error {
	if w.sched == nil {
		return nil
	}
	logger.Info("session sweeper stopping")
	return w.sched.Shutdown()
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	deleted, err := w.purger.DeleteExpired(ctx)
	if err != nil {
		logger.Error("session sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		logger.Info("expired verification sessions removed", "count", deleted)
	}
}
