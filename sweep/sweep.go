// Package sweep reaps unfinished rooms whose players walked away. With
// Redis configured the sweep runs as a scheduled asynq task so exactly
// one worker fires per interval across all server instances; without it
// a plain in-process ticker does the same job.
package sweep

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"miladuel/room"
)

// TypeRoomSweep is the asynq task type for one sweep pass.
const TypeRoomSweep = "rooms:sweep"

// minInterval keeps a short session timeout from hammering the store.
const minInterval = time.Minute

// RedisOpts builds the asynq connection options.
func RedisOpts(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// Sweeper deletes unfinished rooms idle past the timeout.
type Sweeper struct {
	store   room.Store
	timeout time.Duration
	log     *logrus.Logger
}

func NewSweeper(store room.Store, timeout time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{store: store, timeout: timeout, log: log}
}

// ProcessTask implements asynq.Handler.
func (s *Sweeper) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	return s.sweep(ctx)
}

func (s *Sweeper) sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.timeout)
	reaped, err := s.store.DeleteStale(ctx, cutoff)
	if err != nil {
		s.log.WithError(err).Error("SWEEP: pass failed")
		return err
	}
	if reaped > 0 {
		s.log.WithField("rooms", reaped).Info("SWEEP: reaped idle rooms")
	}
	return nil
}

func interval(timeout time.Duration) time.Duration {
	iv := timeout / 2
	if iv < minInterval {
		iv = minInterval
	}
	return iv
}

// Run schedules and processes sweep tasks through Redis until ctx is
// cancelled.
func Run(ctx context.Context, opts asynq.RedisClientOpt, store room.Store, timeout time.Duration, log *logrus.Logger) {
	sweeper := NewSweeper(store, timeout, log)

	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every "+interval(timeout).String(),
		asynq.NewTask(TypeRoomSweep, nil)); err != nil {
		log.WithError(err).Error("SWEEP: scheduler registration failed")
		return
	}

	srv := asynq.NewServer(opts, asynq.Config{Concurrency: 1})
	mux := asynq.NewServeMux()
	mux.Handle(TypeRoomSweep, sweeper)

	go func() {
		if err := scheduler.Run(); err != nil {
			log.WithError(err).Error("SWEEP: scheduler stopped")
		}
	}()
	go func() {
		if err := srv.Run(mux); err != nil {
			log.WithError(err).Error("SWEEP: worker stopped")
		}
	}()

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
}

// RunLocal runs the sweep on an in-process ticker, for deployments
// without Redis.
func RunLocal(ctx context.Context, store room.Store, timeout time.Duration, log *logrus.Logger) {
	sweeper := NewSweeper(store, timeout, log)

	ticker := time.NewTicker(interval(timeout))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = sweeper.sweep(ctx)
		}
	}
}
