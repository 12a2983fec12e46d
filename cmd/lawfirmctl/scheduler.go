package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runScheduled calls job on every tick of schedule until ctx is cancelled or the
// process is interrupted. A tick that is still running when the next one fires
// is skipped.
func runScheduled(ctx context.Context, schedule string, log *zap.Logger, job func(context.Context) (int, error)) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		n, err := job(ctx)
		if err != nil {
			log.Error("reminder dispatch failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("reminders dispatched", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}

	log.Info("reminder scheduler started", zap.String("schedule", schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("reminder scheduler stopped")
	return nil
}
