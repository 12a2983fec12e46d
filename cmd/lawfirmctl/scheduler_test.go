package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunScheduledRejectsBadSchedule(t *testing.T) {
	err := runScheduled(context.Background(), "every now and then", zap.NewNop(), func(context.Context) (int, error) {
		return 0, nil
	})
	if err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestRunScheduledRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- runScheduled(ctx, "@every 1s", zap.NewNop(), func(context.Context) (int, error) {
			if calls.Add(1) == 1 {
				cancel()
			}
			return 1, nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runScheduled: %v", err)
		}
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatalf("scheduler did not stop")
	}
	if calls.Load() < 1 {
		t.Fatalf("job never ran")
	}
}
