package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingChecker struct {
	calls int32
}

func (c *countingChecker) CheckRollover(context.Context) (RolloverStatus, error) {
	atomic.AddInt32(&c.calls, 1)
	return RolloverStatus{Pending: true, LastActiveMonth: "2024-01", CurrentMonth: "2024-02"}, nil
}

func TestDefaultRolloverSchedulerConfig(t *testing.T) {
	config := DefaultRolloverSchedulerConfig()
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}

	scheduler := NewRolloverScheduler(&countingChecker{}, RolloverSchedulerConfig{}, nil)
	if scheduler.config.Interval != time.Hour {
		t.Errorf("zero interval should default to 1h, got %v", scheduler.config.Interval)
	}
}

func TestRolloverScheduler_IsRunning(t *testing.T) {
	scheduler := NewRolloverScheduler(&countingChecker{}, DefaultRolloverSchedulerConfig(), nil)
	if scheduler.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestRolloverScheduler_StartTwice(t *testing.T) {
	scheduler := NewRolloverScheduler(&countingChecker{}, DefaultRolloverSchedulerConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := scheduler.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}
	if err := scheduler.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestRolloverScheduler_StopNotRunning(t *testing.T) {
	scheduler := NewRolloverScheduler(&countingChecker{}, DefaultRolloverSchedulerConfig(), nil)
	if err := scheduler.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestRolloverScheduler_Ticks(t *testing.T) {
	checker := &countingChecker{}
	scheduler := NewRolloverScheduler(checker, RolloverSchedulerConfig{Interval: 10 * time.Millisecond}, nil)
	ctx := context.Background()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&checker.calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := scheduler.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if n := atomic.LoadInt32(&checker.calls); n < 2 {
		t.Errorf("expected at least 2 checks, got %d", n)
	}
}

func TestRolloverScheduler_ConcurrentStop(t *testing.T) {
	scheduler := NewRolloverScheduler(&countingChecker{}, RolloverSchedulerConfig{Interval: time.Hour}, nil)
	ctx := context.Background()
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Stop(ctx); err != nil {
				t.Errorf("stop: %v", err)
			}
		}()
	}
	wg.Wait()

	if scheduler.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := scheduler.Stop(ctx); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}
