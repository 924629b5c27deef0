package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "anggaran/internal/log"
)

// RolloverChecker is the part of BudgetService the scheduler drives.
type RolloverChecker interface {
	CheckRollover(ctx context.Context) (RolloverStatus, error)
}

// RolloverSchedulerConfig holds configuration for the rollover scheduler.
type RolloverSchedulerConfig struct {
	// Interval is how often the month is re-checked (default: 1h)
	Interval time.Duration
}

func DefaultRolloverSchedulerConfig() RolloverSchedulerConfig {
	return RolloverSchedulerConfig{Interval: time.Hour}
}

// RolloverScheduler re-runs the rollover check on a ticker so a server
// left running across midnight at month end notices the new month.
type RolloverScheduler struct {
	checker RolloverChecker
	config  RolloverSchedulerConfig
	logger  *applog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRolloverScheduler(checker RolloverChecker, config RolloverSchedulerConfig, logger *applog.Logger) *RolloverScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultRolloverSchedulerConfig().Interval
	}
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &RolloverScheduler{
		checker: checker,
		config:  config,
		logger:  logger.WithComponent(applog.ComponentRollover),
	}
}

// Start begins the check loop. Returns an error if already running.
func (p *RolloverScheduler) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("rollover scheduler is already running")
	}
	p.running = true
	stop, done := make(chan struct{}), make(chan struct{})
	p.stopCh, p.doneCh = stop, done
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	p.logger.InfoContext(ctx, "Rollover scheduler started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to exit. Safe to call more than
// once and from several goroutines.
func (p *RolloverScheduler) Stop(ctx context.Context) error {
	p.mu.Lock()
	done := p.doneCh
	if p.running {
		p.running = false
		close(p.stopCh)
	}
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		p.logger.InfoContext(ctx, "Rollover scheduler stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Rollover scheduler stop timed out")
		return ctx.Err()
	}
	return nil
}

func (p *RolloverScheduler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RolloverScheduler) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *RolloverScheduler) check(ctx context.Context) {
	st, err := p.checker.CheckRollover(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Rollover check failed", applog.FieldError, err)
		return
	}
	if st.Pending {
		p.logger.InfoContext(ctx, "New month detected, rollover pending",
			"last_active_month", string(st.LastActiveMonth),
			"current_month", string(st.CurrentMonth))
	}
}
