package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpirySweeper periodically expires overdue findings on a cron schedule.
type ExpirySweeper struct {
	manager  *Manager
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewExpirySweeper creates a sweeper running ExpireOverdue on the given cron
// schedule (standard five-field syntax, e.g. "*/5 * * * *").
func NewExpirySweeper(manager *Manager, schedule string) *ExpirySweeper {
	return &ExpirySweeper{
		manager:  manager,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "expiry-sweeper"),
	}
}

// Start begins scheduled sweeping. An empty schedule disables the sweeper.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("expiry schedule not configured, sweeper disabled")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("expiry sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *ExpirySweeper) sweep() {
	expired := s.manager.ExpireOverdue(time.Now())
	if len(expired) > 0 {
		s.logger.Info("expiry sweep completed", "expired", len(expired))
	} else {
		s.logger.Debug("expiry sweep completed, nothing overdue")
	}
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("expiry sweeper stopped")
	}
}

// IsRunning reports whether the sweeper is active.
func (s *ExpirySweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when not running.
func (s *ExpirySweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
