package audit

import (
	"context"
	"testing"
	"time"
)

func TestExpirySweeper_StartStop(t *testing.T) {
	m := NewManager(nil, nil)
	s := NewExpirySweeper(m, "*/5 * * * *")

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Error("sweeper not running after Start")
	}
	if s.NextRun() == nil {
		t.Error("NextRun returned nil for a running sweeper")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("sweeper still running after Stop")
	}
}

func TestExpirySweeper_EmptyScheduleDisabled(t *testing.T) {
	s := NewExpirySweeper(NewManager(nil, nil), "")

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.IsRunning() {
		t.Error("sweeper running despite empty schedule")
	}
}

func TestExpirySweeper_InvalidSchedule(t *testing.T) {
	s := NewExpirySweeper(NewManager(nil, nil), "not a schedule")

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start accepted an invalid cron schedule")
	}
}

func TestExpirySweeper_ContextCancelStops(t *testing.T) {
	s := NewExpirySweeper(NewManager(nil, nil), "*/5 * * * *")

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	time.Sleep(100 * time.Millisecond)
	if s.IsRunning() {
		t.Error("sweeper still running after context cancelled")
	}
}
