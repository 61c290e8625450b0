package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	valid := []string{"0 2 * * *", "*/5 * * * *", "@daily", "@every 1h"}
	for _, expr := range valid {
		if err := ValidateSchedule(expr); err != nil {
			t.Errorf("ValidateSchedule(%q) error = %v", expr, err)
		}
	}

	invalid := []string{"", "0 2 * *", "61 * * * *", "0 0 2 * * *"}
	for _, expr := range invalid {
		if err := ValidateSchedule(expr); err == nil {
			t.Errorf("ValidateSchedule(%q) expected error", expr)
		}
	}
}

func TestScheduler_Add(t *testing.T) {
	s := New(discardLogger())
	noop := func(context.Context) error { return nil }

	if err := s.Add("rollup", "0 2 * * *", 0, noop); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add("rollup", "0 3 * * *", 0, noop); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("duplicate Add() error = %v, want ErrDuplicateJob", err)
	}
	if err := s.Add("broken", "not a schedule", 0, noop); err == nil {
		t.Error("expected error for invalid schedule")
	}

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	status := s.Status()
	if len(status) != 1 || status[0].Name != "rollup" {
		t.Fatalf("Status() = %+v", status)
	}
	next := status[0].NextRun
	if next.IsZero() || next.Hour() != 2 || next.Minute() != 0 || next.Location() != time.UTC {
		t.Errorf("NextRun = %v, want 02:00 UTC", next)
	}
}

func TestScheduler_TriggerDoesNotOverlap(t *testing.T) {
	s := New(discardLogger())
	release := make(chan struct{})
	var runs atomic.Int32

	err := s.Add("rollup", "@daily", 0, func(ctx context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := s.Trigger("rollup"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	waitFor(t, func() bool { return runs.Load() == 1 })

	if err := s.Trigger("rollup"); !errors.Is(err, ErrJobRunning) {
		t.Errorf("second Trigger() error = %v, want ErrJobRunning", err)
	}
	if !s.Status()[0].Running {
		t.Error("Status() must report the running job")
	}

	close(release)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}

	if err := s.Trigger("missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Trigger(missing) error = %v, want ErrUnknownJob", err)
	}
}

func TestScheduler_FailuresAreContained(t *testing.T) {
	s := New(discardLogger())
	var calls atomic.Int32

	_ = s.Add("failing", "@daily", 0, func(context.Context) error {
		calls.Add(1)
		return errors.New("store unavailable")
	})
	_ = s.Add("panicking", "@daily", 0, func(context.Context) error {
		calls.Add(1)
		panic("boom")
	})

	for _, name := range []string{"failing", "panicking"} {
		if err := s.Trigger(name); err != nil {
			t.Fatalf("Trigger(%s) error = %v", name, err)
		}
	}
	waitFor(t, func() bool {
		status := s.Status()
		return calls.Load() == 2 && !status[0].Running && !status[1].Running
	})

	status := s.Status()
	if status[0].LastError != "store unavailable" {
		t.Errorf("failing LastError = %q", status[0].LastError)
	}
	if status[1].LastError != "panic: boom" {
		t.Errorf("panicking LastError = %q", status[1].LastError)
	}

	// A failed run does not block the next one.
	if err := s.Trigger("failing"); err != nil {
		t.Fatalf("Trigger() after failure error = %v", err)
	}
	waitFor(t, func() bool { return calls.Load() == 3 })
	_ = s.Stop(context.Background())
}

func TestScheduler_StopCancelsOnDeadline(t *testing.T) {
	s := New(discardLogger())
	cancelled := make(chan struct{})

	_ = s.Add("slow", "@daily", 0, func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	if err := s.Trigger("slow"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	waitFor(t, func() bool { return s.Status()[0].Running })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want deadline exceeded", err)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Error("running job was not cancelled")
	}
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := New(discardLogger())
	done := make(chan error, 1)

	_ = s.Add("bounded", "@daily", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	if err := s.Trigger("bounded"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("job ctx error = %v, want deadline exceeded", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job timeout not applied")
	}
	_ = s.Stop(context.Background())
}
