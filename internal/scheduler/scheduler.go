// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler errors.
var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrJobRunning   = errors.New("job already running")
	ErrDuplicateJob = errors.New("job already registered")
)

// JobFunc is a unit of scheduled work. A returned error is logged; it never
// stops later runs.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule string
	timeout  time.Duration
	fn       JobFunc
	entryID  cron.EntryID
	running  atomic.Bool
	lastErr  atomic.Pointer[string]
}

// JobStatus describes a registered job.
type JobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	Running   bool      `json:"running"`
	NextRun   time.Time `json:"nextRun"`
	PrevRun   time.Time `json:"prevRun,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Scheduler fires registered jobs in UTC. A job never overlaps itself,
// whether fired by its schedule or by Trigger.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// New creates a new Scheduler. Jobs run with a context that is cancelled
// when Stop gives up waiting.
func New(logger *slog.Logger) *Scheduler {
	logger = logger.With("component", "scheduler")
	cronLogger := slogAdapter{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ValidateSchedule reports whether expr is a valid five-field cron
// expression or descriptor such as "@daily".
func ValidateSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// Add registers fn under name. A positive timeout bounds each run.
func (s *Scheduler) Add(name, schedule string, timeout time.Duration, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, schedule: schedule, timeout: timeout, fn: fn}
	entryID, err := s.cron.AddFunc(schedule, func() { s.execute(j, "schedule") })
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}
	j.entryID = entryID
	s.jobs[name] = j

	s.logger.Info("job registered", "job", name, "schedule", schedule)
	return nil
}

// Trigger starts a run of the named job in the background.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.running.Load() {
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.execute(j, "manual")
	}()
	return nil
}

// execute runs one job invocation unless another is in flight.
func (s *Scheduler) execute(j *job, trigger string) {
	if !j.running.CompareAndSwap(false, true) {
		s.logger.Warn("job skipped, previous run still in progress", "job", j.name, "trigger", trigger)
		return
	}
	defer j.running.Store(false)

	ctx := s.ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Debug("job started", "job", j.name, "trigger", trigger)

	err := s.safeRun(ctx, j)
	if err != nil {
		msg := err.Error()
		j.lastErr.Store(&msg)
		s.logger.Error("job failed",
			"job", j.name,
			"trigger", trigger,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}

	j.lastErr.Store(nil)
	s.logger.Info("job completed", "job", j.name, "trigger", trigger, "duration", time.Since(start))
}

func (s *Scheduler) safeRun(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.fn(ctx)
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()

	for _, status := range s.Status() {
		s.logger.Info("job scheduled", "job", status.Name, "next_run", status.NextRun.Format(time.RFC3339))
	}
}

// Stop halts the schedule and waits for running jobs. If ctx ends first,
// running jobs are cancelled and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("scheduler stop timed out, cancelling running jobs")
		return ctx.Err()
	}
}

// Status lists registered jobs ordered by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		status := JobStatus{
			Name:     j.name,
			Schedule: j.schedule,
			Running:  j.running.Load(),
			NextRun:  entry.Next,
			PrevRun:  entry.Prev,
		}
		if msg := j.lastErr.Load(); msg != nil {
			status.LastError = *msg
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, k int) bool { return statuses[i].Name < statuses[k].Name })
	return statuses
}

// slogAdapter satisfies cron.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
