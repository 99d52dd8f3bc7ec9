// Package scheduler runs the worker's background jobs: dead-pet sweeps,
// leaderboard rebuilds, stale-data eviction, notification delivery and
// the daily digest.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of background work.
type Job interface {
	// Name uniquely identifies the job.
	Name() string
	// Run executes the job; ctx is cancelled on shutdown.
	Run(ctx context.Context) error
	// Description is shown in logs and ops output.
	Description() string
}

// Schedule decides when a job runs next.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

var (
	ErrNilJob           = errors.New("job cannot be nil")
	ErrNilSchedule      = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists = errors.New("job already exists")
	ErrJobNotFound      = errors.New("job not found")
	ErrAlreadyRunning   = errors.New("scheduler is already running")
	ErrNotRunning       = errors.New("scheduler is not running")
)

// SchedulerConfig configures the interval scheduler.
type SchedulerConfig struct {
	Logger   *slog.Logger
	Timezone *time.Location
}

type entry struct {
	job       Job
	schedule  Schedule
	nextRun   time.Time
	inFlight  bool
	runCount  int64
	failCount int64
}

// Scheduler runs registered jobs on their schedules. A job never
// overlaps itself: a tick that lands while the previous run is still
// going is skipped.
type Scheduler struct {
	mu        sync.Mutex
	entries   map[string]*entry
	logger    *slog.Logger
	timezone  *time.Location
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time

	onJobError func(jobName string, err error)
}

// NewScheduler creates a scheduler from the config.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	return &Scheduler{
		entries:  make(map[string]*entry),
		logger:   cfg.Logger.With("component", "scheduler"),
		timezone: cfg.Timezone,
	}
}

// Register adds a job under its own name.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	next := schedule.Next(time.Now().In(s.timezone))
	s.entries[name] = &entry{job: job, schedule: schedule, nextRun: next}

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"schedule", schedule.String(),
		"next_run", next.Format(time.RFC3339),
	)
	return nil
}

// OnJobError installs a callback fired after every failed run. The
// worker uses it to push ops alerts.
func (s *Scheduler) OnJobError(fn func(jobName string, err error)) {
	s.mu.Lock()
	s.onJobError = fn
	s.mu.Unlock()
}

// Start launches the tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.startedAt = time.Now()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs", len(s.entries))
	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels the loop and waits for in-flight jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped", "uptime", time.Since(s.startedAt).Round(time.Second).String())
	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now().In(s.timezone)

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if e.inFlight || e.nextRun.After(now) {
			continue
		}
		e.inFlight = true
		e.nextRun = e.schedule.Next(now)
		e.runCount++
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.wg.Add(1)
		go s.execute(e)
	}
}

func (s *Scheduler) execute(e *entry) {
	defer s.wg.Done()
	name := e.job.Name()
	started := time.Now()

	err := s.safeRun(e.job)
	elapsed := time.Since(started)

	s.mu.Lock()
	e.inFlight = false
	if err != nil {
		e.failCount++
	}
	errHook := s.onJobError
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", "job", name, "duration", elapsed.String(), "error", err)
		if errHook != nil {
			errHook(name, err)
		}
		return
	}
	s.logger.Info("job completed", "job", name, "duration", elapsed.String())
}

// safeRun converts a job panic into an error so one bad job cannot
// kill the worker process.
func (s *Scheduler) safeRun(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return job.Run(s.ctx)
}

// JobInfo describes a registered job for ops output.
type JobInfo struct {
	Name      string
	Schedule  string
	NextRun   time.Time
	RunCount  int64
	FailCount int64
}

// ListJobs returns a snapshot of all registered jobs.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, JobInfo{
			Name:      name,
			Schedule:  e.schedule.String(),
			NextRun:   e.nextRun,
			RunCount:  e.runCount,
			FailCount: e.failCount,
		})
	}
	return out
}
