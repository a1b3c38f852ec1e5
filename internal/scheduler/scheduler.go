package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// ErrUnknownJob is returned for names that were never registered
var ErrUnknownJob = errors.New("unknown job")

// Scheduler runs registered jobs on their cron schedules. Overlapping
// activations of the same job are skipped.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.RWMutex
	entries map[string]entry
	history map[string]*History

	// Stop cancels this context, aborting running attempts
	ctx    context.Context
	cancel context.CancelFunc

	retries    int
	retryDelay time.Duration
	timeout    time.Duration
}

type entry struct {
	job Job
	id  cron.EntryID
}

// New creates a scheduler with 3 retries one minute apart and a 30 minute
// per-attempt timeout.
func New(log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{
		cron:       c,
		logger:     log.WithModule("scheduler"),
		entries:    map[string]entry{},
		history:    map[string]*History{},
		ctx:        ctx,
		cancel:     cancel,
		retries:    3,
		retryDelay: time.Minute,
		timeout:    30 * time.Minute,
	}
}

// WithRetry sets how often a failed run is retried and the pause between attempts
func (s *Scheduler) WithRetry(retries int, delay time.Duration) *Scheduler {
	s.retries, s.retryDelay = retries, delay
	return s
}

// WithJobTimeout bounds a single attempt
func (s *Scheduler) WithJobTimeout(d time.Duration) *Scheduler {
	s.timeout = d
	return s
}

// Register schedules job. Names must be unique.
func (s *Scheduler) Register(job Job) error {
	name := job.Name()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("register %s: already registered", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("register %s: schedule %q: %w", name, job.Schedule(), err)
	}
	s.entries[name] = entry{job: job, id: id}
	if _, ok := s.history[name]; !ok {
		s.history[name] = &History{}
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// Unregister removes a job from the schedule. Its history is kept.
func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("unregister %s: %w", name, ErrUnknownJob)
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)
	s.logger.WithField("job", name).Info("Job unregistered")
	return nil
}

func (s *Scheduler) Start() {
	s.logger.WithField("jobs", len(s.Jobs())).Info("Scheduler starting")
	s.cron.Start()
}

// Stop cancels running attempts and blocks until they return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Trigger runs a job immediately on the caller's goroutine
func (s *Scheduler) Trigger(name string) (Execution, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return Execution{}, fmt.Errorf("trigger %s: %w", name, ErrUnknownJob)
	}
	return s.execute(e.job), nil
}

// execute runs job with retries and records the outcome
func (s *Scheduler) execute(job Job) Execution {
	exec := Execution{Job: job.Name(), Started: time.Now()}
	log := s.logger.WithField("job", exec.Job)
	log.Info("Job started")

	var err error
	for exec.Attempts < s.retries+1 {
		exec.Attempts++
		if err = s.attempt(job); err == nil {
			break
		}
		log.WithField("attempt", exec.Attempts).WithError(err).Warn("Job attempt failed")

		if exec.Attempts > s.retries || !s.pause() {
			break
		}
	}
	exec.Finished = time.Now()
	if err != nil {
		exec.Err = err.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[exec.Job]; ok {
		h.Record(exec)
	}
	s.mu.Unlock()

	done := log.WithFields(map[string]interface{}{
		"attempts": exec.Attempts,
		"duration": exec.Elapsed().String(),
	})
	if err != nil {
		done.WithError(err).Error("Job failed")
	} else {
		done.Info("Job completed")
	}
	return exec
}

func (s *Scheduler) attempt(job Job) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return job.Run(ctx)
}

// pause waits retryDelay and reports false when the scheduler stopped meanwhile
func (s *Scheduler) pause() bool {
	if s.ctx.Err() != nil {
		return false
	}
	t := time.NewTimer(s.retryDelay)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// History returns the stored executions of a job
func (s *Scheduler) History(name string) ([]Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.history[name]
	if !ok {
		return nil, fmt.Errorf("history %s: %w", name, ErrUnknownJob)
	}
	return h.Executions(), nil
}

// Jobs returns registered job names in sorted order
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns the next activation of a job. It is zero until Start.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	next := s.cron.Entry(e.id).Next
	return next, !next.IsZero()
}
