package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// jobEntry tracks one registered job and its run history
type jobEntry struct {
	name     string
	schedule string
	handler  func() error
	cronID   cron.EntryID
	lastRun  time.Time
	runs     int64
	failures int64
}

// Service runs maintenance jobs on cron schedules. Jobs are registered
// before Start; the cron clock owns execution after that.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	jobs    map[string]*jobEntry
	running bool
}

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

var _ interfaces.SchedulerService = (*Service)(nil)

// RegisterJob adds a job under the given cron schedule
func (s *Service) RegisterJob(name, schedule string, job func() error) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  job,
	}

	id, err := s.cron.AddFunc(schedule, func() { s.executeJob(name) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	entry.cronID = id
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")
	return nil
}

// Start begins the cron clock
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the cron clock and waits for in-flight jobs
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Jobs returns registered jobs sorted by name
func (s *Service) Jobs() []interfaces.JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]interfaces.JobInfo, 0, len(s.jobs))
	for _, entry := range s.jobs {
		info := interfaces.JobInfo{
			Name:     entry.name,
			Schedule: entry.schedule,
			LastRun:  entry.lastRun,
			Runs:     entry.runs,
			Failures: entry.failures,
		}
		if s.running {
			info.NextRun = s.cron.Entry(entry.cronID).Next
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// TriggerJob runs a registered job immediately, outside its schedule
func (s *Service) TriggerJob(name string) error {
	s.mu.Lock()
	_, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}

	s.executeJob(name)
	return nil
}

func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.mu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.failures++
			}
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.mu.Unlock()
		return
	}
	handler := entry.handler
	s.mu.Unlock()

	started := time.Now()
	err := handler()

	s.mu.Lock()
	entry.lastRun = time.Now().UTC()
	entry.runs++
	if err != nil {
		entry.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Job execution failed")
	} else {
		s.logger.Debug().
			Str("job_name", name).
			Dur("duration", time.Since(started)).
			Msg("Job execution completed")
	}
}
