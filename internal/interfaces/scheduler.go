package interfaces

import "time"

// JobInfo describes one registered maintenance job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run,omitzero"`
	NextRun  time.Time `json:"next_run,omitzero"`
	Runs     int64     `json:"runs"`
	Failures int64     `json:"failures"`
}

// SchedulerService - cron-driven maintenance jobs (staleness sweeps, rules
// reload, store garbage collection). Monitors own their polling cadence;
// the scheduler never drives detection.
type SchedulerService interface {
	RegisterJob(name, schedule string, job func() error) error
	Start() error
	Stop()
	Jobs() []JobInfo
}
