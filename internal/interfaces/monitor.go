package interfaces

import (
	"context"
	"time"
)

// MonitorStatus is the runtime snapshot of one monitor, surfaced by the
// status endpoint and the monitor control API
type MonitorStatus struct {
	Name          string        `json:"name"`
	IsRunning     bool          `json:"is_running"`
	PollInterval  time.Duration `json:"poll_interval"`
	LastCycleAt   time.Time     `json:"last_cycle_at,omitzero"`
	LastCycleErr  string        `json:"last_cycle_error,omitempty"`
	CyclesRun     int64         `json:"cycles_run"`
	ItemsDetected int64         `json:"items_detected"`
}

// Monitor - a named polling loop that can be started and stopped at runtime
type Monitor interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Status() MonitorStatus
	// RunOnce executes a single polling cycle synchronously. Used by tests
	// and the manual trigger endpoint.
	RunOnce(ctx context.Context) error
}

// MonitorRegistry - lookup and control surface over all configured monitors
type MonitorRegistry interface {
	Get(name string) (Monitor, bool)
	All() []Monitor
	StartAll(ctx context.Context) error
	StopAll() error
}
