package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// Registry holds all configured monitors and provides the runtime
// start/stop control surface
type Registry struct {
	mu       sync.RWMutex
	monitors map[string]interfaces.Monitor
	logger   arbor.ILogger
}

// NewRegistry creates an empty monitor registry
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		monitors: make(map[string]interfaces.Monitor),
		logger:   logger,
	}
}

var _ interfaces.MonitorRegistry = (*Registry)(nil)

// Register adds a monitor. Names must be unique.
func (r *Registry) Register(m interfaces.Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.monitors[m.Name()]; exists {
		return fmt.Errorf("monitor %s already registered", m.Name())
	}
	r.monitors[m.Name()] = m
	return nil
}

// Get returns a monitor by name
func (r *Registry) Get(name string) (interfaces.Monitor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.monitors[name]
	return m, ok
}

// All returns every registered monitor in name order
func (r *Registry) All() []interfaces.Monitor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.monitors))
	for name := range r.monitors {
		names = append(names, name)
	}
	sort.Strings(names)

	monitors := make([]interfaces.Monitor, 0, len(names))
	for _, name := range names {
		monitors = append(monitors, r.monitors[name])
	}
	return monitors
}

// StartAll starts every monitor. A monitor that fails to start is logged
// and skipped; the rest still run.
func (r *Registry) StartAll(ctx context.Context) error {
	var firstErr error
	for _, m := range r.All() {
		if err := m.Start(ctx); err != nil {
			r.logger.Warn().Err(err).Str("monitor", m.Name()).Msg("Failed to start monitor")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StopAll stops every running monitor
func (r *Registry) StopAll() error {
	var firstErr error
	for _, m := range r.All() {
		if err := m.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
