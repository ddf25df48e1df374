package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// Record is one parsed candidate with its storage uniqueness key
type Record interface {
	Key() string
}

// Source is one monitored feed. The engine drives the polling loop and
// error isolation; the source supplies fetch/parse, persistence with
// key-level dedup, and downstream handling.
type Source interface {
	Name() string
	PollInterval() time.Duration
	// Fetch retrieves and parses the current candidate set
	Fetch(ctx context.Context) ([]Record, error)
	// Store persists one record; returns false when its key already exists
	Store(ctx context.Context, rec Record) (bool, error)
	// Handle runs downstream processing for a newly stored record
	Handle(ctx context.Context, rec Record) error
}

// Engine runs one source's polling loop. Every per-cycle failure is
// logged and swallowed: nothing propagates out of the loop, and Stop
// never waits for more than the in-flight cycle.
type Engine struct {
	source Source
	logger arbor.ILogger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	lastRun  atomic.Value // time.Time
	lastErr  atomic.Value // string
	cycles   atomic.Int64
	detected atomic.Int64
}

// NewEngine creates a monitor engine for one source
func NewEngine(source Source, logger arbor.ILogger) *Engine {
	return &Engine{
		source: source,
		logger: logger,
	}
}

var _ interfaces.Monitor = (*Engine)(nil)

func (e *Engine) Name() string { return e.source.Name() }

// Start begins the polling loop. Returns an error when already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("monitor %s already running", e.source.Name())
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	go e.loop(ctx, e.stopCh, e.doneCh)
	e.logger.Info().
		Str("monitor", e.source.Name()).
		Str("interval", e.source.PollInterval().String()).
		Msg("Monitor started")
	return nil
}

// Stop signals the loop and waits for the in-flight cycle to finish
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.stopCh)
	done := e.doneCh
	e.mu.Unlock()

	<-done
	e.logger.Info().Str("monitor", e.source.Name()).Msg("Monitor stopped")
	return nil
}

// Status returns a runtime snapshot
func (e *Engine) Status() interfaces.MonitorStatus {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	status := interfaces.MonitorStatus{
		Name:          e.source.Name(),
		IsRunning:     running,
		PollInterval:  e.source.PollInterval(),
		CyclesRun:     e.cycles.Load(),
		ItemsDetected: e.detected.Load(),
	}
	if t, ok := e.lastRun.Load().(time.Time); ok {
		status.LastCycleAt = t
	}
	if errStr, ok := e.lastErr.Load().(string); ok {
		status.LastCycleErr = errStr
	}
	return status
}

func (e *Engine) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(e.source.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				e.logger.Warn().Err(err).Str("monitor", e.source.Name()).Msg("Monitor cycle failed")
			}
		}
	}
}

// RunOnce executes a single fetch-dedup-handle-persist cycle
func (e *Engine) RunOnce(ctx context.Context) error {
	e.cycles.Add(1)
	e.lastRun.Store(time.Now().UTC())

	records, err := e.source.Fetch(ctx)
	if err != nil {
		// Network or parse failure yields zero records this cycle
		e.lastErr.Store(err.Error())
		return fmt.Errorf("fetch failed: %w", err)
	}

	newCount := 0
	for _, rec := range records {
		created, err := e.source.Store(ctx, rec)
		if err != nil {
			// Storage failure discards the rest of the cycle; the source
			// re-reports surviving records next poll via the unique key
			e.lastErr.Store(err.Error())
			return fmt.Errorf("store failed for %s: %w", rec.Key(), err)
		}
		if !created {
			continue
		}

		newCount++
		e.detected.Add(1)

		if err := e.source.Handle(ctx, rec); err != nil {
			// Handler failures affect only this record
			e.logger.Warn().
				Err(err).
				Str("monitor", e.source.Name()).
				Str("key", rec.Key()).
				Msg("Record handler failed")
		}
	}

	if newCount > 0 {
		e.logger.Info().
			Str("monitor", e.source.Name()).
			Int("new", newCount).
			Int("seen", len(records)).
			Msg("Monitor cycle completed")
	}
	e.lastErr.Store("")
	return nil
}
