package halts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// Correlator polls the exchange halt feeds on a short interval, records
// new halts, and links any halt on a ticker belonging to an open deal.
// One failing provider never blocks the other or the loop.
type Correlator struct {
	providers []Provider
	storage   interfaces.StorageManager
	intel     interfaces.IntelService
	alerts    interfaces.AlertService
	config    *common.HaltsConfig
	logger    arbor.ILogger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	lastRun  atomic.Value // time.Time
	lastErr  atomic.Value // string
	cycles   atomic.Int64
	detected atomic.Int64
}

// NewCorrelator creates a halt correlator. intel and alerts may be nil.
func NewCorrelator(providers []Provider, storage interfaces.StorageManager, intel interfaces.IntelService, alerts interfaces.AlertService, config *common.HaltsConfig, logger arbor.ILogger) *Correlator {
	return &Correlator{
		providers: providers,
		storage:   storage,
		intel:     intel,
		alerts:    alerts,
		config:    config,
		logger:    logger,
	}
}

var _ interfaces.Monitor = (*Correlator)(nil)

// CorrelatorName is the registry name of the halt monitor
const CorrelatorName = "halts"

func (c *Correlator) Name() string { return CorrelatorName }

// Start begins the polling loop. Returns an error when already running.
func (c *Correlator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("halt correlator already running")
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.loop(ctx, c.stopCh, c.doneCh)
	c.logger.Info().
		Str("interval", c.config.PollInterval.String()).
		Int("providers", len(c.providers)).
		Msg("Halt correlator started")
	return nil
}

// Stop signals the loop and waits for the in-flight cycle to finish
func (c *Correlator) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	close(c.stopCh)
	done := c.doneCh
	c.mu.Unlock()

	<-done
	c.logger.Info().Msg("Halt correlator stopped")
	return nil
}

// Status returns a runtime snapshot
func (c *Correlator) Status() interfaces.MonitorStatus {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	status := interfaces.MonitorStatus{
		Name:          c.Name(),
		IsRunning:     running,
		PollInterval:  c.config.PollInterval.Duration(),
		CyclesRun:     c.cycles.Load(),
		ItemsDetected: c.detected.Load(),
	}
	if t, ok := c.lastRun.Load().(time.Time); ok {
		status.LastCycleAt = t
	}
	if e, ok := c.lastErr.Load().(string); ok {
		status.LastCycleErr = e
	}
	return status
}

func (c *Correlator) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(c.config.PollInterval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.RunOnce(ctx); err != nil {
				// Cycle errors are logged and swallowed; the loop never dies
				c.logger.Warn().Err(err).Msg("Halt cycle failed")
			}
		}
	}
}

// RunOnce executes a single polling cycle across all providers
func (c *Correlator) RunOnce(ctx context.Context) error {
	c.cycles.Add(1)
	c.lastRun.Store(time.Now().UTC())

	// Tracked tickers are computed once per cycle, not per halt
	tracked, err := c.storage.Deals().TrackedTickers(ctx)
	if err != nil {
		c.lastErr.Store(err.Error())
		return fmt.Errorf("failed to load tracked tickers: %w", err)
	}

	var firstErr error
	for _, provider := range c.providers {
		fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout.Duration())
		events, err := provider.Fetch(fetchCtx)
		cancel()
		if err != nil {
			// A broken provider yields zero halts this cycle; the other
			// providers still run
			c.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("Halt provider fetch failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, event := range events {
			if err := c.processHalt(ctx, provider.Name(), event, tracked); err != nil {
				c.logger.Warn().Err(err).Str("ticker", event.Ticker).Msg("Failed to process halt")
			}
		}
	}

	if firstErr != nil {
		c.lastErr.Store(firstErr.Error())
	} else {
		c.lastErr.Store("")
	}
	return nil
}

func (c *Correlator) processHalt(ctx context.Context, source string, event *models.HaltEvent, tracked map[string]string) error {
	event.ID = common.NewHaltID()
	event.CreatedAt = time.Now().UTC()

	if dealID, ok := tracked[event.Ticker]; ok {
		event.LinkedDealID = dealID
	}

	created, err := c.storage.Halts().StoreHalt(ctx, event)
	if err != nil {
		return err
	}
	if !created {
		// Already recorded in a prior cycle
		return nil
	}

	c.detected.Add(1)
	c.logger.Info().
		Str("ticker", event.Ticker).
		Str("code", event.HaltCode).
		Str("exchange", event.Exchange).
		Bool("tracked", event.LinkedDealID != "").
		Msg("Trading halt recorded")

	if event.LinkedDealID != "" {
		c.enqueueHaltAlert(event)
		if err := c.storage.Halts().MarkAlertSent(ctx, event.ID); err != nil {
			c.logger.Warn().Err(err).Str("halt_id", event.ID).Msg("Failed to mark halt alert sent")
		}
	}

	// Material halts on untracked tickers still feed the aggregator as a
	// low-confidence signal
	if c.intel != nil && event.IsMaterial() {
		_, err := c.intel.Ingest(ctx, &models.SourceSignal{
			SourceName:   source,
			TargetTicker: event.Ticker,
			Confidence:   0.60,
			Reference:    event.ID,
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("ticker", event.Ticker).Msg("Failed to ingest halt signal")
		}
	}

	return nil
}

func (c *Correlator) enqueueHaltAlert(event *models.HaltEvent) {
	if c.alerts == nil {
		return
	}

	alert := &models.AlertRecord{
		ID:        common.NewAlertID(),
		Type:      models.AlertTypeHaltMatch,
		Status:    models.AlertStatusPending,
		Subject:   fmt.Sprintf("Trading halt on tracked deal: %s", event.Ticker),
		Body:      fmt.Sprintf("%s halted on %s (code %s) at %s", event.Ticker, event.Exchange, event.HaltCode, event.HaltedAt.Format(time.RFC3339)),
		Reference: event.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := c.alerts.Enqueue(alert); err != nil {
		c.logger.Warn().Err(err).Str("halt_id", event.ID).Msg("Failed to enqueue halt alert")
	}
}
