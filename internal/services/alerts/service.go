package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// Service drains the alert outbox. Producers enqueue and move on; a
// webhook outage never blocks a polling cycle, it just leaves alerts
// pending for the next drain.
type Service struct {
	storage  interfaces.AlertStorage
	notifier interfaces.Notifier
	config   *common.AlertsConfig
	logger   arbor.ILogger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewService creates the alert dispatcher
func NewService(storage interfaces.AlertStorage, notifier interfaces.Notifier, config *common.AlertsConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

var _ interfaces.AlertService = (*Service)(nil)

// Enqueue stores a pending alert for the next drain
func (s *Service) Enqueue(alert *models.AlertRecord) error {
	return s.storage.EnqueueAlert(alert)
}

// Start begins the periodic outbox drain
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.loop(ctx, s.stopCh, s.doneCh)
	s.logger.Info().
		Str("interval", s.config.DispatchEvery.String()).
		Msg("Alert dispatcher started")
}

// Stop halts the drain loop
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()
	<-done
}

func (s *Service) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.DispatchEvery.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DispatchPending(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("Alert dispatch cycle failed")
			}
		}
	}
}

// DispatchPending drains the outbox once. Alerts exhausting the attempt
// budget are dead-lettered as failed.
func (s *Service) DispatchPending(ctx context.Context) (int, error) {
	pending, err := s.storage.PendingAlerts(50)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, alert := range pending {
		alert.Attempts++

		if err := s.notifier.Notify(ctx, alert); err != nil {
			alert.LastError = err.Error()
			if alert.Attempts >= s.config.MaxAttempts {
				alert.Status = models.AlertStatusFailed
				s.logger.Warn().
					Str("alert_id", alert.ID).
					Int("attempts", alert.Attempts).
					Str("error", alert.LastError).
					Msg("Alert dead-lettered after exhausting attempts")
			} else {
				s.logger.Debug().
					Err(err).
					Str("alert_id", alert.ID).
					Int("attempts", alert.Attempts).
					Msg("Alert delivery failed, will retry")
			}
		} else {
			alert.Status = models.AlertStatusDelivered
			alert.LastError = ""
			delivered++
		}

		if err := s.storage.UpdateAlert(alert); err != nil {
			s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to persist alert state")
		}
	}

	return delivered, nil
}
