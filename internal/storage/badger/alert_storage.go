package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AlertStorage implements the alert outbox on badgerhold. Alerts are
// write-heavy and short-lived, so they live in the badger store rather
// than the relational database.
type AlertStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAlertStorage creates a new alert storage instance
func NewAlertStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AlertStorage {
	return &AlertStorage{
		db:     db,
		logger: logger,
	}
}

// EnqueueAlert stores a new pending alert
func (s *AlertStorage) EnqueueAlert(alert *models.AlertRecord) error {
	if err := alert.Validate(); err != nil {
		return err
	}
	if alert.ID == "" {
		return fmt.Errorf("alert ID is required")
	}

	// Dereference so Find sees the same type prefix as Upsert
	if err := s.db.Store().Upsert(alert.ID, *alert); err != nil {
		return fmt.Errorf("failed to enqueue alert: %w", err)
	}

	s.logger.Debug().
		Str("alert_id", alert.ID).
		Str("type", string(alert.Type)).
		Msg("Alert enqueued")
	return nil
}

// GetAlert retrieves an alert by id
func (s *AlertStorage) GetAlert(id string) (*models.AlertRecord, error) {
	var alert models.AlertRecord
	err := s.db.Store().Get(id, &alert)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

// PendingAlerts returns up to limit pending alerts, oldest first
func (s *AlertStorage) PendingAlerts(limit int) ([]*models.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []models.AlertRecord
	err := s.db.Store().Find(&records,
		badgerhold.Where("Status").Eq(models.AlertStatusPending).Index("Status"))
	if err != nil {
		return nil, fmt.Errorf("failed to find pending alerts: %w", err)
	}

	// badgerhold index order is not insertion order; sort by creation time
	sort.Slice(records, func(a, b int) bool {
		return records[a].CreatedAt.Before(records[b].CreatedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}

	alerts := make([]*models.AlertRecord, len(records))
	for i := range records {
		alerts[i] = &records[i]
	}
	return alerts, nil
}

// UpdateAlert persists delivery state changes
func (s *AlertStorage) UpdateAlert(alert *models.AlertRecord) error {
	alert.UpdatedAt = time.Now().UTC()
	if err := s.db.Store().Upsert(alert.ID, *alert); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

// CountAlerts returns the number of alerts in a delivery state
func (s *AlertStorage) CountAlerts(status models.AlertStatus) (int, error) {
	count, err := s.db.Store().Count(&models.AlertRecord{},
		badgerhold.Where("Status").Eq(status).Index("Status"))
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return int(count), nil
}
