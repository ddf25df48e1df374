package staging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// Service owns StagedDeal lifecycle: idempotent staging of detections and
// the pending -> approved/rejected review transition. No other component
// writes staged deal status.
type Service struct {
	storage interfaces.StorageManager
	alerts  interfaces.AlertService
	logger  arbor.ILogger
}

// NewService creates a staging service. alerts may be nil when alerting
// is disabled.
func NewService(storage interfaces.StorageManager, alerts interfaces.AlertService, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		alerts:  alerts,
		logger:  logger,
	}
}

var _ interfaces.StagingService = (*Service)(nil)

// Stage inserts a detection into the review queue. One staged deal exists
// per (target, acquirer, source document) triple: a repeat detection
// returns the existing record with created=false.
func (s *Service) Stage(ctx context.Context, deal *models.StagedDeal) (*models.StagedDeal, bool, error) {
	if deal.TargetName == "" {
		return nil, false, fmt.Errorf("cannot stage deal without target name")
	}

	existing, err := s.storage.Staging().GetStagedDealByIdentity(ctx, deal.IdentityKey())
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.logger.Debug().
			Str("staged_deal_id", existing.ID).
			Str("target", deal.TargetName).
			Msg("Detection already staged")
		return existing, false, nil
	}

	now := time.Now().UTC()
	if deal.ID == "" {
		deal.ID = common.NewStagedDealID()
	}
	deal.Status = models.StagedStatusPending
	if deal.ResearchStatus == "" {
		deal.ResearchStatus = models.ResearchStatusUnstarted
	}
	if deal.DealType == "" {
		deal.DealType = "unknown"
	}
	if deal.DetectedAt.IsZero() {
		deal.DetectedAt = now
	}
	deal.CreatedAt = now
	deal.UpdatedAt = now

	if err := s.storage.Staging().StoreStagedDeal(ctx, deal); err != nil {
		// A concurrent stage of the same detection loses the insert race
		// on the identity index; return the winner's record
		if isUniqueViolation(err) {
			existing, lookupErr := s.storage.Staging().GetStagedDealByIdentity(ctx, deal.IdentityKey())
			if lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	s.logger.Info().
		Str("staged_deal_id", deal.ID).
		Str("target", deal.TargetName).
		Str("source", deal.SourceName).
		Float64("confidence", deal.Confidence).
		Msg("Deal staged for review")

	s.enqueueAlert(deal)
	return deal, true, nil
}

// Review applies a human disposition. Approval creates the production deal
// atomically with the status change; both outcomes are terminal.
func (s *Service) Review(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.StagedDeal, *models.Deal, error) {
	staged, deal, err := s.storage.Staging().Review(ctx, id, action, reviewer)
	if err != nil {
		return nil, nil, err
	}

	if deal != nil {
		s.logger.Info().
			Str("deal_id", deal.ID).
			Str("target", deal.TargetName).
			Str("reviewer", reviewer).
			Msg("Staged deal promoted to production deal")
	}
	return staged, deal, nil
}

// Get retrieves a staged deal, returning models.ErrNotFound for unknown ids
func (s *Service) Get(ctx context.Context, id string) (*models.StagedDeal, error) {
	deal, err := s.storage.Staging().GetStagedDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, models.ErrNotFound
	}
	return deal, nil
}

// List returns staged deals, optionally filtered by status
func (s *Service) List(ctx context.Context, status models.StagedDealStatus, limit int) ([]*models.StagedDeal, error) {
	return s.storage.Staging().ListStagedDeals(ctx, status, limit)
}

// SetResearchStatus updates the analyst research flag
func (s *Service) SetResearchStatus(ctx context.Context, id string, status models.ResearchStatus) error {
	return s.storage.Staging().UpdateResearchStatus(ctx, id, status)
}

func (s *Service) enqueueAlert(deal *models.StagedDeal) {
	if s.alerts == nil {
		return
	}

	subject := fmt.Sprintf("New staged deal: %s", deal.TargetName)
	body := fmt.Sprintf("Target %s staged from %s with confidence %.2f", deal.TargetName, deal.SourceName, deal.Confidence)
	alert := &models.AlertRecord{
		ID:        common.NewAlertID(),
		Type:      models.AlertTypeStagedDeal,
		Status:    models.AlertStatusPending,
		Subject:   subject,
		Body:      body,
		Reference: deal.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.alerts.Enqueue(alert); err != nil {
		s.logger.Warn().Err(err).Str("staged_deal_id", deal.ID).Msg("Failed to enqueue staging alert")
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
