package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// Service is the multi-source aggregator. It exclusively owns
// DealIntelligence tier computation: every fold recomputes the tier from
// the contributor list, nothing ever hand-sets it.
type Service struct {
	storage interfaces.StorageManager
	alerts  interfaces.AlertService
	config  *common.IntelConfig
	logger  arbor.ILogger
}

// NewService creates an intelligence aggregator. alerts may be nil.
func NewService(storage interfaces.StorageManager, alerts interfaces.AlertService, config *common.IntelConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		alerts:  alerts,
		config:  config,
		logger:  logger,
	}
}

var _ interfaces.IntelService = (*Service)(nil)

// Ingest folds one source signal into the matching intelligence record,
// creating a new watchlist record when no identity matches
func (s *Service) Ingest(ctx context.Context, signal *models.SourceSignal) (*models.DealIntelligence, error) {
	if err := signal.Validate(); err != nil {
		return nil, err
	}
	if signal.TargetTicker != "" && !common.IsValidTickerCode(signal.TargetTicker) {
		s.logger.Debug().
			Str("ticker", signal.TargetTicker).
			Str("source", signal.SourceName).
			Msg("Dropping malformed ticker from signal")
		signal.TargetTicker = ""
		if signal.TargetName == "" {
			return nil, fmt.Errorf("signal from %s carried only a malformed ticker", signal.SourceName)
		}
	}

	now := time.Now().UTC()

	record, err := s.match(ctx, signal)
	if err != nil {
		return nil, err
	}

	if record == nil {
		record = &models.DealIntelligence{
			ID:            common.NewIntelligenceID(),
			TargetName:    signal.TargetName,
			TargetTicker:  signal.TargetTicker,
			AcquirerName:  signal.AcquirerName,
			Tier:          models.TierWatchlist,
			FirstDetected: now,
			CreatedAt:     now,
		}
		if record.TargetName == "" {
			record.TargetName = signal.TargetTicker
		}
	}

	s.fold(record, signal, now)

	previousTier := record.Tier
	record.Tier = s.computeTier(record)
	record.Confidence = record.MaxConfidence()
	record.SourceCount = len(record.Sources)
	record.LastSeen = now
	record.UpdatedAt = now

	if err := s.storage.Intelligence().StoreIntelligence(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("intel_id", record.ID).
		Str("target", record.TargetName).
		Str("source", signal.SourceName).
		Str("tier", string(record.Tier)).
		Int("sources", record.SourceCount).
		Msg("Signal folded into intelligence record")

	if record.Tier == models.TierActive && previousTier != models.TierActive {
		s.enqueueTierAlert(record)
	}

	return record, nil
}

// Get retrieves an intelligence record by id
func (s *Service) Get(ctx context.Context, id string) (*models.DealIntelligence, error) {
	return s.storage.Intelligence().GetIntelligence(ctx, id)
}

// List returns intelligence records, optionally filtered by tier
func (s *Service) List(ctx context.Context, tier models.IntelTier, limit int) ([]*models.DealIntelligence, error) {
	return s.storage.Intelligence().ListIntelligence(ctx, tier, limit)
}

// SweepStale demotes records one tier toward watchlist when no source has
// corroborated them within the staleness window. Run by the scheduler.
func (s *Service) SweepStale(ctx context.Context) (int, error) {
	records, err := s.storage.Intelligence().ListAllIntelligence(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-s.config.StaleAfter.Duration())
	demoted := 0

	for _, record := range records {
		if record.Tier == models.TierWatchlist || record.LastSeen.After(cutoff) {
			continue
		}

		from := record.Tier
		if record.Tier == models.TierActive {
			record.Tier = models.TierRumored
		} else {
			record.Tier = models.TierWatchlist
		}
		record.UpdatedAt = time.Now().UTC()

		if err := s.storage.Intelligence().StoreIntelligence(ctx, record); err != nil {
			s.logger.Warn().Err(err).Str("intel_id", record.ID).Msg("Failed to demote stale record")
			continue
		}

		s.logger.Info().
			Str("intel_id", record.ID).
			Str("target", record.TargetName).
			Str("from", string(from)).
			Str("to", string(record.Tier)).
			Msg("Stale intelligence record demoted")
		demoted++
	}

	return demoted, nil
}

// match finds the existing record for a signal's identity: ticker match
// first, then fuzzy name match above the configured threshold. Ties break
// to the earliest-created record so matching stays deterministic.
func (s *Service) match(ctx context.Context, signal *models.SourceSignal) (*models.DealIntelligence, error) {
	if signal.TargetTicker != "" {
		record, err := s.storage.Intelligence().GetIntelligenceByTicker(ctx, signal.TargetTicker)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return record, nil
		}
	}

	if signal.TargetName == "" {
		return nil, nil
	}

	records, err := s.storage.Intelligence().ListAllIntelligence(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.DealIntelligence
	bestScore := 0.0
	for _, record := range records {
		score := identitySimilarity(signal.TargetName, record.TargetName)
		if score < s.config.MatchThreshold {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore = record, score
		case score == bestScore && best != nil && record.CreatedAt.Before(best.CreatedAt):
			best = record
		}
	}
	return best, nil
}

// fold merges the signal into the contributor list. A repeat signal from
// the same source updates confidence and LastSeen rather than adding a
// second contributor, so source counts stay independent.
func (s *Service) fold(record *models.DealIntelligence, signal *models.SourceSignal, now time.Time) {
	if record.TargetTicker == "" && signal.TargetTicker != "" {
		record.TargetTicker = signal.TargetTicker
	}
	if record.AcquirerName == "" && signal.AcquirerName != "" {
		record.AcquirerName = signal.AcquirerName
	}

	for i := range record.Sources {
		if record.Sources[i].SourceName == signal.SourceName {
			if signal.Confidence > record.Sources[i].Confidence {
				record.Sources[i].Confidence = signal.Confidence
			}
			record.Sources[i].FilingVerified = record.Sources[i].FilingVerified || signal.FilingVerified
			record.Sources[i].LastSeen = now
			if signal.Reference != "" {
				record.Sources[i].Reference = signal.Reference
			}
			return
		}
	}

	record.Sources = append(record.Sources, models.SourceContribution{
		SourceName:     signal.SourceName,
		Confidence:     signal.Confidence,
		FilingVerified: signal.FilingVerified,
		FirstSeen:      now,
		LastSeen:       now,
		Reference:      signal.Reference,
	})
}

// computeTier derives the tier from the contributor list:
// active requires >=2 independent sources, one with confidence >= the
// active bar, and a filing-verified public ticker; rumored requires a
// filing-verified signal below the active bar; everything else watchlist.
func (s *Service) computeTier(record *models.DealIntelligence) models.IntelTier {
	maxConf := record.MaxConfidence()
	filingVerified := record.HasFilingVerified()

	if len(record.Sources) >= s.config.ActiveMinSource &&
		maxConf >= s.config.ActiveMinConf &&
		filingVerified &&
		record.TargetTicker != "" {
		return models.TierActive
	}
	if filingVerified {
		return models.TierRumored
	}
	return models.TierWatchlist
}

func (s *Service) enqueueTierAlert(record *models.DealIntelligence) {
	if s.alerts == nil {
		return
	}

	alert := &models.AlertRecord{
		ID:        common.NewAlertID(),
		Type:      models.AlertTypeTierChange,
		Status:    models.AlertStatusPending,
		Subject:   fmt.Sprintf("Deal intelligence active: %s", record.TargetName),
		Body:      fmt.Sprintf("%s (%s) promoted to active with %d sources, confidence %.2f", record.TargetName, record.TargetTicker, record.SourceCount, record.Confidence),
		Reference: record.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.alerts.Enqueue(alert); err != nil {
		s.logger.Warn().Err(err).Str("intel_id", record.ID).Msg("Failed to enqueue tier alert")
	}
}
