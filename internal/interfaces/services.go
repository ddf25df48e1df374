package interfaces

import (
	"context"

	"github.com/ternarybob/arbitror/internal/models"
)

// Classifier - pure filing relevance classification. Implementations must
// be deterministic: same filing and rules in, same verdict out.
type Classifier interface {
	Classify(filing *models.FilingRecord) *models.Classification
	ReloadRules() error
}

// StagingService - staging queue operations and the review state machine
type StagingService interface {
	// Stage inserts a detection into the review queue. Idempotent on the
	// (target, acquirer, source document) identity key; returns the
	// existing record and false when already staged.
	Stage(ctx context.Context, deal *models.StagedDeal) (*models.StagedDeal, bool, error)
	Review(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.StagedDeal, *models.Deal, error)
	Get(ctx context.Context, id string) (*models.StagedDeal, error)
	List(ctx context.Context, status models.StagedDealStatus, limit int) ([]*models.StagedDeal, error)
	SetResearchStatus(ctx context.Context, id string, status models.ResearchStatus) error
}

// IntelService - cross-source aggregation of deal signals
type IntelService interface {
	// Ingest folds a signal into the matching intelligence record, or
	// creates a new record when no identity matches
	Ingest(ctx context.Context, signal *models.SourceSignal) (*models.DealIntelligence, error)
	Get(ctx context.Context, id string) (*models.DealIntelligence, error)
	List(ctx context.Context, tier models.IntelTier, limit int) ([]*models.DealIntelligence, error)
	// SweepStale demotes records not corroborated within the staleness
	// window. Returns the number of records demoted.
	SweepStale(ctx context.Context) (int, error)
}

// Notifier - delivers one alert to an external channel
type Notifier interface {
	Notify(ctx context.Context, alert *models.AlertRecord) error
}

// AlertService - enqueues alerts and drains the outbox
type AlertService interface {
	Enqueue(alert *models.AlertRecord) error
	// DispatchPending drains the outbox once. Returns delivered count.
	DispatchPending(ctx context.Context) (int, error)
}
