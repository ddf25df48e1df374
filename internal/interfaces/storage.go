package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/arbitror/internal/models"
)

// FilingStorage - interface for filing record persistence
type FilingStorage interface {
	// StoreFiling inserts a filing; returns (false, nil) when the accession
	// number already exists
	StoreFiling(ctx context.Context, filing *models.FilingRecord) (bool, error)
	GetFiling(ctx context.Context, id string) (*models.FilingRecord, error)
	GetFilingByAccession(ctx context.Context, accessionNo string) (*models.FilingRecord, error)
	ListFilings(ctx context.Context, opts models.FilingListOptions) ([]*models.FilingRecord, error)
	// UpdateClassification writes the classifier verdict, processed flag
	// and staging linkage onto a stored filing
	UpdateClassification(ctx context.Context, filing *models.FilingRecord) error
	CountFilings(ctx context.Context) (int, error)
	CountRelevantFilings(ctx context.Context) (int, error)
}

// HaltStorage - interface for trading halt persistence
type HaltStorage interface {
	// StoreHalt inserts a halt; returns (false, nil) when the same
	// (ticker, halted_at) pair was already recorded
	StoreHalt(ctx context.Context, halt *models.HaltEvent) (bool, error)
	GetHalt(ctx context.Context, id string) (*models.HaltEvent, error)
	ListHalts(ctx context.Context, since time.Time, limit int) ([]*models.HaltEvent, error)
	ListHaltsByTicker(ctx context.Context, ticker string) ([]*models.HaltEvent, error)
	MarkAlertSent(ctx context.Context, id string) error
	CountHalts(ctx context.Context) (int, error)
}

// StagingStorage - interface for the staged deal review queue
type StagingStorage interface {
	StoreStagedDeal(ctx context.Context, deal *models.StagedDeal) error
	GetStagedDeal(ctx context.Context, id string) (*models.StagedDeal, error)
	// GetStagedDealByIdentity looks up by the staging idempotency key
	GetStagedDealByIdentity(ctx context.Context, identityKey string) (*models.StagedDeal, error)
	ListStagedDeals(ctx context.Context, status models.StagedDealStatus, limit int) ([]*models.StagedDeal, error)
	UpdateResearchStatus(ctx context.Context, id string, status models.ResearchStatus) error
	// Review atomically transitions a pending staged deal and, on approval,
	// creates the production deal in the same transaction. Returns
	// models.ErrNotFound or models.ErrInvalidTransition.
	Review(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.StagedDeal, *models.Deal, error)
	CountStagedDeals(ctx context.Context, status models.StagedDealStatus) (int, error)
}

// DealStorage - interface for production deal persistence
type DealStorage interface {
	GetDeal(ctx context.Context, id string) (*models.Deal, error)
	ListOpenDeals(ctx context.Context) ([]*models.Deal, error)
	// TrackedTickers returns the ticker set for open deals, used by the
	// halt correlator each cycle
	TrackedTickers(ctx context.Context) (map[string]string, error)
	CountDeals(ctx context.Context) (int, error)
}

// IntelligenceStorage - interface for aggregated deal intelligence
type IntelligenceStorage interface {
	StoreIntelligence(ctx context.Context, intel *models.DealIntelligence) error
	GetIntelligence(ctx context.Context, id string) (*models.DealIntelligence, error)
	GetIntelligenceByTicker(ctx context.Context, ticker string) (*models.DealIntelligence, error)
	ListIntelligence(ctx context.Context, tier models.IntelTier, limit int) ([]*models.DealIntelligence, error)
	ListAllIntelligence(ctx context.Context) ([]*models.DealIntelligence, error)
	CountIntelligence(ctx context.Context, tier models.IntelTier) (int, error)
}

// AlertStorage - interface for the alert outbox
type AlertStorage interface {
	EnqueueAlert(alert *models.AlertRecord) error
	GetAlert(id string) (*models.AlertRecord, error)
	PendingAlerts(limit int) ([]*models.AlertRecord, error)
	UpdateAlert(alert *models.AlertRecord) error
	CountAlerts(status models.AlertStatus) (int, error)
}

// StorageManager - aggregates all storage interfaces behind one handle
type StorageManager interface {
	Filings() FilingStorage
	Halts() HaltStorage
	Staging() StagingStorage
	Deals() DealStorage
	Intelligence() IntelligenceStorage
	Alerts() AlertStorage
	Close() error
}
