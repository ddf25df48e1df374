package status

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// Snapshot is the aggregated system state served at /api/status
type Snapshot struct {
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp time.Time                  `json:"timestamp"`
	Filings   FilingCounts               `json:"filings"`
	Halts     int                        `json:"halts"`
	Staging   StagingCounts              `json:"staging"`
	Deals     int                        `json:"deals"`
	Intel     IntelCounts                `json:"intelligence"`
	Alerts    AlertCounts                `json:"alerts"`
	Monitors  []interfaces.MonitorStatus `json:"monitors"`
	Jobs      []interfaces.JobInfo       `json:"jobs"`
}

type FilingCounts struct {
	Total    int `json:"total"`
	Relevant int `json:"relevant"`
}

type StagingCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type IntelCounts struct {
	Active    int `json:"active"`
	Rumored   int `json:"rumored"`
	Watchlist int `json:"watchlist"`
}

type AlertCounts struct {
	Pending   int `json:"pending"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// Service assembles status snapshots from storage, the monitor registry
// and the scheduler
type Service struct {
	storage   interfaces.StorageManager
	monitors  interfaces.MonitorRegistry
	scheduler interfaces.SchedulerService
	version   string
	startedAt time.Time
	logger    arbor.ILogger
}

// NewService creates a new status service
func NewService(storage interfaces.StorageManager, monitors interfaces.MonitorRegistry, scheduler interfaces.SchedulerService, version string, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		monitors:  monitors,
		scheduler: scheduler,
		version:   version,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Snapshot collects counts across all stores. Individual count failures
// are logged and leave the field at zero rather than failing the whole
// snapshot.
func (s *Service) Snapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		Version:   s.version,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}

	snap.Filings.Total = s.count(ctx, "filings", s.storage.Filings().CountFilings)
	snap.Filings.Relevant = s.count(ctx, "relevant_filings", s.storage.Filings().CountRelevantFilings)
	snap.Halts = s.count(ctx, "halts", s.storage.Halts().CountHalts)
	snap.Deals = s.count(ctx, "deals", s.storage.Deals().CountDeals)

	snap.Staging.Pending = s.stagedCount(ctx, models.StagedStatusPending)
	snap.Staging.Approved = s.stagedCount(ctx, models.StagedStatusApproved)
	snap.Staging.Rejected = s.stagedCount(ctx, models.StagedStatusRejected)

	snap.Intel.Active = s.intelCount(ctx, models.TierActive)
	snap.Intel.Rumored = s.intelCount(ctx, models.TierRumored)
	snap.Intel.Watchlist = s.intelCount(ctx, models.TierWatchlist)

	snap.Alerts.Pending = s.alertCount(models.AlertStatusPending)
	snap.Alerts.Delivered = s.alertCount(models.AlertStatusDelivered)
	snap.Alerts.Failed = s.alertCount(models.AlertStatusFailed)

	if s.monitors != nil {
		for _, m := range s.monitors.All() {
			snap.Monitors = append(snap.Monitors, m.Status())
		}
	}
	if s.scheduler != nil {
		snap.Jobs = s.scheduler.Jobs()
	}

	return snap
}

func (s *Service) count(ctx context.Context, name string, fn func(context.Context) (int, error)) int {
	n, err := fn(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("counter", name).Msg("Status count failed")
		return 0
	}
	return n
}

func (s *Service) stagedCount(ctx context.Context, status models.StagedDealStatus) int {
	n, err := s.storage.Staging().CountStagedDeals(ctx, status)
	if err != nil {
		s.logger.Warn().Err(err).Str("status", string(status)).Msg("Staged deal count failed")
		return 0
	}
	return n
}

func (s *Service) intelCount(ctx context.Context, tier models.IntelTier) int {
	n, err := s.storage.Intelligence().CountIntelligence(ctx, tier)
	if err != nil {
		s.logger.Warn().Err(err).Str("tier", string(tier)).Msg("Intelligence count failed")
		return 0
	}
	return n
}

func (s *Service) alertCount(status models.AlertStatus) int {
	n, err := s.storage.Alerts().CountAlerts(status)
	if err != nil {
		s.logger.Warn().Err(err).Str("status", string(status)).Msg("Alert count failed")
		return 0
	}
	return n
}
