package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/edgar"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// FilingSourceName identifies the regulatory filing monitor in signals
// and staged deals
const FilingSourceName = "edgar_8k"

// monitoredForms are the form types polled each cycle. 8-K carries the
// initial announcement; SC 14D9 covers tender offers filed by the target.
var monitoredForms = []string{"8-K", "SC 14D9"}

// FilingSource polls the EDGAR feed, dedups on accession number, and runs
// each new filing through classify -> stage -> aggregate. Document text is
// only fetched for filings not already in storage.
type FilingSource struct {
	client     *edgar.Client
	classifier interfaces.Classifier
	storage    interfaces.StorageManager
	staging    interfaces.StagingService
	intel      interfaces.IntelService
	config     *common.FilingMonitorConfig
	logger     arbor.ILogger
}

// NewFilingSource creates the filing monitor source
func NewFilingSource(client *edgar.Client, classifier interfaces.Classifier, storage interfaces.StorageManager, staging interfaces.StagingService, intel interfaces.IntelService, config *common.FilingMonitorConfig, logger arbor.ILogger) *FilingSource {
	return &FilingSource{
		client:     client,
		classifier: classifier,
		storage:    storage,
		staging:    staging,
		intel:      intel,
		config:     config,
		logger:     logger,
	}
}

var _ Source = (*FilingSource)(nil)

func (s *FilingSource) Name() string                { return FilingSourceName }
func (s *FilingSource) PollInterval() time.Duration { return s.config.PollInterval.Duration() }

// Fetch pulls the recent filing index for each monitored form type
func (s *FilingSource) Fetch(ctx context.Context) ([]Record, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout.Duration())
	defer cancel()

	var records []Record
	var firstErr error
	for _, form := range monitoredForms {
		filings, err := s.client.RecentFilings(fetchCtx, form, s.config.MaxFilings)
		if err != nil {
			s.logger.Warn().Err(err).Str("form", form).Msg("Filing index fetch failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, f := range filings {
			records = append(records, s.toRecord(f))
		}
	}

	if len(records) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return records, nil
}

// Store inserts the filing; accession-number conflicts mean the filing
// was seen in a prior cycle
func (s *FilingSource) Store(ctx context.Context, rec Record) (bool, error) {
	filing := rec.(*models.FilingRecord)
	return s.storage.Filings().StoreFiling(ctx, filing)
}

// Handle fetches the document body, classifies, and feeds accepted
// filings into staging and the aggregator
func (s *FilingSource) Handle(ctx context.Context, rec Record) error {
	filing := rec.(*models.FilingRecord)

	if filing.DocumentURL != "" {
		fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout.Duration())
		text, err := s.client.FetchDocument(fetchCtx, filing.DocumentURL)
		cancel()
		if err != nil {
			// Classify on what we have; the index metadata alone still
			// produces a valid (rejected) verdict
			s.logger.Warn().Err(err).Str("accession", filing.AccessionNo).Msg("Document fetch failed")
		} else {
			filing.DocumentText = text
		}
	}

	verdict := s.classifier.Classify(filing)
	verdict.Apply(filing)
	now := time.Now().UTC()
	filing.Processed = true
	filing.ProcessedAt = &now

	s.logger.Info().
		Str("accession", filing.AccessionNo).
		Str("company", filing.CompanyName).
		Str("tier", string(verdict.Tier)).
		Float64("confidence", verdict.Confidence).
		Msg("Filing classified")

	if verdict.Tier.Staged() {
		if err := s.stageAndAggregate(ctx, filing, verdict); err != nil {
			s.logger.Warn().Err(err).Str("accession", filing.AccessionNo).Msg("Failed to stage filing detection")
		}
	}

	if err := s.storage.Filings().UpdateClassification(ctx, filing); err != nil {
		return fmt.Errorf("failed to persist classification: %w", err)
	}
	return nil
}

func (s *FilingSource) stageAndAggregate(ctx context.Context, filing *models.FilingRecord, verdict *models.Classification) error {
	staged, _, err := s.staging.Stage(ctx, &models.StagedDeal{
		TargetName:     verdict.TargetName,
		TargetTicker:   verdict.TargetTicker,
		AcquirerName:   verdict.AcquirerName,
		DealValue:      verdict.DealValue,
		Confidence:     verdict.Confidence,
		SourceName:     FilingSourceName,
		SourceDocument: filing.AccessionNo,
		FilingID:       filing.ID,
		DetectedAt:     filing.FiledAt,
	})
	if err != nil {
		return err
	}
	filing.StagedDealID = staged.ID

	if s.intel != nil {
		_, err = s.intel.Ingest(ctx, &models.SourceSignal{
			SourceName:     FilingSourceName,
			TargetName:     verdict.TargetName,
			TargetTicker:   verdict.TargetTicker,
			AcquirerName:   verdict.AcquirerName,
			Confidence:     verdict.Confidence,
			FilingVerified: true,
			Reference:      filing.AccessionNo,
			DealValue:      verdict.DealValue,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("accession", filing.AccessionNo).Msg("Failed to ingest filing signal")
		}
	}
	return nil
}

func (s *FilingSource) toRecord(f *edgar.Filing) *models.FilingRecord {
	return &models.FilingRecord{
		ID:          common.NewFilingID(),
		AccessionNo: f.AccessionNo,
		CompanyName: f.CompanyName,
		CompanyCIK:  f.CIK,
		FormType:    f.FormType,
		ItemCodes:   f.ItemCodes,
		FiledAt:     f.FiledAt,
		DocumentURL: f.DocumentURL,
		CreatedAt:   time.Now().UTC(),
	}
}
