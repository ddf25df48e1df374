package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// NewsfeedSourceName identifies the structured news-signal source
const NewsfeedSourceName = "newsfeed"

// newsSignal is the JSON payload dropped into the watch directory by the
// upstream research pipeline
type newsSignal struct {
	TargetName   string   `json:"target_name"`
	TargetTicker string   `json:"target_ticker,omitempty"`
	AcquirerName string   `json:"acquirer_name,omitempty"`
	DealValue    *float64 `json:"deal_value,omitempty"`
	DealType     string   `json:"deal_type,omitempty"`
	Confidence   float64  `json:"confidence"`
	Reference    string   `json:"reference,omitempty"`

	file string
}

func (n *newsSignal) Key() string { return n.file }

// NewsfeedSource polls a drop directory for structured deal signals.
// Processed files move to a processed/ subdirectory, which is the
// source's dedup mechanism; replayed files are absorbed by staging
// idempotency.
type NewsfeedSource struct {
	staging interfaces.StagingService
	intel   interfaces.IntelService
	config  *common.NewsfeedConfig
	logger  arbor.ILogger
}

// NewNewsfeedSource creates the newsfeed monitor source
func NewNewsfeedSource(staging interfaces.StagingService, intel interfaces.IntelService, config *common.NewsfeedConfig, logger arbor.ILogger) *NewsfeedSource {
	return &NewsfeedSource{
		staging: staging,
		intel:   intel,
		config:  config,
		logger:  logger,
	}
}

var _ Source = (*NewsfeedSource)(nil)

func (s *NewsfeedSource) Name() string                { return NewsfeedSourceName }
func (s *NewsfeedSource) PollInterval() time.Duration { return s.config.PollInterval.Duration() }

// Fetch scans the watch directory for signal files. Unparseable files are
// logged and skipped, never fatal for the cycle.
func (s *NewsfeedSource) Fetch(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.config.WatchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read watch directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.config.WatchDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read signal file")
			continue
		}

		var signal newsSignal
		if err := json.Unmarshal(data, &signal); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping malformed signal file")
			continue
		}
		if signal.TargetName == "" && signal.TargetTicker == "" {
			s.logger.Warn().Str("file", entry.Name()).Msg("Skipping signal without target identity")
			continue
		}
		// Upstream pipelines may write exchange-qualified tickers
		// ("NASDAQ:ACME"); downstream wants the bare code
		if signal.TargetTicker != "" {
			signal.TargetTicker = common.ParseTicker(signal.TargetTicker).Code
		}
		if signal.Reference == "" {
			signal.Reference = entry.Name()
		}

		signal.file = entry.Name()
		records = append(records, &signal)
	}
	return records, nil
}

// Store moves the signal file into processed/. A file already moved by a
// concurrent cycle reports created=false.
func (s *NewsfeedSource) Store(ctx context.Context, rec Record) (bool, error) {
	signal := rec.(*newsSignal)

	processedDir := filepath.Join(s.config.WatchDir, "processed")
	if err := os.MkdirAll(processedDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create processed directory: %w", err)
	}

	src := filepath.Join(s.config.WatchDir, signal.file)
	dst := filepath.Join(processedDir, signal.file)
	if err := os.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to archive signal file: %w", err)
	}
	return true, nil
}

// Handle stages usable candidates and feeds every signal to the aggregator
func (s *NewsfeedSource) Handle(ctx context.Context, rec Record) error {
	signal := rec.(*newsSignal)

	// Signals below the staging bar feed the aggregator but are not
	// queued for review on their own
	if signal.TargetName != "" && signal.Confidence >= s.config.StageConfidence {
		_, _, err := s.staging.Stage(ctx, &models.StagedDeal{
			TargetName:     signal.TargetName,
			TargetTicker:   signal.TargetTicker,
			AcquirerName:   signal.AcquirerName,
			DealValue:      signal.DealValue,
			DealType:       signal.DealType,
			Confidence:     signal.Confidence,
			SourceName:     NewsfeedSourceName,
			SourceDocument: signal.Reference,
		})
		if err != nil {
			return err
		}
	}

	if s.intel != nil {
		_, err := s.intel.Ingest(ctx, &models.SourceSignal{
			SourceName:   NewsfeedSourceName,
			TargetName:   signal.TargetName,
			TargetTicker: signal.TargetTicker,
			AcquirerName: signal.AcquirerName,
			Confidence:   signal.Confidence,
			Reference:    signal.Reference,
			DealValue:    signal.DealValue,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
