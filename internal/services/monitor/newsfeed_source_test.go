package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
	"github.com/ternarybob/arbitror/internal/services/intel"
	"github.com/ternarybob/arbitror/internal/services/staging"
	"github.com/ternarybob/arbitror/internal/storage"
)

func newNewsfeedSource(t *testing.T, watchDir string) (*NewsfeedSource, interfaces.StorageManager) {
	t.Helper()

	dir := t.TempDir()
	logger := arbor.NewLogger()

	mgr, err := storage.NewManager(logger, &common.StorageConfig{
		SQLite: common.SQLiteConfig{
			Path:          filepath.Join(dir, "test.db"),
			CacheSizeMB:   16,
			BusyTimeoutMS: 5000,
			WALMode:       true,
		},
		Badger: common.BadgerConfig{
			Path: filepath.Join(dir, "badger"),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	stagingSvc := staging.NewService(mgr, nil, logger)
	intelSvc := intel.NewService(mgr, nil, &common.IntelConfig{
		MatchThreshold:  0.80,
		StaleAfter:      common.Duration(14 * 24 * time.Hour),
		ActiveMinConf:   0.75,
		ActiveMinSource: 2,
	}, logger)

	config := &common.NewsfeedConfig{
		Enabled:         true,
		PollInterval:    common.Duration(time.Minute),
		WatchDir:        watchDir,
		StageConfidence: 0.50,
	}
	return NewNewsfeedSource(stagingSvc, intelSvc, config, logger), mgr
}

func dropSignal(t *testing.T, dir, name, payload string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(payload), 0644))
}

func TestNewsfeedSignalStagedAndAggregated(t *testing.T) {
	watchDir := t.TempDir()
	source, mgr := newNewsfeedSource(t, watchDir)
	engine := NewEngine(source, arbor.NewLogger())
	ctx := context.Background()

	dropSignal(t, watchDir, "acme.json", `{
		"target_name": "Acme Robotics, Inc.",
		"target_ticker": "NASDAQ:ACME",
		"acquirer_name": "Big Buyer Corp",
		"deal_value": 2600,
		"confidence": 0.70
	}`)

	require.NoError(t, engine.RunOnce(ctx))

	// Staged pending review with the ticker reduced to its bare code
	staged, err := mgr.Staging().ListStagedDeals(ctx, models.StagedStatusPending, 10)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	require.Equal(t, "Acme Robotics, Inc.", staged[0].TargetName)
	require.Equal(t, "ACME", staged[0].TargetTicker)
	require.Equal(t, NewsfeedSourceName, staged[0].SourceName)
	require.Equal(t, "acme.json", staged[0].SourceDocument)

	// Aggregator saw the same signal
	records, err := mgr.Intelligence().ListIntelligence(ctx, models.TierWatchlist, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "ACME", records[0].TargetTicker)
	require.Equal(t, 1, records[0].SourceCount)

	// Consumed file moved to processed/
	_, err = os.Stat(filepath.Join(watchDir, "acme.json"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(watchDir, "processed", "acme.json"))
	require.NoError(t, err)
}

func TestNewsfeedLowConfidenceFeedsAggregatorOnly(t *testing.T) {
	watchDir := t.TempDir()
	source, mgr := newNewsfeedSource(t, watchDir)
	engine := NewEngine(source, arbor.NewLogger())
	ctx := context.Background()

	dropSignal(t, watchDir, "whisper.json", `{
		"target_name": "Quiet Target Ltd",
		"confidence": 0.30
	}`)

	require.NoError(t, engine.RunOnce(ctx))

	pending, err := mgr.Staging().CountStagedDeals(ctx, models.StagedStatusPending)
	require.NoError(t, err)
	require.Equal(t, 0, pending)

	records, err := mgr.Intelligence().ListIntelligence(ctx, models.TierWatchlist, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Quiet Target Ltd", records[0].TargetName)
}

func TestNewsfeedSkipsUnusableFiles(t *testing.T) {
	watchDir := t.TempDir()
	source, _ := newNewsfeedSource(t, watchDir)
	ctx := context.Background()

	dropSignal(t, watchDir, "broken.json", `{not json`)
	dropSignal(t, watchDir, "anonymous.json", `{"confidence": 0.9}`)
	dropSignal(t, watchDir, "notes.txt", `ignore me`)

	records, err := source.Fetch(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	// Skipped files stay in place for operator inspection
	_, err = os.Stat(filepath.Join(watchDir, "broken.json"))
	require.NoError(t, err)
}

func TestNewsfeedMissingWatchDirIsQuiet(t *testing.T) {
	source, _ := newNewsfeedSource(t, filepath.Join(t.TempDir(), "does-not-exist"))

	records, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}
