package intel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
	"github.com/ternarybob/arbitror/internal/storage"
)

func newTestService(t *testing.T) (*Service, interfaces.StorageManager) {
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

	config := &common.IntelConfig{
		MatchThreshold:  0.80,
		StaleAfter:      common.Duration(14 * 24 * time.Hour),
		ActiveMinConf:   0.75,
		ActiveMinSource: 2,
	}
	return NewService(mgr, nil, config, logger), mgr
}

func TestIngestCreatesWatchlistRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	record, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName: "newsfeed",
		TargetName: "Forge Global",
		Confidence: 0.50,
	})
	require.NoError(t, err)
	require.Equal(t, models.TierWatchlist, record.Tier)
	require.Equal(t, 1, record.SourceCount)
}

func TestCorroborationPromotesToActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName: "newsfeed",
		TargetName: "Forge Global",
		Confidence: 0.60,
	})
	require.NoError(t, err)
	require.Equal(t, models.TierWatchlist, first.Tier)

	// Filing-verified signal with a ticker and high confidence from a
	// second independent source crosses the active bar
	second, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName:     "edgar_8k",
		TargetName:     "Forge Global Holdings, Inc.",
		TargetTicker:   "FRGE",
		Confidence:     0.95,
		FilingVerified: true,
		Reference:      "0001-26-000010",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "fuzzy name match should fold into the same record")
	require.Equal(t, models.TierActive, second.Tier)
	require.Equal(t, 2, second.SourceCount)
	require.Equal(t, "FRGE", second.TargetTicker)
}

func TestSingleFilingSourceIsRumored(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	record, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName:     "edgar_8k",
		TargetName:     "Acme Robotics",
		TargetTicker:   "ACME",
		Confidence:     0.95,
		FilingVerified: true,
	})
	require.NoError(t, err)
	require.Equal(t, models.TierRumored, record.Tier)
}

func TestRepeatSignalFromSameSourceNotDoubleCounted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	signal := &models.SourceSignal{
		SourceName:     "edgar_8k",
		TargetName:     "Acme Robotics",
		TargetTicker:   "ACME",
		Confidence:     0.95,
		FilingVerified: true,
	}

	_, err := svc.Ingest(ctx, signal)
	require.NoError(t, err)
	record, err := svc.Ingest(ctx, signal)
	require.NoError(t, err)

	require.Equal(t, 1, record.SourceCount)
	require.Equal(t, models.TierRumored, record.Tier, "one source twice must not satisfy the two-source bar")
}

func TestTickerMatchBeatsNameMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName:     "edgar_8k",
		TargetName:     "Forge Global Holdings, Inc.",
		TargetTicker:   "FRGE",
		Confidence:     0.78,
		FilingVerified: true,
	})
	require.NoError(t, err)

	// Halt signals carry only a ticker
	second, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName:   "halt_nasdaq",
		TargetTicker: "FRGE",
		Confidence:   0.80,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 2, second.SourceCount)
}

func TestMalformedTickerDropped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	record, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName:   "newsfeed",
		TargetName:   "Acme Robotics",
		TargetTicker: "not-a-ticker",
		Confidence:   0.50,
	})
	require.NoError(t, err)
	require.Empty(t, record.TargetTicker)

	// A malformed ticker with no name leaves nothing to aggregate on
	_, err = svc.Ingest(ctx, &models.SourceSignal{
		SourceName:   "newsfeed",
		TargetTicker: "not-a-ticker",
		Confidence:   0.50,
	})
	require.Error(t, err)
}

func TestIdentitySimilarity(t *testing.T) {
	tests := []struct {
		a, b  string
		above bool
	}{
		{"Forge Global", "Forge Global Holdings, Inc.", true},
		{"Acme Robotics", "ACME ROBOTICS INC", true},
		{"Acme Robotics", "Zenith Pharmaceuticals", false},
		{"First Data", "First Solar", false},
	}

	for _, tt := range tests {
		score := identitySimilarity(tt.a, tt.b)
		if tt.above && score < 0.80 {
			t.Errorf("similarity(%q, %q) = %.2f, want >= 0.80", tt.a, tt.b, score)
		}
		if !tt.above && score >= 0.80 {
			t.Errorf("similarity(%q, %q) = %.2f, want < 0.80", tt.a, tt.b, score)
		}
	}
}

func TestSweepStaleDemotes(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	record, err := svc.Ingest(ctx, &models.SourceSignal{
		SourceName:     "edgar_8k",
		TargetName:     "Acme Robotics",
		TargetTicker:   "ACME",
		Confidence:     0.95,
		FilingVerified: true,
	})
	require.NoError(t, err)
	require.Equal(t, models.TierRumored, record.Tier)

	// Age the record past the staleness window
	record.LastSeen = time.Now().UTC().Add(-15 * 24 * time.Hour)
	require.NoError(t, mgr.Intelligence().StoreIntelligence(ctx, record))

	demoted, err := svc.SweepStale(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, demoted)

	got, err := svc.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, models.TierWatchlist, got.Tier)
}
