package halts

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()

	dir := t.TempDir()
	mgr, err := storage.NewManager(arbor.NewLogger(), &common.StorageConfig{
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
	return mgr
}

// stubProvider returns a fixed halt list, or an error
type stubProvider struct {
	name   string
	events []*models.HaltEvent
	err    error
}

func (s *stubProvider) Name() string     { return s.name }
func (s *stubProvider) Exchange() string { return "NASDAQ" }
func (s *stubProvider) Fetch(context.Context) ([]*models.HaltEvent, error) {
	return s.events, s.err
}

func haltAt(ticker, code string, at time.Time) *models.HaltEvent {
	return &models.HaltEvent{
		Ticker:     ticker,
		Exchange:   "NASDAQ",
		HaltCode:   code,
		HaltedAt:   at,
		DetectedAt: time.Now().UTC(),
	}
}

func newCorrelator(storage interfaces.StorageManager, providers ...Provider) *Correlator {
	config := &common.HaltsConfig{
		Enabled:      true,
		PollInterval: common.Duration(time.Second),
		FetchTimeout: common.Duration(5 * time.Second),
	}
	return NewCorrelator(providers, storage, nil, nil, config, arbor.NewLogger())
}

func TestRunOnceRecordsAndDeduplicates(t *testing.T) {
	mgr := newTestStorage(t)
	haltedAt := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	provider := &stubProvider{
		name:   "halt_nasdaq",
		events: []*models.HaltEvent{haltAt("ACME", "T1", haltedAt)},
	}
	c := newCorrelator(mgr, provider)
	ctx := context.Background()

	require.NoError(t, c.RunOnce(ctx))

	// Second cycle re-reports the same halt; it must not be re-emitted
	provider.events = []*models.HaltEvent{haltAt("ACME", "T1", haltedAt)}
	require.NoError(t, c.RunOnce(ctx))

	count, err := mgr.Halts().CountHalts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestFailingProviderDoesNotBlockOthers(t *testing.T) {
	mgr := newTestStorage(t)
	haltedAt := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	broken := &stubProvider{name: "halt_nyse", err: context.DeadlineExceeded}
	working := &stubProvider{
		name:   "halt_nasdaq",
		events: []*models.HaltEvent{haltAt("FRGE", "T12", haltedAt)},
	}
	c := newCorrelator(mgr, broken, working)

	require.NoError(t, c.RunOnce(context.Background()))

	count, err := mgr.Halts().CountHalts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestHaltOnTrackedTickerIsLinked(t *testing.T) {
	mgr := newTestStorage(t)
	ctx := context.Background()

	// Seed an open deal through the review path
	staged := &models.StagedDeal{
		ID:             "stg_test1",
		TargetName:     "Acme Robotics",
		TargetTicker:   "ACME",
		DealType:       "merger",
		Status:         models.StagedStatusPending,
		ResearchStatus: models.ResearchStatusUnstarted,
		SourceName:     "edgar_8k",
		SourceDocument: "0001-26-000001",
		DetectedAt:     time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, mgr.Staging().StoreStagedDeal(ctx, staged))
	_, deal, err := mgr.Staging().Review(ctx, staged.ID, models.ReviewActionApprove, "analyst1")
	require.NoError(t, err)

	provider := &stubProvider{
		name:   "halt_nasdaq",
		events: []*models.HaltEvent{haltAt("ACME", "T1", time.Now().UTC())},
	}
	c := newCorrelator(mgr, provider)
	require.NoError(t, c.RunOnce(ctx))

	halts, err := mgr.Halts().ListHaltsByTicker(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, halts, 1)
	require.Equal(t, deal.ID, halts[0].LinkedDealID)
	require.True(t, halts[0].AlertSent)
}

func TestNasdaqProviderParsesTable(t *testing.T) {
	page := `<html><body><table>
		<tr><th>Date</th><th>Time</th><th>Symbol</th><th>Name</th><th>Market</th><th>Reason</th></tr>
		<tr><td>08/27/2026</td><td>09:45:12</td><td>ACME</td><td>Acme Robotics</td><td>NASDAQ</td><td>T1</td></tr>
		<tr><td>08/27/2026</td><td>bogus</td><td>JUNK</td><td>Junk Co</td><td>NASDAQ</td><td>T1</td></tr>
		<tr><td>08/27/2026</td><td>10:02:00</td><td>FRGE</td><td>Forge Global</td><td>NASDAQ</td><td>LUDP</td></tr>
	</table></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	p := NewNasdaqProvider(srv.URL, 5*time.Second, arbor.NewLogger())
	events, err := p.Fetch(context.Background())
	require.NoError(t, err)

	// The row with an unparseable time is skipped
	require.Len(t, events, 2)
	require.Equal(t, "ACME", events[0].Ticker)
	require.Equal(t, "T1", events[0].HaltCode)
	require.Equal(t, "NASDAQ", events[0].Exchange)
	require.Equal(t, "FRGE", events[1].Ticker)
	require.Equal(t, "LUDP", events[1].HaltCode)
}

func TestNyseProviderParsesJSON(t *testing.T) {
	body := `[
		{"symbol": "xyz", "exchange": "NYSE", "haltReason": "t1", "haltTime": "2026-08-27T14:30:00Z"},
		{"symbol": "BAD", "exchange": "NYSE", "haltReason": "T1", "haltTime": "not-a-time"}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewNyseProvider(srv.URL, 5*time.Second, arbor.NewLogger())
	events, err := p.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, events, 1)
	require.Equal(t, "XYZ", events[0].Ticker)
	require.Equal(t, "T1", events[0].HaltCode)
}

func TestMaterialHaltCodes(t *testing.T) {
	material := &models.HaltEvent{Ticker: "ACME", HaltCode: models.HaltCodeNewsPending}
	require.True(t, material.IsMaterial())

	volatility := &models.HaltEvent{Ticker: "ACME", HaltCode: models.HaltCodeLULD}
	require.False(t, volatility.IsMaterial())
}
