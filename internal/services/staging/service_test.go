package staging

import (
	"context"
	"path/filepath"
	"testing"

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

	return NewService(mgr, nil, logger), mgr
}

func newDetection(target, acquirer, sourceDoc string) *models.StagedDeal {
	return &models.StagedDeal{
		TargetName:     target,
		TargetTicker:   "ACME",
		AcquirerName:   acquirer,
		DealType:       "merger",
		Confidence:     0.95,
		SourceName:     "edgar_8k",
		SourceDocument: sourceDoc,
	}
}

func TestStageIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000001"))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, models.StagedStatusPending, first.Status)

	// Same (target, acquirer, source document) must not create a duplicate
	second, created, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000001"))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	// Identity normalization: corporate suffixes and punctuation are noise
	third, created, err := svc.Stage(ctx, newDetection("Acme Robotics, Inc.", "Big Buyer Corp", "0001-26-000001"))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, third.ID)

	// A different source document is a distinct detection
	fourth, created, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000099"))
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, fourth.ID)
}

func TestReviewApproveCreatesDeal(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	staged, _, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000002"))
	require.NoError(t, err)

	reviewed, deal, err := svc.Review(ctx, staged.ID, models.ReviewActionApprove, "analyst1")
	require.NoError(t, err)
	require.Equal(t, models.StagedStatusApproved, reviewed.Status)
	require.NotNil(t, deal)
	require.Equal(t, "Acme Robotics", deal.TargetName)
	require.Equal(t, staged.ID, deal.StagedDealID)
	require.Equal(t, models.DealStatusOpen, deal.Status)

	// The created deal is visible to the tracked-ticker set
	tickers, err := mgr.Deals().TrackedTickers(ctx)
	require.NoError(t, err)
	require.Equal(t, deal.ID, tickers["ACME"])
}

func TestReviewRejectIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	staged, _, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000003"))
	require.NoError(t, err)

	reviewed, deal, err := svc.Review(ctx, staged.ID, models.ReviewActionReject, "analyst1")
	require.NoError(t, err)
	require.Nil(t, deal)
	require.Equal(t, models.StagedStatusRejected, reviewed.Status)

	// No transition out of a terminal state
	_, _, err = svc.Review(ctx, staged.ID, models.ReviewActionApprove, "analyst2")
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestReviewUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Review(context.Background(), "stg_does_not_exist", models.ReviewActionApprove, "analyst1")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestReviewDoubleApprove(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	staged, _, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000004"))
	require.NoError(t, err)

	_, _, err = svc.Review(ctx, staged.ID, models.ReviewActionApprove, "analyst1")
	require.NoError(t, err)

	_, _, err = svc.Review(ctx, staged.ID, models.ReviewActionApprove, "analyst1")
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	// Exactly one production deal exists
	count, err := mgr.Deals().CountDeals(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestResearchStatusIndependentOfReview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	staged, _, err := svc.Stage(ctx, newDetection("Acme Robotics", "Big Buyer Corp", "0001-26-000005"))
	require.NoError(t, err)

	require.NoError(t, svc.SetResearchStatus(ctx, staged.ID, models.ResearchStatusInProgress))

	got, err := svc.Get(ctx, staged.ID)
	require.NoError(t, err)
	require.Equal(t, models.ResearchStatusInProgress, got.ResearchStatus)
	require.Equal(t, models.StagedStatusPending, got.Status)
}
