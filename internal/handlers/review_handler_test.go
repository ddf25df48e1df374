package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
	"github.com/ternarybob/arbitror/internal/services/staging"
	"github.com/ternarybob/arbitror/internal/storage"
)

func newReviewHandler(t *testing.T) (*ReviewHandler, interfaces.StagingService) {
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

	svc := staging.NewService(mgr, nil, logger)
	return NewReviewHandler(svc, logger), svc
}

func stageTestDeal(t *testing.T, svc interfaces.StagingService) *models.StagedDeal {
	t.Helper()

	staged, created, err := svc.Stage(context.Background(), &models.StagedDeal{
		TargetName:     "Acme Robotics, Inc.",
		TargetTicker:   "ACME",
		AcquirerName:   "Big Buyer Corp",
		Confidence:     0.95,
		SourceName:     "edgar_8k",
		SourceDocument: "0001193125-26-104522",
	})
	require.NoError(t, err)
	require.True(t, created)
	return staged
}

func postReview(t *testing.T, h *ReviewHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/review", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ReviewHandler(rec, req)
	return rec
}

func TestReviewHandlerApprove(t *testing.T) {
	h, svc := newReviewHandler(t)
	staged := stageTestDeal(t, svc)

	rec := postReview(t, h, reviewRequest{ID: staged.ID, Action: "approve", Reviewer: "analyst1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, models.StagedStatusApproved, resp.Staged.Status)
	require.Equal(t, "analyst1", resp.Staged.ReviewedBy)
	require.NotNil(t, resp.Deal)
	require.Equal(t, "ACME", resp.Deal.TargetTicker)
}

func TestReviewHandlerRejectHasNoDeal(t *testing.T) {
	h, svc := newReviewHandler(t)
	staged := stageTestDeal(t, svc)

	rec := postReview(t, h, reviewRequest{ID: staged.ID, Action: "reject", Reviewer: "analyst1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, models.StagedStatusRejected, resp.Staged.Status)
	require.Nil(t, resp.Deal)
}

func TestReviewHandlerErrorMapping(t *testing.T) {
	h, svc := newReviewHandler(t)
	staged := stageTestDeal(t, svc)

	// Unknown id
	rec := postReview(t, h, reviewRequest{ID: "staged_missing", Action: "approve", Reviewer: "a"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Invalid action
	rec = postReview(t, h, reviewRequest{ID: staged.ID, Action: "escalate", Reviewer: "a"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Second review of the same staged deal conflicts
	rec = postReview(t, h, reviewRequest{ID: staged.ID, Action: "approve", Reviewer: "a"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postReview(t, h, reviewRequest{ID: staged.ID, Action: "reject", Reviewer: "b"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestStagedDealRoutes(t *testing.T) {
	h, svc := newReviewHandler(t)
	staged := stageTestDeal(t, svc)

	// GET by id
	req := httptest.NewRequest(http.MethodGet, "/api/staged/"+staged.ID, nil)
	rec := httptest.NewRecorder()
	h.StagedDealRoutes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Research status update
	body := bytes.NewReader([]byte(`{"research_status":"in_progress"}`))
	req = httptest.NewRequest(http.MethodPut, "/api/staged/"+staged.ID+"/research", body)
	rec = httptest.NewRecorder()
	h.StagedDealRoutes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := svc.Get(context.Background(), staged.ID)
	require.NoError(t, err)
	require.Equal(t, models.ResearchStatusInProgress, got.ResearchStatus)

	// Unknown id maps to 404
	req = httptest.NewRequest(http.MethodGet, "/api/staged/staged_missing", nil)
	rec = httptest.NewRecorder()
	h.StagedDealRoutes(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListStagedHandler(t *testing.T) {
	h, svc := newReviewHandler(t)
	stageTestDeal(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/staged?status=pending", nil)
	rec := httptest.NewRecorder()
	h.ListStagedHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int                  `json:"count"`
		Deals []*models.StagedDeal `json:"deals"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Count)

	req = httptest.NewRequest(http.MethodGet, "/api/staged?status=bogus", nil)
	rec = httptest.NewRecorder()
	h.ListStagedHandler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
