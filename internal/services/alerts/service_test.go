package alerts

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/ternarybob/arbitror/internal/storage/badger"
)

func newAlertStorage(t *testing.T) interfaces.AlertStorage {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := badger.NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return badger.NewAlertStorage(db, logger)
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, *models.AlertRecord) error {
	c.calls++
	return c.err
}

func newAlert(id, subject string) *models.AlertRecord {
	return &models.AlertRecord{
		ID:        id,
		Type:      models.AlertTypeStagedDeal,
		Status:    models.AlertStatusPending,
		Subject:   subject,
		Body:      "body",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestDispatchDeliversPending(t *testing.T) {
	store := newAlertStorage(t)
	notifier := &countingNotifier{}
	svc := NewService(store, notifier, &common.AlertsConfig{
		DispatchEvery: common.Duration(time.Second),
		MaxAttempts:   3,
	}, arbor.NewLogger())

	require.NoError(t, svc.Enqueue(newAlert("alert_1", "first")))
	require.NoError(t, svc.Enqueue(newAlert("alert_2", "second")))

	delivered, err := svc.DispatchPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, delivered)
	require.Equal(t, 2, notifier.calls)

	// Nothing left to drain
	delivered, err = svc.DispatchPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, delivered)

	count, err := store.CountAlerts(models.AlertStatusDelivered)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestDispatchDeadLettersAfterMaxAttempts(t *testing.T) {
	store := newAlertStorage(t)
	notifier := &countingNotifier{err: errors.New("sink down")}
	svc := NewService(store, notifier, &common.AlertsConfig{
		DispatchEvery: common.Duration(time.Second),
		MaxAttempts:   2,
	}, arbor.NewLogger())

	require.NoError(t, svc.Enqueue(newAlert("alert_1", "doomed")))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.DispatchPending(ctx)
		require.NoError(t, err)
	}

	failed, err := store.CountAlerts(models.AlertStatusFailed)
	require.NoError(t, err)
	require.Equal(t, 1, failed)

	got, err := store.GetAlert("alert_1")
	require.NoError(t, err)
	require.Equal(t, 2, got.Attempts)
	require.Contains(t, got.LastError, "sink down")

	// Dead-lettered alerts are not retried
	_, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, notifier.calls)
}

func TestWebhookNotifier(t *testing.T) {
	var received *models.AlertRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = &models.AlertRecord{}
		require.NoError(t, jsonDecode(r, received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, arbor.NewLogger())
	alert := newAlert("alert_1", "hello")
	require.NoError(t, n.Notify(context.Background(), alert))
	require.Equal(t, "hello", received.Subject)
}

func jsonDecode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, arbor.NewLogger())
	require.Error(t, n.Notify(context.Background(), newAlert("alert_1", "x")))
}
