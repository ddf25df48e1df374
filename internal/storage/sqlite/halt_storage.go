package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// HaltStorage implements interfaces.HaltStorage
type HaltStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewHaltStorage creates a new halt storage instance
func NewHaltStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.HaltStorage {
	return &HaltStorage{
		db:     db,
		logger: logger,
	}
}

// StoreHalt inserts a halt event. Returns (false, nil) when the same
// (ticker, halted_at) pair was already recorded in a prior cycle.
func (h *HaltStorage) StoreHalt(ctx context.Context, halt *models.HaltEvent) (bool, error) {
	if err := halt.Validate(); err != nil {
		return false, err
	}

	result, err := h.db.db.ExecContext(ctx, `
		INSERT INTO halts (
			id, ticker, exchange, halt_code, halted_at, detected_at,
			linked_deal_id, alert_sent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, halted_at) DO NOTHING`,
		halt.ID,
		halt.Ticker,
		halt.Exchange,
		halt.HaltCode,
		halt.HaltedAt.Unix(),
		halt.DetectedAt.Unix(),
		halt.LinkedDealID,
		boolToInt(halt.AlertSent),
		halt.CreatedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to store halt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetHalt retrieves a halt by id
func (h *HaltStorage) GetHalt(ctx context.Context, id string) (*models.HaltEvent, error) {
	row := h.db.db.QueryRowContext(ctx, selectHaltSQL+" WHERE id = ?", id)
	halt, err := scanHalt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return halt, err
}

// ListHalts returns halts detected at or after the given time, newest first
func (h *HaltStorage) ListHalts(ctx context.Context, since time.Time, limit int) ([]*models.HaltEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := h.db.db.QueryContext(ctx,
		selectHaltSQL+" WHERE detected_at >= ? ORDER BY detected_at DESC LIMIT ?",
		since.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list halts: %w", err)
	}
	defer rows.Close()
	return collectHalts(rows)
}

// ListHaltsByTicker returns all halts for one ticker, newest first
func (h *HaltStorage) ListHaltsByTicker(ctx context.Context, ticker string) ([]*models.HaltEvent, error) {
	rows, err := h.db.db.QueryContext(ctx,
		selectHaltSQL+" WHERE ticker = ? ORDER BY halted_at DESC", ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list halts by ticker: %w", err)
	}
	defer rows.Close()
	return collectHalts(rows)
}

// MarkAlertSent flags a halt as having produced an alert
func (h *HaltStorage) MarkAlertSent(ctx context.Context, id string) error {
	result, err := h.db.db.ExecContext(ctx, "UPDATE halts SET alert_sent = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark alert sent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("halt not found: %s", id)
	}
	return nil
}

// CountHalts returns the total number of recorded halts
func (h *HaltStorage) CountHalts(ctx context.Context) (int, error) {
	var count int
	err := h.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM halts").Scan(&count)
	return count, err
}

const selectHaltSQL = `
	SELECT id, ticker, exchange, halt_code, halted_at, detected_at,
		linked_deal_id, alert_sent, created_at
	FROM halts`

func scanHalt(row rowScanner) (*models.HaltEvent, error) {
	var halt models.HaltEvent
	var linkedDealID sql.NullString
	var haltedAt, detectedAt, createdAt int64
	var alertSent int

	err := row.Scan(
		&halt.ID, &halt.Ticker, &halt.Exchange, &halt.HaltCode,
		&haltedAt, &detectedAt, &linkedDealID, &alertSent, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	halt.LinkedDealID = linkedDealID.String
	halt.AlertSent = alertSent == 1
	halt.HaltedAt = time.Unix(haltedAt, 0).UTC()
	halt.DetectedAt = time.Unix(detectedAt, 0).UTC()
	halt.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &halt, nil
}

func collectHalts(rows *sql.Rows) ([]*models.HaltEvent, error) {
	var halts []*models.HaltEvent
	for rows.Next() {
		halt, err := scanHalt(rows)
		if err != nil {
			return nil, err
		}
		halts = append(halts, halt)
	}
	return halts, rows.Err()
}
