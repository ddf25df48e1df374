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

// DealStorage implements interfaces.DealStorage. Deal rows are created by
// the review transaction in StagingStorage; this type only reads them.
type DealStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewDealStorage creates a new deal storage instance
func NewDealStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.DealStorage {
	return &DealStorage{
		db:     db,
		logger: logger,
	}
}

// GetDeal retrieves a deal by id
func (d *DealStorage) GetDeal(ctx context.Context, id string) (*models.Deal, error) {
	row := d.db.db.QueryRowContext(ctx, selectDealSQL+" WHERE id = ?", id)
	deal, err := scanDeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return deal, err
}

// ListOpenDeals returns all open deals, newest first
func (d *DealStorage) ListOpenDeals(ctx context.Context) ([]*models.Deal, error) {
	rows, err := d.db.db.QueryContext(ctx,
		selectDealSQL+" WHERE status = 'open' ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list open deals: %w", err)
	}
	defer rows.Close()

	var deals []*models.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

// TrackedTickers returns ticker -> deal id for all open deals with a
// public ticker. The halt correlator rebuilds this set each cycle.
func (d *DealStorage) TrackedTickers(ctx context.Context) (map[string]string, error) {
	rows, err := d.db.db.QueryContext(ctx,
		"SELECT target_ticker, id FROM deals WHERE status = 'open' AND target_ticker != ''")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked tickers: %w", err)
	}
	defer rows.Close()

	tickers := make(map[string]string)
	for rows.Next() {
		var ticker, id string
		if err := rows.Scan(&ticker, &id); err != nil {
			return nil, err
		}
		tickers[ticker] = id
	}
	return tickers, rows.Err()
}

// CountDeals returns the total number of deals
func (d *DealStorage) CountDeals(ctx context.Context) (int, error) {
	var count int
	err := d.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deals").Scan(&count)
	return count, err
}

const selectDealSQL = `
	SELECT id, target_name, target_ticker, acquirer_name, deal_value,
		deal_type, status, staged_deal_id, created_by, created_at, updated_at
	FROM deals`

func scanDeal(row rowScanner) (*models.Deal, error) {
	var deal models.Deal
	var targetTicker, acquirerName, dealType, createdBy sql.NullString
	var dealValue sql.NullFloat64
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(
		&deal.ID, &deal.TargetName, &targetTicker, &acquirerName, &dealValue,
		&dealType, &status, &deal.StagedDealID, &createdBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	deal.TargetTicker = targetTicker.String
	deal.AcquirerName = acquirerName.String
	deal.DealType = dealType.String
	deal.CreatedBy = createdBy.String
	deal.Status = models.DealStatus(status)
	deal.CreatedAt = time.Unix(createdAt, 0).UTC()
	deal.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if dealValue.Valid {
		v := dealValue.Float64
		deal.DealValue = &v
	}

	return &deal, nil
}
