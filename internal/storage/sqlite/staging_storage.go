package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// StagingStorage implements interfaces.StagingStorage
type StagingStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewStagingStorage creates a new staging storage instance
func NewStagingStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.StagingStorage {
	return &StagingStorage{
		db:     db,
		logger: logger,
	}
}

// StoreStagedDeal inserts a staged deal
func (s *StagingStorage) StoreStagedDeal(ctx context.Context, deal *models.StagedDeal) error {
	if err := deal.Validate(); err != nil {
		return err
	}

	var reviewedAt interface{}
	if deal.ReviewedAt != nil {
		reviewedAt = deal.ReviewedAt.Unix()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO staged_deals (
			id, identity_key, target_name, target_ticker, acquirer_name,
			deal_value, deal_type, confidence, status, research_status,
			source_name, source_document, filing_id, detected_at,
			reviewed_by, reviewed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deal.ID,
		deal.IdentityKey(),
		deal.TargetName,
		deal.TargetTicker,
		deal.AcquirerName,
		deal.DealValue,
		deal.DealType,
		deal.Confidence,
		string(deal.Status),
		string(deal.ResearchStatus),
		deal.SourceName,
		deal.SourceDocument,
		deal.FilingID,
		deal.DetectedAt.Unix(),
		deal.ReviewedBy,
		reviewedAt,
		deal.CreatedAt.Unix(),
		deal.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store staged deal: %w", err)
	}
	return nil
}

// GetStagedDeal retrieves a staged deal by id
func (s *StagingStorage) GetStagedDeal(ctx context.Context, id string) (*models.StagedDeal, error) {
	row := s.db.db.QueryRowContext(ctx, selectStagedSQL+" WHERE id = ?", id)
	deal, err := scanStagedDeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return deal, err
}

// GetStagedDealByIdentity looks up a staged deal by its idempotency key
func (s *StagingStorage) GetStagedDealByIdentity(ctx context.Context, identityKey string) (*models.StagedDeal, error) {
	row := s.db.db.QueryRowContext(ctx, selectStagedSQL+" WHERE identity_key = ?", identityKey)
	deal, err := scanStagedDeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return deal, err
}

// ListStagedDeals returns staged deals, optionally filtered by status,
// newest first
func (s *StagingStorage) ListStagedDeals(ctx context.Context, status models.StagedDealStatus, limit int) ([]*models.StagedDeal, error) {
	if limit <= 0 {
		limit = 100
	}

	query := selectStagedSQL
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged deals: %w", err)
	}
	defer rows.Close()

	var deals []*models.StagedDeal
	for rows.Next() {
		deal, err := scanStagedDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

// UpdateResearchStatus sets the analyst research flag on a staged deal
func (s *StagingStorage) UpdateResearchStatus(ctx context.Context, id string, status models.ResearchStatus) error {
	result, err := s.db.db.ExecContext(ctx,
		"UPDATE staged_deals SET research_status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update research status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Review atomically transitions a pending staged deal. On approval the
// production deal is created in the same transaction, so a crash can never
// leave an approved staged deal without its deal. Returns
// models.ErrNotFound for an unknown id and models.ErrInvalidTransition
// when the staged deal has already reached a terminal status.
func (s *StagingStorage) Review(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.StagedDeal, *models.Deal, error) {
	if err := action.Validate(); err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectStagedSQL+" WHERE id = ?", id)
	deal, err := scanStagedDeal(row)
	if err == sql.ErrNoRows {
		return nil, nil, models.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if deal.Status.Terminal() {
		return nil, nil, models.ErrInvalidTransition
	}

	now := time.Now().UTC()
	newStatus := models.StagedStatusRejected
	if action == models.ReviewActionApprove {
		newStatus = models.StagedStatusApproved
	}

	// Guard on status in the WHERE clause so a concurrent review of the
	// same record loses cleanly
	result, err := tx.ExecContext(ctx, `
		UPDATE staged_deals
		SET status = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(newStatus), reviewer, now.Unix(), now.Unix(), id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update staged deal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if affected == 0 {
		return nil, nil, models.ErrInvalidTransition
	}

	deal.Status = newStatus
	deal.ReviewedBy = reviewer
	deal.ReviewedAt = &now
	deal.UpdatedAt = now

	var created *models.Deal
	if action == models.ReviewActionApprove {
		created = &models.Deal{
			ID:           common.NewDealID(),
			TargetName:   deal.TargetName,
			TargetTicker: deal.TargetTicker,
			AcquirerName: deal.AcquirerName,
			DealValue:    deal.DealValue,
			DealType:     deal.DealType,
			Status:       models.DealStatusOpen,
			StagedDealID: deal.ID,
			CreatedBy:    reviewer,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deals (
				id, target_name, target_ticker, acquirer_name, deal_value,
				deal_type, status, staged_deal_id, created_by, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			created.ID,
			created.TargetName,
			created.TargetTicker,
			created.AcquirerName,
			created.DealValue,
			created.DealType,
			string(created.Status),
			created.StagedDealID,
			created.CreatedBy,
			created.CreatedAt.Unix(),
			created.UpdatedAt.Unix(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create deal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit review: %w", err)
	}

	s.logger.Info().
		Str("staged_deal_id", id).
		Str("action", string(action)).
		Str("reviewer", reviewer).
		Msg("Staged deal reviewed")

	return deal, created, nil
}

// CountStagedDeals returns the number of staged deals, optionally filtered
// by status
func (s *StagingStorage) CountStagedDeals(ctx context.Context, status models.StagedDealStatus) (int, error) {
	var count int
	var err error
	if status == "" {
		err = s.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM staged_deals").Scan(&count)
	} else {
		err = s.db.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM staged_deals WHERE status = ?", string(status)).Scan(&count)
	}
	return count, err
}

const selectStagedSQL = `
	SELECT id, target_name, target_ticker, acquirer_name, deal_value,
		deal_type, confidence, status, research_status, source_name,
		source_document, filing_id, detected_at, reviewed_by, reviewed_at,
		created_at, updated_at
	FROM staged_deals`

func scanStagedDeal(row rowScanner) (*models.StagedDeal, error) {
	var deal models.StagedDeal
	var targetTicker, acquirerName, dealType, filingID, reviewedBy sql.NullString
	var dealValue sql.NullFloat64
	var status, researchStatus string
	var detectedAt, createdAt, updatedAt int64
	var reviewedAt sql.NullInt64

	err := row.Scan(
		&deal.ID, &deal.TargetName, &targetTicker, &acquirerName, &dealValue,
		&dealType, &deal.Confidence, &status, &researchStatus, &deal.SourceName,
		&deal.SourceDocument, &filingID, &detectedAt, &reviewedBy, &reviewedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	deal.TargetTicker = targetTicker.String
	deal.AcquirerName = acquirerName.String
	deal.DealType = dealType.String
	deal.FilingID = filingID.String
	deal.ReviewedBy = reviewedBy.String
	deal.Status = models.StagedDealStatus(status)
	deal.ResearchStatus = models.ResearchStatus(researchStatus)
	deal.DetectedAt = time.Unix(detectedAt, 0).UTC()
	deal.CreatedAt = time.Unix(createdAt, 0).UTC()
	deal.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if dealValue.Valid {
		v := dealValue.Float64
		deal.DealValue = &v
	}
	if reviewedAt.Valid {
		t := time.Unix(reviewedAt.Int64, 0).UTC()
		deal.ReviewedAt = &t
	}

	return &deal, nil
}
