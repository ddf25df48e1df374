package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// IntelligenceStorage implements interfaces.IntelligenceStorage
type IntelligenceStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewIntelligenceStorage creates a new intelligence storage instance
func NewIntelligenceStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.IntelligenceStorage {
	return &IntelligenceStorage{
		db:     db,
		logger: logger,
	}
}

// StoreIntelligence upserts an intelligence record by id
func (i *IntelligenceStorage) StoreIntelligence(ctx context.Context, intel *models.DealIntelligence) error {
	if err := intel.Validate(); err != nil {
		return err
	}

	sourcesJSON, err := json.Marshal(intel.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	_, err = i.db.db.ExecContext(ctx, `
		INSERT INTO intelligence (
			id, target_name, target_ticker, acquirer_name, tier, confidence,
			sources, source_count, first_detected, last_seen, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target_ticker = excluded.target_ticker,
			acquirer_name = excluded.acquirer_name,
			tier = excluded.tier,
			confidence = excluded.confidence,
			sources = excluded.sources,
			source_count = excluded.source_count,
			last_seen = excluded.last_seen,
			updated_at = excluded.updated_at`,
		intel.ID,
		intel.TargetName,
		intel.TargetTicker,
		intel.AcquirerName,
		string(intel.Tier),
		intel.Confidence,
		string(sourcesJSON),
		intel.SourceCount,
		intel.FirstDetected.Unix(),
		intel.LastSeen.Unix(),
		intel.CreatedAt.Unix(),
		intel.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store intelligence: %w", err)
	}
	return nil
}

// GetIntelligence retrieves an intelligence record by id
func (i *IntelligenceStorage) GetIntelligence(ctx context.Context, id string) (*models.DealIntelligence, error) {
	row := i.db.db.QueryRowContext(ctx, selectIntelSQL+" WHERE id = ?", id)
	intel, err := scanIntelligence(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return intel, err
}

// GetIntelligenceByTicker retrieves the record for a ticker, if any
func (i *IntelligenceStorage) GetIntelligenceByTicker(ctx context.Context, ticker string) (*models.DealIntelligence, error) {
	row := i.db.db.QueryRowContext(ctx,
		selectIntelSQL+" WHERE target_ticker = ? ORDER BY last_seen DESC LIMIT 1", ticker)
	intel, err := scanIntelligence(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return intel, err
}

// ListIntelligence returns records in a tier, most recently seen first
func (i *IntelligenceStorage) ListIntelligence(ctx context.Context, tier models.IntelTier, limit int) ([]*models.DealIntelligence, error) {
	if limit <= 0 {
		limit = 100
	}

	query := selectIntelSQL
	var args []interface{}
	if tier != "" {
		query += " WHERE tier = ?"
		args = append(args, string(tier))
	}
	query += " ORDER BY last_seen DESC LIMIT ?"
	args = append(args, limit)

	rows, err := i.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list intelligence: %w", err)
	}
	defer rows.Close()
	return collectIntelligence(rows)
}

// ListAllIntelligence returns every record. Used by the identity matcher
// and the staleness sweep; record counts stay small enough for a full scan.
func (i *IntelligenceStorage) ListAllIntelligence(ctx context.Context) ([]*models.DealIntelligence, error) {
	rows, err := i.db.db.QueryContext(ctx, selectIntelSQL+" ORDER BY last_seen DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list intelligence: %w", err)
	}
	defer rows.Close()
	return collectIntelligence(rows)
}

// CountIntelligence returns the number of records, optionally per tier
func (i *IntelligenceStorage) CountIntelligence(ctx context.Context, tier models.IntelTier) (int, error) {
	var count int
	var err error
	if tier == "" {
		err = i.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM intelligence").Scan(&count)
	} else {
		err = i.db.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM intelligence WHERE tier = ?", string(tier)).Scan(&count)
	}
	return count, err
}

const selectIntelSQL = `
	SELECT id, target_name, target_ticker, acquirer_name, tier, confidence,
		sources, source_count, first_detected, last_seen, created_at, updated_at
	FROM intelligence`

func scanIntelligence(row rowScanner) (*models.DealIntelligence, error) {
	var intel models.DealIntelligence
	var targetTicker, acquirerName sql.NullString
	var tier, sourcesJSON string
	var firstDetected, lastSeen, createdAt, updatedAt int64

	err := row.Scan(
		&intel.ID, &intel.TargetName, &targetTicker, &acquirerName, &tier,
		&intel.Confidence, &sourcesJSON, &intel.SourceCount,
		&firstDetected, &lastSeen, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	intel.TargetTicker = targetTicker.String
	intel.AcquirerName = acquirerName.String
	intel.Tier = models.IntelTier(tier)
	intel.FirstDetected = time.Unix(firstDetected, 0).UTC()
	intel.LastSeen = time.Unix(lastSeen, 0).UTC()
	intel.CreatedAt = time.Unix(createdAt, 0).UTC()
	intel.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if sourcesJSON != "" {
		if err := json.Unmarshal([]byte(sourcesJSON), &intel.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
	}

	return &intel, nil
}

func collectIntelligence(rows *sql.Rows) ([]*models.DealIntelligence, error) {
	var records []*models.DealIntelligence
	for rows.Next() {
		intel, err := scanIntelligence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, intel)
	}
	return records, rows.Err()
}
