package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// FilingStorage implements interfaces.FilingStorage
type FilingStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewFilingStorage creates a new filing storage instance
func NewFilingStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.FilingStorage {
	return &FilingStorage{
		db:     db,
		logger: logger,
	}
}

// StoreFiling inserts a filing record. Returns (false, nil) when the
// accession number is already present so polling cycles can skip
// re-processing without treating the duplicate as an error.
func (f *FilingStorage) StoreFiling(ctx context.Context, filing *models.FilingRecord) (bool, error) {
	if err := filing.Validate(); err != nil {
		return false, err
	}

	itemCodesJSON, err := json.Marshal(filing.ItemCodes)
	if err != nil {
		return false, fmt.Errorf("failed to marshal item codes: %w", err)
	}
	keywordsJSON, err := json.Marshal(filing.Keywords)
	if err != nil {
		return false, fmt.Errorf("failed to marshal keywords: %w", err)
	}

	query := `
		INSERT INTO filings (
			id, accession_no, company_name, company_cik, form_type, item_codes,
			filed_at, document_url, document_text, keywords, confidence, tier,
			is_relevant, target_ticker, target_name, deal_value, reasoning,
			processed, processed_at, staged_deal_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(accession_no) DO NOTHING
	`

	var processedAt interface{}
	if filing.ProcessedAt != nil {
		processedAt = filing.ProcessedAt.Unix()
	}

	result, err := f.db.db.ExecContext(ctx, query,
		filing.ID,
		filing.AccessionNo,
		filing.CompanyName,
		filing.CompanyCIK,
		filing.FormType,
		string(itemCodesJSON),
		filing.FiledAt.Unix(),
		filing.DocumentURL,
		filing.DocumentText,
		string(keywordsJSON),
		filing.Confidence,
		string(filing.Tier),
		boolToInt(filing.IsRelevant),
		filing.TargetTicker,
		filing.TargetName,
		filing.DealValue,
		filing.Reasoning,
		boolToInt(filing.Processed),
		processedAt,
		filing.StagedDealID,
		filing.CreatedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to store filing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetFiling retrieves a filing by id
func (f *FilingStorage) GetFiling(ctx context.Context, id string) (*models.FilingRecord, error) {
	return f.getFiling(ctx, "id = ?", id)
}

// GetFilingByAccession retrieves a filing by accession number
func (f *FilingStorage) GetFilingByAccession(ctx context.Context, accessionNo string) (*models.FilingRecord, error) {
	return f.getFiling(ctx, "accession_no = ?", accessionNo)
}

func (f *FilingStorage) getFiling(ctx context.Context, where string, arg interface{}) (*models.FilingRecord, error) {
	row := f.db.db.QueryRowContext(ctx, selectFilingSQL+" WHERE "+where, arg)
	filing, err := scanFiling(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return filing, err
}

// ListFilings returns filings matching the options, newest first
func (f *FilingStorage) ListFilings(ctx context.Context, opts models.FilingListOptions) ([]*models.FilingRecord, error) {
	var conditions []string
	var args []interface{}

	if opts.FormType != "" {
		conditions = append(conditions, "form_type = ?")
		args = append(args, opts.FormType)
	}
	if opts.Tier != "" {
		conditions = append(conditions, "tier = ?")
		args = append(args, string(opts.Tier))
	}
	if opts.RelevantOnly {
		conditions = append(conditions, "is_relevant = 1")
	}
	if !opts.Since.IsZero() {
		conditions = append(conditions, "filed_at >= ?")
		args = append(args, opts.Since.Unix())
	}

	query := selectFilingSQL
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY filed_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := f.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list filings: %w", err)
	}
	defer rows.Close()

	var filings []*models.FilingRecord
	for rows.Next() {
		filing, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		filings = append(filings, filing)
	}
	return filings, rows.Err()
}

// UpdateClassification writes the classifier verdict onto a stored filing
func (f *FilingStorage) UpdateClassification(ctx context.Context, filing *models.FilingRecord) error {
	keywordsJSON, err := json.Marshal(filing.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	var processedAt interface{}
	if filing.ProcessedAt != nil {
		processedAt = filing.ProcessedAt.Unix()
	}

	_, err = f.db.db.ExecContext(ctx, `
		UPDATE filings SET
			keywords = ?, confidence = ?, tier = ?, is_relevant = ?,
			target_ticker = ?, target_name = ?, deal_value = ?, reasoning = ?,
			processed = ?, processed_at = ?, staged_deal_id = ?
		WHERE id = ?`,
		string(keywordsJSON),
		filing.Confidence,
		string(filing.Tier),
		boolToInt(filing.IsRelevant),
		filing.TargetTicker,
		filing.TargetName,
		filing.DealValue,
		filing.Reasoning,
		boolToInt(filing.Processed),
		processedAt,
		filing.StagedDealID,
		filing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}
	return nil
}

// CountFilings returns the total number of stored filings
func (f *FilingStorage) CountFilings(ctx context.Context) (int, error) {
	var count int
	err := f.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM filings").Scan(&count)
	return count, err
}

// CountRelevantFilings returns the number of filings classified relevant
func (f *FilingStorage) CountRelevantFilings(ctx context.Context) (int, error) {
	var count int
	err := f.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM filings WHERE is_relevant = 1").Scan(&count)
	return count, err
}

const selectFilingSQL = `
	SELECT id, accession_no, company_name, company_cik, form_type, item_codes,
		filed_at, document_url, document_text, keywords, confidence, tier,
		is_relevant, target_ticker, target_name, deal_value, reasoning,
		processed, processed_at, staged_deal_id, created_at
	FROM filings`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFiling(row rowScanner) (*models.FilingRecord, error) {
	var filing models.FilingRecord
	var itemCodesJSON, keywordsJSON, tier sql.NullString
	var companyCIK, documentURL, documentText, targetTicker, targetName, reasoning, stagedDealID sql.NullString
	var filedAt, createdAt int64
	var processedAt sql.NullInt64
	var dealValue sql.NullFloat64
	var isRelevant, processed int

	err := row.Scan(
		&filing.ID, &filing.AccessionNo, &filing.CompanyName, &companyCIK,
		&filing.FormType, &itemCodesJSON, &filedAt, &documentURL, &documentText,
		&keywordsJSON, &filing.Confidence, &tier, &isRelevant, &targetTicker,
		&targetName, &dealValue, &reasoning, &processed, &processedAt,
		&stagedDealID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	filing.CompanyCIK = companyCIK.String
	filing.DocumentURL = documentURL.String
	filing.DocumentText = documentText.String
	filing.Tier = models.FilingTier(tier.String)
	filing.IsRelevant = isRelevant == 1
	filing.TargetTicker = targetTicker.String
	filing.TargetName = targetName.String
	filing.Reasoning = reasoning.String
	filing.Processed = processed == 1
	filing.StagedDealID = stagedDealID.String
	filing.FiledAt = time.Unix(filedAt, 0).UTC()
	filing.CreatedAt = time.Unix(createdAt, 0).UTC()

	if dealValue.Valid {
		v := dealValue.Float64
		filing.DealValue = &v
	}
	if processedAt.Valid {
		t := time.Unix(processedAt.Int64, 0).UTC()
		filing.ProcessedAt = &t
	}
	if itemCodesJSON.Valid && itemCodesJSON.String != "" {
		if err := json.Unmarshal([]byte(itemCodesJSON.String), &filing.ItemCodes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item codes: %w", err)
		}
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &filing.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}

	return &filing, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
