package sqlite

const schemaSQL = `
-- Filings table (audit trail, append-only)
-- accession_no is the global uniqueness key used for polling dedup
CREATE TABLE IF NOT EXISTS filings (
	id TEXT PRIMARY KEY,
	accession_no TEXT NOT NULL,
	company_name TEXT NOT NULL,
	company_cik TEXT,
	form_type TEXT NOT NULL,
	item_codes TEXT,
	filed_at INTEGER NOT NULL,
	document_url TEXT,
	document_text TEXT,
	keywords TEXT,
	confidence REAL DEFAULT 0,
	tier TEXT,
	is_relevant INTEGER DEFAULT 0,
	target_ticker TEXT,
	target_name TEXT,
	deal_value REAL,
	reasoning TEXT,
	processed INTEGER DEFAULT 0,
	processed_at INTEGER,
	staged_deal_id TEXT,
	created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_filings_accession ON filings(accession_no);
CREATE INDEX IF NOT EXISTS idx_filings_form_type ON filings(form_type, filed_at);
CREATE INDEX IF NOT EXISTS idx_filings_relevant ON filings(is_relevant, filed_at);

-- Trading halts
-- (ticker, halted_at) uniqueness suppresses re-emission across poll cycles
CREATE TABLE IF NOT EXISTS halts (
	id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	exchange TEXT NOT NULL,
	halt_code TEXT NOT NULL,
	halted_at INTEGER NOT NULL,
	detected_at INTEGER NOT NULL,
	linked_deal_id TEXT,
	alert_sent INTEGER DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_halts_ticker_time ON halts(ticker, halted_at);
CREATE INDEX IF NOT EXISTS idx_halts_detected ON halts(detected_at);

-- Staged deals (review queue)
-- identity_key enforces one staged deal per (target, acquirer, source doc)
CREATE TABLE IF NOT EXISTS staged_deals (
	id TEXT PRIMARY KEY,
	identity_key TEXT NOT NULL,
	target_name TEXT NOT NULL,
	target_ticker TEXT,
	acquirer_name TEXT,
	deal_value REAL,
	deal_type TEXT,
	confidence REAL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	research_status TEXT NOT NULL DEFAULT 'unstarted',
	source_name TEXT NOT NULL,
	source_document TEXT NOT NULL,
	filing_id TEXT,
	detected_at INTEGER NOT NULL,
	reviewed_by TEXT,
	reviewed_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_staged_identity ON staged_deals(identity_key);
CREATE INDEX IF NOT EXISTS idx_staged_status ON staged_deals(status, created_at);

-- Production deals (created by approval, one per approved staged deal)
CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	target_name TEXT NOT NULL,
	target_ticker TEXT,
	acquirer_name TEXT,
	deal_value REAL,
	deal_type TEXT,
	status TEXT NOT NULL DEFAULT 'open',
	staged_deal_id TEXT NOT NULL,
	created_by TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_staged ON deals(staged_deal_id);
CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);
CREATE INDEX IF NOT EXISTS idx_deals_ticker ON deals(target_ticker);

-- Aggregated deal intelligence
-- sources holds the contributor list as JSON; tier is recomputed on write
CREATE TABLE IF NOT EXISTS intelligence (
	id TEXT PRIMARY KEY,
	target_name TEXT NOT NULL,
	target_ticker TEXT,
	acquirer_name TEXT,
	tier TEXT NOT NULL,
	confidence REAL DEFAULT 0,
	sources TEXT NOT NULL,
	source_count INTEGER DEFAULT 0,
	first_detected INTEGER NOT NULL,
	last_seen INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intel_tier ON intelligence(tier, last_seen);
CREATE INDEX IF NOT EXISTS idx_intel_ticker ON intelligence(target_ticker);
`

// migrate applies the base schema, then column-level migrations for
// databases created by earlier builds
func (s *SQLiteDB) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return err
	}

	s.logger.Info().Msg("Database schema initialized")

	return s.runMigrations()
}

// runMigrations checks for and applies schema migrations for existing databases
func (s *SQLiteDB) runMigrations() error {
	rows, err := s.db.Query(`PRAGMA table_info(staged_deals)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	hasResearchStatus := false

	for rows.Next() {
		var cid int
		var name, typ string
		var notnull, dfltValue, pk interface{}
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == "research_status" {
			hasResearchStatus = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !hasResearchStatus {
		s.logger.Info().Msg("Running migration: Adding research_status column to staged_deals")
		if _, err := s.db.Exec(`ALTER TABLE staged_deals ADD COLUMN research_status TEXT NOT NULL DEFAULT 'unstarted'`); err != nil {
			return err
		}
	}

	return nil
}
