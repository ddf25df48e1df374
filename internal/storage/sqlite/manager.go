package sqlite

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// Manager implements the relational side of interfaces.StorageManager.
// The alert outbox lives in the badger store; the app-level manager
// composes the two.
type Manager struct {
	db      *SQLiteDB
	filings interfaces.FilingStorage
	halts   interfaces.HaltStorage
	staging interfaces.StagingStorage
	deals   interfaces.DealStorage
	intel   interfaces.IntelligenceStorage
	logger  arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.SQLiteConfig) (*Manager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:      db,
		filings: NewFilingStorage(db, logger),
		halts:   NewHaltStorage(db, logger),
		staging: NewStagingStorage(db, logger),
		deals:   NewDealStorage(db, logger),
		intel:   NewIntelligenceStorage(db, logger),
		logger:  logger,
	}, nil
}

// Filings returns the filing storage interface
func (m *Manager) Filings() interfaces.FilingStorage {
	return m.filings
}

// Halts returns the halt storage interface
func (m *Manager) Halts() interfaces.HaltStorage {
	return m.halts
}

// Staging returns the staged deal storage interface
func (m *Manager) Staging() interfaces.StagingStorage {
	return m.staging
}

// Deals returns the production deal storage interface
func (m *Manager) Deals() interfaces.DealStorage {
	return m.deals
}

// Intelligence returns the intelligence storage interface
func (m *Manager) Intelligence() interfaces.IntelligenceStorage {
	return m.intel
}

// DB returns the underlying connection wrapper
func (m *Manager) DB() *SQLiteDB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
