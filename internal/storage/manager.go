package storage

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/storage/badger"
	"github.com/ternarybob/arbitror/internal/storage/sqlite"
)

// Manager composes the relational store (filings, halts, staging, deals,
// intelligence) with the badger store (alert outbox) behind
// interfaces.StorageManager
type Manager struct {
	sqlite *sqlite.Manager
	badger *badger.BadgerDB
	alerts interfaces.AlertStorage
	logger arbor.ILogger
}

// NewManager opens both stores
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	sqliteManager, err := sqlite.NewManager(logger, &config.SQLite)
	if err != nil {
		return nil, err
	}

	badgerDB, err := badger.NewBadgerDB(logger, &config.Badger)
	if err != nil {
		sqliteManager.Close()
		return nil, err
	}

	return &Manager{
		sqlite: sqliteManager,
		badger: badgerDB,
		alerts: badger.NewAlertStorage(badgerDB, logger),
		logger: logger,
	}, nil
}

func (m *Manager) Filings() interfaces.FilingStorage          { return m.sqlite.Filings() }
func (m *Manager) Halts() interfaces.HaltStorage              { return m.sqlite.Halts() }
func (m *Manager) Staging() interfaces.StagingStorage         { return m.sqlite.Staging() }
func (m *Manager) Deals() interfaces.DealStorage              { return m.sqlite.Deals() }
func (m *Manager) Intelligence() interfaces.IntelligenceStorage { return m.sqlite.Intelligence() }
func (m *Manager) Alerts() interfaces.AlertStorage            { return m.alerts }

// BadgerDB exposes the badger handle for scheduled garbage collection
func (m *Manager) BadgerDB() *badger.BadgerDB {
	return m.badger
}

// Close closes both stores
func (m *Manager) Close() error {
	var firstErr error
	if err := m.sqlite.Close(); err != nil {
		firstErr = err
	}
	if err := m.badger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
