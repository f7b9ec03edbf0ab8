package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	document interfaces.DocumentStorage
	insight  interfaces.InsightStorage
	podcast  interfaces.PodcastStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		document: NewDocumentStorage(db, logger),
		insight:  NewInsightStorage(db, logger),
		podcast:  NewPodcastStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// DocumentStorage returns the Document storage interface
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.document
}

// InsightStorage returns the Insight storage interface
func (m *Manager) InsightStorage() interfaces.InsightStorage {
	return m.insight
}

// PodcastStorage returns the Podcast storage interface
func (m *Manager) PodcastStorage() interfaces.PodcastStorage {
	return m.podcast
}

// Store returns the underlying badgerhold store
func (m *Manager) Store() *badgerhold.Store {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
