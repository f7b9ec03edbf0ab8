package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// PodcastStorage implements the PodcastStorage interface for Badger
type PodcastStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPodcastStorage creates a new PodcastStorage instance
func NewPodcastStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PodcastStorage {
	return &PodcastStorage{
		db:     db,
		logger: logger,
	}
}

func scriptKey(documentID, length string) string {
	return documentID + ":" + length
}

func (s *PodcastStorage) SaveScript(documentID, length string, script *models.PodcastScript) error {
	if documentID == "" {
		return fmt.Errorf("document ID is required")
	}

	record := &models.PodcastScriptRecord{
		Key:        scriptKey(documentID, length),
		DocumentID: documentID,
		Length:     length,
		Script:     *script,
		CreatedAt:  time.Now(),
	}

	if err := s.db.Store().Upsert(record.Key, record); err != nil {
		return fmt.Errorf("failed to save podcast script: %w", err)
	}
	return nil
}

func (s *PodcastStorage) GetScript(documentID, length string) (*models.PodcastScript, error) {
	var record models.PodcastScriptRecord
	if err := s.db.Store().Get(scriptKey(documentID, length), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get podcast script: %w", err)
	}
	return &record.Script, nil
}

func (s *PodcastStorage) DeleteScriptsByDocument(documentID string) error {
	err := s.db.Store().DeleteMatching(&models.PodcastScriptRecord{}, badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID"))
	if err != nil {
		return fmt.Errorf("failed to delete podcast scripts: %w", err)
	}
	return nil
}
