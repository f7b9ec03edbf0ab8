package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// InsightStorage implements the InsightStorage interface for Badger
type InsightStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewInsightStorage creates a new InsightStorage instance
func NewInsightStorage(db *BadgerDB, logger arbor.ILogger) interfaces.InsightStorage {
	return &InsightStorage{
		db:     db,
		logger: logger,
	}
}

func (s *InsightStorage) SaveInsight(insight *models.Insight) error {
	if insight.ID == "" {
		insight.ID = common.NewInsightID()
	}
	if insight.CreatedAt.IsZero() {
		insight.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(insight.ID, insight); err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}
	return nil
}

func (s *InsightStorage) GetInsightsByDocument(documentID string) ([]*models.Insight, error) {
	var insights []models.Insight
	err := s.db.Store().Find(&insights, badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID"))
	if err != nil {
		return nil, fmt.Errorf("failed to load insights: %w", err)
	}

	result := make([]*models.Insight, len(insights))
	for i := range insights {
		result[i] = &insights[i]
	}
	return result, nil
}

func (s *InsightStorage) GetInsightsByType(insightType models.InsightType) ([]*models.Insight, error) {
	var insights []models.Insight
	err := s.db.Store().Find(&insights, badgerhold.Where("Type").Eq(insightType))
	if err != nil {
		return nil, fmt.Errorf("failed to load insights: %w", err)
	}

	result := make([]*models.Insight, len(insights))
	for i := range insights {
		result[i] = &insights[i]
	}
	return result, nil
}

func (s *InsightStorage) DeleteInsightsByDocument(documentID string) error {
	err := s.db.Store().DeleteMatching(&models.Insight{}, badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID"))
	if err != nil {
		return fmt.Errorf("failed to delete insights: %w", err)
	}
	return nil
}

func (s *InsightStorage) ClearAll() error {
	if err := s.db.Store().DeleteMatching(&models.Insight{}, nil); err != nil {
		return fmt.Errorf("failed to clear insights: %w", err)
	}
	return nil
}
