package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HistoryStorage implements the HistoryStorage interface for Badger.
// Field writes are serialized behind a mutex so concurrent stage writes
// to the same row never lose updates (badgerhold upserts are last-wins).
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// CreateRow inserts a fresh history row and returns its ID
func (s *HistoryStorage) CreateRow(ctx context.Context, ownerRef string, source models.SourceRef) (string, error) {
	if ownerRef == "" {
		return "", fmt.Errorf("owner reference is required")
	}

	now := time.Now()
	row := &models.HistoryRow{
		ID:        common.NewHistoryID(),
		OwnerRef:  ownerRef,
		SourceRef: source,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    make(map[string]models.Document),
	}

	if err := s.db.Store().Insert(row.ID, row); err != nil {
		return "", fmt.Errorf("failed to create history row: %w", err)
	}
	return row.ID, nil
}

// GetRow fetches a history row by ID
func (s *HistoryStorage) GetRow(ctx context.Context, historyID string) (*models.HistoryRow, error) {
	var row models.HistoryRow
	if err := s.db.Store().Get(historyID, &row); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("history row not found: %s", historyID)
		}
		return nil, fmt.Errorf("failed to get history row: %w", err)
	}
	return &row, nil
}

// WriteField stores one structured document under its field key
func (s *HistoryStorage) WriteField(ctx context.Context, historyID, key string, doc models.Document) error {
	return s.update(historyID, func(row *models.HistoryRow) {
		if row.Fields == nil {
			row.Fields = make(map[string]models.Document)
		}
		row.Fields[key] = doc
	})
}

// AppendSegmentVideo appends one segment video URL in generation order
func (s *HistoryStorage) AppendSegmentVideo(ctx context.Context, historyID, url string) error {
	return s.update(historyID, func(row *models.HistoryRow) {
		row.SegmentVideoURLs = append(row.SegmentVideoURLs, url)
	})
}

// WriteVideoURL stores the intro or full video URL
func (s *HistoryStorage) WriteVideoURL(ctx context.Context, historyID, key, url string) error {
	return s.update(historyID, func(row *models.HistoryRow) {
		switch key {
		case models.FieldIntroVideo:
			row.IntroVideoURL = url
		case models.FieldFullVideo:
			row.FullVideoURL = url
		}
	})
}

// ReadStructured collects a row's structured documents into one document,
// keyed by field name, with video URLs included.
func (s *HistoryStorage) ReadStructured(ctx context.Context, historyID string) (models.Document, error) {
	row, err := s.GetRow(ctx, historyID)
	if err != nil {
		return nil, err
	}

	doc := models.Document{}
	for key, field := range row.Fields {
		doc[key] = field
	}
	if len(row.SegmentVideoURLs) > 0 {
		doc[models.FieldSegmentVideos] = row.SegmentVideoURLs
	}
	if row.IntroVideoURL != "" {
		doc[models.FieldIntroVideo] = row.IntroVideoURL
	}
	if row.FullVideoURL != "" {
		doc[models.FieldFullVideo] = row.FullVideoURL
	}
	return doc, nil
}

// ListByOwner returns an owner's rows, newest first
func (s *HistoryStorage) ListByOwner(ctx context.Context, ownerRef string) ([]*models.HistoryRow, error) {
	var rows []models.HistoryRow
	if err := s.db.Store().Find(&rows, badgerhold.Where("OwnerRef").Eq(ownerRef).Index("OwnerRef")); err != nil {
		return nil, fmt.Errorf("failed to list history rows: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	result := make([]*models.HistoryRow, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result, nil
}

// update applies a mutation under the write lock with a read-modify-write
func (s *HistoryStorage) update(historyID string, mutate func(*models.HistoryRow)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row models.HistoryRow
	if err := s.db.Store().Get(historyID, &row); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("history row not found: %s", historyID)
		}
		return fmt.Errorf("failed to get history row: %w", err)
	}

	mutate(&row)
	row.UpdatedAt = time.Now()

	if err := s.db.Store().Update(historyID, &row); err != nil {
		return fmt.Errorf("failed to update history row: %w", err)
	}
	return nil
}
