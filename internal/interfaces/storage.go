package interfaces

import (
	"context"

	"github.com/ternarybob/odyssey/internal/models"
)

// HistoryStorage persists job rows and their structured documents.
// Field writes are atomic per key.
type HistoryStorage interface {
	CreateRow(ctx context.Context, ownerRef string, source models.SourceRef) (string, error)
	GetRow(ctx context.Context, historyID string) (*models.HistoryRow, error)
	WriteField(ctx context.Context, historyID, key string, doc models.Document) error
	AppendSegmentVideo(ctx context.Context, historyID, url string) error
	WriteVideoURL(ctx context.Context, historyID, key, url string) error
	ReadStructured(ctx context.Context, historyID string) (models.Document, error)
	ListByOwner(ctx context.Context, ownerRef string) ([]*models.HistoryRow, error)
}

// AuthStorage persists per-owner OAuth credentials
type AuthStorage interface {
	SaveCredential(ctx context.Context, cred *models.OAuthCredential) error
	GetCredential(ctx context.Context, ownerRef, provider string) (*models.OAuthCredential, error)
	DeleteCredential(ctx context.Context, ownerRef, provider string) error
}

// BlobStorage stores uploaded resumes and generated video files
type BlobStorage interface {
	Put(ctx context.Context, key string, data []byte) (string, error) // Returns public URL
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// StorageManager bundles the storage interfaces behind one lifecycle
type StorageManager interface {
	HistoryStorage() HistoryStorage
	AuthStorage() AuthStorage
	Close() error
}
