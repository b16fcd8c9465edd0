package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AuthStorage implements the AuthStorage interface for Badger
type AuthStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuthStorage creates a new AuthStorage instance
func NewAuthStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AuthStorage {
	return &AuthStorage{
		db:     db,
		logger: logger,
	}
}

func credentialID(ownerRef, provider string) string {
	return ownerRef + ":" + provider
}

// SaveCredential upserts a provider token for an owner
func (s *AuthStorage) SaveCredential(ctx context.Context, cred *models.OAuthCredential) error {
	if cred.OwnerRef == "" || cred.Provider == "" {
		return fmt.Errorf("credential owner and provider are required")
	}

	cred.ID = credentialID(cred.OwnerRef, cred.Provider)
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(cred.ID, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// GetCredential fetches an owner's token for a provider
func (s *AuthStorage) GetCredential(ctx context.Context, ownerRef, provider string) (*models.OAuthCredential, error) {
	var cred models.OAuthCredential
	if err := s.db.Store().Get(credentialID(ownerRef, provider), &cred); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("credential not found for %s/%s", ownerRef, provider)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &cred, nil
}

// DeleteCredential removes an owner's token for a provider
func (s *AuthStorage) DeleteCredential(ctx context.Context, ownerRef, provider string) error {
	if err := s.db.Store().Delete(credentialID(ownerRef, provider), &models.OAuthCredential{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
