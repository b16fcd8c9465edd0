package interfaces

import (
	"context"

	"github.com/ternarybob/odyssey/internal/models"
)

// GitHubService collects bounded aggregate statistics for a linked account
type GitHubService interface {
	// FetchStats gathers the language histogram, significant projects and
	// event counts over recent windows for the authenticated user
	FetchStats(ctx context.Context, token, username string) (*models.GitHubData, error)
}
