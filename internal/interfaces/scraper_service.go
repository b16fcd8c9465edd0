package interfaces

import (
	"context"

	"github.com/ternarybob/odyssey/internal/models"
)

// ScraperService fetches and extracts enrichment pages. Failures are folded
// into the returned document (Success=false); no error escapes per URL.
type ScraperService interface {
	// Scrape fetches and extracts a single URL
	Scrape(ctx context.Context, url string) *models.ScrapedDoc

	// ScrapeMany fetches deduplicated URLs under a concurrency cap, preserving
	// input order in the output (output[i].URL == input[i])
	ScrapeMany(ctx context.Context, urls []string, maxConcurrent int) []*models.ScrapedDoc

	// IsBlockedHost reports whether the URL's host is on the blocklist
	IsBlockedHost(url string) bool
}
