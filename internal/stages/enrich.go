// -----------------------------------------------------------------------
// ENRICH_PROFILE - scrape related pages and collect code-hosting stats
// -----------------------------------------------------------------------

package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
)

const (
	maxRelatedLinks   = 20
	scrapeConcurrency = 5
)

// EnrichHandler augments the fetched profile with scraped related pages,
// ranked by quality, plus aggregate GitHub statistics when the owner has a
// linked account. Non-critical: partial data still completes the stage.
type EnrichHandler struct {
	scraper interfaces.ScraperService
	github  interfaces.GitHubService
	auth    interfaces.AuthStorage
	logger  arbor.ILogger
}

// NewEnrichHandler creates the enrichment stage
func NewEnrichHandler(deps Deps) *EnrichHandler {
	return &EnrichHandler{
		scraper: deps.Scraper,
		github:  deps.GitHub,
		auth:    deps.Auth,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *EnrichHandler) Kind() models.TaskKind { return models.TaskEnrichProfile }

// Execute scrapes the profile's related links and attaches enrichment data
func (h *EnrichHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	profile, ok := plan.Result(models.TaskFetchProfile)
	if !ok {
		return nil, fmt.Errorf("no fetched profile available for enrichment")
	}

	// Work on a copy; the fetch stage's output stays untouched
	out := make(models.Document, len(profile)+4)
	for k, v := range profile {
		out[k] = v
	}

	links := h.collectLinks(profile, plan.Source.URL)
	stats := models.EnrichmentStats{RelatedLinksFound: len(links)}
	if len(links) > maxRelatedLinks {
		links = links[:maxRelatedLinks]
	}
	stats.LinksScraped = len(links)

	report(20, fmt.Sprintf("Scraping %d related pages", len(links)))

	var ranked []*models.ScrapedDoc
	if len(links) > 0 {
		docs := h.scraper.ScrapeMany(ctx, links, scrapeConcurrency)
		for _, d := range docs {
			if d != nil && d.Success {
				ranked = append(ranked, d)
			}
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].QualityScore > ranked[j].QualityScore
		})
	}
	stats.SuccessfulScrapes = len(ranked)
	out[keyScrapedContent] = ranked

	statsDoc, err := encodeDoc(stats)
	if err != nil {
		return nil, err
	}
	out[keyEnrichmentStats] = statsDoc

	report(70, "Collecting code-hosting statistics")

	if data := h.fetchGitHub(ctx, plan); data != nil {
		out[keyGitHubData] = data
	}

	out[keyEnrichmentTimestamp] = time.Now().UTC().Format(time.RFC3339)

	h.logger.Info().
		Str("job_id", plan.JobID).
		Int("links_found", stats.RelatedLinksFound).
		Int("scraped", stats.LinksScraped).
		Int("successful", stats.SuccessfulScrapes).
		Msg("Profile enriched")
	return out, nil
}

// collectLinks gathers the profile's related links, excluding the primary
// source URL itself.
func (h *EnrichHandler) collectLinks(profile models.Document, sourceURL string) []string {
	primary := normalizeLink(sourceURL)
	var links []string
	for _, link := range relatedLinks(profile) {
		if normalizeLink(link) == primary {
			continue
		}
		links = append(links, link)
	}
	return links
}

// fetchGitHub collects aggregate statistics when the owner has linked a
// code-hosting account. Every failure degrades to nil; enrichment never
// fails on GitHub alone.
func (h *EnrichHandler) fetchGitHub(ctx context.Context, plan *models.Plan) *models.GitHubData {
	if !plan.Options.IncludeGitHub || h.github == nil || h.auth == nil {
		return nil
	}

	cred, err := h.auth.GetCredential(ctx, plan.Options.GuestID, "github")
	if err != nil || cred.Expired() || cred.Username == "" {
		return nil
	}

	data, err := h.github.FetchStats(ctx, cred.Token, cred.Username)
	if err != nil {
		h.logger.Warn().
			Str("job_id", plan.JobID).
			Str("username", cred.Username).
			Err(err).
			Msg("GitHub enrichment failed, continuing without")
		return nil
	}
	return data
}

func normalizeLink(link string) string {
	return strings.TrimSuffix(strings.TrimSpace(strings.ToLower(link)), "/")
}

var _ interfaces.StageHandler = (*EnrichHandler)(nil)
