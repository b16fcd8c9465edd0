package scraper

import (
	"strings"

	"github.com/ternarybob/odyssey/internal/models"
)

// Fixed vocabulary of career terms; each hit adds 0.3 capped at +2.0
var professionalKeywords = []string{
	"experience", "career", "professional", "engineer", "developer",
	"manager", "director", "founder", "skills", "project", "achievement",
	"certification", "education", "university", "degree", "promoted",
	"leadership", "startup", "award", "portfolio",
}

// Placeholder/stub phrases that mark a page as low quality
var lowQualityMarkers = []string{
	"lorem ipsum",
	"under construction",
	"coming soon",
	"page not found",
	"enable javascript",
	"sign in to continue",
	"access denied",
}

// QualityScore computes the deterministic 0-10 heuristic used to rank
// enrichment sources. Base 5.0 adjusted by length band, professional
// keyword hits, structure and provenance signals, clamped to [0, 10].
func QualityScore(doc *models.ScrapedDoc) float64 {
	score := 5.0
	content := strings.ToLower(doc.Content)
	length := doc.ContentLength
	if length == 0 {
		length = len(doc.Content)
	}

	switch {
	case length >= 1000 && length <= 5000:
		score += 1.5
	case length >= 500 && length < 1000:
		score += 1.0
	case length < 200:
		score -= 2.0
	case length > 8000:
		score -= 0.5
	}

	keywordBonus := 0.0
	for _, kw := range professionalKeywords {
		if strings.Contains(content, kw) {
			keywordBonus += 0.3
		}
	}
	if keywordBonus > 2.0 {
		keywordBonus = 2.0
	}
	score += keywordBonus

	if len(doc.Headings) >= 2 {
		score += 1.0
	}
	if doc.PublishedDate != "" {
		score += 0.5
	}
	if doc.Author != "" {
		score += 0.5
	}

	for _, marker := range lowQualityMarkers {
		if strings.Contains(content, marker) {
			score -= 3.0
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
