package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/odyssey/internal/models"
)

// neutral filler with no professional keywords
func filler(n int) string {
	return strings.Repeat("xyzzy plugh ", n/12+1)[:n]
}

func TestQualityScore_LengthBands(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   float64
	}{
		{"ideal band", 2000, 6.5},
		{"medium band", 700, 6.0},
		{"neutral band", 300, 5.0},
		{"too short", 100, 3.0},
		{"too long", 9000, 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &models.ScrapedDoc{Content: filler(tt.length), ContentLength: tt.length}
			assert.InDelta(t, tt.want, QualityScore(doc), 0.001)
		})
	}
}

func TestQualityScore_KeywordBonusCapped(t *testing.T) {
	// Two keyword hits: 5.0 base - 2.0 short + 0.6
	doc := &models.ScrapedDoc{Content: "engineer career", ContentLength: 15}
	assert.InDelta(t, 3.6, QualityScore(doc), 0.001)

	// Ten distinct keywords would be +3.0 uncapped; the cap holds it at +2.0
	many := "experience career professional engineer developer manager director founder skills project"
	doc = &models.ScrapedDoc{Content: many, ContentLength: len(many)}
	assert.InDelta(t, 5.0-2.0+2.0, QualityScore(doc), 0.001)
}

func TestQualityScore_StructureAndProvenanceBonuses(t *testing.T) {
	doc := &models.ScrapedDoc{
		Content:       filler(2000),
		ContentLength: 2000,
		Headings:      []string{"About", "Work"},
		PublishedDate: "2024-01-02",
		Author:        "A. Writer",
	}
	// 5.0 + 1.5 length + 1.0 headings + 0.5 date + 0.5 author
	assert.InDelta(t, 8.5, QualityScore(doc), 0.001)

	// A single heading earns nothing
	doc.Headings = []string{"About"}
	assert.InDelta(t, 7.5, QualityScore(doc), 0.001)
}

func TestQualityScore_LowQualityMarkerPenalty(t *testing.T) {
	content := filler(2000) + " this page is under construction"
	doc := &models.ScrapedDoc{Content: content, ContentLength: len(content)}
	// 5.0 + 1.5 - 3.0; penalty applies once even with several markers
	assert.InDelta(t, 3.5, QualityScore(doc), 0.001)

	content = "lorem ipsum coming soon page not found"
	doc = &models.ScrapedDoc{Content: content, ContentLength: len(content)}
	assert.InDelta(t, 5.0-2.0-3.0, QualityScore(doc), 0.001)
}

func TestQualityScore_Clamped(t *testing.T) {
	// Short stub page full of markers bottoms out at 0
	doc := &models.ScrapedDoc{Content: "lorem ipsum", ContentLength: 11}
	assert.Zero(t, QualityScore(doc))

	// Scores never exceed 10
	rich := &models.ScrapedDoc{
		Content:       "experience career professional engineer developer manager director founder skills project " + filler(1500),
		ContentLength: 2000,
		Headings:      []string{"A", "B", "C"},
		PublishedDate: "2024-01-02",
		Author:        "A. Writer",
	}
	assert.LessOrEqual(t, QualityScore(rich), 10.0)
}

func TestQualityScore_FallsBackToContentLen(t *testing.T) {
	// ContentLength unset: the heuristic measures the content itself
	doc := &models.ScrapedDoc{Content: filler(100)}
	assert.InDelta(t, 3.0, QualityScore(doc), 0.001)
}
