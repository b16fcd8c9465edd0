// -----------------------------------------------------------------------
// Per-stage prompt builders
// -----------------------------------------------------------------------

package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/odyssey/internal/models"
)

// docAsJSON renders a document for prompt embedding; indentation keeps the
// model from conflating adjacent fields in long profiles.
func docAsJSON(doc models.Document) string {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ProfilePDFPrompt asks the model to extract a canonical profile from an
// attached resume document.
func ProfilePDFPrompt() string {
	return `You are a professional profile extractor. Read the attached resume and extract a complete, factual professional profile.

Rules:
- Extract only information present in the document; never invent employers, dates, or credentials.
- Normalize dates to YYYY-MM where possible; use "present" for ongoing roles.
- Keep descriptions concise and factual.
- Include every listed skill, certification, and project.`
}

// ProfileURLPrompt asks the model to extract a profile from a public page,
// reading the URL inline and searching for corroborating sources.
func ProfileURLPrompt(url string) string {
	return fmt.Sprintf(`You are a professional profile extractor. Read the page at %s and extract a complete, factual professional profile of the person it describes.

Rules:
- Extract only verifiable information from the page and corroborating public sources.
- Normalize dates to YYYY-MM where possible; use "present" for ongoing roles.
- Populate related_links with other public pages about the same person (portfolio, articles, talks, public code hosting).
- Never invent employers, dates, or credentials.`, url)
}

// ProfileSearchPrompt asks the model to reconstruct a profile from web
// search when the source page cannot be read directly.
func ProfileSearchPrompt(url string) string {
	return fmt.Sprintf(`You are a professional profile researcher. The page at %s cannot be fetched directly. Using web search, find public information about the person this profile URL belongs to and reconstruct their professional profile.

Rules:
- Use only information attributable to this specific person; if identity is ambiguous, include only facts you can tie to the profile URL.
- Normalize dates to YYYY-MM where possible.
- Populate related_links with the public pages you drew from.
- Never invent employers, dates, or credentials.`, url)
}

// MergePrompt asks the model to reconcile multiple raw records into one
// canonical profile.
func MergePrompt(records []models.Document) string {
	var b strings.Builder
	b.WriteString("You are a professional profile curator. Merge the following raw records about the same person into a single canonical profile.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Deduplicate overlapping experiences and education; prefer the record with the most specific dates.\n")
	b.WriteString("- When records conflict, prefer the most recent and most detailed source.\n")
	b.WriteString("- Union skills, certifications, achievements, and links.\n")
	b.WriteString("- Never invent information absent from every record.\n")
	for i, rec := range records {
		b.WriteString(fmt.Sprintf("\nRecord %d:\n%s\n", i+1, docAsJSON(rec)))
	}
	return b.String()
}

// AggregatePrompt asks the model to merge the current profile with prior
// records and ranked scraped sources into one canonical profile.
func AggregatePrompt(current models.Document, prior []models.Document, scraped []models.Document) string {
	var b strings.Builder
	b.WriteString("You are a professional profile curator. Merge the current profile with the person's prior records and the scraped public sources into a single canonical profile.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Merge experiences and projects chronologically; deduplicate overlapping entries, preferring the most specific dates.\n")
	b.WriteString("- Track skill evolution: union skills across records, keeping first-seen context.\n")
	b.WriteString("- Enrich achievements with facts found in the scraped sources, attributed to this person only.\n")
	b.WriteString("- When records conflict, prefer the most recent and most detailed source.\n")
	b.WriteString("- Never invent information absent from every input.\n")
	b.WriteString("\nCurrent profile:\n")
	b.WriteString(docAsJSON(current))
	for i, rec := range prior {
		b.WriteString(fmt.Sprintf("\nPrior record %d:\n%s\n", i+1, docAsJSON(rec)))
	}
	if len(scraped) > 0 {
		b.WriteString("\nScraped public sources, ranked by quality (best first):\n")
		for i, doc := range scraped {
			b.WriteString(fmt.Sprintf("\nSource %d:\n%s\n", i+1, docAsJSON(doc)))
		}
	}
	return b.String()
}

// RelatedLinksPrompt asks the model to discover external profile pages for
// a person extracted from a resume, where no source URL exists to anchor on.
func RelatedLinksPrompt(name, title string) string {
	anchor := name
	if title != "" {
		anchor = fmt.Sprintf("%s (%s)", name, title)
	}
	return fmt.Sprintf(`Using web search, find public professional pages belonging to %s: portfolio sites, published articles, conference talks, and public code hosting profiles.

Rules:
- Include only pages you can attribute to this specific person.
- Return full https URLs; no login-walled or social-network pages.
- An empty list is a valid answer when identity cannot be established.`, anchor)
}

// JourneyPrompt asks the model to shape a merged profile, enrichment
// context, and optional code-hosting statistics into a journey narrative.
func JourneyPrompt(profile models.Document, enrichment models.Document) string {
	var b strings.Builder
	b.WriteString("You are a career storyteller. Transform this professional profile into a structured career journey: an engaging summary, chronological milestones, career chapters, and a skills evolution arc.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Every milestone must trace back to a fact in the profile or enrichment context.\n")
	b.WriteString("- Classify each milestone as career, education, achievement, project, or certification.\n")
	b.WriteString("- Rate significance honestly: major for inflection points, minor for routine progression.\n")
	b.WriteString("- Write the narrative in warm, third-person prose without embellishing facts.\n")
	b.WriteString("\nProfile:\n")
	b.WriteString(docAsJSON(profile))
	if len(enrichment) > 0 {
		b.WriteString("\n\nEnrichment context (scraped public sources, ranked by quality):\n")
		b.WriteString(docAsJSON(enrichment))
	}
	return b.String()
}

// TimelinePrompt asks the model to flatten a journey into renderable
// chronological events.
func TimelinePrompt(journey models.Document) string {
	var b strings.Builder
	b.WriteString("You are a data visualization editor. Convert this career journey into a flat chronological timeline of renderable events grouped into eras.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- One event per milestone; keep ids stable and unique (evt_001, evt_002, ...).\n")
	b.WriteString("- Order events ascending by date.\n")
	b.WriteString("- Titles at most 8 words; descriptions at most 2 sentences.\n")
	b.WriteString("- Eras must cover the full span without gaps.\n")
	b.WriteString("\nJourney:\n")
	b.WriteString(docAsJSON(journey))
	return b.String()
}

// DocumentaryPrompt asks the model to script a short documentary from a
// journey narrative.
func DocumentaryPrompt(journey models.Document) string {
	var b strings.Builder
	b.WriteString("You are a documentary screenwriter. Write a short-form documentary script (60-90 seconds total) telling this career journey as a cinematic story.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- 4 to 6 segments, each 8-15 seconds, ordered.\n")
	b.WriteString("- visual_description must be a concrete, filmable scene of at most 15 words.\n")
	b.WriteString("- narration is voice-over text timed to the segment duration.\n")
	b.WriteString("- Open with a hook, close with a forward-looking statement.\n")
	b.WriteString("- Ground every claim in the journey; no invented events.\n")
	b.WriteString("\nJourney:\n")
	b.WriteString(docAsJSON(journey))
	return b.String()
}

// VideoSegmentPrompt composes the synthesis prompt for one documentary
// segment, anchored by the character bible so successive segments keep a
// consistent subject and visual style.
func VideoSegmentPrompt(bible string, visual string, mood string) string {
	var b strings.Builder
	b.WriteString(bible)
	b.WriteString("\n\nScene: ")
	b.WriteString(visual)
	if mood != "" {
		b.WriteString("\nMood: ")
		b.WriteString(mood)
	}
	b.WriteString("\nStyle: cinematic documentary, natural lighting, smooth camera movement, no text overlays, no captions.")
	return b.String()
}
