// -----------------------------------------------------------------------
// Character bible - pins subject identity across video segments
// -----------------------------------------------------------------------

package stages

import (
	"fmt"
	"strings"

	"github.com/ternarybob/odyssey/internal/models"
)

// Industry inference by keyword match over the most recent experience title.
// First match wins; order is most-specific first.
var industryKeywords = []struct {
	keywords []string
	industry string
}{
	{[]string{"engineer", "developer", "software", "architect", "devops", "data scientist", "programmer"}, "technology"},
	{[]string{"designer", "ux", "ui", "creative"}, "design"},
	{[]string{"finance", "accountant", "banker", "trader", "investment"}, "finance"},
	{[]string{"doctor", "nurse", "medical", "clinical", "health"}, "healthcare"},
	{[]string{"marketing", "brand", "growth", "seo", "content"}, "marketing"},
	{[]string{"teacher", "professor", "lecturer", "educator"}, "education"},
	{[]string{"lawyer", "attorney", "legal", "counsel"}, "legal"},
	{[]string{"scientist", "researcher", "research"}, "science"},
	{[]string{"sales", "account executive", "business development"}, "sales"},
}

// Visual palettes per inferred industry, keeping the documentary's look
// coherent with the subject's world.
var industryPalettes = map[string]string{
	"technology": "cool blues and teals, glass and screens, modern office light",
	"design":     "warm neutrals, studio light, sketches and materials",
	"finance":    "deep navy and brass, city skylines, boardroom light",
	"healthcare": "soft whites and greens, clinical calm, daylight",
	"marketing":  "vivid accent colors, urban energy, golden hour",
	"education":  "warm wood tones, libraries and lecture halls, morning light",
	"legal":      "dark wood and leather, muted tones, window light",
	"science":    "clean whites and steel, lab instruments, precise light",
	"sales":      "bright open spaces, handshakes and motion, daylight",
}

const defaultPalette = "balanced natural tones, professional settings, soft daylight"

// BuildCharacterBible composes the prompt fragment that fixes the subject's
// identity, demeanour, palette, and voice continuity across every segment.
func BuildCharacterBible(profile models.Document) string {
	name := strings.TrimSpace(stringAt(profile, "name"))
	if name == "" {
		name = "the subject"
	}
	title := strings.TrimSpace(stringAt(profile, "title"))
	industry := InferIndustry(profile)

	palette := industryPalettes[industry]
	if palette == "" {
		palette = defaultPalette
	}

	var b strings.Builder
	b.WriteString("CHARACTER BIBLE\n")
	fmt.Fprintf(&b, "Subject: %s", name)
	if title != "" {
		fmt.Fprintf(&b, ", %s", title)
	}
	if industry != "" {
		fmt.Fprintf(&b, ", working in %s", industry)
	}
	b.WriteString(".\n")
	b.WriteString("Identity: the same single protagonist appears in every segment; consistent face, build, hair, and wardrobe throughout.\n")
	b.WriteString("Demeanour: composed, purposeful, quietly confident; candid documentary moments, never posed to camera.\n")
	fmt.Fprintf(&b, "Palette: %s.\n", palette)
	b.WriteString("Voice continuity: one consistent narrator voice; measured pace; no on-screen text.")
	return b.String()
}

// InferIndustry derives the subject's industry from the most recent
// experience title, falling back to the profile title.
func InferIndustry(profile models.Document) string {
	var p models.Profile
	if err := decodeDoc(profile, &p); err != nil {
		return ""
	}

	candidate := p.Title
	if len(p.Experiences) > 0 {
		candidate = p.Experiences[0].Title
	}
	candidate = strings.ToLower(candidate)
	if candidate == "" {
		return ""
	}

	for _, entry := range industryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(candidate, kw) {
				return entry.industry
			}
		}
	}
	return ""
}
