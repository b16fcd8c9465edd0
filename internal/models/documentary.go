package models

import "strings"

// DocumentarySegment is one 8-second unit of the documentary script
type DocumentarySegment struct {
	ID                  string `json:"id"`
	Order               int    `json:"order"`
	Title               string `json:"title"`
	DurationSeconds     int    `json:"duration_seconds"`
	VisualDescription   string `json:"visual_description"`
	Narration           string `json:"narration"` // 10-15 words
	Mood                string `json:"mood"`      // inspirational, professional, dynamic, reflective, triumphant
	BackgroundMusicHint string `json:"background_music_hint,omitempty"`
	DataVisualization   string `json:"data_visualization,omitempty"`
}

// Renderable returns true when the segment carries everything video
// synthesis needs: narration within the word budget and a visual brief.
func (s *DocumentarySegment) Renderable() bool {
	if strings.TrimSpace(s.Narration) == "" || strings.TrimSpace(s.VisualDescription) == "" {
		return false
	}
	return len(strings.Fields(s.Narration)) <= 15
}

// Documentary is the script produced by GENERATE_DOCUMENTARY
type Documentary struct {
	Title            string               `json:"title"`
	Tagline          string               `json:"tagline,omitempty"`
	DurationEstimate string               `json:"duration_estimate,omitempty"`
	Segments         []DocumentarySegment `json:"segments"`
	OpeningHook      string               `json:"opening_hook,omitempty"`
	ClosingStatement string               `json:"closing_statement,omitempty"`
}

// HasRenderableSegment reports whether at least one segment has both a
// narration and a visual description. A script failing this is rejected.
func (d *Documentary) HasRenderableSegment() bool {
	for i := range d.Segments {
		s := &d.Segments[i]
		if strings.TrimSpace(s.Narration) != "" && strings.TrimSpace(s.VisualDescription) != "" {
			return true
		}
	}
	return false
}
