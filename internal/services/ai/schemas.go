// -----------------------------------------------------------------------
// Per-stage response schemas (Gemini structured output format)
// -----------------------------------------------------------------------

package ai

import "google.golang.org/genai"

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// ProfileSchema is the canonical profile document returned by profile
// extraction (PDF and URL paths alike).
var ProfileSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":     {Type: genai.TypeString},
		"title":    {Type: genai.TypeString},
		"location": {Type: genai.TypeString},
		"bio":      {Type: genai.TypeString},
		"experiences": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":       {Type: genai.TypeString},
					"company":     {Type: genai.TypeString},
					"location":    {Type: genai.TypeString},
					"start_date":  {Type: genai.TypeString},
					"end_date":    {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"highlights":  stringArray(),
				},
				Required: []string{"title", "company"},
			},
		},
		"education": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"institution": {Type: genai.TypeString},
					"degree":      {Type: genai.TypeString},
					"field":       {Type: genai.TypeString},
					"start_date":  {Type: genai.TypeString},
					"end_date":    {Type: genai.TypeString},
				},
				Required: []string{"institution"},
			},
		},
		"skills": stringArray(),
		"projects": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"url":         {Type: genai.TypeString},
					"topics":      stringArray(),
				},
				Required: []string{"name"},
			},
		},
		"achievements":   stringArray(),
		"certifications": stringArray(),
		"contact_links":  stringArray(),
		"related_links":  stringArray(),
	},
	Required: []string{"name"},
}

// RelatedLinksSchema is the discovery result for external profile pages
var RelatedLinksSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"related_links": stringArray(),
	},
	Required: []string{"related_links"},
}

// JourneySchema is the structured journey narrative
var JourneySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"headline":    {Type: genai.TypeString},
				"narrative":   {Type: genai.TypeString},
				"career_span": {Type: genai.TypeString},
				"key_themes":  stringArray(),
			},
			Required: []string{"headline", "narrative"},
		},
		"milestones": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date":             {Type: genai.TypeString},
					"title":            {Type: genai.TypeString},
					"description":      {Type: genai.TypeString},
					"category":         {Type: genai.TypeString, Enum: []string{"career", "education", "achievement", "project", "certification"}},
					"significance":     {Type: genai.TypeString, Enum: []string{"major", "moderate", "minor"}},
					"impact_statement": {Type: genai.TypeString},
				},
				Required: []string{"date", "title", "category"},
			},
		},
		"career_chapters": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":         {Type: genai.TypeString},
					"period":        {Type: genai.TypeString},
					"narrative":     {Type: genai.TypeString},
					"key_learnings": stringArray(),
				},
				Required: []string{"title", "period"},
			},
		},
		"skills_evolution": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"period":          {Type: genai.TypeString},
					"stage":           {Type: genai.TypeString},
					"milestone":       {Type: genai.TypeString},
					"description":     {Type: genai.TypeString},
					"skills_acquired": stringArray(),
				},
			},
		},
		"impact_metrics": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"years_experience": {Type: genai.TypeInteger},
				"companies_count":  {Type: genai.TypeInteger},
				"projects_count":   {Type: genai.TypeInteger},
				"skills_count":     {Type: genai.TypeInteger},
			},
		},
	},
	Required: []string{"summary", "milestones"},
}

// TimelineSchema is the renderable chronological timeline
var TimelineSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"events": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":          {Type: genai.TypeString},
					"date":        {Type: genai.TypeString},
					"end_date":    {Type: genai.TypeString},
					"title":       {Type: genai.TypeString},
					"subtitle":    {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"category":    {Type: genai.TypeString, Enum: []string{"career", "education", "achievement", "project", "certification"}},
					"tags":        stringArray(),
				},
				Required: []string{"id", "date", "title", "category"},
			},
		},
		"eras": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":       {Type: genai.TypeString},
					"start_date": {Type: genai.TypeString},
					"end_date":   {Type: genai.TypeString},
				},
				Required: []string{"name", "start_date", "end_date"},
			},
		},
	},
	Required: []string{"events"},
}

// DocumentarySchema is the documentary script
var DocumentarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":             {Type: genai.TypeString},
		"tagline":           {Type: genai.TypeString},
		"duration_estimate": {Type: genai.TypeString},
		"segments": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":                    {Type: genai.TypeString},
					"order":                 {Type: genai.TypeInteger},
					"title":                 {Type: genai.TypeString},
					"duration_seconds":      {Type: genai.TypeInteger},
					"visual_description":    {Type: genai.TypeString},
					"narration":             {Type: genai.TypeString},
					"mood":                  {Type: genai.TypeString, Enum: []string{"inspirational", "professional", "dynamic", "reflective", "triumphant"}},
					"background_music_hint": {Type: genai.TypeString},
					"data_visualization":    {Type: genai.TypeString},
				},
				Required: []string{"id", "order", "title", "visual_description", "narration"},
			},
		},
		"opening_hook":      {Type: genai.TypeString},
		"closing_statement": {Type: genai.TypeString},
	},
	Required: []string{"title", "segments"},
}
