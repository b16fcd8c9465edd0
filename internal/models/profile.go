// -----------------------------------------------------------------------
// Profile - canonical extracted profile schema shared by all stages
// -----------------------------------------------------------------------

package models

import "strings"

// Experience is one role in the subject's work history
type Experience struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Education is one study period
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// Project is one notable project
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Topics      []string `json:"topics,omitempty"`
}

// Profile is the canonical structured document produced by FETCH_PROFILE
// and merged by AGGREGATE_HISTORY.
type Profile struct {
	Name           string       `json:"name"`
	Title          string       `json:"title,omitempty"`
	Location       string       `json:"location,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	Experiences    []Experience `json:"experiences,omitempty"`
	Education      []Education  `json:"education,omitempty"`
	Skills         []string     `json:"skills,omitempty"`
	Projects       []Project    `json:"projects,omitempty"`
	Achievements   []string     `json:"achievements,omitempty"`
	Certifications []string     `json:"certifications,omitempty"`
	ContactLinks   []string     `json:"contact_links,omitempty"`
	RelatedLinks   []string     `json:"related_links,omitempty"`

	SourceRef           string `json:"source_ref,omitempty"`
	ExtractionTimestamp string `json:"extraction_timestamp,omitempty"`
	ExtractionMethod    string `json:"extraction_method,omitempty"`
}

// IsValid applies the profile acceptance rule: a name of at least two
// characters plus at least one substantive field.
func (p *Profile) IsValid() bool {
	if len(strings.TrimSpace(p.Name)) < 2 {
		return false
	}
	if len(strings.TrimSpace(p.Title)) > 1 {
		return true
	}
	return len(p.Experiences) > 0 || len(p.Education) > 0 || len(p.Skills) > 0
}
