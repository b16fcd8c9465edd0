package models

// JourneySummary is the headline narrative of a structured journey
type JourneySummary struct {
	Headline   string   `json:"headline"`
	Narrative  string   `json:"narrative"`
	CareerSpan string   `json:"career_span"`
	KeyThemes  []string `json:"key_themes"`
}

// Milestone is one dated event in the journey
type Milestone struct {
	Date            string `json:"date"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`     // career, education, achievement, project, certification
	Significance    string `json:"significance"` // major, moderate, minor
	ImpactStatement string `json:"impact_statement,omitempty"`
}

// CareerChapter groups a period of the journey into a narrative chapter
type CareerChapter struct {
	Title        string   `json:"title"`
	Period       string   `json:"period"`
	Narrative    string   `json:"narrative"`
	KeyLearnings []string `json:"key_learnings"`
}

// SkillStage tracks how the skill set evolved over a period
type SkillStage struct {
	Period         string   `json:"period"`
	Stage          string   `json:"stage"`
	Milestone      string   `json:"milestone"`
	Description    string   `json:"description"`
	SkillsAcquired []string `json:"skills_acquired"`
}

// ImpactMetrics are the headline counters of a journey
type ImpactMetrics struct {
	YearsExperience int `json:"years_experience"`
	CompaniesCount  int `json:"companies_count"`
	ProjectsCount   int `json:"projects_count"`
	SkillsCount     int `json:"skills_count"`
}

// Journey is the structured narrative produced by STRUCTURE_JOURNEY
type Journey struct {
	Summary         JourneySummary  `json:"summary"`
	Milestones      []Milestone     `json:"milestones"`
	CareerChapters  []CareerChapter `json:"career_chapters"`
	SkillsEvolution []SkillStage    `json:"skills_evolution"`
	ImpactMetrics   ImpactMetrics   `json:"impact_metrics"`
	Error           string          `json:"error,omitempty"` // Set when the fallback document was synthesized
}
