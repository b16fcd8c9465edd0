package models

// ScrapedLink is an anchor found inside a page's main content
type ScrapedLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ScrapedDoc is the structured result of fetching one enrichment URL.
// A failed fetch yields Success=false with Error set; no error is raised
// to the caller.
type ScrapedDoc struct {
	URL           string        `json:"url"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	Title         string        `json:"title,omitempty"`
	Description   string        `json:"description,omitempty"`
	Content       string        `json:"content,omitempty"`  // Plain text, truncated
	Markdown      string        `json:"markdown,omitempty"` // Main content rendered as markdown
	ContentLength int           `json:"content_length"`     // Original length before truncation
	Headings      []string      `json:"headings,omitempty"`
	Links         []ScrapedLink `json:"links,omitempty"`
	Images        []string      `json:"images,omitempty"`
	Author        string        `json:"author,omitempty"`
	Publisher     string        `json:"publisher,omitempty"`
	OGType        string        `json:"og_type,omitempty"`
	TwitterCard   string        `json:"twitter_card,omitempty"`
	Domain        string        `json:"domain,omitempty"`
	PublishedDate string        `json:"published_date,omitempty"`
	FeaturedImage string        `json:"featured_image,omitempty"`
	QualityScore  float64       `json:"quality_score"`
}

// GitHubProject is one significant repository surfaced by enrichment
type GitHubProject struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    string   `json:"language,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// GitHubData aggregates code-hosting statistics attached by ENRICH_PROFILE
type GitHubData struct {
	Username            string           `json:"username"`
	Languages           map[string]int   `json:"languages"`
	SignificantProjects []GitHubProject  `json:"significant_projects"`
	EventCounts         map[string]int   `json:"event_counts"`
	PublicRepos         int              `json:"public_repos"`
}

// EnrichmentStats summarizes the link-scraping portion of ENRICH_PROFILE
type EnrichmentStats struct {
	RelatedLinksFound int `json:"related_links_found"`
	LinksScraped      int `json:"links_scraped"`
	SuccessfulScrapes int `json:"successful_scrapes"`
}
