package models

// TimelineEvent is one renderable event on the chronological timeline
type TimelineEvent struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"` // ISO date
	EndDate     string   `json:"end_date,omitempty"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	Media       string   `json:"media,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TimelineEra is a named colored band spanning part of the timeline
type TimelineEra struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Color     string `json:"color"`
}

// Timeline is the output of GENERATE_TIMELINE
type Timeline struct {
	Events []TimelineEvent `json:"events"`
	Eras   []TimelineEra   `json:"eras"`
}

// Fixed category presentation mappings
var (
	CategoryColors = map[string]string{
		"career":        "blue",
		"education":     "green",
		"achievement":   "gold",
		"project":       "purple",
		"certification": "orange",
	}
	CategoryIcons = map[string]string{
		"career":        "briefcase",
		"education":     "grad-cap",
		"achievement":   "trophy",
		"project":       "code",
		"certification": "cert",
	}
)

// CategoryColor resolves a category to its fixed color, defaulting to blue
func CategoryColor(category string) string {
	if c, ok := CategoryColors[category]; ok {
		return c
	}
	return "blue"
}

// CategoryIcon resolves a category to its fixed icon, defaulting to briefcase
func CategoryIcon(category string) string {
	if i, ok := CategoryIcons[category]; ok {
		return i
	}
	return "briefcase"
}
