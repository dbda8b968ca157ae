package model

import "strings"

// Category selects the kind of entity being searched.
type Category string

// Search categories.
const (
	CategoryPeople  Category = "people"
	CategoryCompany Category = "company"
)

// ConnectionDegree is the requested network distance selector.
type ConnectionDegree string

// Connection degree selectors.
const (
	DegreeFirst  ConnectionDegree = "1st"
	DegreeSecond ConnectionDegree = "2nd"
	DegreeThird  ConnectionDegree = "3rd"
	DegreeAll    ConnectionDegree = "all"
)

// Degrees expands the selector into numeric network distances.
// "all" (or empty) expands to all three degrees.
func (d ConnectionDegree) Degrees() []int {
	switch d {
	case DegreeFirst:
		return []int{1}
	case DegreeSecond:
		return []int{2}
	case DegreeThird:
		return []int{3}
	default:
		return []int{1, 2, 3}
	}
}

// Specific reports whether a single degree was requested (anything but "all").
func (d ConnectionDegree) Specific() bool {
	switch d {
	case DegreeFirst, DegreeSecond, DegreeThird:
		return true
	}
	return false
}

// Degree returns the single numeric degree for a specific selector, or 0.
func (d ConnectionDegree) Degree() int {
	if ds := d.Degrees(); len(ds) == 1 {
		return ds[0]
	}
	return 0
}

// ParseConnectionDegree normalizes user input like "2", "2nd" or "second".
func ParseConnectionDegree(s string) ConnectionDegree {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1st", "first":
		return DegreeFirst
	case "2", "2nd", "second":
		return DegreeSecond
	case "3", "3rd", "third":
		return DegreeThird
	default:
		return DegreeAll
	}
}

// SearchCriteria is the canonical, dialect-independent query. It is
// immutable input: the translator reads it but never mutates it.
type SearchCriteria struct {
	Keywords      string `json:"keywords,omitempty"`
	Title         string `json:"title,omitempty"`
	URL           string `json:"url,omitempty"`
	SavedSearchID string `json:"saved_search_id,omitempty"`

	// Named filters carry free text; ID resolution is the translator's job.
	Location string `json:"location,omitempty"`
	Company  string `json:"company,omitempty"`
	Industry string `json:"industry,omitempty"`
	School   string `json:"school,omitempty"`

	YearsOfExperience string `json:"years_of_experience,omitempty"`

	ConnectionDegree ConnectionDegree `json:"connection_degree,omitempty"`
	Category         Category         `json:"category,omitempty"`

	TargetCount int  `json:"target_count,omitempty"`
	MaxPages    int  `json:"max_pages,omitempty"`
	FetchAll    bool `json:"fetch_all,omitempty"`

	// CampaignName optionally overrides the derived batch name.
	CampaignName string `json:"campaign_name,omitempty"`
}

// HasKeywordSearch reports whether any keyword-search field is set.
func (c SearchCriteria) HasKeywordSearch() bool {
	return c.Keywords != "" || c.Title != "" || c.SavedSearchID != ""
}
