package dialect

import (
	"encoding/json"

	"github.com/innovareai/sam-prospector/internal/model"
)

// Payload is the provider request body for exactly one dialect: a tagged
// variant whose JSON shape depends on the Dialect discriminant. The same
// logical filter is encoded differently per dialect, so encoding lives in
// one MarshalJSON rather than being spread across callers.
type Payload struct {
	Dialect  Dialect
	Category model.Category

	// Exactly one of SavedSearchID, Keywords or URL drives the search,
	// chosen by the translator in that priority order.
	SavedSearchID string
	Keywords      string
	URL           string

	// Resolved named-filter IDs. Always empty on classic.
	LocationIDs []string
	CompanyIDs  []string
	IndustryIDs []string
	SchoolIDs   []string

	Degrees    []int
	Experience *ExperienceRange
}

// idInclude is the sales_navigator filter shape: {"include": [...]}.
type idInclude struct {
	Include []string `json:"include"`
}

// idObject is the recruiter filter shape: [{"id": ...}, ...].
type idObject struct {
	ID string `json:"id"`
}

// MarshalJSON encodes the payload in its dialect's wire shape.
func (p Payload) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"api":      string(p.Dialect),
		"category": string(p.Category),
	}

	switch {
	case p.SavedSearchID != "":
		body["saved_search_id"] = p.SavedSearchID
	case p.Keywords != "":
		body["keywords"] = p.Keywords
	case p.URL != "":
		body["url"] = p.URL
	}

	switch p.Dialect {
	case Classic:
		// Classic carries no ID-resolved filters; named filters were
		// already folded into keywords by the translator.
		if len(p.Degrees) > 0 {
			codes := make([]string, 0, len(p.Degrees))
			for _, d := range p.Degrees {
				if c, ok := classicDegreeCodes[d]; ok {
					codes = append(codes, c)
				}
			}
			body["network_distance"] = codes
		}

	case SalesNavigator:
		putInclude(body, "location", p.LocationIDs)
		putInclude(body, "company", p.CompanyIDs)
		putInclude(body, "industry", p.IndustryIDs)
		putInclude(body, "school", p.SchoolIDs)
		if len(p.Degrees) > 0 {
			body["network_distance"] = p.Degrees
		}
		if p.Experience != nil {
			tenure := map[string]any{"min": p.Experience.Min}
			if p.Experience.Max != nil {
				tenure["max"] = *p.Experience.Max
			}
			body["tenure"] = []map[string]any{tenure}
		}

	case Recruiter:
		putObjects(body, "location", p.LocationIDs)
		putObjects(body, "company", p.CompanyIDs)
		putObjects(body, "industry", p.IndustryIDs)
		putObjects(body, "school", p.SchoolIDs)
		if len(p.Degrees) > 0 {
			body["network_distance"] = p.Degrees
		}
		if p.Experience != nil {
			yoe := map[string]any{"min": p.Experience.Min}
			if p.Experience.Max != nil {
				yoe["max"] = *p.Experience.Max
			}
			body["years_of_experience"] = yoe
		}
	}

	return json.Marshal(body)
}

func putInclude(body map[string]any, key string, ids []string) {
	if len(ids) > 0 {
		body[key] = idInclude{Include: ids}
	}
}

func putObjects(body map[string]any, key string, ids []string) {
	if len(ids) == 0 {
		return
	}
	objs := make([]idObject, 0, len(ids))
	for _, id := range ids {
		objs = append(objs, idObject{ID: id})
	}
	body[key] = objs
}
