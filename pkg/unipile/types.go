package unipile

// AccountInfo is a connected account as reported by GET /api/v1/accounts.
type AccountInfo struct {
	ID               string           `json:"id"`
	Type             string           `json:"type"`
	Name             string           `json:"name"`
	ConnectionParams ConnectionParams `json:"connection_params"`
}

// ConnectionParams carries provider-side connection metadata.
type ConnectionParams struct {
	IM IMParams `json:"im"`
}

// IMParams holds LinkedIn-specific connection metadata. Feature strings
// are lowercase in the Unipile API ("sales_navigator", not "SALES_NAVIGATOR").
type IMParams struct {
	Premium         bool     `json:"premium"`
	PremiumFeatures []string `json:"premiumFeatures"`
}

// HasFeature reports whether the account advertises the given premium feature.
func (a AccountInfo) HasFeature(feature string) bool {
	for _, f := range a.ConnectionParams.IM.PremiumFeatures {
		if f == feature {
			return true
		}
	}
	return false
}

// AccountList is the envelope for GET /api/v1/accounts. The API has
// returned both a bare array and an {items: []} object; both are handled.
type AccountList struct {
	Items []AccountInfo `json:"items"`
}

// CurrentPosition is a structured current-role entry on a person result.
// Only the sales_navigator and recruiter dialects populate these.
type CurrentPosition struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Location string `json:"location"`
}

// SearchItem is one provider-native result row. Field availability varies
// by dialect: classic returns a combined display name and headline only,
// while sales_navigator/recruiter return split names and positions.
type SearchItem struct {
	ID               string `json:"id"`
	PublicIdentifier string `json:"public_identifier"`

	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Headline         string            `json:"headline"`
	CurrentPositions []CurrentPosition `json:"current_positions"`

	Industry  string `json:"industry"`
	Location  string `json:"location"`
	GeoRegion string `json:"geo_region"`

	ProfileURL       string `json:"profile_url"`
	PublicProfileURL string `json:"public_profile_url"`

	// Connection-degree encodings, in the priority order the normalizer
	// consults them: numeric/string distance code, single-letter network
	// code, generic distance.
	NetworkDistance  any    `json:"network_distance,omitempty"`
	ConnectionDegree string `json:"connection_degree,omitempty"`
	Distance         any    `json:"distance,omitempty"`
}

// Paging is the nested pagination block on search responses.
type Paging struct {
	Cursor     string `json:"cursor,omitempty"`
	TotalCount int    `json:"total_count,omitempty"`
	PageCount  int    `json:"page_count,omitempty"`
}

// SearchResponse is the response from POST /api/v1/linkedin/search.
// The cursor may appear at the top level or nested under paging.
type SearchResponse struct {
	Items      []SearchItem `json:"items"`
	Cursor     string       `json:"cursor,omitempty"`
	NextCursor string       `json:"next_cursor,omitempty"`
	Paging     Paging       `json:"paging,omitempty"`
}

// NextPageCursor returns the cursor for the next page, wherever the
// provider put it, or "" when pagination is exhausted.
func (r *SearchResponse) NextPageCursor() string {
	if r.Cursor != "" {
		return r.Cursor
	}
	if r.NextCursor != "" {
		return r.NextCursor
	}
	return r.Paging.Cursor
}

// TotalAvailable returns the provider-reported total result count, if any.
func (r *SearchResponse) TotalAvailable() int {
	return r.Paging.TotalCount
}

// ParameterType selects a named-filter lookup domain.
type ParameterType string

// Parameter lookup types for GET /api/v1/linkedin/search/parameters.
const (
	ParamLocation ParameterType = "LOCATION"
	ParamCompany  ParameterType = "COMPANY"
	ParamIndustry ParameterType = "INDUSTRY"
	ParamSchool   ParameterType = "SCHOOL"
)

// Parameter is one lookup match. Depending on tier the identifier arrives
// as id, urn or value.
type Parameter struct {
	ID    string `json:"id"`
	URN   string `json:"urn"`
	Value string `json:"value"`
	Title string `json:"title"`
}

// Identifier returns the usable opaque ID for the match, preferring id.
func (p Parameter) Identifier() string {
	if p.ID != "" {
		return p.ID
	}
	if p.URN != "" {
		return p.URN
	}
	return p.Value
}

// ParameterResponse is the envelope for parameter lookups.
type ParameterResponse struct {
	Items []Parameter `json:"items"`
}
