package model

// SearchRequest is the caller-facing input for one search invocation.
type SearchRequest struct {
	UserID      string         `json:"user_id"`
	WorkspaceID string         `json:"workspace_id"`
	Criteria    SearchCriteria `json:"search_criteria"`
}

// DataQuality summarizes caveats about the returned prospect set.
type DataQuality struct {
	NeedsEnrichmentCount int      `json:"needs_enrichment_count"`
	Warnings             []string `json:"warnings,omitempty"`
	UnsupportedCriteria  []string `json:"unsupported_criteria,omitempty"`
}

// SearchResult is the caller-facing output of one search invocation.
// A non-nil result with warnings is a success; callers must not treat
// warnings as failures.
type SearchResult struct {
	Prospects           []Prospect  `json:"prospects"`
	Count               int         `json:"count"`
	TotalFound          int         `json:"total_found"`
	TotalAvailable      int         `json:"total_available"`
	PagesFetched        int         `json:"pages_fetched"`
	BatchID             string      `json:"batch_id,omitempty"`
	PersistenceWarnings []string    `json:"persistence_warnings,omitempty"`
	EnrichmentTriggered bool        `json:"enrichment_triggered"`
	DataQuality         DataQuality `json:"data_quality"`
}
