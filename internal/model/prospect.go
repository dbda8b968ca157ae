package model

import "time"

// CapabilityTier classifies a connected LinkedIn account by the search
// dialects it is entitled to use.
type CapabilityTier string

// Capability tiers, ordered by default selection priority.
const (
	TierSalesNavigator CapabilityTier = "sales_navigator"
	TierRecruiter      CapabilityTier = "recruiter"
	TierPremium        CapabilityTier = "premium"
	TierFree           CapabilityTier = "free"
)

// ConnectedAccount is a row from the workspace's connected-account
// registry. Accounts are a shared workspace resource: any member may
// search through any connected account.
type ConnectedAccount struct {
	ProviderAccountID string `json:"provider_account_id"`
	Name              string `json:"name"`
	UserID            string `json:"user_id"`
	Status            string `json:"status"`
}

// Account is a connected identity confirmed live at the provider, with
// its inferred capability tier.
type Account struct {
	ProviderAccountID string         `json:"provider_account_id"`
	Name              string         `json:"name"`
	Tier              CapabilityTier `json:"tier"`
}

// Prospect is the canonical, dialect-independent record produced by the
// pipeline. FirstName is always non-empty and ConnectionDegree is always
// in [1,3]; records violating either invariant are dropped upstream.
type Prospect struct {
	ID               string `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Title            string `json:"title,omitempty"`
	Company          string `json:"company,omitempty"`
	Industry         string `json:"industry,omitempty"`
	Location         string `json:"location,omitempty"`
	ProfileURL       string `json:"profile_url"`
	ConnectionDegree int    `json:"connection_degree"`
	ProviderID       string `json:"provider_id,omitempty"`
	PublicIdentifier string `json:"public_identifier,omitempty"`
	NeedsEnrichment  bool   `json:"needs_enrichment"`
	SourceDialect    string `json:"source_dialect"`
}

// FullName joins first and last name.
func (p Prospect) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// BatchStatus is the lifecycle state of a search batch.
type BatchStatus string

// Batch statuses. After creation the batch is owned by the approval
// subsystem, which moves it to completed.
const (
	BatchStatusActive    BatchStatus = "active"
	BatchStatusCompleted BatchStatus = "completed"
)

// SearchBatch is one search invocation's persisted group of candidate
// prospects awaiting downstream review.
type SearchBatch struct {
	ID            string      `json:"id"`
	BatchNumber   int         `json:"batch_number"`
	UserID        string      `json:"user_id"`
	WorkspaceID   string      `json:"workspace_id"`
	CampaignName  string      `json:"campaign_name"`
	Total         int         `json:"total_prospects"`
	PendingCount  int         `json:"pending_count"`
	ApprovedCount int         `json:"approved_count"`
	RejectedCount int         `json:"rejected_count"`
	Status        BatchStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}
