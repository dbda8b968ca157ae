// Package dialect translates canonical search criteria into the
// provider-specific request payload for one of the three structurally
// incompatible search dialects.
package dialect

import "github.com/innovareai/sam-prospector/internal/model"

// Dialect identifies one of the three provider request/response schemas.
type Dialect string

// Search dialects.
const (
	Classic        Dialect = "classic"
	SalesNavigator Dialect = "sales_navigator"
	Recruiter      Dialect = "recruiter"
)

// Caps holds per-dialect result limits.
type Caps struct {
	PerPageLimit int
	TotalCap     int
}

// Config carries the dialect limits and lookup knobs. Hoisted into a
// struct so tests can substitute alternate caps without shared state.
type Config struct {
	Caps          map[Dialect]Caps
	LookupMatches int
}

// DefaultConfig returns the production dialect limits: 100-per-page /
// 2500 total on sales_navigator and recruiter, 50 / 1000 on classic.
func DefaultConfig() Config {
	return Config{
		Caps: map[Dialect]Caps{
			Classic:        {PerPageLimit: 50, TotalCap: 1000},
			SalesNavigator: {PerPageLimit: 100, TotalCap: 2500},
			Recruiter:      {PerPageLimit: 100, TotalCap: 2500},
		},
		LookupMatches: 3,
	}
}

// CapsFor returns the limits for a dialect, defaulting to classic's.
func (c Config) CapsFor(d Dialect) Caps {
	if caps, ok := c.Caps[d]; ok {
		return caps
	}
	return Caps{PerPageLimit: 50, TotalCap: 1000}
}

// For maps a capability tier to the dialect it is entitled to. Anything
// below sales_navigator/recruiter gets classic: ID lookups are unreliable
// at those tiers, so named filters are folded into keywords instead.
func For(tier model.CapabilityTier) Dialect {
	switch tier {
	case model.TierSalesNavigator:
		return SalesNavigator
	case model.TierRecruiter:
		return Recruiter
	default:
		return Classic
	}
}

// classicDegreeCodes maps numeric degrees to classic's single-letter
// network codes.
var classicDegreeCodes = map[int]string{1: "F", 2: "S", 3: "O"}
