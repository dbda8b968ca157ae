// Package account selects the LinkedIn account a search runs under and
// determines its capability tier.
package account

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/internal/resilience"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// ErrNoAccountConnected is returned when the workspace has no live
// LinkedIn account at the provider.
var ErrNoAccountConnected = eris.New("account: no connected linkedin account")

// Directory lists the accounts a workspace has connected.
type Directory interface {
	ConnectedAccounts(ctx context.Context, userID, workspaceID string) ([]model.ConnectedAccount, error)
}

// Resolver cross-checks stored account records against the provider and
// picks the most capable live account.
type Resolver struct {
	dir      Directory
	client   unipile.Client
	priority []model.CapabilityTier
}

// NewResolver creates a Resolver with the default tier priority.
func NewResolver(dir Directory, client unipile.Client) *Resolver {
	return &Resolver{
		dir:    dir,
		client: client,
		priority: []model.CapabilityTier{
			model.TierSalesNavigator,
			model.TierRecruiter,
			model.TierPremium,
			model.TierFree,
		},
	}
}

// Resolve returns the selected account and its tier. Stored accounts with
// no live counterpart at the provider are skipped, not errors.
func (r *Resolver) Resolve(ctx context.Context, userID, workspaceID string) (*model.Account, error) {
	log := zap.L().With(zap.String("user_id", userID), zap.String("workspace_id", workspaceID))

	stored, err := r.dir.ConnectedAccounts(ctx, userID, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "account: load connected accounts")
	}
	if len(stored) == 0 {
		return nil, ErrNoAccountConnected
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("unipile", "list_accounts")
	live, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]unipile.AccountInfo, error) {
		return r.client.ListAccounts(ctx)
	})
	if err != nil {
		return nil, eris.Wrap(err, "account: list provider accounts")
	}
	byID := make(map[string]unipile.AccountInfo, len(live))
	for _, a := range live {
		if strings.EqualFold(a.Type, "LINKEDIN") {
			byID[a.ID] = a
		}
	}

	var candidates []model.Account
	for _, s := range stored {
		info, ok := byID[s.ProviderAccountID]
		if !ok {
			// The listing can lag behind a fresh connection; confirm
			// against the account endpoint before writing it off.
			fetched, err := r.client.GetAccount(ctx, s.ProviderAccountID)
			if err != nil || fetched == nil || !strings.EqualFold(fetched.Type, "LINKEDIN") {
				log.Warn("stored account not live at provider, skipping",
					zap.String("provider_account_id", s.ProviderAccountID))
				continue
			}
			info = *fetched
		}
		name := s.Name
		if name == "" {
			name = info.Name
		}
		candidates = append(candidates, model.Account{
			ProviderAccountID: s.ProviderAccountID,
			Name:              name,
			Tier:              TierOf(info),
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoAccountConnected
	}

	// Strict priority: any sales navigator account beats any recruiter
	// account, and so on. Within a tier the first stored account wins.
	for _, tier := range r.priority {
		for _, c := range candidates {
			if c.Tier == tier {
				log.Info("account selected",
					zap.String("provider_account_id", c.ProviderAccountID),
					zap.String("tier", string(c.Tier)),
				)
				selected := c
				return &selected, nil
			}
		}
	}

	return nil, ErrNoAccountConnected
}

// TierOf maps the provider's premium feature flags to a capability tier.
func TierOf(info unipile.AccountInfo) model.CapabilityTier {
	switch {
	case info.HasFeature("sales_navigator"):
		return model.TierSalesNavigator
	case info.HasFeature("recruiter"):
		return model.TierRecruiter
	case info.ConnectionParams.IM.Premium || info.HasFeature("premium"):
		return model.TierPremium
	default:
		return model.TierFree
	}
}
