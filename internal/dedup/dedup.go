// Package dedup filters prospects that the workspace has already seen,
// either committed to active outreach or sitting in pending approval.
package dedup

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/model"
)

// Pools exposes the two profile-URL sources an index is built from.
type Pools interface {
	OutreachProfileURLs(ctx context.Context, workspaceID string) ([]string, error)
	PendingProfileURLs(ctx context.Context, workspaceID string) ([]string, error)
}

// Index is a case-insensitive set of profile URLs already present in the
// workspace. It is rebuilt per invocation and never persisted.
type Index struct {
	seen map[string]struct{}
}

// BuildIndex loads both pools for the workspace and merges them.
func BuildIndex(ctx context.Context, pools Pools, workspaceID string) (*Index, error) {
	outreach, err := pools.OutreachProfileURLs(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "dedup: load outreach profile urls")
	}
	pending, err := pools.PendingProfileURLs(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "dedup: load pending profile urls")
	}

	idx := &Index{seen: make(map[string]struct{}, len(outreach)+len(pending))}
	idx.add(outreach)
	idx.add(pending)

	zap.L().Debug("dedup index built",
		zap.String("workspace_id", workspaceID),
		zap.Int("outreach", len(outreach)),
		zap.Int("pending", len(pending)),
		zap.Int("distinct", len(idx.seen)),
	)
	return idx, nil
}

func (i *Index) add(urls []string) {
	for _, u := range urls {
		if k := canonical(u); k != "" {
			i.seen[k] = struct{}{}
		}
	}
}

// Contains reports whether the profile URL is already known.
func (i *Index) Contains(profileURL string) bool {
	_, ok := i.seen[canonical(profileURL)]
	return ok
}

// Len returns the number of distinct known URLs.
func (i *Index) Len() int {
	return len(i.seen)
}

// Filter returns the prospects not present in the index, preserving
// order.
func (i *Index) Filter(prospects []model.Prospect) []model.Prospect {
	out := make([]model.Prospect, 0, len(prospects))
	for _, p := range prospects {
		if i.Contains(p.ProfileURL) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func canonical(url string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(url, "/")))
}
