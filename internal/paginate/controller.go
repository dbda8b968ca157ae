// Package paginate drives the paginated fetch loop against the provider,
// tolerating partial failure and quota signals without losing pages that
// were already fetched.
package paginate

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// ExitReason names the stop condition that ended the loop, so callers and
// tests can assert which one fired.
type ExitReason string

// Exit reasons, in evaluation order.
const (
	ReasonQuotaLimit ExitReason = "quota-limit"
	ReasonNoCursor   ExitReason = "no-cursor"
	ReasonCapReached ExitReason = "cap-reached"
	ReasonSinglePage ExitReason = "single-page"
	ReasonMaxPages   ExitReason = "max-pages"
	ReasonPageError  ExitReason = "page-error"
)

// PageFunc fetches one page. An empty cursor requests the first page.
type PageFunc func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error)

// Config controls one pagination run.
type Config struct {
	// TargetCount is the caller's requested result count; 0 means "up to
	// the dialect cap".
	TargetCount int
	// MaxPages is the caller's page budget; the effective budget is
	// min(MaxPages, HardMaxPages).
	MaxPages int
	// HardMaxPages is the absolute page ceiling.
	HardMaxPages int
	// FetchAll enables multi-page fetching; false stops after one page.
	FetchAll bool
	// PerPageLimit and TotalCap are the dialect's limits.
	PerPageLimit int
	TotalCap     int
	// Interval is the pacing delay between successive pages.
	Interval time.Duration
}

// EffectiveMax returns the result cap for the run: the target count
// clamped to the dialect's total cap.
func (c Config) EffectiveMax() int {
	if c.TargetCount > 0 && c.TargetCount < c.TotalCap {
		return c.TargetCount
	}
	return c.TotalCap
}

// EffectiveMaxPages returns the page budget for the run.
func (c Config) EffectiveMaxPages() int {
	hard := c.HardMaxPages
	if hard <= 0 {
		hard = 50
	}
	if c.MaxPages > 0 && c.MaxPages < hard {
		return c.MaxPages
	}
	return hard
}

// Result is the accumulated outcome of a pagination run.
type Result struct {
	Items          []unipile.SearchItem
	PagesFetched   int
	TotalAvailable int
	Reason         ExitReason
	Warnings       []string
}

// Run executes the fetch loop. A failure on the very first page is fatal;
// any later failure stops the loop with the pages fetched so far intact.
func Run(ctx context.Context, cfg Config, fetch PageFunc) (*Result, error) {
	log := zap.L().With(zap.Int("target", cfg.TargetCount))
	maxResults := cfg.EffectiveMax()
	maxPages := cfg.EffectiveMaxPages()

	limit := cfg.PerPageLimit
	if maxResults < limit {
		limit = maxResults
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	result := &Result{}
	cursor := ""

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "paginate: wait for page slot")
		}

		resp, err := fetch(ctx, cursor, limit)
		if err != nil {
			// Nothing fetched yet: the whole invocation fails.
			if result.PagesFetched == 0 {
				return nil, eris.Wrap(err, "paginate: first page")
			}
			if eris.Is(err, unipile.ErrUsageLimit) {
				result.Reason = ReasonQuotaLimit
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("provider usage limit reached after %d pages; returning partial results", result.PagesFetched))
			} else {
				result.Reason = ReasonPageError
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("page %d failed (%s); returning %d results fetched so far", result.PagesFetched+1, err, len(result.Items)))
			}
			log.Warn("pagination stopped early", zap.String("reason", string(result.Reason)), zap.Error(err))
			return result, nil
		}

		result.Items = append(result.Items, resp.Items...)
		result.PagesFetched++
		if total := resp.TotalAvailable(); total > 0 {
			result.TotalAvailable = total
		}
		cursor = resp.NextPageCursor()

		log.Debug("page fetched",
			zap.Int("page", result.PagesFetched),
			zap.Int("items", len(resp.Items)),
			zap.Int("accumulated", len(result.Items)),
		)

		switch {
		case cursor == "" || len(resp.Items) == 0:
			// The final page can simultaneously exhaust the cursor and
			// overshoot the cap; the cap still wins.
			if len(result.Items) > maxResults {
				result.Items = result.Items[:maxResults]
			}
			result.Reason = ReasonNoCursor
			return result, nil
		case len(result.Items) >= maxResults:
			result.Items = result.Items[:maxResults]
			result.Reason = ReasonCapReached
			return result, nil
		case !cfg.FetchAll:
			result.Reason = ReasonSinglePage
			return result, nil
		case result.PagesFetched >= maxPages:
			result.Reason = ReasonMaxPages
			return result, nil
		}
	}
}
