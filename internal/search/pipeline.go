// Package search orchestrates one prospect search invocation end to
// end: account selection, dialect translation, pagination,
// normalization, deduplication and batch persistence.
package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/account"
	"github.com/innovareai/sam-prospector/internal/dedup"
	"github.com/innovareai/sam-prospector/internal/dialect"
	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/internal/normalize"
	"github.com/innovareai/sam-prospector/internal/paginate"
	"github.com/innovareai/sam-prospector/internal/session"
	"github.com/innovareai/sam-prospector/internal/store"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// Options tunes pipeline behavior.
type Options struct {
	// MaxPages is the hard page ceiling per invocation.
	MaxPages int
	// PageInterval is the pacing delay between pages.
	PageInterval time.Duration
	// Dialect carries per-dialect caps and lookup tuning.
	Dialect dialect.Config
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		MaxPages:     50,
		PageInterval: 200 * time.Millisecond,
		Dialect:      dialect.DefaultConfig(),
	}
}

// Pipeline runs prospect searches. Stages execute strictly sequentially
// within one invocation; concurrency only exists across invocations,
// which share no in-process state.
type Pipeline struct {
	accounts   *account.Resolver
	translator *dialect.Translator
	client     unipile.Client
	store      store.Store
	persister  *session.Persister
	opts       Options
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(accounts *account.Resolver, translator *dialect.Translator, client unipile.Client, st store.Store, persister *session.Persister, opts Options) *Pipeline {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.PageInterval <= 0 {
		opts.PageInterval = 200 * time.Millisecond
	}
	return &Pipeline{
		accounts:   accounts,
		translator: translator,
		client:     client,
		store:      st,
		persister:  persister,
		opts:       opts,
	}
}

// Run executes one search invocation. A returned error means nothing
// could be produced; a result with warnings is a success and callers
// must not treat the warnings as failures.
func (p *Pipeline) Run(ctx context.Context, req model.SearchRequest) (*model.SearchResult, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("user_id", req.UserID),
		zap.String("workspace_id", req.WorkspaceID),
	)

	acct, err := p.accounts.Resolve(ctx, req.UserID, req.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "search: resolve account")
	}
	d := dialect.For(acct.Tier)
	caps := p.opts.Dialect.CapsFor(d)
	log = log.With(zap.String("dialect", string(d)))

	payload, report, err := p.translator.Translate(ctx, *acct, req.Criteria)
	if err != nil {
		return nil, eris.Wrap(err, "search: translate criteria")
	}

	pageResult, err := paginate.Run(ctx, paginate.Config{
		TargetCount:  req.Criteria.TargetCount,
		MaxPages:     req.Criteria.MaxPages,
		HardMaxPages: p.opts.MaxPages,
		FetchAll:     req.Criteria.FetchAll,
		PerPageLimit: caps.PerPageLimit,
		TotalCap:     caps.TotalCap,
		Interval:     p.opts.PageInterval,
	}, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		return p.client.Search(ctx, acct.ProviderAccountID, payload, cursor, limit)
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: fetch pages")
	}

	prospects, stats := normalize.Records(pageResult.Items, normalize.Options{
		Dialect:         d,
		RequestedDegree: req.Criteria.ConnectionDegree,
	})
	totalFound := len(prospects)

	idx, err := dedup.BuildIndex(ctx, p.store, req.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "search: build dedup index")
	}
	fresh := idx.Filter(prospects)

	outcome, err := p.persister.Persist(ctx, req, fresh)
	if err != nil {
		return nil, eris.Wrap(err, "search: persist batch")
	}

	result := &model.SearchResult{
		Prospects:           fresh,
		Count:               len(fresh),
		TotalFound:          totalFound,
		TotalAvailable:      pageResult.TotalAvailable,
		PagesFetched:        pageResult.PagesFetched,
		PersistenceWarnings: outcome.Warnings,
		EnrichmentTriggered: outcome.EnrichmentTriggered,
		DataQuality: model.DataQuality{
			NeedsEnrichmentCount: stats.NeedsEnrichment,
			Warnings:             append(report.Warnings, pageResult.Warnings...),
			UnsupportedCriteria:  report.UnsupportedCriteria,
		},
	}
	if outcome.Batch != nil {
		result.BatchID = outcome.Batch.ID
	}

	log.Info("search complete",
		zap.Int("raw_items", len(pageResult.Items)),
		zap.Int("normalized", totalFound),
		zap.Int("new", len(fresh)),
		zap.Int("duplicates", totalFound-len(fresh)),
		zap.Int("pages", pageResult.PagesFetched),
		zap.String("exit_reason", string(pageResult.Reason)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}
