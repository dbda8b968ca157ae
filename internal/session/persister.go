// Package session persists one search invocation's surviving prospects
// as a reviewable batch.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/enrich"
	"github.com/innovareai/sam-prospector/internal/model"
)

// Store is the persistence surface the persister needs.
type Store interface {
	WorkspaceName(ctx context.Context, workspaceID string) (string, error)
	InsertProspects(ctx context.Context, workspaceID string, prospects []model.Prospect) (int64, error)
	MaxBatchNumber(ctx context.Context, userID, workspaceID string) (int, error)
	CountBatches(ctx context.Context, workspaceID string) (int, error)
	CreateBatch(ctx context.Context, batch *model.SearchBatch) error
	InsertApprovalRows(ctx context.Context, batchID string, prospects []model.Prospect) error
}

// Outcome is what persisting a batch produced. Warnings carry the
// non-fatal failures; only batch creation itself can fail the run.
type Outcome struct {
	Batch               *model.SearchBatch
	Warnings            []string
	EnrichmentTriggered bool
}

// Persister writes search results through the store and kicks off
// enrichment for batches that need it.
type Persister struct {
	store   Store
	trigger enrich.Trigger
	now     func() time.Time
}

// NewPersister creates a Persister. The trigger may be nil when
// enrichment is not configured.
func NewPersister(store Store, trigger enrich.Trigger) *Persister {
	return &Persister{store: store, trigger: trigger, now: time.Now}
}

// Persist creates the batch for one search's surviving prospects. With
// zero prospects no batch is created and a nil-batch outcome is
// returned.
func (p *Persister) Persist(ctx context.Context, req model.SearchRequest, prospects []model.Prospect) (*Outcome, error) {
	if len(prospects) == 0 {
		return &Outcome{}, nil
	}

	log := zap.L().With(
		zap.String("user_id", req.UserID),
		zap.String("workspace_id", req.WorkspaceID),
	)
	out := &Outcome{}

	// General prospect store first, best effort. A failure here loses
	// nothing the caller needs: the approval rows are the reviewable
	// copy.
	if _, err := p.store.InsertProspects(ctx, req.WorkspaceID, prospects); err != nil {
		log.Warn("prospect store insert failed", zap.Error(err))
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("prospect store insert failed: %s", err))
	}

	maxBatch, err := p.store.MaxBatchNumber(ctx, req.UserID, req.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "session: next batch number")
	}

	workspaceName, err := p.store.WorkspaceName(ctx, req.WorkspaceID)
	if err != nil {
		log.Warn("workspace name lookup failed", zap.Error(err))
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("workspace name lookup failed: %s", err))
	}

	count, err := p.store.CountBatches(ctx, req.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "session: count batches")
	}

	batch := &model.SearchBatch{
		ID:           uuid.NewString(),
		BatchNumber:  maxBatch + 1,
		UserID:       req.UserID,
		WorkspaceID:  req.WorkspaceID,
		CampaignName: CampaignName(p.now(), workspaceName, req.Criteria.CampaignName, count),
		Total:        len(prospects),
		PendingCount: len(prospects),
		Status:       model.BatchStatusActive,
		CreatedAt:    p.now(),
	}

	// No batch means nothing downstream can review the prospects, so
	// this failure is fatal for the invocation.
	if err := p.store.CreateBatch(ctx, batch); err != nil {
		return nil, eris.Wrap(err, "session: create batch")
	}
	out.Batch = batch
	log.Info("batch created",
		zap.String("batch_id", batch.ID),
		zap.Int("batch_number", batch.BatchNumber),
		zap.String("campaign_name", batch.CampaignName),
		zap.Int("prospects", batch.Total),
	)

	if err := p.store.InsertApprovalRows(ctx, batch.ID, prospects); err != nil {
		log.Warn("approval row insert failed", zap.String("batch_id", batch.ID), zap.Error(err))
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("approval row insert failed: %s", err))
	}

	if p.trigger != nil && needsEnrichment(prospects) {
		p.trigger.Dispatch(batch.ID)
		out.EnrichmentTriggered = true
	}

	return out, nil
}

func needsEnrichment(prospects []model.Prospect) bool {
	for _, p := range prospects {
		if p.NeedsEnrichment {
			return true
		}
	}
	return false
}
