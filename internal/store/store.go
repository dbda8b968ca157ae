// Package store persists workspaces, connected accounts, prospects and
// search batches behind a backend-neutral interface.
package store

import (
	"context"

	"github.com/innovareai/sam-prospector/internal/model"
)

// BatchFilter specifies criteria for listing search batches.
type BatchFilter struct {
	WorkspaceID string            `json:"workspace_id,omitempty"`
	Status      model.BatchStatus `json:"status,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Offset      int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for the prospect pipeline.
type Store interface {
	// Workspaces and accounts
	WorkspaceName(ctx context.Context, workspaceID string) (string, error)
	ConnectedAccounts(ctx context.Context, userID, workspaceID string) ([]model.ConnectedAccount, error)

	// Prospect pools
	InsertProspects(ctx context.Context, workspaceID string, prospects []model.Prospect) (int64, error)
	OutreachProfileURLs(ctx context.Context, workspaceID string) ([]string, error)
	PendingProfileURLs(ctx context.Context, workspaceID string) ([]string, error)

	// Search batches
	MaxBatchNumber(ctx context.Context, userID, workspaceID string) (int, error)
	CountBatches(ctx context.Context, workspaceID string) (int, error)
	CreateBatch(ctx context.Context, batch *model.SearchBatch) error
	GetBatch(ctx context.Context, batchID string) (*model.SearchBatch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]model.SearchBatch, error)
	InsertApprovalRows(ctx context.Context, batchID string, prospects []model.Prospect) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
