package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/innovareai/sam-prospector/internal/db"
	"github.com/innovareai/sam-prospector/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_workspace_name": `SELECT name FROM workspaces WHERE id = $1`,
	"connected_accounts": `SELECT account_id, account_name, user_id, status FROM workspace_accounts WHERE workspace_id = $1 AND status = 'connected'`,
	"outreach_urls":      `SELECT linkedin_url FROM campaign_prospects WHERE workspace_id = $1 AND linkedin_url IS NOT NULL`,
	"pending_urls":       `SELECT d.contact->>'profile_url' FROM prospect_approval_data d JOIN prospect_approval_sessions s ON s.id = d.session_id WHERE s.workspace_id = $1 AND d.status = 'pending'`,
	"max_batch_number":   `SELECT COALESCE(MAX(batch_number), 0) FROM prospect_approval_sessions WHERE user_id = $1 AND workspace_id = $2`,
	"count_batches":      `SELECT COUNT(*) FROM prospect_approval_sessions WHERE workspace_id = $1`,
	"insert_batch":       `INSERT INTO prospect_approval_sessions (id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_batch":          `SELECT id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at FROM prospect_approval_sessions WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS workspaces (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workspace_accounts (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	user_id      TEXT NOT NULL,
	account_id   TEXT NOT NULL,
	account_name TEXT,
	status       TEXT NOT NULL DEFAULT 'connected',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, account_id)
);

CREATE TABLE IF NOT EXISTS workspace_prospects (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id      TEXT NOT NULL REFERENCES workspaces(id),
	first_name        TEXT NOT NULL,
	last_name         TEXT,
	title             TEXT,
	company           TEXT,
	industry          TEXT,
	location          TEXT,
	linkedin_url      TEXT NOT NULL,
	connection_degree INTEGER,
	provider_id       TEXT,
	public_identifier TEXT,
	needs_enrichment  BOOLEAN NOT NULL DEFAULT false,
	source_dialect    TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_prospects (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	campaign_id  TEXT,
	linkedin_url TEXT,
	status       TEXT NOT NULL DEFAULT 'active',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prospect_approval_sessions (
	id              TEXT PRIMARY KEY,
	batch_number    INTEGER NOT NULL,
	user_id         TEXT NOT NULL,
	workspace_id    TEXT NOT NULL REFERENCES workspaces(id),
	campaign_name   TEXT NOT NULL,
	total_prospects INTEGER NOT NULL DEFAULT 0,
	pending_count   INTEGER NOT NULL DEFAULT 0,
	approved_count  INTEGER NOT NULL DEFAULT 0,
	rejected_count  INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'active',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prospect_approval_data (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id TEXT NOT NULL REFERENCES prospect_approval_sessions(id),
	contact    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_workspace_accounts_workspace ON workspace_accounts(workspace_id);
CREATE INDEX IF NOT EXISTS idx_workspace_prospects_workspace ON workspace_prospects(workspace_id);
CREATE INDEX IF NOT EXISTS idx_workspace_prospects_url ON workspace_prospects(linkedin_url);
CREATE INDEX IF NOT EXISTS idx_campaign_prospects_workspace ON campaign_prospects(workspace_id);
CREATE INDEX IF NOT EXISTS idx_approval_sessions_workspace ON prospect_approval_sessions(workspace_id);
CREATE INDEX IF NOT EXISTS idx_approval_sessions_user_ws ON prospect_approval_sessions(user_id, workspace_id);
CREATE INDEX IF NOT EXISTS idx_approval_data_session ON prospect_approval_data(session_id);
CREATE INDEX IF NOT EXISTS idx_approval_data_status ON prospect_approval_data(status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) WorkspaceName(ctx context.Context, workspaceID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT name FROM workspaces WHERE id = $1`,
		workspaceID,
	).Scan(&name)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: workspace name %s", workspaceID)
	}
	return name, nil
}

func (s *PostgresStore) ConnectedAccounts(ctx context.Context, userID, workspaceID string) ([]model.ConnectedAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT account_id, account_name, user_id, status FROM workspace_accounts
		 WHERE workspace_id = $1 AND status = 'connected'`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connected accounts")
	}
	defer rows.Close()

	var accounts []model.ConnectedAccount
	for rows.Next() {
		var a model.ConnectedAccount
		var name *string
		if err := rows.Scan(&a.ProviderAccountID, &name, &a.UserID, &a.Status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		if name != nil {
			a.Name = *name
		}
		accounts = append(accounts, a)
	}
	return accounts, eris.Wrap(rows.Err(), "postgres: connected accounts iterate")
}

var prospectColumns = []string{
	"id", "workspace_id", "first_name", "last_name", "title", "company",
	"industry", "location", "linkedin_url", "connection_degree",
	"provider_id", "public_identifier", "needs_enrichment",
	"source_dialect", "created_at",
}

func (s *PostgresStore) InsertProspects(ctx context.Context, workspaceID string, prospects []model.Prospect) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(prospects))
	for _, p := range prospects {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		rows = append(rows, []any{
			id, workspaceID, p.FirstName, p.LastName, p.Title, p.Company,
			p.Industry, p.Location, p.ProfileURL, p.ConnectionDegree,
			p.ProviderID, p.PublicIdentifier, p.NeedsEnrichment,
			p.SourceDialect, now,
		})
	}
	return db.CopyFrom(ctx, s.pool, "workspace_prospects", prospectColumns, rows)
}

func (s *PostgresStore) OutreachProfileURLs(ctx context.Context, workspaceID string) ([]string, error) {
	return s.queryURLs(ctx,
		`SELECT linkedin_url FROM campaign_prospects
		 WHERE workspace_id = $1 AND linkedin_url IS NOT NULL`,
		workspaceID, "outreach urls")
}

func (s *PostgresStore) PendingProfileURLs(ctx context.Context, workspaceID string) ([]string, error) {
	return s.queryURLs(ctx,
		`SELECT d.contact->>'profile_url' FROM prospect_approval_data d
		 JOIN prospect_approval_sessions s ON s.id = d.session_id
		 WHERE s.workspace_id = $1 AND d.status = 'pending'`,
		workspaceID, "pending urls")
}

func (s *PostgresStore) queryURLs(ctx context.Context, query, workspaceID, op string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u *string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", op)
		}
		if u != nil && *u != "" {
			urls = append(urls, *u)
		}
	}
	return urls, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

func (s *PostgresStore) MaxBatchNumber(ctx context.Context, userID, workspaceID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(batch_number), 0) FROM prospect_approval_sessions
		 WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: max batch number")
}

func (s *PostgresStore) CountBatches(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prospect_approval_sessions WHERE workspace_id = $1`,
		workspaceID,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count batches")
}

func (s *PostgresStore) CreateBatch(ctx context.Context, batch *model.SearchBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO prospect_approval_sessions
		 (id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		batch.ID, batch.BatchNumber, batch.UserID, batch.WorkspaceID,
		batch.CampaignName, batch.Total, batch.PendingCount,
		batch.ApprovedCount, batch.RejectedCount, string(batch.Status),
		batch.CreatedAt,
	)
	return eris.Wrap(err, "postgres: create batch")
}

func (s *PostgresStore) GetBatch(ctx context.Context, batchID string) (*model.SearchBatch, error) {
	var b model.SearchBatch
	err := s.pool.QueryRow(ctx,
		`SELECT id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at
		 FROM prospect_approval_sessions WHERE id = $1`,
		batchID,
	).Scan(&b.ID, &b.BatchNumber, &b.UserID, &b.WorkspaceID, &b.CampaignName,
		&b.Total, &b.PendingCount, &b.ApprovedCount, &b.RejectedCount,
		&b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get batch %s", batchID)
	}
	return &b, nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.SearchBatch, error) {
	query := `SELECT id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at
	          FROM prospect_approval_sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.WorkspaceID != "" {
		query += fmt.Sprintf(` AND workspace_id = $%d`, argIdx)
		args = append(args, filter.WorkspaceID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var batches []model.SearchBatch
	for rows.Next() {
		var b model.SearchBatch
		if err := rows.Scan(&b.ID, &b.BatchNumber, &b.UserID, &b.WorkspaceID,
			&b.CampaignName, &b.Total, &b.PendingCount, &b.ApprovedCount,
			&b.RejectedCount, &b.Status, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch")
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "postgres: list batches iterate")
}

// approvalContact is the JSONB payload reviewers see; it carries the full
// prospect plus the joined display name.
type approvalContact struct {
	model.Prospect
	FullName string `json:"full_name"`
}

func (s *PostgresStore) InsertApprovalRows(ctx context.Context, batchID string, prospects []model.Prospect) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(prospects))
	for _, p := range prospects {
		contact, err := json.Marshal(approvalContact{Prospect: p, FullName: p.FullName()})
		if err != nil {
			return eris.Wrap(err, "postgres: marshal contact")
		}
		rows = append(rows, []any{uuid.New().String(), batchID, contact, "pending", now})
	}

	_, err := db.CopyFrom(ctx, s.pool, "prospect_approval_data",
		[]string{"id", "session_id", "contact", "status", "created_at"}, rows)
	return eris.Wrap(err, "postgres: insert approval rows")
}
