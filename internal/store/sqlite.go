package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/innovareai/sam-prospector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves local
// development and single-operator installs; Postgres is the production
// backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS workspaces (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS workspace_accounts (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	user_id      TEXT NOT NULL,
	account_id   TEXT NOT NULL,
	account_name TEXT,
	status       TEXT NOT NULL DEFAULT 'connected',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (workspace_id, account_id)
);

CREATE TABLE IF NOT EXISTS workspace_prospects (
	id                TEXT PRIMARY KEY,
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
	needs_enrichment  INTEGER NOT NULL DEFAULT 0,
	source_dialect    TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS campaign_prospects (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	campaign_id  TEXT,
	linkedin_url TEXT,
	status       TEXT NOT NULL DEFAULT 'active',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prospect_approval_data (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES prospect_approval_sessions(id),
	contact    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_workspace_accounts_workspace ON workspace_accounts(workspace_id);
CREATE INDEX IF NOT EXISTS idx_workspace_prospects_workspace ON workspace_prospects(workspace_id);
CREATE INDEX IF NOT EXISTS idx_campaign_prospects_workspace ON campaign_prospects(workspace_id);
CREATE INDEX IF NOT EXISTS idx_approval_sessions_workspace ON prospect_approval_sessions(workspace_id);
CREATE INDEX IF NOT EXISTS idx_approval_data_session ON prospect_approval_data(session_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) WorkspaceName(ctx context.Context, workspaceID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM workspaces WHERE id = ?`, workspaceID,
	).Scan(&name)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: workspace name %s", workspaceID)
	}
	return name, nil
}

func (s *SQLiteStore) ConnectedAccounts(ctx context.Context, userID, workspaceID string) ([]model.ConnectedAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, account_name, user_id, status FROM workspace_accounts
		 WHERE workspace_id = ? AND status = 'connected'`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: connected accounts")
	}
	defer rows.Close()

	var accounts []model.ConnectedAccount
	for rows.Next() {
		var a model.ConnectedAccount
		var name sql.NullString
		if err := rows.Scan(&a.ProviderAccountID, &name, &a.UserID, &a.Status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		a.Name = name.String
		accounts = append(accounts, a)
	}
	return accounts, eris.Wrap(rows.Err(), "sqlite: connected accounts iterate")
}

func (s *SQLiteStore) InsertProspects(ctx context.Context, workspaceID string, prospects []model.Prospect) (int64, error) {
	if len(prospects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert prospects")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO workspace_prospects
		 (id, workspace_id, first_name, last_name, title, company, industry, location, linkedin_url, connection_degree, provider_id, public_identifier, needs_enrichment, source_dialect, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert prospects")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, p := range prospects {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			id, workspaceID, p.FirstName, p.LastName, p.Title, p.Company,
			p.Industry, p.Location, p.ProfileURL, p.ConnectionDegree,
			p.ProviderID, p.PublicIdentifier, p.NeedsEnrichment,
			p.SourceDialect, now,
		); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert prospect")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert prospects")
	}
	return n, nil
}

func (s *SQLiteStore) OutreachProfileURLs(ctx context.Context, workspaceID string) ([]string, error) {
	return s.queryURLs(ctx,
		`SELECT linkedin_url FROM campaign_prospects
		 WHERE workspace_id = ? AND linkedin_url IS NOT NULL`,
		workspaceID, "outreach urls")
}

func (s *SQLiteStore) PendingProfileURLs(ctx context.Context, workspaceID string) ([]string, error) {
	return s.queryURLs(ctx,
		`SELECT json_extract(d.contact, '$.profile_url') FROM prospect_approval_data d
		 JOIN prospect_approval_sessions s ON s.id = d.session_id
		 WHERE s.workspace_id = ? AND d.status = 'pending'`,
		workspaceID, "pending urls")
}

func (s *SQLiteStore) queryURLs(ctx context.Context, query, workspaceID, op string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u sql.NullString
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", op)
		}
		if u.Valid && u.String != "" {
			urls = append(urls, u.String)
		}
	}
	return urls, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

func (s *SQLiteStore) MaxBatchNumber(ctx context.Context, userID, workspaceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(batch_number), 0) FROM prospect_approval_sessions
		 WHERE user_id = ? AND workspace_id = ?`,
		userID, workspaceID,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: max batch number")
}

func (s *SQLiteStore) CountBatches(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prospect_approval_sessions WHERE workspace_id = ?`,
		workspaceID,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count batches")
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, batch *model.SearchBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prospect_approval_sessions
		 (id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.BatchNumber, batch.UserID, batch.WorkspaceID,
		batch.CampaignName, batch.Total, batch.PendingCount,
		batch.ApprovedCount, batch.RejectedCount, string(batch.Status),
		batch.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: create batch")
}

func (s *SQLiteStore) GetBatch(ctx context.Context, batchID string) (*model.SearchBatch, error) {
	var b model.SearchBatch
	err := s.db.QueryRowContext(ctx,
		`SELECT id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at
		 FROM prospect_approval_sessions WHERE id = ?`,
		batchID,
	).Scan(&b.ID, &b.BatchNumber, &b.UserID, &b.WorkspaceID, &b.CampaignName,
		&b.Total, &b.PendingCount, &b.ApprovedCount, &b.RejectedCount,
		&b.Status, &b.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get batch %s", batchID)
	}
	return &b, nil
}

func (s *SQLiteStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.SearchBatch, error) {
	query := `SELECT id, batch_number, user_id, workspace_id, campaign_name, total_prospects, pending_count, approved_count, rejected_count, status, created_at
	          FROM prospect_approval_sessions WHERE true`
	args := []any{}

	if filter.WorkspaceID != "" {
		query += ` AND workspace_id = ?`
		args = append(args, filter.WorkspaceID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var batches []model.SearchBatch
	for rows.Next() {
		var b model.SearchBatch
		if err := rows.Scan(&b.ID, &b.BatchNumber, &b.UserID, &b.WorkspaceID,
			&b.CampaignName, &b.Total, &b.PendingCount, &b.ApprovedCount,
			&b.RejectedCount, &b.Status, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch")
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}

func (s *SQLiteStore) InsertApprovalRows(ctx context.Context, batchID string, prospects []model.Prospect) error {
	if len(prospects) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert approval rows")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO prospect_approval_data (id, session_id, contact, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert approval rows")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range prospects {
		contact, err := json.Marshal(approvalContact{Prospect: p, FullName: p.FullName()})
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal contact")
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), batchID, string(contact), "pending", now,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert approval row")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert approval rows")
}

// InsertWorkspace seeds a workspace row, used by local setups and tests.
func (s *SQLiteStore) InsertWorkspace(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		id, name,
	)
	return eris.Wrap(err, "sqlite: insert workspace")
}

// InsertConnectedAccount seeds an account row, used by local setups and tests.
func (s *SQLiteStore) InsertConnectedAccount(ctx context.Context, workspaceID, userID, accountID, accountName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspace_accounts (id, workspace_id, user_id, account_id, account_name, status)
		 VALUES (?, ?, ?, ?, ?, 'connected')
		 ON CONFLICT (workspace_id, account_id) DO UPDATE SET account_name = excluded.account_name, status = 'connected'`,
		uuid.New().String(), workspaceID, userID, accountID, accountName,
	)
	return eris.Wrap(err, "sqlite: insert connected account")
}
