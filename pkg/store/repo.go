package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/db"
)

// Repo provides database operations for stores.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a store Repo backed by the given database connection.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const storeColumns = `id, code, name, timezone, status, edge_base_url, tenant_id, created_at, updated_at`

const storeColumnsAliasedS = `s.id, s.code, s.name, s.timezone, s.status, s.edge_base_url, s.tenant_id, s.created_at, s.updated_at`

func scanRow(row pgx.Row) (Store, error) {
	var s Store
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Timezone, &s.Status, &s.EdgeBaseURL, &s.TenantID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanRows(rows pgx.Rows) ([]Store, error) {
	defer rows.Close()
	var items []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Timezone, &s.Status, &s.EdgeBaseURL, &s.TenantID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning store row: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating store rows: %w", err)
	}
	return items, nil
}

// Get returns a single store by ID.
func (repo *Repo) Get(ctx context.Context, id uuid.UUID) (Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`
	s, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Store{}, apperr.NotFoundf("store %s not found", id)
		}
		return Store{}, fmt.Errorf("getting store: %w", err)
	}
	return s, nil
}

// Create inserts a new store.
func (repo *Repo) Create(ctx context.Context, p CreateParams) (Store, error) {
	query := `INSERT INTO stores (code, name, timezone, status, edge_base_url, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + storeColumns
	s, err := scanRow(repo.dbtx.QueryRow(ctx, query, p.Code, p.Name, p.Timezone, StatusActive, p.EdgeBaseURL, p.TenantID))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Store{}, apperr.Conflictf("store code %s already exists", p.Code)
		}
		return Store{}, fmt.Errorf("creating store: %w", err)
	}
	return s, nil
}

// SetEdgeBaseURL overwrites a store's recorded edge base URL, used after a
// successful onsite claim.
func (repo *Repo) SetEdgeBaseURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := repo.dbtx.Exec(ctx, `UPDATE stores SET edge_base_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("updating store edge base url: %w", err)
	}
	return nil
}

// List returns stores matching the filter, newest-first.
func (repo *Repo) List(ctx context.Context, f ListFilter) ([]Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE 1=1`
	var args []any
	if f.TenantID != nil {
		args = append(args, *f.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := repo.dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return scanRows(rows)
}

// ListForScope applies a ScopeFilter to a store listing. RESELLER scope joins
// through tenants since stores don't carry a reseller column directly;
// TENANT scope is a plain tenant_id filter.
func (repo *Repo) ListForScope(ctx context.Context, scope auth.ScopeFilter, status *string) ([]Store, error) {
	switch scope.Kind {
	case auth.ScopeReseller:
		query := `SELECT ` + storeColumnsAliasedS + ` FROM stores s
			JOIN tenants t ON t.id = s.tenant_id
			WHERE t.reseller_id = $1`
		args := []any{scope.ResellerID}
		if status != nil {
			args = append(args, *status)
			query += fmt.Sprintf(" AND s.status = $%d", len(args))
		}
		query += ` ORDER BY s.created_at DESC`
		rows, err := repo.dbtx.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("listing stores for reseller: %w", err)
		}
		return scanRows(rows)
	case auth.ScopeTenant:
		id := scope.TenantID
		return repo.List(ctx, ListFilter{TenantID: &id, Status: status})
	default:
		return repo.List(ctx, ListFilter{Status: status})
	}
}

