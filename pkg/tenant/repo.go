package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/db"
)

// Repo provides database operations for tenants.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a tenant Repo backed by the given database connection.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const tenantColumns = `id, slug, name, active, reseller_id, created_at, updated_at`

func scanRow(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.ResellerID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanRows(rows pgx.Rows) ([]Tenant, error) {
	defer rows.Close()
	var items []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.ResellerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenant rows: %w", err)
	}
	return items, nil
}

// Get returns a single tenant by ID.
func (repo *Repo) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Tenant{}, apperr.NotFoundf("tenant %s not found", id)
		}
		return Tenant{}, fmt.Errorf("getting tenant: %w", err)
	}
	return t, nil
}

// Ref reduces a Tenant to the minimal shape the scope predicates need.
func Ref(t Tenant) auth.TenantRef {
	return auth.TenantRef{ID: t.ID, ResellerID: t.ResellerID}
}

// Create inserts a new tenant. Slug is expected to already be normalized
// (lower-case) by the caller.
func (repo *Repo) Create(ctx context.Context, p CreateParams) (Tenant, error) {
	query := `INSERT INTO tenants (slug, name, active, reseller_id) VALUES ($1, $2, true, $3)
		RETURNING ` + tenantColumns
	t, err := scanRow(repo.dbtx.QueryRow(ctx, query, p.Slug, p.Name, p.ResellerID))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Tenant{}, apperr.Conflictf("tenant slug %s already exists", p.Slug)
		}
		return Tenant{}, fmt.Errorf("creating tenant: %w", err)
	}
	return t, nil
}

// List returns tenants matching the filter, newest-first.
func (repo *Repo) List(ctx context.Context, f ListFilter) ([]Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []any
	if f.ResellerID != nil {
		args = append(args, *f.ResellerID)
		query += fmt.Sprintf(" WHERE reseller_id = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := repo.dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return scanRows(rows)
}

// ListForScope applies a ScopeFilter to a tenant listing: OWNER sees
// everything, RESELLER is forced to its own reseller, TENANT_ADMIN is
// forced to (and only ever sees) its own tenant.
func (repo *Repo) ListForScope(ctx context.Context, scope auth.ScopeFilter) ([]Tenant, error) {
	switch scope.Kind {
	case auth.ScopeReseller:
		id := scope.ResellerID
		return repo.List(ctx, ListFilter{ResellerID: &id})
	case auth.ScopeTenant:
		t, err := repo.Get(ctx, scope.TenantID)
		if err != nil {
			return nil, err
		}
		return []Tenant{t}, nil
	default:
		return repo.List(ctx, ListFilter{})
	}
}
