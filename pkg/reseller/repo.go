package reseller

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/db"
)

// Repo provides database operations for resellers.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a reseller Repo backed by the given database connection.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const resellerColumns = `id, code, name, active, created_at, updated_at`

func scanRow(row pgx.Row) (Reseller, error) {
	var r Reseller
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanRows(rows pgx.Rows) ([]Reseller, error) {
	defer rows.Close()
	var items []Reseller
	for rows.Next() {
		var r Reseller
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning reseller row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reseller rows: %w", err)
	}
	return items, nil
}

// Get returns a single reseller by ID.
func (repo *Repo) Get(ctx context.Context, id uuid.UUID) (Reseller, error) {
	query := `SELECT ` + resellerColumns + ` FROM resellers WHERE id = $1`
	r, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Reseller{}, apperr.NotFoundf("reseller %s not found", id)
		}
		return Reseller{}, fmt.Errorf("getting reseller: %w", err)
	}
	return r, nil
}

// Create inserts a new reseller. Code is expected to already be normalized
// (upper-case) by the caller.
func (repo *Repo) Create(ctx context.Context, p CreateParams) (Reseller, error) {
	query := `INSERT INTO resellers (code, name, active) VALUES ($1, $2, true)
		RETURNING ` + resellerColumns
	r, err := scanRow(repo.dbtx.QueryRow(ctx, query, p.Code, p.Name))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Reseller{}, apperr.Conflictf("reseller code %s already exists", p.Code)
		}
		return Reseller{}, fmt.Errorf("creating reseller: %w", err)
	}
	return r, nil
}

// List returns all resellers, newest-first. Unlike tenant/store lists, this
// is never scope-filtered: only OWNER sessions can reach the list-resellers
// endpoint (a RESELLER session's scope resolves to itself, which it fetches
// via Get, not List).
func (repo *Repo) List(ctx context.Context) ([]Reseller, error) {
	query := `SELECT ` + resellerColumns + ` FROM resellers ORDER BY created_at DESC`
	rows, err := repo.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing resellers: %w", err)
	}
	return scanRows(rows)
}
