package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/db"
)

// Repo provides database operations for commands and their logs.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a command Repo backed by the given database connection.
// Pass a pgx.Tx for the multi-step transitions in service.go, or the pool
// directly for plain reads.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const commandColumns = `id, store_id, node_id, revision_id, domain, command_type, payload,
	status, attempts, applied_revision, error_code, error_detail, issued_at, acknowledged_at, created_by`

func scanRow(row pgx.Row) (Command, error) {
	var c Command
	err := row.Scan(&c.ID, &c.StoreID, &c.NodeID, &c.RevisionID, &c.Domain, &c.CommandType, &c.Payload,
		&c.Status, &c.Attempts, &c.AppliedRevision, &c.ErrorCode, &c.ErrorDetail, &c.IssuedAt, &c.AcknowledgedAt, &c.CreatedBy)
	return c, err
}

func scanRows(rows pgx.Rows) ([]Command, error) {
	defer rows.Close()
	var items []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.ID, &c.StoreID, &c.NodeID, &c.RevisionID, &c.Domain, &c.CommandType, &c.Payload,
			&c.Status, &c.Attempts, &c.AppliedRevision, &c.ErrorCode, &c.ErrorDetail, &c.IssuedAt, &c.AcknowledgedAt, &c.CreatedBy); err != nil {
			return nil, fmt.Errorf("scanning command row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command rows: %w", err)
	}
	return items, nil
}

// Get returns a single command by ID.
func (repo *Repo) Get(ctx context.Context, id uuid.UUID) (Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE id = $1`
	c, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Command{}, apperr.NotFoundf("command %s not found", id)
		}
		return Command{}, fmt.Errorf("getting command: %w", err)
	}
	return c, nil
}

// GetForUpdate locks a command row for the duration of the caller's
// transaction, so concurrent retry/cancel/ack calls serialize on it.
func (repo *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE id = $1 FOR UPDATE`
	c, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Command{}, apperr.NotFoundf("command %s not found", id)
		}
		return Command{}, fmt.Errorf("getting command for update: %w", err)
	}
	return c, nil
}

// Create inserts a new PENDING command.
func (repo *Repo) Create(ctx context.Context, p CreateParams) (Command, error) {
	query := `INSERT INTO commands (store_id, node_id, revision_id, domain, command_type, payload, status, attempts, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		RETURNING ` + commandColumns
	c, err := scanRow(repo.dbtx.QueryRow(ctx, query,
		p.StoreID, p.NodeID, p.RevisionID, p.Domain, p.CommandType, p.Payload, StatusPending, p.CreatedBy))
	if err != nil {
		return Command{}, fmt.Errorf("creating command: %w", err)
	}
	return c, nil
}

// Ack applies a node's acknowledgement: sets status, applied revision, error
// fields, increments attempts, and sets acknowledgedAt. This overwrites
// terminal fields unconditionally (last write wins), even on an
// already-terminal command.
func (repo *Repo) Ack(ctx context.Context, id uuid.UUID, p AckParams) (Command, error) {
	query := `UPDATE commands SET
		status = $2, applied_revision = $3, error_code = $4, error_detail = $5,
		attempts = attempts + 1, acknowledged_at = now()
		WHERE id = $1
		RETURNING ` + commandColumns
	c, err := scanRow(repo.dbtx.QueryRow(ctx, query, id, p.Status, p.AppliedRevision, p.ErrorCode, p.ErrorDetail))
	if err != nil {
		return Command{}, fmt.Errorf("acking command: %w", err)
	}
	return c, nil
}

// Retry resets a FAILED or ACKED command back to PENDING, clearing error and
// acknowledgedAt.
func (repo *Repo) Retry(ctx context.Context, id uuid.UUID) (Command, error) {
	query := `UPDATE commands SET
		status = $2, error_code = NULL, error_detail = NULL, acknowledged_at = NULL
		WHERE id = $1
		RETURNING ` + commandColumns
	c, err := scanRow(repo.dbtx.QueryRow(ctx, query, id, StatusPending))
	if err != nil {
		return Command{}, fmt.Errorf("retrying command: %w", err)
	}
	return c, nil
}

// Cancel transitions a PENDING command to FAILED with CANCELLED_BY_CLOUD.
func (repo *Repo) Cancel(ctx context.Context, id uuid.UUID) (Command, error) {
	errCode := ErrorCodeCancelledByCloud
	query := `UPDATE commands SET
		status = $2, error_code = $3, acknowledged_at = now()
		WHERE id = $1
		RETURNING ` + commandColumns
	c, err := scanRow(repo.dbtx.QueryRow(ctx, query, id, StatusFailed, errCode))
	if err != nil {
		return Command{}, fmt.Errorf("cancelling command: %w", err)
	}
	return c, nil
}

// CreateLog appends an (immutable) CommandLog entry.
func (repo *Repo) CreateLog(ctx context.Context, l Log) (Log, error) {
	query := `INSERT INTO command_logs (command_id, store_id, node_id, status, error_code, error_detail, output)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, command_id, store_id, node_id, status, error_code, error_detail, output, created_at`
	row := repo.dbtx.QueryRow(ctx, query, l.CommandID, l.StoreID, l.NodeID, l.Status, l.ErrorCode, l.ErrorDetail, l.Output)
	var out Log
	if err := row.Scan(&out.ID, &out.CommandID, &out.StoreID, &out.NodeID, &out.Status, &out.ErrorCode, &out.ErrorDetail, &out.Output, &out.CreatedAt); err != nil {
		return Log{}, fmt.Errorf("creating command log: %w", err)
	}
	return out, nil
}

// LogsForCommand returns the audit trail for a command, newest-first,
// bounded by limit.
func (repo *Repo) LogsForCommand(ctx context.Context, commandID uuid.UUID, limit int) ([]Log, error) {
	query := `SELECT id, command_id, store_id, node_id, status, error_code, error_detail, output, created_at
		FROM command_logs WHERE command_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := repo.dbtx.Query(ctx, query, commandID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing command logs: %w", err)
	}
	defer rows.Close()

	var items []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.CommandID, &l.StoreID, &l.NodeID, &l.Status, &l.ErrorCode, &l.ErrorDetail, &l.Output, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning command log row: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command log rows: %w", err)
	}
	return items, nil
}

// ForNode returns commands visible to a node's pull: same store, status in
// the filter, and either unassigned or assigned to this node. Ordered
// oldest-first, matching delivery-to-nodes ordering.
func (repo *Repo) ForNode(ctx context.Context, f NodeFilter) ([]Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands
		WHERE store_id = $1 AND status = ANY($2) AND (node_id IS NULL OR node_id = $3)
		ORDER BY issued_at ASC`
	rows, err := repo.dbtx.Query(ctx, query, f.StoreID, f.Statuses, f.NodeID)
	if err != nil {
		return nil, fmt.Errorf("listing commands for node: %w", err)
	}
	return scanRows(rows)
}

// ForStore returns commands for the operator-facing read, newest-first,
// with optional domain/node filters and a row limit.
func (repo *Repo) ForStore(ctx context.Context, f StoreFilter) ([]Command, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + commandColumns + ` FROM commands WHERE store_id = $1 AND status = ANY($2)`)
	args := []any{f.StoreID, f.Statuses}

	if f.Domain != nil {
		args = append(args, *f.Domain)
		fmt.Fprintf(&b, " AND domain = $%d", len(args))
	}
	if f.NodeID != nil {
		args = append(args, *f.NodeID)
		fmt.Fprintf(&b, " AND node_id = $%d", len(args))
	}
	args = append(args, f.Limit)
	fmt.Fprintf(&b, " ORDER BY issued_at DESC LIMIT $%d", len(args))

	rows, err := repo.dbtx.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing commands for store: %w", err)
	}
	return scanRows(rows)
}

// StoreTenantRef looks up the minimal tenant shape the scope predicates need
// for a given store, without this package importing pkg/tenant.
func (repo *Repo) StoreTenantRef(ctx context.Context, storeID uuid.UUID) (auth.TenantRef, error) {
	query := `SELECT t.id, t.reseller_id FROM tenants t JOIN stores s ON s.tenant_id = t.id WHERE s.id = $1`
	var ref auth.TenantRef
	err := repo.dbtx.QueryRow(ctx, query, storeID).Scan(&ref.ID, &ref.ResellerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.TenantRef{}, apperr.NotFoundf("store %s not found", storeID)
		}
		return auth.TenantRef{}, fmt.Errorf("resolving store tenant: %w", err)
	}
	return ref, nil
}
