package node

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/db"
)

// Repo provides database operations for nodes and bootstrap tokens.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a node Repo backed by the given database connection.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const nodeColumns = `id, store_id, label, node_key, token_hash, status, software_version, metadata, last_seen_at, created_at`

func scanRow(row pgx.Row) (Node, error) {
	var n Node
	err := row.Scan(&n.ID, &n.StoreID, &n.Label, &n.NodeKey, &n.TokenHash, &n.Status, &n.SoftwareVersion, &n.Metadata, &n.LastSeenAt, &n.CreatedAt)
	return n, err
}

func scanRows(rows pgx.Rows) ([]Node, error) {
	defer rows.Close()
	var items []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.StoreID, &n.Label, &n.NodeKey, &n.TokenHash, &n.Status, &n.SoftwareVersion, &n.Metadata, &n.LastSeenAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating node rows: %w", err)
	}
	return items, nil
}

// Get returns a single node by ID.
func (repo *Repo) Get(ctx context.Context, id uuid.UUID) (Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`
	n, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Node{}, apperr.NotFoundf("node %s not found", id)
		}
		return Node{}, fmt.Errorf("getting node: %w", err)
	}
	return n, nil
}

// GetByKey returns a single node by its unique nodeKey, if any.
func (repo *Repo) GetByKey(ctx context.Context, nodeKey string) (Node, bool, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE node_key = $1`
	n, err := scanRow(repo.dbtx.QueryRow(ctx, query, nodeKey))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Node{}, false, nil
		}
		return Node{}, false, fmt.Errorf("getting node by key: %w", err)
	}
	return n, true, nil
}

// ListForStore returns every node belonging to a store.
func (repo *Repo) ListForStore(ctx context.Context, storeID uuid.UUID) ([]Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE store_id = $1 ORDER BY created_at ASC`
	rows, err := repo.dbtx.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing nodes for store: %w", err)
	}
	return scanRows(rows)
}

// CountForStore returns the number of nodes belonging to a store, used by
// the remote action dispatcher's "store has no nodes"/"more than one node"
// guards.
func (repo *Repo) CountForStore(ctx context.Context, storeID uuid.UUID) (int, error) {
	var count int
	err := repo.dbtx.QueryRow(ctx, `SELECT count(*) FROM nodes WHERE store_id = $1`, storeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting nodes for store: %w", err)
	}
	return count, nil
}

// BelongsToStore reports whether nodeID exists and belongs to storeID.
func (repo *Repo) BelongsToStore(ctx context.Context, nodeID, storeID uuid.UUID) (bool, error) {
	var ok bool
	err := repo.dbtx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1 AND store_id = $2)`, nodeID, storeID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking node store membership: %w", err)
	}
	return ok, nil
}

// Insert inserts a new node row directly (used by the registration and
// claim flows, which each mint their own nodeKey/tokenHash upstream).
func (repo *Repo) Insert(ctx context.Context, storeID uuid.UUID, label, nodeKey, tokenHash string, softwareVersion *string, metadata []byte) (Node, error) {
	query := `INSERT INTO nodes (store_id, label, node_key, token_hash, status, software_version, metadata, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + nodeColumns
	n, err := scanRow(repo.dbtx.QueryRow(ctx, query, storeID, label, nodeKey, tokenHash, RawStatusOnline, softwareVersion, metadata))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Node{}, apperr.Conflictf("node key %s already exists", nodeKey)
		}
		return Node{}, fmt.Errorf("inserting node: %w", err)
	}
	return n, nil
}

// UpsertByKey inserts a node by key, or updates the existing row's token and
// heartbeat fields if one already exists for that key — used by the claim
// coordinator, which may re-claim a previously linked onsite server.
func (repo *Repo) UpsertByKey(ctx context.Context, storeID uuid.UUID, label, nodeKey, tokenHash string, metadata []byte) (Node, error) {
	query := `INSERT INTO nodes (store_id, label, node_key, token_hash, status, metadata, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (node_key) DO UPDATE SET
			store_id = EXCLUDED.store_id,
			label = EXCLUDED.label,
			token_hash = EXCLUDED.token_hash,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			last_seen_at = now()
		RETURNING ` + nodeColumns
	n, err := scanRow(repo.dbtx.QueryRow(ctx, query, storeID, label, nodeKey, tokenHash, RawStatusOnline, metadata))
	if err != nil {
		return Node{}, fmt.Errorf("upserting node: %w", err)
	}
	return n, nil
}

// Heartbeat updates lastSeenAt, status, and overwrites softwareVersion/
// metadata when supplied — overwrite, not merge.
func (repo *Repo) Heartbeat(ctx context.Context, id uuid.UUID, p HeartbeatParams) (Node, error) {
	query := `UPDATE nodes SET
		status = $2,
		last_seen_at = now(),
		software_version = COALESCE($3, software_version),
		metadata = COALESCE($4, metadata)
		WHERE id = $1
		RETURNING ` + nodeColumns
	n, err := scanRow(repo.dbtx.QueryRow(ctx, query, id, RawStatusOnline, p.SoftwareVersion, p.Metadata))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Node{}, apperr.NotFoundf("node %s not found", id)
		}
		return Node{}, fmt.Errorf("recording heartbeat: %w", err)
	}
	return n, nil
}

// RotateToken replaces a node's token hash, immediately invalidating the
// previous token.
func (repo *Repo) RotateToken(ctx context.Context, id uuid.UUID, newTokenHash string) (Node, error) {
	query := `UPDATE nodes SET token_hash = $2 WHERE id = $1 RETURNING ` + nodeColumns
	n, err := scanRow(repo.dbtx.QueryRow(ctx, query, id, newTokenHash))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Node{}, apperr.NotFoundf("node %s not found", id)
		}
		return Node{}, fmt.Errorf("rotating node token: %w", err)
	}
	return n, nil
}

// NodeAuthInfo implements auth.NodeLookup.
func (repo *Repo) NodeAuthInfo(ctx context.Context, nodeID uuid.UUID) (auth.NodeIdentity, string, error) {
	var storeID uuid.UUID
	var tokenHash string
	err := repo.dbtx.QueryRow(ctx, `SELECT store_id, token_hash FROM nodes WHERE id = $1`, nodeID).Scan(&storeID, &tokenHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.NodeIdentity{}, "", apperr.Unauthenticatedf("invalid node credentials")
		}
		return auth.NodeIdentity{}, "", fmt.Errorf("resolving node auth info: %w", err)
	}
	return auth.NodeIdentity{NodeID: nodeID, StoreID: storeID}, tokenHash, nil
}

// --- Bootstrap tokens ---

const bootstrapColumns = `id, store_id, label, token_hash, expires_at, used_at, created_at`

func scanBootstrapRow(row pgx.Row) (BootstrapToken, error) {
	var t BootstrapToken
	err := row.Scan(&t.ID, &t.StoreID, &t.Label, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	return t, err
}

// CreateBootstrapToken inserts a new single-use bootstrap token.
func (repo *Repo) CreateBootstrapToken(ctx context.Context, storeID uuid.UUID, label, tokenHash string, expiresAt time.Time) (BootstrapToken, error) {
	query := `INSERT INTO bootstrap_tokens (store_id, label, token_hash, expires_at)
		VALUES ($1, $2, $3, $4) RETURNING ` + bootstrapColumns
	t, err := scanBootstrapRow(repo.dbtx.QueryRow(ctx, query, storeID, label, tokenHash, expiresAt))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return BootstrapToken{}, apperr.Conflictf("bootstrap token collision, retry")
		}
		return BootstrapToken{}, fmt.Errorf("creating bootstrap token: %w", err)
	}
	return t, nil
}

// ConsumeBootstrapToken locates the most recently created, unused,
// unexpired token matching (storeID, tokenHash), locks it, and marks it
// used. Fails with Unauthenticated if none matches.
func (repo *Repo) ConsumeBootstrapToken(ctx context.Context, storeID uuid.UUID, tokenHash string) (BootstrapToken, error) {
	query := `SELECT ` + bootstrapColumns + ` FROM bootstrap_tokens
		WHERE store_id = $1 AND token_hash = $2 AND used_at IS NULL AND expires_at > now()
		ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
	t, err := scanBootstrapRow(repo.dbtx.QueryRow(ctx, query, storeID, tokenHash))
	if err != nil {
		if err == pgx.ErrNoRows {
			return BootstrapToken{}, apperr.Unauthenticatedf("invalid or expired bootstrap token")
		}
		return BootstrapToken{}, fmt.Errorf("consuming bootstrap token: %w", err)
	}

	if _, err := repo.dbtx.Exec(ctx, `UPDATE bootstrap_tokens SET used_at = now() WHERE id = $1`, t.ID); err != nil {
		return BootstrapToken{}, fmt.Errorf("marking bootstrap token used: %w", err)
	}
	return t, nil
}
