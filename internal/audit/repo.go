package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/db"
)

// LogEntry is a single row read back from operator_audit_log.
type LogEntry struct {
	ID             uuid.UUID       `json:"id"`
	CloudAccountID *uuid.UUID      `json:"cloudAccountId,omitempty"`
	Action         string          `json:"action"`
	Resource       string          `json:"resource"`
	ResourceID     *uuid.UUID      `json:"resourceId,omitempty"`
	Detail         json.RawMessage `json:"detail,omitempty"`
	IPAddress      *string         `json:"ipAddress,omitempty"`
	UserAgent      *string         `json:"userAgent,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Repo reads operator_audit_log. Writes go through Writer, not Repo — the
// audit log is append-only and is never updated by request-serving code.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates an audit Repo.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

// List returns the most recent audit entries, newest first.
func (repo *Repo) List(ctx context.Context, limit int) ([]LogEntry, error) {
	query := `SELECT id, cloud_account_id, action, resource, resource_id, detail, ip_address, user_agent, created_at
		FROM operator_audit_log ORDER BY created_at DESC LIMIT $1`

	rows, err := repo.dbtx.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var ip *string
		if err := rows.Scan(&e.ID, &e.CloudAccountID, &e.Action, &e.Resource, &e.ResourceID, &e.Detail, &ip, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.IPAddress = ip
		out = append(out, e)
	}
	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	return out, nil
}
