package command

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/telemetry"
)

// Service wraps Repo's single-statement operations in the transactions
// every multi-step mutation requires (ack-with-log, retry-with-log,
// cancel-with-log).
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService builds a command Service.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

// Ack applies a node's acknowledgement and appends a CommandLog entry in one
// transaction. Guards: the node's store must match the command's store, and
// if the command is node-targeted, the node must match.
func (s *Service) Ack(ctx context.Context, commandID uuid.UUID, node *auth.NodeIdentity, p AckParams) (Command, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Command{}, err
	}
	defer tx.Rollback(ctx)

	repo := NewRepo(tx)

	cmd, err := repo.GetForUpdate(ctx, commandID)
	if err != nil {
		return Command{}, err
	}
	if cmd.StoreID != node.StoreID {
		return Command{}, apperr.Forbiddenf("command does not belong to this node's store")
	}
	if cmd.NodeID != nil && *cmd.NodeID != node.NodeID {
		return Command{}, apperr.Forbiddenf("command is targeted at a different node")
	}

	updated, err := repo.Ack(ctx, commandID, p)
	if err != nil {
		return Command{}, err
	}

	if _, err := repo.CreateLog(ctx, Log{
		CommandID:   commandID,
		StoreID:     cmd.StoreID,
		NodeID:      &node.NodeID,
		Status:      p.Status,
		ErrorCode:   p.ErrorCode,
		ErrorDetail: p.ErrorDetail,
		Output:      p.Output,
	}); err != nil {
		return Command{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Command{}, err
	}

	telemetry.CommandsAckedTotal.WithLabelValues(p.Status).Inc()
	return updated, nil
}

// Retry resets a FAILED or ACKED command back to PENDING, requiring the
// session to have tenant access to the command's store.
func (s *Service) Retry(ctx context.Context, commandID uuid.UUID, session *auth.Session) (Command, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Command{}, err
	}
	defer tx.Rollback(ctx)

	repo := NewRepo(tx)

	cmd, err := repo.GetForUpdate(ctx, commandID)
	if err != nil {
		return Command{}, err
	}

	tenantRef, err := repo.StoreTenantRef(ctx, cmd.StoreID)
	if err != nil {
		return Command{}, err
	}
	if !session.CanAccessTenant(tenantRef) {
		return Command{}, apperr.Forbiddenf("store out of scope")
	}

	if cmd.Status != StatusFailed && cmd.Status != StatusAcked {
		return Command{}, apperr.Validationf("only FAILED or ACKED commands can be retried")
	}

	updated, err := repo.Retry(ctx, commandID)
	if err != nil {
		return Command{}, err
	}

	if _, err := repo.CreateLog(ctx, Log{
		CommandID: commandID,
		StoreID:   cmd.StoreID,
		NodeID:    cmd.NodeID,
		Status:    LogStatusRetryQueued,
	}); err != nil {
		return Command{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Command{}, err
	}
	return updated, nil
}

// Cancel transitions a PENDING command to FAILED/CANCELLED_BY_CLOUD. If
// requireDomain is non-nil, the command must be of that domain — the
// remote-action dispatcher uses this to reject cancels on ordinary
// revision-publish commands.
func (s *Service) Cancel(ctx context.Context, commandID uuid.UUID, session *auth.Session, requireDomain *string) (Command, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Command{}, err
	}
	defer tx.Rollback(ctx)

	repo := NewRepo(tx)

	cmd, err := repo.GetForUpdate(ctx, commandID)
	if err != nil {
		return Command{}, err
	}

	tenantRef, err := repo.StoreTenantRef(ctx, cmd.StoreID)
	if err != nil {
		return Command{}, err
	}
	if !session.CanAccessTenant(tenantRef) {
		return Command{}, apperr.Forbiddenf("store out of scope")
	}

	if requireDomain != nil && cmd.Domain != *requireDomain {
		return Command{}, apperr.Validationf("command %s is not a %s command", commandID, *requireDomain)
	}
	if cmd.Status != StatusPending {
		return Command{}, apperr.Validationf("only PENDING commands can be cancelled")
	}

	updated, err := repo.Cancel(ctx, commandID)
	if err != nil {
		return Command{}, err
	}

	if _, err := repo.CreateLog(ctx, Log{
		CommandID: commandID,
		StoreID:   cmd.StoreID,
		NodeID:    cmd.NodeID,
		Status:    LogStatusCancelled,
	}); err != nil {
		return Command{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Command{}, err
	}
	return updated, nil
}
