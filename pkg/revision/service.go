package revision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/db"
	"github.com/radixpos/controlplane/internal/telemetry"
	"github.com/radixpos/controlplane/pkg/command"
)

const maxPublishRetries = 5

// nodeChecker is the minimal node-lookup surface publishRevision needs to
// validate an optional target node. Declared here rather than importing
// pkg/node directly, so revision and node don't depend on each other.
type nodeChecker interface {
	BelongsToStore(ctx context.Context, nodeID, storeID uuid.UUID) (bool, error)
}

// Service wraps Repo's single-statement operations in the transaction
// publishRevision requires: revision creation and its companion PENDING
// command are written atomically, and the whole step is retried on a
// unique-violation race against another concurrent publisher.
type Service struct {
	pool    *pgxpool.Pool
	nodes   nodeChecker
	logger  *slog.Logger
}

// NewService builds a revision Service.
func NewService(pool *pgxpool.Pool, nodes nodeChecker, logger *slog.Logger) *Service {
	return &Service{pool: pool, nodes: nodes, logger: logger}
}

// PublishResult is returned by Publish.
type PublishResult struct {
	Revision Revision
	Command  command.Command
}

// Publish executes publishRevision atomically, retrying on a
// unique-violation of (store_id, domain, number) so two concurrent
// publishers never collide on the same revision number.
func (s *Service) Publish(ctx context.Context, p PublishParams) (PublishResult, error) {
	domain, err := NormalizeDomain(p.Domain)
	if err != nil {
		return PublishResult{}, err
	}
	p.Domain = domain

	if p.TargetNodeID != nil {
		ok, err := s.nodes.BelongsToStore(ctx, *p.TargetNodeID, p.StoreID)
		if err != nil {
			return PublishResult{}, err
		}
		if !ok {
			return PublishResult{}, apperr.Validationf("target node does not belong to store %s", p.StoreID)
		}
	}

	commandType := p.CommandType
	if commandType == "" {
		commandType = domain + "_PATCH"
	}

	var result PublishResult
	for attempt := 0; attempt < maxPublishRetries; attempt++ {
		result, err = s.publishOnce(ctx, p, commandType)
		if err == nil {
			telemetry.RevisionsPublishedTotal.WithLabelValues(domain).Inc()
			telemetry.CommandsIssuedTotal.WithLabelValues(domain, commandType).Inc()
			return result, nil
		}
		if !db.IsUniqueViolation(err) {
			return PublishResult{}, err
		}
		s.logger.Warn("revision publish collided on unique constraint, retrying",
			"store_id", p.StoreID, "domain", domain, "attempt", attempt+1)
	}
	return PublishResult{}, fmt.Errorf("publishing revision %s/%s: exhausted retries on concurrent writers", p.StoreID, domain)
}

func (s *Service) publishOnce(ctx context.Context, p PublishParams, commandType string) (PublishResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return PublishResult{}, err
	}
	defer tx.Rollback(ctx)

	repo := NewRepo(tx)
	cmdRepo := command.NewRepo(tx)

	max, err := repo.MaxNumber(ctx, p.StoreID, p.Domain)
	if err != nil {
		return PublishResult{}, err
	}

	rv, err := repo.Create(ctx, p, max+1)
	if err != nil {
		return PublishResult{}, err
	}

	cmd, err := cmdRepo.Create(ctx, command.CreateParams{
		StoreID:     p.StoreID,
		NodeID:      p.TargetNodeID,
		RevisionID:  &rv.ID,
		Domain:      p.Domain,
		CommandType: commandType,
		Payload:     p.Payload,
		CreatedBy:   p.PublishedBy,
	})
	if err != nil {
		return PublishResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return PublishResult{}, err
	}

	return PublishResult{Revision: rv, Command: cmd}, nil
}
