package remoteaction

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/telemetry"
	"github.com/radixpos/controlplane/pkg/command"
)

// nodeCounter is the minimal node-lookup surface dispatch needs to enforce
// its node-count guards, declared here rather than importing pkg/node
// directly.
type nodeCounter interface {
	CountForStore(ctx context.Context, storeID uuid.UUID) (int, error)
	BelongsToStore(ctx context.Context, nodeID, storeID uuid.UUID) (bool, error)
}

// Service dispatches remote actions as Commands and delegates retry/cancel
// to the underlying Command Queue, restricted to the REMOTE_ACTION domain.
type Service struct {
	cmdRepo  *command.Repo
	cmdSvc   *command.Service
	nodes    nodeCounter
	logger   *slog.Logger
}

// NewService builds a remote-action Service.
func NewService(cmdRepo *command.Repo, cmdSvc *command.Service, nodes nodeCounter, logger *slog.Logger) *Service {
	return &Service{cmdRepo: cmdRepo, cmdSvc: cmdSvc, nodes: nodes, logger: logger}
}

// Dispatch writes a PENDING Command for a fixed operational action. Unlike
// publishRevision and ack, dispatch is a single insert with no companion
// write, so it runs without an explicit transaction.
func (s *Service) Dispatch(ctx context.Context, p DispatchParams) (command.Command, error) {
	if !ValidActions[p.Action] {
		return command.Command{}, apperr.Validationf("unknown action %q", p.Action)
	}

	count, err := s.nodes.CountForStore(ctx, p.StoreID)
	if err != nil {
		return command.Command{}, err
	}
	if count == 0 {
		return command.Command{}, apperr.Validationf("store %s has no nodes", p.StoreID)
	}

	if p.NodeID != nil {
		ok, err := s.nodes.BelongsToStore(ctx, *p.NodeID, p.StoreID)
		if err != nil {
			return command.Command{}, err
		}
		if !ok {
			return command.Command{}, apperr.Validationf("target node does not belong to store %s", p.StoreID)
		}
	} else if !p.TargetAllNodes && count > 1 {
		return command.Command{}, apperr.Validationf("specify nodeId or targetAllNodes=true")
	}

	body := payload{
		Action:      p.Action,
		Parameters:  p.Parameters,
		Note:        p.Note,
		IssuedAt:    time.Now(),
		RequestedBy: p.RequestedBy,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return command.Command{}, err
	}

	cmd, err := s.cmdRepo.Create(ctx, command.CreateParams{
		StoreID:     p.StoreID,
		NodeID:      p.NodeID,
		Domain:      Domain,
		CommandType: CommandTypePrefix + p.Action,
		Payload:     raw,
		CreatedBy:   p.RequestedBy,
	})
	if err != nil {
		return command.Command{}, err
	}

	telemetry.CommandsIssuedTotal.WithLabelValues(Domain, cmd.CommandType).Inc()
	return cmd, nil
}

// Retry resets a FAILED or ACKED remote-action Command to PENDING, rejecting
// commands of any other domain.
func (s *Service) Retry(ctx context.Context, commandID uuid.UUID, session *auth.Session) (command.Command, error) {
	if err := s.requireDomain(ctx, commandID); err != nil {
		return command.Command{}, err
	}
	return s.cmdSvc.Retry(ctx, commandID, session)
}

// Cancel transitions a PENDING remote-action Command to FAILED
// (CANCELLED_BY_CLOUD), rejecting commands of any other domain.
func (s *Service) Cancel(ctx context.Context, commandID uuid.UUID, session *auth.Session) (command.Command, error) {
	domain := Domain
	return s.cmdSvc.Cancel(ctx, commandID, session, &domain)
}

func (s *Service) requireDomain(ctx context.Context, commandID uuid.UUID) error {
	cmd, err := s.cmdRepo.Get(ctx, commandID)
	if err != nil {
		return err
	}
	if cmd.Domain != Domain {
		return apperr.Validationf("command %s is not a %s command", commandID, Domain)
	}
	return nil
}
