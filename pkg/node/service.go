package node

import (
	"context"
	"crypto/rand"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/telemetry"
)

var onsiteKeyPattern = regexp.MustCompile(`[^A-Z0-9_-]`)

// NormalizeOnsiteKey derives the ONSITE-prefixed node key from a claimed
// server's self-reported UID, truncated to 64 chars.
func NormalizeOnsiteKey(serverUID string) string {
	return truncate("ONSITE-"+sanitizeKey(serverUID), 64)
}

func sanitizeKey(raw string) string {
	return onsiteKeyPattern.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// RegistrationResult is returned by registerNode.
type RegistrationResult struct {
	Node      Node
	NodeToken string
}

// Service wraps Repo's single-statement operations in the transaction
// registerNode requires (bootstrap-token consumption + node insert).
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService builds a node Service.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

// RegisterNode consumes a bootstrap token and creates a Node in one
// transaction.
func (s *Service) RegisterNode(ctx context.Context, p RegisterParams) (RegistrationResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return RegistrationResult{}, err
	}
	defer tx.Rollback(ctx)

	repo := NewRepo(tx)

	if _, err := repo.ConsumeBootstrapToken(ctx, p.StoreID, auth.HashToken(p.BootstrapToken)); err != nil {
		return RegistrationResult{}, err
	}

	nodeToken, tokenHash, err := auth.GenerateOpaqueToken("node")
	if err != nil {
		return RegistrationResult{}, err
	}
	nodeKey := "EDGE-" + randomUpperAlnum(8)

	n, err := repo.Insert(ctx, p.StoreID, p.Label, nodeKey, tokenHash, p.SoftwareVersion, p.Metadata)
	if err != nil {
		return RegistrationResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return RegistrationResult{}, err
	}

	telemetry.NodesRegisteredTotal.Inc()
	return RegistrationResult{Node: n, NodeToken: nodeToken}, nil
}

// RotateTokenResult is returned by rotateToken.
type RotateTokenResult struct {
	Node      Node
	NodeToken string
}

// RotateToken mints a new token for a node, replacing the previous one,
// which becomes unusable immediately.
func (s *Service) RotateToken(ctx context.Context, nodeID uuid.UUID) (RotateTokenResult, error) {
	repo := NewRepo(s.pool)

	nodeToken, tokenHash, err := auth.GenerateOpaqueToken("node")
	if err != nil {
		return RotateTokenResult{}, err
	}

	n, err := repo.RotateToken(ctx, nodeID, tokenHash)
	if err != nil {
		return RotateTokenResult{}, err
	}
	return RotateTokenResult{Node: n, NodeToken: nodeToken}, nil
}

// randomUpperAlnum returns n random upper-case alphanumeric characters,
// used for the EDGE- node key suffix.
func randomUpperAlnum(n int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}
