package claim

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/pkg/node"
	"github.com/radixpos/controlplane/pkg/store"
)

// Result is the response body of the claim handshake.
type Result struct {
	Store     store.Store `json:"store"`
	Node      node.Node   `json:"node"`
	NodeToken string      `json:"nodeToken"`
	Onsite    Onsite      `json:"onsite"`
}

// onsiteMetadata is persisted in Node.metadata.
type onsiteMetadata struct {
	ServerUID     string `json:"serverUid"`
	OnsiteBaseURL string `json:"onsiteBaseUrl"`
}

// Service orchestrates the claim handshake: one outbound call, one local
// transaction, a second best-effort outbound call.
type Service struct {
	pool   *pgxpool.Pool
	client *Client
	logger *slog.Logger
}

// NewService builds a claim Service.
func NewService(pool *pgxpool.Pool, client *Client, logger *slog.Logger) *Service {
	return &Service{pool: pool, client: client, logger: logger}
}

// Claim executes the full handshake: consume the claim, resolve or create
// the store, mint a node token, then best-effort finalize with the edge.
func (s *Service) Claim(ctx context.Context, p Params) (Result, error) {
	consumeResp, err := s.client.Consume(ctx, p.OnsiteBaseURL, ConsumeRequest{ClaimID: p.ClaimID, ClaimCode: p.ClaimCode})
	if err != nil {
		return Result{}, err
	}

	nodeKey := node.NormalizeOnsiteKey(consumeResp.ServerUID)

	cloudBaseURL := p.CloudBaseURL
	if cloudBaseURL == nil && p.InferredCloudBaseURL != "" {
		cloudBaseURL = &p.InferredCloudBaseURL
	}

	edgeBaseURL := p.EdgeBaseURL
	if edgeBaseURL == nil {
		edgeBaseURL = &p.OnsiteBaseURL
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback(ctx)

	storeRepo := store.NewRepo(tx)
	nodeRepo := node.NewRepo(tx)

	existing, found, err := nodeRepo.GetByKey(ctx, nodeKey)
	if err != nil {
		return Result{}, err
	}

	targetStore, err := s.resolveStore(ctx, storeRepo, p, consumeResp)
	if err != nil {
		return Result{}, err
	}

	if found && existing.StoreID != targetStore.ID {
		return Result{}, apperr.Conflictf("onsite server is already linked to a different store via node key %s", nodeKey)
	}

	if err := storeRepo.SetEdgeBaseURL(ctx, targetStore.ID, *edgeBaseURL); err != nil {
		return Result{}, err
	}
	targetStore.EdgeBaseURL = edgeBaseURL

	nodeToken, tokenHash, err := auth.GenerateOpaqueToken("node")
	if err != nil {
		return Result{}, err
	}

	label := consumeResp.ServerUID
	if consumeResp.ServerLabel != nil {
		label = *consumeResp.ServerLabel
	}
	if p.NodeLabel != nil {
		label = *p.NodeLabel
	}

	metadata, err := json.Marshal(onsiteMetadata{ServerUID: consumeResp.ServerUID, OnsiteBaseURL: p.OnsiteBaseURL})
	if err != nil {
		return Result{}, err
	}

	upserted, err := nodeRepo.UpsertByKey(ctx, targetStore.ID, label, nodeKey, tokenHash, metadata)
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}

	onsite := Onsite{ServerUID: consumeResp.ServerUID, Finalized: true}
	if consumeResp.FinalizeToken != nil {
		err := s.client.Finalize(ctx, p.OnsiteBaseURL, FinalizeRequest{
			FinalizeToken:  *consumeResp.FinalizeToken,
			CloudStoreID:   targetStore.ID,
			CloudStoreCode: targetStore.Code,
			CloudNodeID:    upserted.ID,
			NodeKey:        nodeKey,
			NodeToken:      nodeToken,
			CloudBaseURL:   cloudBaseURL,
			LinkedBy:       p.LinkedBy,
		})
		if err != nil {
			onsite.Finalized = false
			msg := err.Error()
			onsite.FinalizeError = &msg
			s.logger.Warn("onsite claim/finalize failed, cloud-side link already committed",
				"store_id", targetStore.ID, "node_id", upserted.ID, "error", err)
		}
	}

	return Result{Store: targetStore, Node: upserted, NodeToken: nodeToken, Onsite: onsite}, nil
}

// resolveStore reuses the Store named by p.StoreID, or creates a new one
// under p.TenantID using the consume response's hints as fallbacks.
func (s *Service) resolveStore(ctx context.Context, repo *store.Repo, p Params, consumeResp ConsumeResponse) (store.Store, error) {
	if p.StoreID != nil {
		return repo.Get(ctx, *p.StoreID)
	}

	name := "Claimed Store"
	if consumeResp.StoreNameHint != nil {
		name = *consumeResp.StoreNameHint
	}
	if p.StoreName != nil {
		name = *p.StoreName
	}

	timezone := "UTC"
	if consumeResp.TimezoneHint != nil {
		timezone = *consumeResp.TimezoneHint
	}
	if p.Timezone != nil {
		timezone = *p.Timezone
	}

	code := "ONSITE-" + uuid.NewString()[:8]
	if p.StoreCode != nil {
		code = *p.StoreCode
	}

	if p.TenantID == nil {
		return store.Store{}, apperr.Validationf("tenantId is required when storeId is not given")
	}

	return repo.Create(ctx, store.CreateParams{
		Code:     code,
		Name:     name,
		Timezone: timezone,
		TenantID: *p.TenantID,
	})
}
