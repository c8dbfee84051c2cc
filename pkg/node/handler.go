package node

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
	"github.com/radixpos/controlplane/internal/telemetry"
)

// encodeMetadata re-marshals an arbitrary decoded JSON value back into a
// json.RawMessage for storage, leaving nil untouched.
func encodeMetadata(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Handler serves the node endpoints: registration, heartbeat, token
// rotation, and bootstrap-token issuance.
type Handler struct {
	repo              *Repo
	service           *Service
	bootstrapTokenTTL time.Duration
	audit             *audit.Writer
	logger            *slog.Logger
}

// NewHandler builds a node Handler.
func NewHandler(repo *Repo, service *Service, bootstrapTokenTTL time.Duration, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, service: service, bootstrapTokenTTL: bootstrapTokenTTL, audit: auditWriter, logger: logger}
}

type registerRequest struct {
	StoreID         uuid.UUID `json:"storeId" validate:"required"`
	BootstrapToken  string    `json:"bootstrapToken" validate:"required"`
	Label           string    `json:"label" validate:"required,max=200"`
	SoftwareVersion *string   `json:"softwareVersion,omitempty"`
	Metadata        any       `json:"metadata,omitempty"`
}

// Register handles POST /cloud/nodes/register. Unauthenticated: the
// bootstrap token itself is the credential.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	metadata, err := encodeMetadata(req.Metadata)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid metadata"))
		return
	}

	result, err := h.service.RegisterNode(r.Context(), RegisterParams{
		StoreID:         req.StoreID,
		BootstrapToken:  req.BootstrapToken,
		Label:           req.Label,
		SoftwareVersion: req.SoftwareVersion,
		Metadata:        metadata,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, map[string]any{
		"nodeId":    result.Node.ID,
		"storeId":   result.Node.StoreID,
		"nodeKey":   result.Node.NodeKey,
		"nodeToken": result.NodeToken,
	})
}

type heartbeatRequest struct {
	SoftwareVersion *string `json:"softwareVersion,omitempty"`
	Metadata        any     `json:"metadata,omitempty"`
}

// Heartbeat handles POST /cloud/nodes/{nodeId}/heartbeat.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	nodeID, err := uuid.Parse(chi.URLParam(r, "nodeId"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid node id"))
		return
	}

	identity := auth.NodeFromContext(r.Context())
	if identity.NodeID != nodeID {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("node id does not match authenticated node"))
		return
	}

	var req heartbeatRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	metadata, err := encodeMetadata(req.Metadata)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid metadata"))
		return
	}

	if _, err := h.repo.Heartbeat(r.Context(), nodeID, HeartbeatParams{SoftwareVersion: req.SoftwareVersion, Metadata: metadata}); err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	telemetry.NodeHeartbeatsTotal.Inc()
	httpserver.Respond(w, http.StatusOK, map[string]any{"ok": true})
}

// RotateToken handles POST /cloud/platform/network/nodes/{id}/rotate-token.
func (h *Handler) RotateToken(w http.ResponseWriter, r *http.Request) {
	nodeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid node id"))
		return
	}

	n, err := h.repo.Get(r.Context(), nodeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := storeTenantRef(r, h, n.StoreID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	result, err := h.service.RotateToken(r.Context(), nodeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	h.audit.LogFromRequest(r, "rotate_token", "node", nodeID, nil)
	httpserver.Respond(w, http.StatusOK, map[string]any{"node": result.Node, "nodeToken": result.NodeToken})
}

func storeTenantRef(r *http.Request, h *Handler, storeID uuid.UUID) (auth.TenantRef, error) {
	var ref auth.TenantRef
	err := h.repo.dbtx.QueryRow(r.Context(),
		`SELECT t.id, t.reseller_id FROM tenants t JOIN stores s ON s.tenant_id = t.id WHERE s.id = $1`,
		storeID).Scan(&ref.ID, &ref.ResellerID)
	if err != nil {
		return auth.TenantRef{}, apperr.NotFoundf("store %s not found", storeID)
	}
	return ref, nil
}

type createBootstrapTokenRequest struct {
	Label string `json:"label" validate:"required,max=200"`
}

// CreateBootstrapToken handles POST /cloud/platform/stores/{id}/bootstrap-tokens.
func (h *Handler) CreateBootstrapToken(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid store id"))
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := storeTenantRef(r, h, storeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	var req createBootstrapTokenRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	rawToken, hash, err := auth.GenerateOpaqueToken("")
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	// Bootstrap tokens are unprefixed opaque strings; strip the leading
	// separator GenerateOpaqueToken leaves from an empty prefix.
	rawToken = rawToken[1:]

	created, err := h.repo.CreateBootstrapToken(r.Context(), storeID, req.Label, hash, time.Now().Add(h.bootstrapTokenTTL))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	h.audit.LogFromRequest(r, "create", "bootstrap_token", created.ID, nil)
	httpserver.Respond(w, http.StatusCreated, map[string]any{
		"bootstrapToken": rawToken,
		"expiresAt":      created.ExpiresAt,
		"storeId":        created.StoreID,
		"label":          created.Label,
	})
}
