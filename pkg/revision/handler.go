package revision

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
)

// Handler serves the revision endpoints: publishing a revision (with its
// companion command) and reading the latest revision per domain.
type Handler struct {
	repo    *Repo
	service *Service
	audit   *audit.Writer
	logger  *slog.Logger
}

// NewHandler builds a revision Handler.
func NewHandler(repo *Repo, service *Service, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, service: service, audit: auditWriter, logger: logger}
}

type publishRequest struct {
	Domain      string          `json:"domain" validate:"required"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
	CommandType string          `json:"commandType,omitempty"`
	NodeID      *uuid.UUID      `json:"nodeId,omitempty"`
}

// Publish handles POST /cloud/stores/{id}/revisions.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid store id"))
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := h.repo.StoreTenantRef(r.Context(), storeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	var req publishRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Publish(r.Context(), PublishParams{
		StoreID:      storeID,
		Domain:       req.Domain,
		Payload:      req.Payload,
		CommandType:  req.CommandType,
		TargetNodeID: req.NodeID,
		PublishedBy:  &session.AccountID,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	h.audit.LogFromRequest(r, "publish", "revision", result.Revision.ID, nil)

	httpserver.Respond(w, http.StatusCreated, map[string]any{
		"revision": result.Revision,
		"command":  result.Command,
	})
}

// LatestForStore handles GET /cloud/stores/{id}/revisions/latest[?domain=…].
func (h *Handler) LatestForStore(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid store id"))
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := h.repo.StoreTenantRef(r.Context(), storeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	if d := r.URL.Query().Get("domain"); d != "" {
		domain, err := NormalizeDomain(d)
		if err != nil {
			httpserver.RespondErr(w, r, h.logger, err)
			return
		}
		rv, err := h.repo.LatestForDomain(r.Context(), storeID, domain)
		if err != nil {
			httpserver.RespondErr(w, r, h.logger, err)
			return
		}
		httpserver.Respond(w, http.StatusOK, map[string]any{"revision": rv})
		return
	}

	byDomain, err := h.repo.LatestByDomain(r.Context(), storeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"revisions": byDomain})
}
