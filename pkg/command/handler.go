package command

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
)

// Handler serves the command endpoints: the operator-facing store/command/
// log reads and retry, and the node-facing pull/ack.
type Handler struct {
	repo    *Repo
	service *Service
	audit   *audit.Writer
	logger  *slog.Logger
}

// NewHandler builds a command Handler.
func NewHandler(repo *Repo, service *Service, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, service: service, audit: auditWriter, logger: logger}
}

var defaultStoreStatuses = []string{StatusPending, StatusFailed, StatusAcked}

// ListForStore handles GET /cloud/stores/{id}/commands.
func (h *Handler) ListForStore(w http.ResponseWriter, r *http.Request) {
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

	statuses := defaultStoreStatuses
	if v := r.URL.Query().Get("status"); v != "" {
		statuses = splitUpper(v)
	}

	var domain *string
	if v := r.URL.Query().Get("domain"); v != "" {
		d := strings.ToUpper(v)
		domain = &d
	}

	var nodeID *uuid.UUID
	if v := r.URL.Query().Get("nodeId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid nodeId"))
			return
		}
		nodeID = &id
	}

	limit, err := httpserver.ParseLimit(r, 100, 200)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("%s", err.Error()))
		return
	}

	items, err := h.repo.ForStore(r.Context(), StoreFilter{
		StoreID:  storeID,
		Statuses: statuses,
		Domain:   domain,
		NodeID:   nodeID,
		Limit:    limit,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"commands": items})
}

// ListForNode handles GET /cloud/nodes/{nodeId}/commands, the node's pull
// endpoint. The authenticated node must match the path's nodeId.
func (h *Handler) ListForNode(w http.ResponseWriter, r *http.Request) {
	nodeID, err := uuid.Parse(chi.URLParam(r, "nodeId"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid node id"))
		return
	}

	node := auth.NodeFromContext(r.Context())
	if node.NodeID != nodeID {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("node id does not match authenticated node"))
		return
	}

	statuses := []string{StatusPending}
	if v := r.URL.Query().Get("status"); v != "" {
		statuses = splitUpper(v)
	}

	items, err := h.repo.ForNode(r.Context(), NodeFilter{
		NodeID:   node.NodeID,
		StoreID:  node.StoreID,
		Statuses: statuses,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"commands": items})
}

type ackRequest struct {
	Status          string  `json:"status" validate:"required,oneof=ACKED FAILED"`
	AppliedRevision *int    `json:"appliedRevision,omitempty"`
	ErrorCode       *string `json:"errorCode,omitempty"`
	ErrorDetail     *string `json:"errorDetail,omitempty"`
	Output          any     `json:"output,omitempty"`
}

// Ack handles POST /cloud/commands/{id}/ack.
func (h *Handler) Ack(w http.ResponseWriter, r *http.Request) {
	commandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid command id"))
		return
	}

	var req ackRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	node := auth.NodeFromContext(r.Context())

	var output []byte
	if req.Output != nil {
		output, _ = json.Marshal(req.Output)
	}

	updated, err := h.service.Ack(r.Context(), commandID, node, AckParams{
		Status:          req.Status,
		AppliedRevision: req.AppliedRevision,
		ErrorCode:       req.ErrorCode,
		ErrorDetail:     req.ErrorDetail,
		Output:          output,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, updated)
}

// Retry handles POST /cloud/commands/{id}/retry (body ignored).
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	commandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid command id"))
		return
	}

	session := auth.FromContext(r.Context())
	updated, err := h.service.Retry(r.Context(), commandID, session)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "retry", "command", commandID, nil)
	httpserver.Respond(w, http.StatusOK, updated)
}

// Logs handles GET /cloud/commands/{id}/logs.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	commandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid command id"))
		return
	}

	cmd, err := h.repo.Get(r.Context(), commandID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := h.repo.StoreTenantRef(r.Context(), cmd.StoreID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	limit, err := httpserver.ParseLimit(r, 50, 200)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("%s", err.Error()))
		return
	}

	logs, err := h.repo.LogsForCommand(r.Context(), commandID, limit)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"command": cmd, "logs": logs})
}

func splitUpper(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
