package remoteaction

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
	"github.com/radixpos/controlplane/pkg/command"
)

// Handler serves the remote-action endpoints: dispatch, list, retry,
// cancel — all scoped under /cloud/platform/network/actions.
type Handler struct {
	cmdRepo *command.Repo
	service *Service
	audit   *audit.Writer
	logger  *slog.Logger
}

// NewHandler builds a remoteaction Handler.
func NewHandler(cmdRepo *command.Repo, service *Service, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{cmdRepo: cmdRepo, service: service, audit: auditWriter, logger: logger}
}

var defaultActionStatuses = []string{command.StatusPending, command.StatusFailed, command.StatusAcked}

type dispatchRequest struct {
	StoreID        uuid.UUID       `json:"storeId" validate:"required"`
	NodeID         *uuid.UUID      `json:"nodeId,omitempty"`
	TargetAllNodes bool            `json:"targetAllNodes,omitempty"`
	Action         string          `json:"action" validate:"required"`
	Note           *string         `json:"note,omitempty"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
}

// Dispatch handles POST /cloud/platform/network/actions.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := h.cmdRepo.StoreTenantRef(r.Context(), req.StoreID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	cmd, err := h.service.Dispatch(r.Context(), DispatchParams{
		StoreID:        req.StoreID,
		Action:         strings.ToUpper(req.Action),
		NodeID:         req.NodeID,
		TargetAllNodes: req.TargetAllNodes,
		Note:           req.Note,
		Parameters:     req.Parameters,
		RequestedBy:    &session.AccountID,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	h.audit.LogFromRequest(r, "dispatch", "remote_action", cmd.ID, nil)

	httpserver.Respond(w, http.StatusCreated, map[string]any{
		"action":  cmd.CommandType,
		"command": cmd,
	})
}

// ListForStore handles GET /cloud/platform/network/actions?storeId=&status=&nodeId=&limit=.
func (h *Handler) ListForStore(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(r.URL.Query().Get("storeId"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("storeId is required"))
		return
	}

	session := auth.FromContext(r.Context())
	tenantRef, err := h.cmdRepo.StoreTenantRef(r.Context(), storeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !session.CanAccessTenant(tenantRef) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("store out of scope"))
		return
	}

	statuses := defaultActionStatuses
	if v := r.URL.Query().Get("status"); v != "" {
		statuses = splitUpper(v)
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

	domain := Domain
	items, err := h.cmdRepo.ForStore(r.Context(), command.StoreFilter{
		StoreID:  storeID,
		Statuses: statuses,
		Domain:   &domain,
		NodeID:   nodeID,
		Limit:    limit,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"actions": items})
}

// Retry handles POST /cloud/platform/network/actions/{id}/retry.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	commandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid action id"))
		return
	}

	session := auth.FromContext(r.Context())
	updated, err := h.service.Retry(r.Context(), commandID, session)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "retry", "remote_action", commandID, nil)
	httpserver.Respond(w, http.StatusOK, updated)
}

// Cancel handles POST /cloud/platform/network/actions/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	commandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid action id"))
		return
	}

	session := auth.FromContext(r.Context())
	updated, err := h.service.Cancel(r.Context(), commandID, session)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "cancel", "remote_action", commandID, nil)
	httpserver.Respond(w, http.StatusOK, updated)
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
