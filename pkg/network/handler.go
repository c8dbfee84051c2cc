package network

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
)

// Handler serves GET /cloud/platform/network.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds a network Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Summary handles GET /cloud/platform/network?resellerId=&tenantId=&storeStatus=&nodeStatus=&includeUnlinked=.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	q := r.URL.Query()

	scope, err := h.resolveScope(session, q)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	var filter Filter
	if v := q.Get("storeStatus"); v != "" {
		v = strings.ToUpper(v)
		filter.StoreStatus = &v
	}
	if v := q.Get("nodeStatus"); v != "" {
		v = strings.ToUpper(v)
		filter.NodeStatus = &v
	}
	filter.IncludeUnlinked = q.Get("includeUnlinked") == "true"

	result, err := h.service.Summary(r.Context(), scope, filter)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, result)
}

// resolveScope builds the effective ScopeFilter for this request: OWNER
// sessions may narrow their view with resellerId/tenantId query params;
// RESELLER and TENANT_ADMIN sessions are always forced to their own scope
// regardless of query params.
func (h *Handler) resolveScope(session *auth.Session, q map[string][]string) (auth.ScopeFilter, error) {
	if session.AccountType != auth.TypeOwner {
		return session.Scope(), nil
	}

	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if raw := get("tenantId"); raw != "" {
		id, err := ParseOptionalID(raw)
		if err != nil {
			return auth.ScopeFilter{}, apperr.Validationf("invalid tenantId")
		}
		return auth.ScopeFilter{Kind: auth.ScopeTenant, TenantID: *id}, nil
	}
	if raw := get("resellerId"); raw != "" {
		id, err := ParseOptionalID(raw)
		if err != nil {
			return auth.ScopeFilter{}, apperr.Validationf("invalid resellerId")
		}
		return auth.ScopeFilter{Kind: auth.ScopeReseller, ResellerID: *id}, nil
	}
	return auth.ScopeFilter{Kind: auth.ScopeOwner}, nil
}
