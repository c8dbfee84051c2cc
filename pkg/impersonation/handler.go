package impersonation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
	"github.com/radixpos/controlplane/pkg/store"
	"github.com/radixpos/controlplane/pkg/tenant"
)

// Handler serves POST /cloud/platform/stores/{id}/impersonation-link.
type Handler struct {
	service    *Service
	storeRepo  *store.Repo
	tenantRepo *tenant.Repo
	audit      *audit.Writer
	logger     *slog.Logger
}

// NewHandler builds an impersonation Handler.
func NewHandler(service *Service, storeRepo *store.Repo, tenantRepo *tenant.Repo, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{service: service, storeRepo: storeRepo, tenantRepo: tenantRepo, audit: auditWriter, logger: logger}
}

type mintRequest struct {
	TargetBaseURL *string `json:"targetBaseUrl,omitempty" validate:"omitempty,url"`
}

// Mint handles POST /cloud/platform/stores/{id}/impersonation-link.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid store id"))
		return
	}

	var req mintRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	st, err := h.storeRepo.Get(r.Context(), storeID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	t, err := h.tenantRepo.Get(r.Context(), st.TenantID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	session := auth.FromContext(r.Context())
	if !session.CanAccessTenant(tenant.Ref(t)) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("tenant out of scope"))
		return
	}

	link, err := h.service.Mint(Params{
		StoreID:           st.ID,
		TargetBaseURL:     req.TargetBaseURL,
		CloudAccountID:    session.AccountID,
		CloudAccountType:  session.AccountType,
		CloudAccountEmail: session.Email,
		ResellerID:        t.ResellerID,
		TenantID:          t.ID,
	}, st.Code, DefaultTTL)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	h.audit.LogFromRequest(r, "mint", "impersonation_link", st.ID, nil)

	httpserver.Respond(w, http.StatusCreated, map[string]any{
		"store":            st,
		"targetBaseUrl":    link.TargetBaseURL,
		"expiresInSeconds": link.ExpiresInSeconds,
		"url":              link.URL,
	})
}
