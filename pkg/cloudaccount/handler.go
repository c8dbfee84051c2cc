package cloudaccount

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
	"github.com/radixpos/controlplane/pkg/reseller"
	"github.com/radixpos/controlplane/pkg/tenant"
)

// Handler serves the admin-account-creation endpoints: POST
// .../resellers/{id}/accounts and POST .../tenants/{id}/accounts. Both mint
// an account whose reference is fixed by the URL, never by the request
// body, so the OWNER/RESELLER/
// TENANT_ADMIN invariant can't be spoofed by a caller-supplied field.
type Handler struct {
	repo         *Repo
	resellerRepo *reseller.Repo
	tenantRepo   *tenant.Repo
	audit        *audit.Writer
	logger       *slog.Logger
}

// NewHandler builds a cloudaccount admin Handler.
func NewHandler(repo *Repo, resellerRepo *reseller.Repo, tenantRepo *tenant.Repo, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, resellerRepo: resellerRepo, tenantRepo: tenantRepo, audit: auditWriter, logger: logger}
}

type createAccountRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,max=200"`
}

// CreateUnderReseller handles POST /cloud/platform/resellers/{id}/accounts,
// creating a RESELLER-type account for that reseller.
func (h *Handler) CreateUnderReseller(w http.ResponseWriter, r *http.Request) {
	resellerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid reseller id"))
		return
	}

	session := auth.FromContext(r.Context())
	if !session.CanAccessReseller(resellerID) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("reseller out of scope"))
		return
	}
	if _, err := h.resellerRepo.Get(r.Context(), resellerID); err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	var req createAccountRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	h.create(w, r, req, TypeReseller, &resellerID, nil)
}

// CreateUnderTenant handles POST /cloud/platform/tenants/{id}/accounts,
// creating a TENANT_ADMIN-type account for that tenant.
func (h *Handler) CreateUnderTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("invalid tenant id"))
		return
	}

	t, err := h.tenantRepo.Get(r.Context(), tenantID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	session := auth.FromContext(r.Context())
	if !session.CanAccessTenant(tenant.Ref(t)) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("tenant out of scope"))
		return
	}

	var req createAccountRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	h.create(w, r, req, TypeTenantAdmin, nil, &tenantID)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, req createAccountRequest, accountType string, resellerID, tenantID *uuid.UUID) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	created, err := h.repo.Create(r.Context(), CreateParams{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		AccountType:  accountType,
		ResellerID:   resellerID,
		TenantID:     tenantID,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "create", "cloud_account", created.ID, nil)
	httpserver.Respond(w, http.StatusCreated, created)
}
