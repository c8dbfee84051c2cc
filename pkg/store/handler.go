package store

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
	"github.com/radixpos/controlplane/pkg/tenant"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// Handler serves the store endpoints.
type Handler struct {
	repo       *Repo
	tenantRepo *tenant.Repo
	audit      *audit.Writer
	logger     *slog.Logger
}

// NewHandler builds a store Handler.
func NewHandler(repo *Repo, tenantRepo *tenant.Repo, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, tenantRepo: tenantRepo, audit: auditWriter, logger: logger}
}

type createRequest struct {
	Code        string     `json:"code" validate:"required,max=32"`
	Name        string     `json:"name" validate:"required,max=200"`
	Timezone    string     `json:"timezone" validate:"required"`
	TenantID    uuid.UUID  `json:"tenantId" validate:"required"`
	EdgeBaseURL *string    `json:"edgeBaseUrl,omitempty" validate:"omitempty,url"`
}

// List handles GET /cloud/platform/stores, scoped by the caller's session.
// An optional ?status= query param further narrows the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		s := strings.ToUpper(v)
		status = &s
	}

	items, err := h.repo.ListForScope(r.Context(), session.Scope(), status)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"stores": items})
}

// Create handles POST /cloud/platform/stores.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	t, err := h.tenantRepo.Get(r.Context(), req.TenantID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	session := auth.FromContext(r.Context())
	if !session.CanAccessTenant(tenant.Ref(t)) {
		httpserver.RespondErr(w, r, h.logger, apperr.Forbiddenf("tenant out of scope"))
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !codePattern.MatchString(code) {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("code must contain only A-Z, 0-9, _, -"))
		return
	}

	created, err := h.repo.Create(r.Context(), CreateParams{
		Code:        code,
		Name:        req.Name,
		Timezone:    req.Timezone,
		TenantID:    req.TenantID,
		EdgeBaseURL: req.EdgeBaseURL,
	})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "create", "store", created.ID, nil)
	httpserver.Respond(w, http.StatusCreated, created)
}
