package tenant

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Handler serves the tenant endpoints.
type Handler struct {
	repo   *Repo
	audit  *audit.Writer
	logger *slog.Logger
}

// NewHandler builds a tenant Handler.
func NewHandler(repo *Repo, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, audit: auditWriter, logger: logger}
}

type createRequest struct {
	Slug       string     `json:"slug" validate:"required,max=64"`
	Name       string     `json:"name" validate:"required,max=200"`
	ResellerID *uuid.UUID `json:"resellerId,omitempty"`
}

// List handles GET /cloud/platform/tenants, scoped by the caller's session.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	items, err := h.repo.ListForScope(r.Context(), session.Scope())
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"tenants": items})
}

// Create handles POST /cloud/platform/tenants. Only an OWNER session may use
// this unscoped form; RESELLER sessions must use
// POST /cloud/platform/resellers/{id}/tenants instead.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	h.create(w, r, req)
}

// CreateUnderReseller handles POST /cloud/platform/resellers/{id}/tenants.
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

	var req createRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	req.ResellerID = &resellerID
	h.create(w, r, req)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, req createRequest) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("slug must contain only a-z, 0-9, _, -"))
		return
	}

	created, err := h.repo.Create(r.Context(), CreateParams{Slug: slug, Name: req.Name, ResellerID: req.ResellerID})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "create", "tenant", created.ID, nil)
	httpserver.Respond(w, http.StatusCreated, created)
}
