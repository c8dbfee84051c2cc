package reseller

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/httpserver"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// Handler serves the reseller endpoints. Both routes are mounted behind an
// OWNER-only middleware in
// internal/app/app.go: resellers are the top of the tree, so listing or
// creating them is never in scope for a RESELLER or TENANT_ADMIN session.
type Handler struct {
	repo   *Repo
	audit  *audit.Writer
	logger *slog.Logger
}

// NewHandler builds a reseller Handler.
func NewHandler(repo *Repo, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, audit: auditWriter, logger: logger}
}

type createRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=200"`
}

// List handles GET /cloud/platform/resellers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"resellers": items})
}

// Create handles POST /cloud/platform/resellers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	code := normalizeCode(req.Code)
	if !codePattern.MatchString(code) {
		httpserver.RespondErr(w, r, h.logger, apperr.Validationf("code must contain only A-Z, 0-9, _, -"))
		return
	}

	created, err := h.repo.Create(r.Context(), CreateParams{Code: code, Name: req.Name})
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	h.audit.LogFromRequest(r, "create", "reseller", created.ID, nil)
	httpserver.Respond(w, http.StatusCreated, created)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
