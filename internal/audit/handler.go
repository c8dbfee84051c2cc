package audit

import (
	"log/slog"
	"net/http"

	"github.com/radixpos/controlplane/internal/httpserver"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Handler serves GET /cloud/platform/audit-log (OWNER only, mounted with
// auth.RequireAccountType(auth.TypeOwner) by the caller — scope predicates
// stop at the reseller/tenant/store hierarchy and don't reach this log).
type Handler struct {
	repo   *Repo
	logger *slog.Logger
}

// NewHandler creates an audit log Handler.
func NewHandler(repo *Repo, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /cloud/platform/audit-log.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := httpserver.ParseLimit(r, defaultListLimit, maxListLimit)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	entries, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing audit log", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list audit log")
		return
	}

	httpserver.Respond(w, http.StatusOK, entries)
}
