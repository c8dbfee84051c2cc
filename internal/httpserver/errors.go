package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/radixpos/controlplane/internal/apperr"
)

// RespondErr writes the appropriate status/body for err, logging internal
// errors (kind apperr.Internal or an unrecognised error) at error level since
// those represent bugs rather than expected client-facing failures.
func RespondErr(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code, status, message := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "path", r.URL.Path, "method", r.Method, "error", err)
	}
	RespondError(w, status, code, message)
}
