package cloudaccount

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/httpserver"
)

// LoginHandler serves the operator authentication endpoints.
type LoginHandler struct {
	repo           *Repo
	sessionManager *auth.SessionManager
	rateLimiter    *auth.RateLimiter
	logger         *slog.Logger
}

// NewLoginHandler builds a LoginHandler.
func NewLoginHandler(repo *Repo, sm *auth.SessionManager, rl *auth.RateLimiter, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{repo: repo, sessionManager: sm, rateLimiter: rl, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string       `json:"token"`
	Account CloudAccount `json:"account"`
}

// HandleLogin handles POST /cloud/auth/login.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	allowed, err := h.rateLimiter.Check(r.Context(), req.Email)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	if !allowed {
		httpserver.RespondErr(w, r, h.logger, apperr.Unauthenticatedf("too many login attempts, try again later"))
		return
	}

	account, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		_ = h.rateLimiter.Record(r.Context(), req.Email)
		httpserver.RespondErr(w, r, h.logger, apperr.Unauthenticatedf("invalid email or password"))
		return
	}

	if account.Status != StatusActive {
		httpserver.RespondErr(w, r, h.logger, apperr.Unauthenticatedf("invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		_ = h.rateLimiter.Record(r.Context(), req.Email)
		httpserver.RespondErr(w, r, h.logger, apperr.Unauthenticatedf("invalid email or password"))
		return
	}

	_ = h.rateLimiter.Reset(r.Context(), req.Email)

	token, err := h.sessionManager.IssueToken(ToSession(account))
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, loginResponse{Token: token, Account: account})
}

// HandleMe handles GET /cloud/auth/me.
func (h *LoginHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	account, err := h.repo.Get(r.Context(), session.AccountID)
	if err != nil {
		httpserver.RespondErr(w, r, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"account": account})
}

// HashPassword hashes a plaintext password for storage. Account creation
// handlers call this.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	return string(hash), err
}
