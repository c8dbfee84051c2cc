package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// OIDCFlowHandler drives the OAuth2 Authorization Code flow for cloud
// operator SSO: Redis-backed CSRF state, then an Exchange/Authenticate
// sequence. It never provisions an account on first login — every
// CloudAccount must be created explicitly by an OWNER or RESELLER admin
// endpoint, so a verified identity with no matching account is rejected
// rather than auto-enrolled.
type OIDCFlowHandler struct {
	oauth2Cfg  *oauth2.Config
	oidcAuth   *OIDCAuthenticator
	sessionMgr *SessionManager
	lookup     AccountLookup
	redis      *redis.Client
	logger     *slog.Logger
}

// NewOIDCFlowHandler builds an OIDCFlowHandler.
func NewOIDCFlowHandler(
	oauth2Cfg *oauth2.Config,
	oidcAuth *OIDCAuthenticator,
	sm *SessionManager,
	lookup AccountLookup,
	rdb *redis.Client,
	logger *slog.Logger,
) *OIDCFlowHandler {
	return &OIDCFlowHandler{
		oauth2Cfg:  oauth2Cfg,
		oidcAuth:   oidcAuth,
		sessionMgr: sm,
		lookup:     lookup,
		redis:      rdb,
		logger:     logger,
	}
}

const oidcStateTTL = 10 * time.Minute

// HandleLogin redirects the operator to the configured IdP.
func (h *OIDCFlowHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		respondErrJSON(w, http.StatusInternalServerError, "internal", "failed to generate state")
		return
	}

	if err := h.redis.Set(r.Context(), "oidc_state:"+state, "1", oidcStateTTL).Err(); err != nil {
		h.logger.Error("oidc: storing state in redis", "error", err)
		respondErrJSON(w, http.StatusInternalServerError, "internal", "failed to store state")
		return
	}

	http.Redirect(w, r, h.oauth2Cfg.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback handles the IdP's redirect back after authentication,
// exchanges the code, verifies the ID token, and issues a session for the
// CloudAccount matching its email — never creating one.
func (h *OIDCFlowHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := r.URL.Query().Get("state")
	if state == "" {
		respondErrJSON(w, http.StatusBadRequest, "bad_request", "missing state parameter")
		return
	}
	if result, err := h.redis.GetDel(ctx, "oidc_state:"+state).Result(); err != nil || result == "" {
		respondErrJSON(w, http.StatusBadRequest, "bad_request", "invalid or expired state")
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		desc := r.URL.Query().Get("error_description")
		h.logger.Warn("oidc: idp returned error", "error", errParam, "description", desc)
		respondErrJSON(w, http.StatusUnauthorized, "unauthorized", "authentication failed: "+errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondErrJSON(w, http.StatusBadRequest, "bad_request", "missing code parameter")
		return
	}

	oauth2Token, err := h.oauth2Cfg.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("oidc: code exchange failed", "error", err)
		respondErrJSON(w, http.StatusUnauthorized, "unauthorized", "code exchange failed")
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		respondErrJSON(w, http.StatusUnauthorized, "unauthorized", "no id_token in response")
		return
	}

	claims, err := h.oidcAuth.Authenticate(ctx, "Bearer "+rawIDToken)
	if err != nil {
		h.logger.Error("oidc: token verification failed", "error", err)
		respondErrJSON(w, http.StatusUnauthorized, "unauthorized", "invalid id_token")
		return
	}

	session, err := h.lookup.FindSessionByEmail(ctx, claims.Email)
	if err != nil {
		h.logger.Warn("oidc: no cloud account for verified identity", "email", claims.Email)
		respondErrJSON(w, http.StatusForbidden, "forbidden", "no cloud account registered for this identity")
		return
	}
	session.Method = MethodOIDC

	token, err := h.sessionMgr.IssueToken(session)
	if err != nil {
		h.logger.Error("oidc: issuing session token", "error", err)
		respondErrJSON(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}

	redirectURL := fmt.Sprintf("%s?token=%s", h.oauth2Cfg.RedirectURL, token)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func respondErrJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
