package auth

import (
	"context"
	"net/http"
	"strings"
)

// AccountLookup resolves an authenticated identity (by session subject or by
// verified SSO email) to the Session the rest of the request should run as.
// Implemented by pkg/cloudaccount; declared here so this package stays a leaf.
type AccountLookup interface {
	FindSessionByAccountID(ctx context.Context, accountID string) (*Session, error)
	FindSessionByEmail(ctx context.Context, email string) (*Session, error)
}

// SessionAuth authenticates the caller as a cloud operator. It accepts either
// a self-issued session token or, if oidcAuth is configured, a verified SSO
// ID token — in that order, matching how IssueToken/ValidateToken and
// OIDCAuthenticator are wired in internal/app.
func SessionAuth(sm *SessionManager, oidcAuth *OIDCAuthenticator, lookup AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondUnauthenticated(w, "missing bearer token")
				return
			}

			if session, err := sm.ValidateToken(token); err == nil {
				next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), session)))
				return
			}

			if oidcAuth != nil {
				claims, err := oidcAuth.Authenticate(r.Context(), token)
				if err == nil {
					session, err := lookup.FindSessionByEmail(r.Context(), claims.Email)
					if err == nil {
						session.Method = MethodOIDC
						next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), session)))
						return
					}
				}
			}

			respondUnauthenticated(w, "invalid or expired token")
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

func respondUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
