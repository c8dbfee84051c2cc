// Package auth implements the identity and scope resolver (component 4.1 of
// the control plane): session issuance/validation for cloud operators, a
// separate header-based authenticator for edge nodes, and the scope
// predicates that every handler uses to bound its reads and writes to the
// caller's place in the reseller/tenant/store hierarchy.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Account types, in descending scope (OWNER sees everything).
const (
	TypeOwner       = "OWNER"
	TypeReseller    = "RESELLER"
	TypeTenantAdmin = "TENANT_ADMIN"
)

// Method describes how the caller authenticated.
const (
	MethodSession = "session"
	MethodOIDC    = "oidc"
	MethodDev     = "dev"
)

// Session represents an authenticated cloud operator for the current request.
// AccountType determines which of ResellerID/TenantID, if either, is set:
// OWNER has neither, RESELLER has only ResellerID, TENANT_ADMIN has only
// TenantID. Handlers should treat this invariant as total — it is enforced
// at login and account-creation time, never re-checked downstream.
type Session struct {
	AccountID   uuid.UUID
	AccountType string
	Email       string
	DisplayName string
	ResellerID  *uuid.UUID
	TenantID    *uuid.UUID
	Method      string
}

type ctxKey string

const sessionKey ctxKey = "cloud_session"

// NewContext stores the session in the context.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext extracts the session from the context. Returns nil if absent.
func FromContext(ctx context.Context) *Session {
	v, _ := ctx.Value(sessionKey).(*Session)
	return v
}
