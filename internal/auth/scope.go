package auth

import "github.com/google/uuid"

// ScopeKind identifies which branch of the hierarchy a session is pinned to.
// This is the "scope predicates as data" shape: rather than branching on
// AccountType in every handler, callers derive a ScopeFilter once and pass it
// down to the store layer, which already knows how to turn each kind into a
// WHERE clause for its own table.
type ScopeKind int

const (
	ScopeOwner ScopeKind = iota
	ScopeReseller
	ScopeTenant
)

// ScopeFilter is the compile-time variant {Owner, Reseller(id), Tenant(id)}.
// Only the field matching Kind is meaningful.
type ScopeFilter struct {
	Kind       ScopeKind
	ResellerID uuid.UUID
	TenantID   uuid.UUID
}

// Scope derives the filter for this session. Every handler that lists or
// mutates hierarchy data should call this once and hand the result to the
// store, instead of re-deriving it from AccountType itself.
func (s *Session) Scope() ScopeFilter {
	switch s.AccountType {
	case TypeReseller:
		return ScopeFilter{Kind: ScopeReseller, ResellerID: derefOrNil(s.ResellerID)}
	case TypeTenantAdmin:
		return ScopeFilter{Kind: ScopeTenant, TenantID: derefOrNil(s.TenantID)}
	default:
		return ScopeFilter{Kind: ScopeOwner}
	}
}

func derefOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// TenantRef is the minimal tenant shape scope predicates need. Defined here
// (rather than imported from pkg/tenant) so this package stays a leaf with no
// dependency on the domain packages that depend on it.
type TenantRef struct {
	ID         uuid.UUID
	ResellerID *uuid.UUID
}

// CanAccessReseller is true if the session is OWNER, or is the RESELLER
// itself. TENANT_ADMIN sessions never pass — reseller-level endpoints are
// outside a tenant admin's scope entirely.
func (s *Session) CanAccessReseller(resellerID uuid.UUID) bool {
	switch s.AccountType {
	case TypeOwner:
		return true
	case TypeReseller:
		return s.ResellerID != nil && *s.ResellerID == resellerID
	default:
		return false
	}
}

// CanAccessTenant is true if the session is OWNER, the RESELLER that owns the
// tenant, or the TENANT_ADMIN of that tenant.
func (s *Session) CanAccessTenant(t TenantRef) bool {
	switch s.AccountType {
	case TypeOwner:
		return true
	case TypeReseller:
		return s.ResellerID != nil && t.ResellerID != nil && *s.ResellerID == *t.ResellerID
	case TypeTenantAdmin:
		return s.TenantID != nil && *s.TenantID == t.ID
	default:
		return false
	}
}
