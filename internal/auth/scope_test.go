package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestSession_Scope(t *testing.T) {
	resellerID := uuid.New()
	tenantID := uuid.New()

	tests := []struct {
		name string
		s    Session
		want ScopeKind
	}{
		{"owner", Session{AccountType: TypeOwner}, ScopeOwner},
		{"reseller", Session{AccountType: TypeReseller, ResellerID: &resellerID}, ScopeReseller},
		{"tenant admin", Session{AccountType: TypeTenantAdmin, TenantID: &tenantID}, ScopeTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.Scope()
			if got.Kind != tt.want {
				t.Errorf("Scope().Kind = %v, want %v", got.Kind, tt.want)
			}
			switch tt.want {
			case ScopeReseller:
				if got.ResellerID != resellerID {
					t.Errorf("ResellerID = %v, want %v", got.ResellerID, resellerID)
				}
			case ScopeTenant:
				if got.TenantID != tenantID {
					t.Errorf("TenantID = %v, want %v", got.TenantID, tenantID)
				}
			}
		})
	}
}

func TestSession_CanAccessReseller(t *testing.T) {
	resellerA := uuid.New()
	resellerB := uuid.New()

	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"owner always passes", Session{AccountType: TypeOwner}, true},
		{"reseller matching id passes", Session{AccountType: TypeReseller, ResellerID: &resellerA}, true},
		{"reseller other id rejected", Session{AccountType: TypeReseller, ResellerID: &resellerB}, false},
		{"tenant admin always rejected", Session{AccountType: TypeTenantAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.CanAccessReseller(resellerA); got != tt.want {
				t.Errorf("CanAccessReseller() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_CanAccessTenant(t *testing.T) {
	resellerA := uuid.New()
	resellerB := uuid.New()
	tenant := TenantRef{ID: uuid.New(), ResellerID: &resellerA}

	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"owner always passes", Session{AccountType: TypeOwner}, true},
		{"owning reseller passes", Session{AccountType: TypeReseller, ResellerID: &resellerA}, true},
		{"other reseller rejected", Session{AccountType: TypeReseller, ResellerID: &resellerB}, false},
		{"matching tenant admin passes", Session{AccountType: TypeTenantAdmin, TenantID: &tenant.ID}, true},
		{"other tenant admin rejected", Session{AccountType: TypeTenantAdmin, TenantID: &resellerB}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.CanAccessTenant(tenant); got != tt.want {
				t.Errorf("CanAccessTenant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_CanAccessTenant_NoResellerOnTenant(t *testing.T) {
	// A tenant with no reseller (owner-provisioned) is only reachable by
	// OWNER and its own TENANT_ADMIN, never by any RESELLER session.
	tenant := TenantRef{ID: uuid.New(), ResellerID: nil}
	resellerID := uuid.New()

	s := Session{AccountType: TypeReseller, ResellerID: &resellerID}
	if s.CanAccessTenant(tenant) {
		t.Error("expected reseller session to be rejected for a tenant with no reseller")
	}
}
