// Package cloudaccount implements the CloudAccount entity: the
// operator-facing identity behind every cloud session, with the
// OWNER/RESELLER/TENANT_ADMIN invariant enforced at creation time so
// downstream code can treat the reseller/tenant reference as total.
package cloudaccount

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeOwner       = "OWNER"
	TypeReseller    = "RESELLER"
	TypeTenantAdmin = "TENANT_ADMIN"
)

const (
	StatusActive   = "ACTIVE"
	StatusDisabled = "DISABLED"
)

// CloudAccount is an operator login. Invariant: OWNER has neither
// ResellerID nor TenantID set; RESELLER has only ResellerID; TENANT_ADMIN
// has only TenantID. Enforced by the constructors in CreateParams, never
// re-checked downstream.
type CloudAccount struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"displayName"`
	AccountType  string     `json:"accountType"`
	Status       string     `json:"status"`
	ResellerID   *uuid.UUID `json:"resellerId,omitempty"`
	TenantID     *uuid.UUID `json:"tenantId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateParams are the inputs to creating a CloudAccount.
type CreateParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
	AccountType  string
	ResellerID   *uuid.UUID
	TenantID     *uuid.UUID
}
