// Package tenant implements the Tenant entity of the platform hierarchy:
// owned by an optional Reseller, and itself owning Stores.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a merchant organization that owns zero or more Stores.
type Tenant struct {
	ID         uuid.UUID  `json:"id"`
	Slug       string     `json:"slug"`
	Name       string     `json:"name"`
	Active     bool       `json:"active"`
	ResellerID *uuid.UUID `json:"resellerId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CreateParams are the inputs to creating a Tenant.
type CreateParams struct {
	Slug       string
	Name       string
	ResellerID *uuid.UUID
}

// ListFilter scopes a tenant listing by the caller's session.
type ListFilter struct {
	// ResellerID, if set, restricts the listing to tenants owned by this
	// reseller (forced for RESELLER sessions).
	ResellerID *uuid.UUID
}
