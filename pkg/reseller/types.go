// Package reseller implements the Reseller entity of the platform
// hierarchy: the top level below OWNER, which may own Tenants.
package reseller

import (
	"time"

	"github.com/google/uuid"
)

// Reseller is an immutable-code partner account that owns zero or more
// Tenants.
type Reseller struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateParams are the inputs to creating a Reseller.
type CreateParams struct {
	Code string
	Name string
}
