// Package impersonation implements the short-lived store impersonation
// link: an operator mints a signed token naming a single store, to hand to
// a remote support tool or onsite dashboard that trusts this control
// plane's signature but has no session of its own.
package impersonation

import (
	"time"

	"github.com/google/uuid"
)

// MaxTTL is the ceiling (short-lived, <= 5 min) on a minted link.
const MaxTTL = 5 * time.Minute

// DefaultTTL is used when the caller does not request a shorter one.
const DefaultTTL = MaxTTL

// Params are the inputs to minting a link.
type Params struct {
	StoreID           uuid.UUID
	TargetBaseURL     *string
	CloudAccountID    uuid.UUID
	CloudAccountType  string
	CloudAccountEmail string
	ResellerID        *uuid.UUID
	TenantID          uuid.UUID
}

// Link is the minted impersonation link's response shape.
type Link struct {
	StoreID          uuid.UUID `json:"storeId"`
	StoreCode        string    `json:"storeCode"`
	TargetBaseURL    *string   `json:"targetBaseUrl,omitempty"`
	ExpiresInSeconds int       `json:"expiresInSeconds"`
	URL              string    `json:"url"`
}
