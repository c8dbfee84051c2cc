// Package claim implements the onsite claim handshake: a two-phase process
// that pairs a previously unknown on-premise server with a cloud store and
// bootstraps its first node token, calling out to two public endpoints on
// the edge server itself.
package claim

import (
	"time"

	"github.com/google/uuid"
)

// ConsumeRequest is the body sent to <edgeBaseUrl>/onsite/public/claim/consume.
type ConsumeRequest struct {
	ClaimID   string `json:"claimId"`
	ClaimCode string `json:"claimCode"`
}

// ConsumeResponse is the edge's reply to claim/consume.
type ConsumeResponse struct {
	ServerUID         string  `json:"serverUid"`
	ServerLabel       *string `json:"serverLabel,omitempty"`
	StoreNameHint     *string `json:"storeNameHint,omitempty"`
	AddressHint       *string `json:"addressHint,omitempty"`
	TimezoneHint      *string `json:"timezoneHint,omitempty"`
	FinalizeToken     *string `json:"finalizeToken,omitempty"`
	FinalizeExpiresAt *time.Time `json:"finalizeExpiresAt,omitempty"`
}

// FinalizeRequest is the body sent to <edgeBaseUrl>/onsite/public/claim/finalize.
// Its response is ignored on success.
type FinalizeRequest struct {
	FinalizeToken  string    `json:"finalizeToken"`
	CloudStoreID   uuid.UUID `json:"cloudStoreId"`
	CloudStoreCode string    `json:"cloudStoreCode"`
	CloudNodeID    uuid.UUID `json:"cloudNodeId"`
	NodeKey        string    `json:"nodeKey"`
	NodeToken      string    `json:"nodeToken"`
	CloudBaseURL   *string   `json:"cloudBaseUrl,omitempty"`
	LinkedBy       uuid.UUID `json:"linkedBy"`
}

// Params are the operator-supplied inputs to POST
// /cloud/platform/onsite/claim.
type Params struct {
	OnsiteBaseURL string
	ClaimID       string
	ClaimCode     string
	TenantID      *uuid.UUID
	StoreID       *uuid.UUID
	StoreName     *string
	StoreCode     *string
	Timezone      *string
	EdgeBaseURL   *string
	CloudBaseURL  *string
	NodeLabel     *string
	LinkedBy      uuid.UUID
	// InferredCloudBaseURL is derived from the inbound request's headers
	// (x-forwarded-proto + x-forwarded-host, or host) when CloudBaseURL is
	// not supplied.
	InferredCloudBaseURL string
}

// Onsite reports the finalize outcome; finalize failure is non-fatal, so a
// claim can succeed with Finalized=false.
type Onsite struct {
	ServerUID      string  `json:"serverUid"`
	Finalized      bool    `json:"finalized"`
	FinalizeError  *string `json:"finalizeError,omitempty"`
}
