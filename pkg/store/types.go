// Package store implements the Store entity of the platform hierarchy: a
// physical restaurant location owned by a Tenant, which in turn owns
// Nodes, BootstrapTokens, Revisions, and Commands.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Store is a single restaurant location.
type Store struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Timezone     string    `json:"timezone"`
	Status       string    `json:"status"`
	EdgeBaseURL  *string   `json:"edgeBaseUrl,omitempty"`
	TenantID     uuid.UUID `json:"tenantId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Status values a store may carry. The core never derives these — they are
// set directly by operators, unlike Node's derived health status.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// CreateParams are the inputs to creating a Store.
type CreateParams struct {
	Code        string
	Name        string
	Timezone    string
	TenantID    uuid.UUID
	EdgeBaseURL *string
}

// ListFilter scopes a store listing by the caller's session and by optional
// query parameters.
type ListFilter struct {
	TenantID *uuid.UUID
	Status   *string
}
