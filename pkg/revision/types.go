// Package revision implements the revision ledger: a per-(store, domain)
// append-only sequence of desired-state revisions with strictly increasing
// integer numbers.
package revision

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Revision is an immutable, numbered snapshot of desired state for one
// (store, domain).
type Revision struct {
	ID          uuid.UUID       `json:"id"`
	StoreID     uuid.UUID       `json:"storeId"`
	Domain      string          `json:"domain"`
	Number      int             `json:"number"`
	Payload     json.RawMessage `json:"payload"`
	PublishedBy *uuid.UUID      `json:"publishedBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PublishParams are the inputs to publishRevision.
type PublishParams struct {
	StoreID      uuid.UUID
	Domain       string
	Payload      json.RawMessage
	CommandType  string
	TargetNodeID *uuid.UUID
	PublishedBy  *uuid.UUID
}
