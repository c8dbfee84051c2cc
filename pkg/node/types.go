// Package node implements the node registry and health component:
// registration via single-use bootstrap tokens, heartbeats, token rotation,
// and health classification derived from heartbeat age.
package node

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Raw self-reported status values a node may carry (distinct from the
// derived health status computed by Health).
const (
	RawStatusOnline = "ONLINE"
)

// Derived health classifications.
const (
	HealthOnline  = "ONLINE"
	HealthStale   = "STALE"
	HealthOffline = "OFFLINE"
)

const (
	onlineWindow  = 120 * time.Second
	staleWindow   = 900 * time.Second
)

// Node is a registered edge process inside a store.
type Node struct {
	ID              uuid.UUID       `json:"id"`
	StoreID         uuid.UUID       `json:"storeId"`
	Label           string          `json:"label"`
	NodeKey         string          `json:"nodeKey"`
	TokenHash       string          `json:"-"`
	Status          string          `json:"status"`
	SoftwareVersion *string         `json:"softwareVersion,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	LastSeenAt      time.Time       `json:"lastSeenAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Health derives a node's effective health from its raw status and the age
// of its last heartbeat:
//
//	age <= 120s            -> ONLINE
//	120s < age <= 900s      -> STALE
//	age > 900s              -> OFFLINE
//
// A rawStatus of ONLINE with age <= 900s is classified STALE, which this
// threshold ladder already produces, so no separate branch on rawStatus is
// needed.
func Health(rawStatus string, lastSeenAt time.Time, now time.Time) (status string, ageSeconds int) {
	age := now.Sub(lastSeenAt)
	ageSeconds = int(age.Seconds())
	switch {
	case age <= onlineWindow:
		return HealthOnline, ageSeconds
	case age <= staleWindow:
		return HealthStale, ageSeconds
	default:
		return HealthOffline, ageSeconds
	}
}

// BootstrapToken is a single-use credential that allows a node to
// self-register under a specific store.
type BootstrapToken struct {
	ID        uuid.UUID  `json:"id"`
	StoreID   uuid.UUID  `json:"storeId"`
	Label     string     `json:"label"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// RegisterParams are the inputs to registerNode.
type RegisterParams struct {
	StoreID         uuid.UUID
	BootstrapToken  string
	Label           string
	SoftwareVersion *string
	Metadata        json.RawMessage
}

// HeartbeatParams are the inputs to heartbeat.
type HeartbeatParams struct {
	SoftwareVersion *string
	Metadata        json.RawMessage
}
