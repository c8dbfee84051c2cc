// Package network implements the operator-facing network view: an
// aggregate join of stores and their nodes, with each node's health derived
// the same way pkg/node derives it for any other read.
package network

import (
	"github.com/google/uuid"

	"github.com/radixpos/controlplane/pkg/node"
	"github.com/radixpos/controlplane/pkg/store"
)

// NodeView is a Node annotated with its derived health.
type NodeView struct {
	node.Node
	HealthStatus       string `json:"healthStatus"`
	HeartbeatAgeSeconds int   `json:"heartbeatAgeSeconds"`
}

// StoreView is a Store together with the nodes visible under the requested
// filter.
type StoreView struct {
	store.Store
	Nodes []NodeView `json:"nodes"`
}

// Summary is the aggregate counts returned alongside the store list.
type Summary struct {
	TotalStores  int `json:"totalStores"`
	TotalNodes   int `json:"totalNodes"`
	OnlineNodes  int `json:"onlineNodes"`
	StaleNodes   int `json:"staleNodes"`
	OfflineNodes int `json:"offlineNodes"`
}

// Filter narrows the network view.
type Filter struct {
	StoreStatus     *string
	NodeStatus      *string
	IncludeUnlinked bool
}

// Result is the response body of GET /cloud/platform/network.
type Result struct {
	Summary Summary     `json:"summary"`
	Stores  []StoreView `json:"stores"`
}

// ParseOptionalID parses an optional UUID query parameter, returning nil for
// an empty string.
func ParseOptionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
