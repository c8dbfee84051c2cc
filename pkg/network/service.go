package network

import (
	"context"
	"time"

	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/pkg/node"
	"github.com/radixpos/controlplane/pkg/notify"
	"github.com/radixpos/controlplane/pkg/store"
)

// Service builds the aggregate network view by composing the existing
// store and node Repos rather than duplicating their SQL.
type Service struct {
	stores   *store.Repo
	nodes    *node.Repo
	notifier *notify.Notifier
}

// NewService builds a network Service. notifier may be nil, in which case
// no node-offline alerting happens (equivalent to an unconfigured Slack
// notifier, just without even the noop-log call).
func NewService(stores *store.Repo, nodes *node.Repo, notifier *notify.Notifier) *Service {
	return &Service{stores: stores, nodes: nodes, notifier: notifier}
}

// Summary builds the GET /cloud/platform/network response: every store
// visible under scope, each annotated with its nodes' derived health.
func (s *Service) Summary(ctx context.Context, scope auth.ScopeFilter, f Filter) (Result, error) {
	stores, err := s.stores.ListForScope(ctx, scope, f.StoreStatus)
	if err != nil {
		return Result{}, err
	}

	now := time.Now()
	var result Result
	for _, st := range stores {
		nodes, err := s.nodes.ListForStore(ctx, st.ID)
		if err != nil {
			return Result{}, err
		}

		views := make([]NodeView, 0, len(nodes))
		for _, n := range nodes {
			healthStatus, age := node.Health(n.Status, n.LastSeenAt, now)

			result.Summary.TotalNodes++
			switch healthStatus {
			case node.HealthOnline:
				result.Summary.OnlineNodes++
			case node.HealthStale:
				result.Summary.StaleNodes++
			case node.HealthOffline:
				result.Summary.OfflineNodes++
			}

			if s.notifier != nil {
				s.notifier.ObserveNodeHealth(ctx, n.ID, st.Code, n.Label, healthStatus, age)
			}

			if f.NodeStatus != nil && healthStatus != *f.NodeStatus {
				continue
			}
			views = append(views, NodeView{Node: n, HealthStatus: healthStatus, HeartbeatAgeSeconds: age})
		}

		// A store with no nodes at all is "unlinked" (includeUnlinked); one
		// whose nodes were merely excluded by nodeStatus still belongs in
		// the list, just with a shorter slice.
		if len(nodes) == 0 && !f.IncludeUnlinked {
			continue
		}

		result.Summary.TotalStores++
		result.Stores = append(result.Stores, StoreView{Store: st, Nodes: views})
	}

	return result, nil
}
