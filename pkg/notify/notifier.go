// Package notify posts node-offline alerts to Slack: a single message type
// scoped down to the one health transition this control plane needs to
// surface, rather than a general alert framework.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	goslack "github.com/slack-go/slack"

	"github.com/google/uuid"

	"github.com/radixpos/controlplane/pkg/node"
)

// Notifier posts node health transitions to a single configured Slack
// channel. If botToken is empty it is a noop (logging only).
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger

	mu     sync.Mutex
	offline map[uuid.UUID]bool
}

// NewNotifier creates a Notifier. If botToken is empty, the notifier is a
// noop (logging only), matching local development without Slack configured.
func NewNotifier(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{
		client:  client,
		channel: channel,
		logger:  logger,
		offline: make(map[uuid.UUID]bool),
	}
}

// IsEnabled reports whether this notifier has a usable Slack client.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// ObserveNodeHealth posts a message the first time a node's derived health
// is seen as OFFLINE, and clears that memory once the node recovers, so a
// node flapping ONLINE/OFFLINE produces one alert per outage rather than one
// per request that happens to observe it — the network summary endpoint has
// no scheduler of its own to dedupe against.
func (n *Notifier) ObserveNodeHealth(ctx context.Context, nodeID uuid.UUID, storeCode, nodeLabel, healthStatus string, ageSeconds int) {
	n.mu.Lock()
	wasOffline := n.offline[nodeID]
	isOffline := healthStatus == node.HealthOffline
	n.offline[nodeID] = isOffline
	n.mu.Unlock()

	if isOffline && !wasOffline {
		n.postOffline(ctx, storeCode, nodeLabel, ageSeconds)
	}
}

func (n *Notifier) postOffline(ctx context.Context, storeCode, nodeLabel string, ageSeconds int) {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping node-offline alert",
			"store_code", storeCode, "node_label", nodeLabel)
		return
	}

	text := fmt.Sprintf(":red_circle: Node *%s* at store *%s* went OFFLINE (last heartbeat %ds ago)",
		nodeLabel, storeCode, ageSeconds)

	_, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Warn("posting node-offline alert to slack", "error", err, "store_code", storeCode, "node_label", nodeLabel)
		return
	}
	n.logger.Info("posted node-offline alert to slack", "store_code", storeCode, "node_label", nodeLabel)
}
