// Package remoteaction implements the remote action dispatcher: a thin
// specialization of the Command Queue for a fixed vocabulary of operational
// commands, reusing the Command Queue's state machine for retry and cancel.
package remoteaction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Domain is the fixed command domain every remote action is issued under.
const Domain = "REMOTE_ACTION"

// CommandTypePrefix is prepended to the action name to form a Command's
// commandType.
const CommandTypePrefix = "REMOTE_ACTION_"

// Action is the fixed operational action vocabulary.
const (
	ActionHeartbeatNow    = "HEARTBEAT_NOW"
	ActionSyncPull        = "SYNC_PULL"
	ActionRunDiagnostics  = "RUN_DIAGNOSTICS"
	ActionRestartBackend  = "RESTART_BACKEND"
	ActionRestartAgent    = "RESTART_AGENT"
	ActionReloadSettings  = "RELOAD_SETTINGS"
)

// ValidActions is the closed set Action must belong to.
var ValidActions = map[string]bool{
	ActionHeartbeatNow:   true,
	ActionSyncPull:       true,
	ActionRunDiagnostics: true,
	ActionRestartBackend: true,
	ActionRestartAgent:   true,
	ActionReloadSettings: true,
}

// DispatchParams are the inputs to dispatch.
type DispatchParams struct {
	StoreID         uuid.UUID
	Action          string
	NodeID          *uuid.UUID
	TargetAllNodes  bool
	Note            *string
	Parameters      json.RawMessage
	RequestedBy     *uuid.UUID
}

// payload is the JSON embedded in the issued Command's payload: action,
// parameters, note, issuedAt, requestedBy.
type payload struct {
	Action      string          `json:"action"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Note        *string         `json:"note,omitempty"`
	IssuedAt    time.Time       `json:"issuedAt"`
	RequestedBy *uuid.UUID      `json:"requestedBy,omitempty"`
}
