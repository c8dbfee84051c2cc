// Package command implements the Command Queue: durable work items
// targeted at one node or broadcast to any node of a store, with a
// PENDING/ACKED/FAILED lifecycle and an append-only CommandLog audit trail.
package command

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status values of the command lifecycle state machine.
const (
	StatusPending = "PENDING"
	StatusAcked   = "ACKED"
	StatusFailed  = "FAILED"
)

// ErrorCodeCancelledByCloud is set on the terminal FAILED state produced by
// an operator cancel.
const ErrorCodeCancelledByCloud = "CANCELLED_BY_CLOUD"

// CommandLog status labels. Unlike Command.Status, these are free-form
// lifecycle labels rather than a closed enum.
const (
	LogStatusRetryQueued = "RETRY_QUEUED"
	LogStatusCancelled   = "CANCELLED"
)

// Command is a durable work item addressed to one node, or broadcast to any
// node of a store if NodeID is nil.
type Command struct {
	ID              uuid.UUID       `json:"id"`
	StoreID         uuid.UUID       `json:"storeId"`
	NodeID          *uuid.UUID      `json:"nodeId,omitempty"`
	RevisionID      *uuid.UUID      `json:"revisionId,omitempty"`
	Domain          string          `json:"domain"`
	CommandType     string          `json:"commandType"`
	Payload         json.RawMessage `json:"payload"`
	Status          string          `json:"status"`
	Attempts        int             `json:"attempts"`
	AppliedRevision *int            `json:"appliedRevision,omitempty"`
	ErrorCode       *string         `json:"errorCode,omitempty"`
	ErrorDetail     *string         `json:"errorDetail,omitempty"`
	IssuedAt        time.Time       `json:"issuedAt"`
	AcknowledgedAt  *time.Time      `json:"acknowledgedAt,omitempty"`
	CreatedBy       *uuid.UUID      `json:"createdBy,omitempty"`
}

// Log is an append-only CommandLog entry. Never mutated.
type Log struct {
	ID          uuid.UUID       `json:"id"`
	CommandID   uuid.UUID       `json:"commandId"`
	StoreID     uuid.UUID       `json:"storeId"`
	NodeID      *uuid.UUID      `json:"nodeId,omitempty"`
	Status      string          `json:"status"`
	ErrorCode   *string         `json:"errorCode,omitempty"`
	ErrorDetail *string         `json:"errorDetail,omitempty"`
	Output      json.RawMessage `json:"output,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateParams are the inputs to creating a PENDING Command.
type CreateParams struct {
	StoreID     uuid.UUID
	NodeID      *uuid.UUID
	RevisionID  *uuid.UUID
	Domain      string
	CommandType string
	Payload     json.RawMessage
	CreatedBy   *uuid.UUID
}

// AckParams are the inputs to a node's acknowledgement of a command.
type AckParams struct {
	Status          string
	AppliedRevision *int
	ErrorCode       *string
	ErrorDetail     *string
	Output          json.RawMessage
}

// NodeFilter scopes commandsForNode's pull semantics.
type NodeFilter struct {
	NodeID uuid.UUID
	StoreID uuid.UUID
	Statuses []string
}

// StoreFilter scopes commandsForStore's operator-facing read.
type StoreFilter struct {
	StoreID  uuid.UUID
	Statuses []string
	Domain   *string
	NodeID   *uuid.UUID
	Limit    int
}
