package remoteaction

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// fakeNodeCounter is a minimal nodeCounter stub — Dispatch's validation
// guards run before any database write, so they can be exercised without a
// real command.Repo.
type fakeNodeCounter struct {
	count      int
	belongs    bool
	countErr   error
	belongsErr error
}

func (f *fakeNodeCounter) CountForStore(ctx context.Context, storeID uuid.UUID) (int, error) {
	return f.count, f.countErr
}

func (f *fakeNodeCounter) BelongsToStore(ctx context.Context, nodeID, storeID uuid.UUID) (bool, error) {
	return f.belongs, f.belongsErr
}

func TestService_Dispatch_UnknownAction(t *testing.T) {
	svc := NewService(nil, nil, &fakeNodeCounter{count: 1}, nil)
	_, err := svc.Dispatch(context.Background(), DispatchParams{
		StoreID: uuid.New(),
		Action:  "DO_THE_THING",
	})
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestService_Dispatch_NoNodes(t *testing.T) {
	svc := NewService(nil, nil, &fakeNodeCounter{count: 0}, nil)
	_, err := svc.Dispatch(context.Background(), DispatchParams{
		StoreID: uuid.New(),
		Action:  ActionHeartbeatNow,
	})
	if err == nil {
		t.Fatal("expected error for store with no nodes")
	}
}

func TestService_Dispatch_AmbiguousTarget(t *testing.T) {
	// Two nodes, no explicit nodeId, targetAllNodes not set: ambiguous.
	svc := NewService(nil, nil, &fakeNodeCounter{count: 2}, nil)
	_, err := svc.Dispatch(context.Background(), DispatchParams{
		StoreID: uuid.New(),
		Action:  ActionSyncPull,
	})
	if err == nil {
		t.Fatal("expected error when neither nodeId nor targetAllNodes is set with multiple nodes")
	}
}

func TestService_Dispatch_NodeNotInStore(t *testing.T) {
	nodeID := uuid.New()
	svc := NewService(nil, nil, &fakeNodeCounter{count: 1, belongs: false}, nil)
	_, err := svc.Dispatch(context.Background(), DispatchParams{
		StoreID: uuid.New(),
		Action:  ActionRestartAgent,
		NodeID:  &nodeID,
	})
	if err == nil {
		t.Fatal("expected error when target node does not belong to store")
	}
}

func TestValidActions(t *testing.T) {
	for _, action := range []string{
		ActionHeartbeatNow, ActionSyncPull, ActionRunDiagnostics,
		ActionRestartBackend, ActionRestartAgent, ActionReloadSettings,
	} {
		if !ValidActions[action] {
			t.Errorf("expected %q to be a valid action", action)
		}
	}
	if ValidActions["NOT_A_REAL_ACTION"] {
		t.Error("expected unknown action to be invalid")
	}
}
