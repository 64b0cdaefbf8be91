package domain

import (
	"time"
)

type NodeState string

const (
	NodeStateUninitialized NodeState = "uninitialized"
	NodeStateInitializing  NodeState = "initializing"
	NodeStateRunning       NodeState = "running"
	NodeStatePaused        NodeState = "paused"
	NodeStateStopping      NodeState = "stopping"
	NodeStateStopped       NodeState = "stopped"
	NodeStateError         NodeState = "error"
	NodeStateCrashed       NodeState = "crashed"
)

// ParseNodeState maps a persisted state string back to a NodeState.
// Unrecognized strings degrade to NodeStateUninitialized so a reader of an
// old or foreign record never fails on an unknown value.
func ParseNodeState(s string) NodeState {
	switch NodeState(s) {
	case NodeStateUninitialized, NodeStateInitializing, NodeStateRunning,
		NodeStatePaused, NodeStateStopping, NodeStateStopped,
		NodeStateError, NodeStateCrashed:
		return NodeState(s)
	default:
		return NodeStateUninitialized
	}
}

func (s NodeState) IsTerminal() bool {
	return s == NodeStateStopped || s == NodeStateCrashed
}

// Priority orders nodes for the external scheduler; lower values run first.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 10
	PriorityNormal   Priority = 50
	PriorityLow      Priority = 100
)

type TopicRegistration struct {
	Topic        string    `json:"topic"`
	MessageType  string    `json:"message_type"`
	RegisteredAt time.Time `json:"registered_at"`
}

type NodeIdentity struct {
	Name       string `json:"name"`
	NodeID     string `json:"node_id"`
	InstanceID string `json:"instance_id"`
}
