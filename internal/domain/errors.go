package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRegistered = errors.New("node already registered")
	ErrNodeNotFound      = errors.New("node not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrNotCheckpointable = errors.New("node does not support checkpointing")
	ErrPoolExhausted     = errors.New("tensor pool exhausted")
	ErrSlotFree          = errors.New("tensor slot is not allocated")
	ErrStaleDescriptor   = errors.New("stale tensor descriptor")
	ErrPoolClosed        = errors.New("tensor pool closed")
)

// RestartLimitError is returned by Restart once restart_count exceeds the
// configured budget. It is a recoverable, typed result: the caller decides
// whether to mark the node crashed.
type RestartLimitError struct {
	Node     string
	Attempts int
	Max      int
}

func (e *RestartLimitError) Error() string {
	return fmt.Sprintf("node %s exceeded restart limit: %d attempts, max %d", e.Node, e.Attempts, e.Max)
}

func IsRestartLimitExceeded(err error) bool {
	var limitErr *RestartLimitError
	return errors.As(err, &limitErr)
}

type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config field %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

type NodeError struct {
	Node string
	Op   string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node[%s] %s: %v", e.Node, e.Op, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func NewNodeError(node, op string, err error) *NodeError {
	return &NodeError{Node: node, Op: op, Err: err}
}

func IsStaleDescriptor(err error) bool {
	return errors.Is(err, ErrStaleDescriptor)
}

func IsPoolExhausted(err error) bool {
	return errors.Is(err, ErrPoolExhausted)
}
