package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/osiris-robotics/plexus/internal/adapters/runtime"
	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

// Registry owns the runtime contexts for every registered node and
// resolves each node's optional capability groups exactly once, at
// registration. The external scheduler drives ticks through it; the
// registry's job is the bookkeeping around a tick, not scheduling policy.
type Registry struct {
	config     *domain.Config
	heartbeats ports.HeartbeatSink
	stream     ports.LogSink
	logger     *slog.Logger

	mu    sync.RWMutex
	nodes map[string]*registeredNode
}

type registeredNode struct {
	node ports.Node
	ctx  *runtime.Context
	caps ports.Capabilities
}

func NewRegistry(config *domain.Config, heartbeats ports.HeartbeatSink, stream ports.LogSink, logger *slog.Logger) (*Registry, error) {
	if err := domain.ValidateConfig(config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		config:     config,
		heartbeats: heartbeats,
		stream:     stream,
		logger:     logger.With("component", "node-registry"),
		nodes:      make(map[string]*registeredNode),
	}, nil
}

// Register creates the node's runtime context, resolves capabilities, and
// registers its declared topics. Duplicate names are rejected.
func (r *Registry) Register(node ports.Node) (*runtime.Context, error) {
	name := node.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[name]; ok {
		return nil, domain.NewNodeError(name, "register", domain.ErrAlreadyRegistered)
	}

	rc, err := runtime.NewWithConfig(name, r.config.Runtime, r.heartbeats, r.stream, r.logger)
	if err != nil {
		return nil, err
	}
	rc.SetPriority(node.Priority())

	for topic, msgType := range node.Publishers() {
		rc.RegisterPublisher(topic, msgType)
	}
	for topic, msgType := range node.Subscribers() {
		rc.RegisterSubscriber(topic, msgType)
	}

	caps := ports.ResolveCapabilities(node)
	r.nodes[name] = &registeredNode{node: node, ctx: rc, caps: caps}

	r.logger.Info("node registered",
		"node", name,
		"priority", node.Priority(),
		"jit", caps.JIT,
		"checkpoint", caps.Checkpoint)
	return rc, nil
}

// Init initializes one node. A setup failure is returned typed to the
// scheduler; it alone decides whether to mark the node crashed.
func (r *Registry) Init(ctx context.Context, name string) error {
	rn, err := r.lookup(name)
	if err != nil {
		return err
	}

	if err := rn.node.Init(ctx); err != nil {
		return domain.NewNodeError(name, "init", err)
	}
	rn.ctx.Initialize()
	return nil
}

// RunTick drives one tick: start bookkeeping, the node's Tick, then
// success or failure recording. Tick errors are routed to the node's
// OnError hook and reported to the caller.
func (r *Registry) RunTick(ctx context.Context, name string) error {
	rn, err := r.lookup(name)
	if err != nil {
		return err
	}

	rn.ctx.StartTick()
	if err := rn.node.Tick(ctx, rn.ctx); err != nil {
		rn.ctx.RecordTickFailure(err.Error())
		rn.node.OnError(err)
		return domain.NewNodeError(name, "tick", err)
	}
	rn.ctx.RecordTick()
	return nil
}

// Shutdown stops one node and writes its final heartbeat.
func (r *Registry) Shutdown(ctx context.Context, name string) error {
	rn, err := r.lookup(name)
	if err != nil {
		return err
	}

	shutdownErr := rn.node.Shutdown(ctx)
	rn.ctx.Shutdown()
	if shutdownErr != nil {
		return domain.NewNodeError(name, "shutdown", shutdownErr)
	}
	return nil
}

// ShutdownAll stops every registered node, lowest priority value first so
// critical nodes report their final state last.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	var firstErr error
	for _, name := range r.NamesByPriority() {
		if err := r.Shutdown(ctx, name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Registry) Context(name string) (*runtime.Context, error) {
	rn, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return rn.ctx, nil
}

func (r *Registry) Capabilities(name string) (ports.Capabilities, error) {
	rn, err := r.lookup(name)
	if err != nil {
		return ports.Capabilities{}, err
	}
	return rn.caps, nil
}

// JITEligible reports whether the scheduler may substitute a compiled
// fast path for this node's tick.
func (r *Registry) JITEligible(name string) bool {
	rn, err := r.lookup(name)
	if err != nil {
		return false
	}
	return rn.caps.JIT
}

// Checkpoint captures the node's persistent state, gated on the
// capability resolved at registration. (nil, nil) means the node has
// nothing to persist right now.
func (r *Registry) Checkpoint(name string) ([]byte, error) {
	rn, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if !rn.caps.Checkpoint {
		return nil, domain.NewNodeError(name, "checkpoint", domain.ErrNotCheckpointable)
	}

	data, ok := rn.node.(ports.Checkpointable).CheckpointState()
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (r *Registry) Restore(name string, data []byte) error {
	rn, err := r.lookup(name)
	if err != nil {
		return err
	}
	if !rn.caps.Checkpoint {
		return domain.NewNodeError(name, "restore", domain.ErrNotCheckpointable)
	}
	if err := rn.node.(ports.Checkpointable).RestoreState(data); err != nil {
		return domain.NewNodeError(name, "restore", err)
	}
	return nil
}

// NamesByPriority returns registered node names ordered for the external
// scheduler: lower priority value first, name as tie-break.
func (r *Registry) NamesByPriority() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi := r.nodes[names[i]].ctx.Priority()
		pj := r.nodes[names[j]].ctx.Priority()
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

func (r *Registry) lookup(name string) (*registeredNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rn, ok := r.nodes[name]
	if !ok {
		return nil, domain.NewNodeError(name, "lookup", fmt.Errorf("%w: %s", domain.ErrNodeNotFound, name))
	}
	return rn, nil
}
