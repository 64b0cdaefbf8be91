// Package plexus provides the per-node runtime core of a robotics pub/sub
// middleware: the node lifecycle/state engine, its cross-process health
// broadcast, and the zero-copy tensor pool contract that moves large
// payloads between processes without copying.
//
// A node registered here is driven by an external scheduler through an
// init/tick/shutdown lifecycle. Every tick updates the node's runtime
// context, which rewrites a globally readable heartbeat slot so any
// process on the host can judge the node's liveness and health. Large
// payloads produced during a tick are allocated from a TensorPool and
// handed onward as descriptor values.
//
// Basic usage:
//
//	rt, err := plexus.New(plexus.DefaultConfig(), logger)
//	rt.Register(&CameraNode{})
//	rt.Init(ctx, "camera")
//	rt.RunTick(ctx, "camera")
//	rt.ShutdownAll(ctx)
package plexus

import (
	"context"
	"log/slog"

	"github.com/osiris-robotics/plexus/internal/adapters/heartbeat"
	"github.com/osiris-robotics/plexus/internal/adapters/observability"
	"github.com/osiris-robotics/plexus/internal/adapters/runtime"
	"github.com/osiris-robotics/plexus/internal/adapters/tensor"
	"github.com/osiris-robotics/plexus/internal/core"
	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

// Node is the contract the external scheduler drives. Optional capability
// groups (JIT eligibility, checkpointing) are advertised through the
// JITCapable and Checkpointable extension interfaces and resolved once at
// registration.
type Node = ports.Node

type TickContext = ports.TickContext
type JITCapable = ports.JITCapable
type Checkpointable = ports.Checkpointable
type Capabilities = ports.Capabilities

type Config = domain.Config
type NodeState = domain.NodeState
type NodeMetrics = domain.NodeMetrics
type HealthStatus = domain.HealthStatus
type HeartbeatRecord = domain.HeartbeatRecord
type NetworkStatusRecord = domain.NetworkStatusRecord
type TensorDescriptor = domain.TensorDescriptor
type DType = domain.DType
type Device = domain.Device
type Priority = domain.Priority

type TensorPool = ports.TensorPool
type HeartbeatSink = ports.HeartbeatSink
type LogSink = ports.LogSink

type RuntimeContext = runtime.Context

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return domain.DefaultConfig()
}

// LoadConfig reads a YAML file and overlays it on the defaults.
func LoadConfig(path string) (*Config, error) {
	return domain.LoadConfig(path)
}

// Runtime assembles the registry with its heartbeat store, telemetry
// stream, and tensor pool.
type Runtime struct {
	registry   *core.Registry
	heartbeats ports.HeartbeatSink
	stream     *observability.Stream
	archive    *observability.Archive
	pool       *tensor.Pool
}

// New wires a Runtime from config: a file-backed heartbeat store, a
// telemetry stream (archived to disk when an archive dir is configured),
// and a tensor pool.
func New(config *Config, logger *slog.Logger) (*Runtime, error) {
	if err := domain.ValidateConfig(config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	hb, err := heartbeat.NewFileStore(config.Heartbeat.Dir, logger)
	if err != nil {
		return nil, err
	}

	var archive *observability.Archive
	if config.Telemetry.ArchiveDir != "" {
		archive, err = observability.OpenArchive(config.Telemetry.ArchiveDir, config.Telemetry.Retention, logger)
		if err != nil {
			return nil, err
		}
	}
	stream := observability.NewStream(archive, logger)

	pool, err := tensor.NewPool(0, config.Pool, logger)
	if err != nil {
		return nil, err
	}

	registry, err := core.NewRegistry(config, hb, stream, logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		registry:   registry,
		heartbeats: hb,
		stream:     stream,
		archive:    archive,
		pool:       pool,
	}, nil
}

// NewWithSinks builds a Runtime over injected collaborators, primarily
// for tests and embedded monitors.
func NewWithSinks(config *Config, hb HeartbeatSink, stream LogSink, logger *slog.Logger) (*Runtime, error) {
	registry, err := core.NewRegistry(config, hb, stream, logger)
	if err != nil {
		return nil, err
	}
	pool, err := tensor.NewPool(0, config.Pool, logger)
	if err != nil {
		return nil, err
	}
	return &Runtime{registry: registry, heartbeats: hb, pool: pool}, nil
}

func (r *Runtime) Register(node Node) (*RuntimeContext, error) {
	return r.registry.Register(node)
}

func (r *Runtime) Init(ctx context.Context, name string) error {
	return r.registry.Init(ctx, name)
}

func (r *Runtime) RunTick(ctx context.Context, name string) error {
	return r.registry.RunTick(ctx, name)
}

func (r *Runtime) Shutdown(ctx context.Context, name string) error {
	return r.registry.Shutdown(ctx, name)
}

// ShutdownAll stops every node and closes the archive and pool.
func (r *Runtime) ShutdownAll(ctx context.Context) error {
	err := r.registry.ShutdownAll(ctx)
	if r.archive != nil {
		if closeErr := r.archive.Close(); err == nil {
			err = closeErr
		}
	}
	if r.pool != nil {
		if closeErr := r.pool.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (r *Runtime) Context(name string) (*RuntimeContext, error) {
	return r.registry.Context(name)
}

func (r *Runtime) Capabilities(name string) (Capabilities, error) {
	return r.registry.Capabilities(name)
}

func (r *Runtime) JITEligible(name string) bool {
	return r.registry.JITEligible(name)
}

func (r *Runtime) Checkpoint(name string) ([]byte, error) {
	return r.registry.Checkpoint(name)
}

func (r *Runtime) Restore(name string, data []byte) error {
	return r.registry.Restore(name, data)
}

func (r *Runtime) NamesByPriority() []string {
	return r.registry.NamesByPriority()
}

func (r *Runtime) Pool() TensorPool {
	return r.pool
}

func (r *Runtime) Heartbeats() HeartbeatSink {
	return r.heartbeats
}

// Telemetry exposes the observability stream for subscribers; nil when
// the Runtime was built over injected sinks.
func (r *Runtime) Telemetry() *observability.Stream {
	return r.stream
}
