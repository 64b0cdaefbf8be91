package ports

import (
	"context"
	"time"

	"github.com/osiris-robotics/plexus/internal/domain"
)

// TickContext is the slice of the runtime context a node may touch during
// its tick. The scheduler may pass nil on performance-critical paths, so
// every method site in node code must tolerate a nil receiver argument.
type TickContext interface {
	Name() string
	State() domain.NodeState

	LogInfo(msg string)
	LogWarning(msg string)
	LogError(msg string)
	LogDebug(msg string)
	LogPublish(topic, summary string, ipcLatency time.Duration)
	LogSubscribe(topic, summary string, ipcLatency time.Duration)

	RegisterPublisher(topic, messageType string)
	RegisterSubscriber(topic, messageType string)

	SetData(key string, value interface{})
	Data(key string) (interface{}, bool)
}

// Node is the minimal polymorphic surface the external scheduler drives.
// Optional behavior is advertised through the capability interfaces below,
// resolved once at registration rather than re-checked every tick.
type Node interface {
	Name() string
	Init(ctx context.Context) error
	Tick(ctx context.Context, tc TickContext) error
	Shutdown(ctx context.Context) error

	Publishers() map[string]string
	Subscribers() map[string]string

	OnError(err error)
	Priority() domain.Priority
	Config() map[string]interface{}
	IsHealthy() bool
}

// JITCapable marks a node whose tick can be substituted by a compiled fast
// path. The scheduler consumes these flags; this layer only resolves them.
type JITCapable interface {
	SupportsJIT() bool
	IsJITDeterministic() bool
	IsJITPure() bool
	JITCompute() func([]float64) []float64
	JITArithmeticParams() []float64
}

// Checkpointable marks a node with state worth persisting across crash
// recovery. CheckpointState returns (nil, false) when there is nothing to
// persist right now.
type Checkpointable interface {
	SupportsCheckpointing() bool
	CheckpointState() ([]byte, bool)
	RestoreState(data []byte) error
}

// Capabilities is the per-node capability record resolved at registration.
type Capabilities struct {
	JIT        bool
	JITDetails JITDetails
	Checkpoint bool
}

type JITDetails struct {
	Deterministic    bool
	Pure             bool
	Compute          func([]float64) []float64
	ArithmeticParams []float64
}

// ResolveCapabilities probes the optional interfaces exactly once.
// A node implementing neither yields the inert zero value.
func ResolveCapabilities(n Node) Capabilities {
	var caps Capabilities

	if jit, ok := n.(JITCapable); ok && jit.SupportsJIT() {
		caps.JIT = true
		caps.JITDetails = JITDetails{
			Deterministic:    jit.IsJITDeterministic(),
			Pure:             jit.IsJITPure(),
			Compute:          jit.JITCompute(),
			ArithmeticParams: jit.JITArithmeticParams(),
		}
	}

	if cp, ok := n.(Checkpointable); ok && cp.SupportsCheckpointing() {
		caps.Checkpoint = true
	}

	return caps
}
