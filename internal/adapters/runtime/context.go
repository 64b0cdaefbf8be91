package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

var nodeIDNamespace = uuid.MustParse("9a1f8c42-6d3b-4e07-b1a4-52c70d9e6f31")

var _ ports.TickContext = (*Context)(nil)

// Context is the per-node runtime state machine and metrics aggregator.
// It is logically single-writer: only the owning node's thread mutates it
// during ticks. The mutex exists solely so a monitor thread never observes
// a half-updated snapshot; it is never held across I/O.
type Context struct {
	name       string
	nodeID     string
	instanceID string

	config   domain.RuntimeConfig
	priority domain.Priority

	heartbeats ports.HeartbeatSink
	stream     ports.LogSink
	logger     *slog.Logger

	mu              sync.Mutex
	state           domain.NodeState
	previousState   domain.NodeState
	stateChangeTime time.Time
	lastErrorReason string

	metrics     domain.NodeMetrics
	tickSamples uint64
	lastGood    domain.NodeMetrics

	creationTime time.Time
	lastTickTime time.Time
	tickStart    time.Time
	restartCount int

	errorHistory   *boundedHistory
	warningHistory *boundedHistory

	publishers    map[string]domain.TopicRegistration
	subscribers   map[string]domain.TopicRegistration
	publishCounts map[string]uint64
	receiveCounts map[string]uint64

	scratch map[string]interface{}
}

// New constructs a context in the uninitialized state with the default
// runtime configuration and the given logging gate.
func New(name string, loggingEnabled bool, heartbeats ports.HeartbeatSink, stream ports.LogSink, logger *slog.Logger) (*Context, error) {
	cfg := domain.DefaultRuntimeConfig()
	cfg.LoggingEnabled = loggingEnabled
	return NewWithConfig(name, cfg, heartbeats, stream, logger)
}

// NewWithConfig fails only if the configuration is internally
// inconsistent.
func NewWithConfig(name string, cfg domain.RuntimeConfig, heartbeats ports.HeartbeatSink, stream ports.LogSink, logger *slog.Logger) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if stream == nil {
		stream = ports.NopLogSink{}
	}

	now := time.Now()
	return &Context{
		name:            name,
		nodeID:          uuid.NewSHA1(nodeIDNamespace, []byte(name)).String(),
		instanceID:      uuid.NewString(),
		config:          cfg,
		priority:        domain.PriorityNormal,
		heartbeats:      heartbeats,
		stream:          stream,
		logger:          logger.With("component", "node-runtime", "node", name),
		state:           domain.NodeStateUninitialized,
		previousState:   domain.NodeStateUninitialized,
		stateChangeTime: now,
		creationTime:    now,
		errorHistory:    newBoundedHistory(cfg.HistoryCap),
		warningHistory:  newBoundedHistory(cfg.HistoryCap),
		publishers:      make(map[string]domain.TopicRegistration),
		subscribers:     make(map[string]domain.TopicRegistration),
		publishCounts:   make(map[string]uint64),
		receiveCounts:   make(map[string]uint64),
		scratch:         make(map[string]interface{}),
	}, nil
}

func (c *Context) Name() string       { return c.name }
func (c *Context) NodeID() string     { return c.nodeID }
func (c *Context) InstanceID() string { return c.instanceID }

func (c *Context) Identity() domain.NodeIdentity {
	return domain.NodeIdentity{Name: c.name, NodeID: c.nodeID, InstanceID: c.instanceID}
}

func (c *Context) Priority() domain.Priority {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.priority
}

func (c *Context) SetPriority(p domain.Priority) {
	c.mu.Lock()
	c.priority = p
	c.mu.Unlock()
}

func (c *Context) State() domain.NodeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) PreviousState() domain.NodeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previousState
}

func (c *Context) StateChangeTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateChangeTime
}

func (c *Context) RestartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restartCount
}

func (c *Context) Config() domain.RuntimeConfig { return c.config }

// SetState applies a state transition. Self-transitions are no-ops:
// previous_state and state_change_time move only when the new state
// differs from the current one.
func (c *Context) SetState(next domain.NodeState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(next)
}

func (c *Context) setStateLocked(next domain.NodeState) {
	if next == c.state {
		return
	}
	c.previousState = c.state
	c.state = next
	c.stateChangeTime = time.Now()
}

// Initialize drives uninitialized through initializing into running.
func (c *Context) Initialize() {
	c.SetState(domain.NodeStateInitializing)
	c.SetState(domain.NodeStateRunning)
	c.logger.Debug("node initialized", "instance_id", c.instanceID)
}

// Shutdown transitions through stopping into stopped and writes the final
// heartbeat so an external observer sees the clean exit.
func (c *Context) Shutdown() {
	c.SetState(domain.NodeStateStopping)
	c.SetState(domain.NodeStateStopped)
	c.emitHeartbeat()
	c.logger.Debug("node shut down")
}

// Restart performs one shutdown/initialize cycle after the configured
// backoff. The backoff deliberately blocks the caller. When the restart
// budget is exhausted it returns a typed RestartLimitError and leaves the
// node state untouched.
func (c *Context) Restart() error {
	c.mu.Lock()
	c.restartCount++
	attempts := c.restartCount
	c.mu.Unlock()

	if attempts > c.config.Restart.MaxRestartAttempts {
		err := &domain.RestartLimitError{
			Node:     c.name,
			Attempts: attempts,
			Max:      c.config.Restart.MaxRestartAttempts,
		}
		c.logger.Warn("restart refused", "error", err)
		return err
	}

	c.logger.Info("restarting node", "attempt", attempts, "delay", c.config.Restart.RestartDelay)
	c.Shutdown()
	time.Sleep(c.config.Restart.RestartDelay)
	c.Initialize()
	return nil
}

// TransitionToError logs the reason and moves the node to the error state.
func (c *Context) TransitionToError(reason string) {
	c.logger.Error("node entering error state", "reason", reason)
	c.mu.Lock()
	c.lastErrorReason = reason
	c.setStateLocked(domain.NodeStateError)
	c.mu.Unlock()
}

func (c *Context) TransitionToCrashed(reason string) {
	c.logger.Error("node crashed", "reason", reason)
	c.mu.Lock()
	c.lastErrorReason = reason
	c.setStateLocked(domain.NodeStateCrashed)
	c.mu.Unlock()
}

func (c *Context) TransitionToStopped() {
	c.logger.Info("node stopped")
	c.SetState(domain.NodeStateStopped)
}

func (c *Context) LastErrorReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrorReason
}

// SetData stores free-form scratch data on the context.
func (c *Context) SetData(key string, value interface{}) {
	c.mu.Lock()
	c.scratch[key] = value
	c.mu.Unlock()
}

func (c *Context) Data(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.scratch[key]
	return v, ok
}
