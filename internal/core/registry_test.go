package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osiris-robotics/plexus/internal/adapters/heartbeat"
	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

type fakeNode struct {
	name     string
	priority domain.Priority

	initErr error
	tickErr error

	ticks    int
	onErrors []error
}

func (n *fakeNode) Name() string                   { return n.name }
func (n *fakeNode) Init(context.Context) error     { return n.initErr }
func (n *fakeNode) Shutdown(context.Context) error { return nil }
func (n *fakeNode) OnError(err error)              { n.onErrors = append(n.onErrors, err) }
func (n *fakeNode) Priority() domain.Priority      { return n.priority }
func (n *fakeNode) Config() map[string]interface{} { return nil }
func (n *fakeNode) IsHealthy() bool                { return true }
func (n *fakeNode) Publishers() map[string]string {
	return map[string]string{"/out": "std_msgs/String"}
}
func (n *fakeNode) Subscribers() map[string]string {
	return map[string]string{"/in": "std_msgs/String"}
}

func (n *fakeNode) Tick(ctx context.Context, tc ports.TickContext) error {
	n.ticks++
	if n.tickErr != nil {
		return n.tickErr
	}
	if tc != nil {
		tc.LogPublish("/out", "payload", 0)
	}
	return nil
}

type jitNode struct {
	fakeNode
}

func (n *jitNode) SupportsJIT() bool              { return true }
func (n *jitNode) IsJITDeterministic() bool       { return true }
func (n *jitNode) IsJITPure() bool                { return true }
func (n *jitNode) JITArithmeticParams() []float64 { return []float64{2, 0.5} }
func (n *jitNode) JITCompute() func([]float64) []float64 {
	return func(in []float64) []float64 { return in }
}

type checkpointNode struct {
	fakeNode
	state    []byte
	restored []byte
}

func (n *checkpointNode) SupportsCheckpointing() bool { return true }
func (n *checkpointNode) CheckpointState() ([]byte, bool) {
	if n.state == nil {
		return nil, false
	}
	return n.state, true
}
func (n *checkpointNode) RestoreState(data []byte) error {
	n.restored = data
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *heartbeat.MemoryStore) {
	t.Helper()
	store := heartbeat.NewMemoryStore()
	reg, err := NewRegistry(domain.DefaultConfig(), store, nil, nil)
	require.NoError(t, err)
	return reg, store
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Register(&fakeNode{name: "camera"})
	require.NoError(t, err)

	_, err = reg.Register(&fakeNode{name: "camera"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Equal(t, 1, reg.Len())
}

func TestRegisterAdoptsDeclaredTopics(t *testing.T) {
	reg, _ := newTestRegistry(t)

	rc, err := reg.Register(&fakeNode{name: "camera"})
	require.NoError(t, err)

	assert.Contains(t, rc.Publishers(), "/out")
	assert.Contains(t, rc.Subscribers(), "/in")
}

func TestCapabilitiesDefaultToInert(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Register(&fakeNode{name: "plain"})
	require.NoError(t, err)

	caps, err := reg.Capabilities("plain")
	require.NoError(t, err)
	assert.False(t, caps.JIT)
	assert.False(t, caps.Checkpoint)
	assert.False(t, reg.JITEligible("plain"))
}

func TestJITCapabilityResolvedOnce(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Register(&jitNode{fakeNode: fakeNode{name: "filter"}})
	require.NoError(t, err)

	caps, err := reg.Capabilities("filter")
	require.NoError(t, err)
	require.True(t, caps.JIT)
	assert.True(t, caps.JITDetails.Deterministic)
	assert.True(t, caps.JITDetails.Pure)
	assert.Equal(t, []float64{2, 0.5}, caps.JITDetails.ArithmeticParams)
	assert.NotNil(t, caps.JITDetails.Compute)
	assert.True(t, reg.JITEligible("filter"))
}

func TestCheckpointGatedOnCapability(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Register(&fakeNode{name: "plain"})
	require.NoError(t, err)
	_, err = reg.Checkpoint("plain")
	assert.ErrorIs(t, err, domain.ErrNotCheckpointable)
	assert.ErrorIs(t, reg.Restore("plain", nil), domain.ErrNotCheckpointable)

	cp := &checkpointNode{fakeNode: fakeNode{name: "tracker"}, state: []byte("pose")}
	_, err = reg.Register(cp)
	require.NoError(t, err)

	data, err := reg.Checkpoint("tracker")
	require.NoError(t, err)
	assert.Equal(t, []byte("pose"), data)

	require.NoError(t, reg.Restore("tracker", []byte("pose2")))
	assert.Equal(t, []byte("pose2"), cp.restored)
}

func TestCheckpointNothingToPersist(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Register(&checkpointNode{fakeNode: fakeNode{name: "empty"}})
	require.NoError(t, err)

	data, err := reg.Checkpoint("empty")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRunTickRecordsSuccess(t *testing.T) {
	reg, store := newTestRegistry(t)

	node := &fakeNode{name: "camera"}
	rc, err := reg.Register(node)
	require.NoError(t, err)
	require.NoError(t, reg.Init(context.Background(), "camera"))

	require.NoError(t, reg.RunTick(context.Background(), "camera"))
	assert.Equal(t, 1, node.ticks)
	assert.Equal(t, uint64(1), rc.Metrics().SuccessfulTicks)
	assert.Equal(t, uint64(1), rc.Metrics().MessagesSent)

	rec, ok := store.ReadHeartbeat("camera")
	require.True(t, ok)
	assert.Equal(t, domain.NodeStateRunning, rec.State)
}

func TestRunTickRoutesErrors(t *testing.T) {
	reg, store := newTestRegistry(t)

	tickErr := errors.New("sensor gone")
	node := &fakeNode{name: "camera", tickErr: tickErr}
	rc, err := reg.Register(node)
	require.NoError(t, err)

	err = reg.RunTick(context.Background(), "camera")
	require.Error(t, err)
	assert.ErrorIs(t, err, tickErr)

	require.Len(t, node.onErrors, 1)
	assert.Equal(t, uint64(1), rc.Metrics().FailedTicks)

	rec, ok := store.ReadHeartbeat("camera")
	require.True(t, ok)
	assert.Equal(t, uint64(1), rec.ErrorCount)
}

func TestInitFailureIsTyped(t *testing.T) {
	reg, _ := newTestRegistry(t)

	setupErr := errors.New("no such device")
	_, err := reg.Register(&fakeNode{name: "camera", initErr: setupErr})
	require.NoError(t, err)

	err = reg.Init(context.Background(), "camera")
	require.Error(t, err)
	assert.ErrorIs(t, err, setupErr)

	var nodeErr *domain.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "init", nodeErr.Op)
}

func TestUnknownNodeLookups(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.ErrorIs(t, reg.RunTick(context.Background(), "ghost"), domain.ErrNodeNotFound)
	_, err := reg.Context("ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.False(t, reg.JITEligible("ghost"))
}

func TestNamesByPriorityOrdering(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, n := range []*fakeNode{
		{name: "logger", priority: domain.PriorityLow},
		{name: "vision", priority: domain.PriorityNormal},
		{name: "safety", priority: domain.PriorityCritical},
		{name: "motor", priority: domain.PriorityCritical},
	} {
		_, err := reg.Register(n)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"motor", "safety", "vision", "logger"}, reg.NamesByPriority())
}

func TestShutdownAllWritesFinalHeartbeats(t *testing.T) {
	reg, store := newTestRegistry(t)

	for _, name := range []string{"camera", "imu"} {
		_, err := reg.Register(&fakeNode{name: name})
		require.NoError(t, err)
		require.NoError(t, reg.Init(context.Background(), name))
	}

	require.NoError(t, reg.ShutdownAll(context.Background()))

	for _, name := range []string{"camera", "imu"} {
		rec, ok := store.ReadHeartbeat(name)
		require.True(t, ok)
		assert.Equal(t, domain.NodeStateStopped, rec.State, "node %s", name)
	}
}
