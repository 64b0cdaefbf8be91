package tensor

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osiris-robotics/plexus/internal/domain"
)

func newTestPool(t *testing.T, slots int, slotBytes uint64) *Pool {
	t.Helper()
	pool, err := NewPool(1, domain.PoolConfig{SlotCount: slots, SlotBytes: slotBytes}, nil)
	require.NoError(t, err)
	return pool
}

func TestAllocateCameraFrame(t *testing.T) {
	pool := newTestPool(t, 4, 16<<20)

	desc, err := pool.Allocate([]uint64{1080, 1920, 3}, domain.DTypeU8, domain.DeviceCPU)
	require.NoError(t, err)

	assert.Equal(t, uint64(1080*1920*3), desc.Size)
	assert.True(t, desc.IsContiguous())
	assert.Equal(t, uint32(1), desc.PoolID)

	buf, err := pool.Checkout(desc)
	require.NoError(t, err)
	assert.Len(t, buf, int(desc.Size))
}

func TestAllocateRejectsOversizedTensor(t *testing.T) {
	pool := newTestPool(t, 2, 1024)
	_, err := pool.Allocate([]uint64{1080, 1920, 3}, domain.DTypeU8, domain.DeviceCPU)
	assert.Error(t, err)
}

func TestPoolExhaustion(t *testing.T) {
	pool := newTestPool(t, 2, 1024)

	_, err := pool.Allocate([]uint64{4}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)
	_, err = pool.Allocate([]uint64{4}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)

	_, err = pool.Allocate([]uint64{4}, domain.DTypeF32, domain.DeviceCPU)
	assert.True(t, domain.IsPoolExhausted(err))
}

func TestGenerationAdvancesOnReuse(t *testing.T) {
	pool := newTestPool(t, 1, 1024)

	first, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)
	require.NoError(t, pool.Release(first))

	second, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)
	assert.Equal(t, first.SlotID, second.SlotID)
	assert.Greater(t, second.Generation, first.Generation,
		"generation must advance before the new descriptor is handed out")
}

func TestStaleDescriptorRejected(t *testing.T) {
	pool := newTestPool(t, 1, 1024)

	stale, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)
	require.NoError(t, pool.Release(stale))

	_, err = pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)

	_, err = pool.Checkout(stale)
	assert.True(t, domain.IsStaleDescriptor(err))
	assert.Error(t, pool.Retain(stale))
	assert.Error(t, pool.Release(stale))

	assert.Equal(t, uint64(3), pool.Stats().StaleRejected)
}

func TestReleasedSlotRefusesCheckout(t *testing.T) {
	pool := newTestPool(t, 2, 1024)

	desc, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)
	require.NoError(t, pool.Release(desc))

	_, err = pool.Checkout(desc)
	assert.ErrorIs(t, err, domain.ErrSlotFree)
}

func TestRefcountReclaimOnlyAtZero(t *testing.T) {
	pool := newTestPool(t, 1, 1024)

	desc, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)

	// Simulate sending the descriptor to two consumers.
	require.NoError(t, pool.Retain(desc))
	require.NoError(t, pool.Retain(desc))

	require.NoError(t, pool.Release(desc))
	require.NoError(t, pool.Release(desc))
	_, err = pool.Checkout(desc)
	require.NoError(t, err, "slot stays live while any reference remains")

	require.NoError(t, pool.Release(desc))
	_, err = pool.Checkout(desc)
	assert.Error(t, err, "slot reclaimed at refcount zero")
	assert.Equal(t, 0, pool.Stats().SlotsInUse)
}

func TestCheckoutHonorsSliceOffset(t *testing.T) {
	pool := newTestPool(t, 1, 4096)

	desc, err := pool.Allocate([]uint64{10, 4}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)

	full, err := pool.Checkout(desc)
	require.NoError(t, err)
	for i := range full {
		full[i] = byte(i)
	}

	sliced, ok := desc.SliceFirstDim(2, 5)
	require.True(t, ok)

	window, err := pool.Checkout(sliced)
	require.NoError(t, err)
	assert.Len(t, window, int(sliced.Size))
	assert.Equal(t, full[2*4*4], window[0], "slice window starts at the sliced row")
}

func TestCheckoutRejectsCorruptForeignDescriptor(t *testing.T) {
	pool := newTestPool(t, 1, 4096)

	desc, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)

	// A descriptor decoded from another process's bytes can carry any
	// offset or size; wrapping arithmetic must never let one through.
	wrapped := desc
	wrapped.Offset = math.MaxUint64/4 + 1
	_, err = pool.Checkout(wrapped)
	assert.Error(t, err, "offset whose byte conversion wraps to zero must be rejected")

	huge := desc
	huge.Offset = 1 << 61
	huge.Size = 1<<63 + 512
	_, err = pool.Checkout(huge)
	assert.Error(t, err, "range past the slot end must fail, not panic")

	oversize := desc
	oversize.Size = 1 << 62
	_, err = pool.Checkout(oversize)
	assert.Error(t, err)

	mismatched := desc
	mismatched.Size = desc.Size * 2
	_, err = pool.Checkout(mismatched)
	assert.Error(t, err, "size must agree with shape and dtype")

	badType := desc
	badType.DType = domain.DType(200)
	_, err = pool.Checkout(badType)
	assert.Error(t, err)

	buf, err := pool.Checkout(desc)
	require.NoError(t, err, "the untampered descriptor stays valid")
	assert.Len(t, buf, int(desc.Size))
}

func TestClosedPoolRefusesAllocation(t *testing.T) {
	pool := newTestPool(t, 1, 1024)
	require.NoError(t, pool.Close())

	_, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	assert.ErrorIs(t, err, domain.ErrPoolClosed)
}

func TestDescriptorFromWrongPool(t *testing.T) {
	pool := newTestPool(t, 1, 1024)

	desc, err := pool.Allocate([]uint64{8}, domain.DTypeF32, domain.DeviceCPU)
	require.NoError(t, err)
	desc.PoolID = 99

	_, err = pool.Checkout(desc)
	assert.Error(t, err)
}

func TestConcurrentAllocateRelease(t *testing.T) {
	pool := newTestPool(t, 8, 1024)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				desc, err := pool.Allocate([]uint64{16}, domain.DTypeF32, domain.DeviceCPU)
				if err != nil {
					continue
				}
				if _, err := pool.Checkout(desc); err != nil {
					t.Errorf("checkout of live descriptor failed: %v", err)
				}
				if err := pool.Release(desc); err != nil {
					t.Errorf("release of live descriptor failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, pool.Stats().SlotsInUse)
}
