package tensor

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

// Pool is an arena of fixed-size reusable slots. Staleness is judged by
// the explicit per-slot generation counter, never by buffer identity: the
// generation is advanced before a reused slot's new descriptor is handed
// out, so a descriptor captured against the previous generation can never
// silently alias the new tenant's data.
type Pool struct {
	id        uint32
	slotBytes uint64
	logger    *slog.Logger

	mu     sync.Mutex
	slots  []*slot
	closed bool

	allocations   uint64
	reuses        uint64
	staleRejected uint64
}

type slot struct {
	mu sync.Mutex

	generation    uint32
	refcount      int
	inUse         bool
	everAllocated bool

	usedBytes uint64
	buf       []byte
}

var _ ports.TensorPool = (*Pool)(nil)

func NewPool(id uint32, cfg domain.PoolConfig, logger *slog.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	slots := make([]*slot, cfg.SlotCount)
	for i := range slots {
		slots[i] = &slot{buf: make([]byte, cfg.SlotBytes)}
	}

	return &Pool{
		id:        id,
		slotBytes: cfg.SlotBytes,
		logger:    logger.With("component", "tensor-pool", "pool_id", id),
		slots:     slots,
	}, nil
}

func (p *Pool) ID() uint32 { return p.id }

// Allocate binds a fresh or reused slot to a new descriptor. On reuse the
// slot's generation is incremented before the descriptor is handed out.
func (p *Pool) Allocate(shape []uint64, dtype domain.DType, device domain.Device) (domain.TensorDescriptor, error) {
	desc, err := domain.NewRowMajorDescriptor(shape, dtype, device)
	if err != nil {
		return domain.TensorDescriptor{}, err
	}
	if desc.Size > p.slotBytes {
		return domain.TensorDescriptor{}, fmt.Errorf("tensor of %d bytes exceeds slot capacity %d", desc.Size, p.slotBytes)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.TensorDescriptor{}, domain.ErrPoolClosed
	}

	for i, s := range p.slots {
		s.mu.Lock()
		if s.inUse {
			s.mu.Unlock()
			continue
		}

		if s.everAllocated {
			s.generation++
			p.reuses++
		}
		s.everAllocated = true
		s.inUse = true
		s.refcount = 1
		s.usedBytes = desc.Size
		gen := s.generation
		s.mu.Unlock()

		p.allocations++
		p.mu.Unlock()

		desc.PoolID = p.id
		desc.SlotID = uint32(i)
		desc.Generation = gen
		return desc, nil
	}

	p.mu.Unlock()
	return domain.TensorDescriptor{}, domain.ErrPoolExhausted
}

// Retain increments the slot refcount for a duplicated or forwarded
// descriptor.
func (p *Pool) Retain(desc domain.TensorDescriptor) error {
	s, err := p.slotFor(desc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.checkLiveLocked(s, desc); err != nil {
		return err
	}
	s.refcount++
	return nil
}

// Release decrements the refcount; the slot is reclaimed only at zero.
func (p *Pool) Release(desc domain.TensorDescriptor) error {
	s, err := p.slotFor(desc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.checkLiveLocked(s, desc); err != nil {
		return err
	}

	s.refcount--
	if s.refcount == 0 {
		s.inUse = false
		s.usedBytes = 0
	}
	return nil
}

// Checkout performs the generation check and the buffer hand-out as one
// atomic step under the slot lock, closing the window where a slot could
// be reused between check and dereference. Descriptors arrive from foreign
// processes, so every range check must hold under wrapping uint64
// arithmetic: reject before multiplying or adding, never after.
func (p *Pool) Checkout(desc domain.TensorDescriptor) ([]byte, error) {
	s, err := p.slotFor(desc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.checkLiveLocked(s, desc); err != nil {
		return nil, err
	}

	elem := desc.DType.ElementSize()
	if elem == 0 {
		return nil, fmt.Errorf("descriptor has invalid dtype %d", desc.DType)
	}
	capacity := uint64(len(s.buf))
	if desc.Offset > capacity/elem {
		return nil, fmt.Errorf("descriptor offset %d elements exceeds slot capacity %d bytes", desc.Offset, capacity)
	}
	offsetBytes := desc.Offset * elem
	if desc.Size > capacity-offsetBytes {
		return nil, fmt.Errorf("descriptor size %d at offset %d exceeds slot capacity %d", desc.Size, offsetBytes, capacity)
	}
	if desc.Size != desc.Numel()*elem {
		return nil, fmt.Errorf("descriptor size %d disagrees with shape (%d elements of %d bytes)", desc.Size, desc.Numel(), elem)
	}
	return s.buf[offsetBytes : offsetBytes+desc.Size], nil
}

func (p *Pool) Stats() ports.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	inUse := 0
	for _, s := range p.slots {
		s.mu.Lock()
		if s.inUse {
			inUse++
		}
		s.mu.Unlock()
	}

	return ports.PoolStats{
		SlotCount:     len(p.slots),
		SlotsInUse:    inUse,
		Allocations:   p.allocations,
		Reuses:        p.reuses,
		StaleRejected: atomic.LoadUint64(&p.staleRejected),
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Pool) slotFor(desc domain.TensorDescriptor) (*slot, error) {
	if desc.PoolID != p.id {
		return nil, fmt.Errorf("descriptor pool %d does not match pool %d", desc.PoolID, p.id)
	}
	if int(desc.SlotID) >= len(p.slots) {
		return nil, fmt.Errorf("slot %d out of range", desc.SlotID)
	}
	return p.slots[desc.SlotID], nil
}

func (p *Pool) checkLiveLocked(s *slot, desc domain.TensorDescriptor) error {
	if !s.inUse {
		return domain.ErrSlotFree
	}
	if s.generation != desc.Generation {
		atomic.AddUint64(&p.staleRejected, 1)
		return domain.ErrStaleDescriptor
	}
	return nil
}
