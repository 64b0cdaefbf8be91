package ports

import (
	"github.com/osiris-robotics/plexus/internal/domain"
)

// TensorPool owns a shared-memory arena divided into reusable slots. All
// refcount and generation movement must be atomic with respect to every
// process sharing the arena; Checkout performs the generation
// check-then-use as one step so a slot cannot be reused between the check
// and the dereference.
type TensorPool interface {
	ID() uint32

	Allocate(shape []uint64, dtype domain.DType, device domain.Device) (domain.TensorDescriptor, error)

	// Retain increments the slot refcount when a descriptor is duplicated
	// or sent to another consumer.
	Retain(desc domain.TensorDescriptor) error

	// Release decrements the refcount; the slot is reclaimed at zero.
	Release(desc domain.TensorDescriptor) error

	// Checkout validates the descriptor's generation against the live slot
	// and returns the backing bytes, or domain.ErrStaleDescriptor.
	Checkout(desc domain.TensorDescriptor) ([]byte, error)

	Stats() PoolStats
	Close() error
}

type PoolStats struct {
	SlotCount     int    `json:"slot_count"`
	SlotsInUse    int    `json:"slots_in_use"`
	Allocations   uint64 `json:"allocations"`
	Reuses        uint64 `json:"reuses"`
	StaleRejected uint64 `json:"stale_rejected"`
}
