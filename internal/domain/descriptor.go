package domain

import (
	"encoding/binary"
	"fmt"
)

// MaxDims is the fixed dimensionality cap baked into the descriptor ABI.
const MaxDims = 8

// DescriptorSize is the exact encoded size of a TensorDescriptor in bytes.
// The layout is C-compatible with explicit padding and no implicit
// alignment gaps; it must stay bit-identical across every language sharing
// a pool.
//
//	pool_id, slot_id, generation : u32  (12)
//	pad0                         : u32  (4)
//	offset, size                 : u64  (16)
//	dtype, ndim, device          : u8   (3)
//	pad1                         : u8x5 (5)
//	shape                        : u64x8 (64)
//	strides                      : u64x8 (64)
//	cuda_ipc_handle              : u8x64 (64)
const DescriptorSize = 232

// TensorDescriptor is a fixed-layout, copyable handle to a tensor stored
// in a shared pool. Copying the descriptor copies metadata only; the pool
// tracks refcounts, and the slot's generation detects stale handles after
// reuse.
type TensorDescriptor struct {
	PoolID     uint32
	SlotID     uint32
	Generation uint32

	// Offset counts elements from the slot base; Size counts bytes.
	Offset uint64
	Size   uint64

	DType  DType
	NDim   uint8
	Device Device

	Shape   [MaxDims]uint64
	Strides [MaxDims]uint64

	CudaIPCHandle [64]byte
}

// NewRowMajorDescriptor builds a contiguous descriptor for the given shape.
// Strides are the row-major cumulative product starting from the last
// dimension; size follows from numel and the dtype element width.
func NewRowMajorDescriptor(shape []uint64, dtype DType, device Device) (TensorDescriptor, error) {
	if len(shape) == 0 || len(shape) > MaxDims {
		return TensorDescriptor{}, fmt.Errorf("shape rank %d out of range [1,%d]", len(shape), MaxDims)
	}
	if !dtype.Valid() {
		return TensorDescriptor{}, fmt.Errorf("invalid dtype %d", dtype)
	}

	d := TensorDescriptor{
		DType:  dtype,
		NDim:   uint8(len(shape)),
		Device: device,
	}
	copy(d.Shape[:], shape)

	stride := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		d.Strides[i] = stride
		stride *= shape[i]
	}
	d.Size = stride * dtype.ElementSize()
	return d, nil
}

// Numel returns the element count implied by the shape.
func (d TensorDescriptor) Numel() uint64 {
	n := uint64(1)
	for i := 0; i < int(d.NDim); i++ {
		n *= d.Shape[i]
	}
	return n
}

// IsContiguous reports whether the strides equal the row-major cumulative
// product starting from the last dimension.
func (d TensorDescriptor) IsContiguous() bool {
	stride := uint64(1)
	for i := int(d.NDim) - 1; i >= 0; i-- {
		if d.Strides[i] != stride {
			return false
		}
		stride *= d.Shape[i]
	}
	return true
}

// View returns a reshaped descriptor sharing the same slot. It succeeds
// iff the element count matches and the source is contiguous; callers
// probe this speculatively, so failure is (zero, false), never an error.
func (d TensorDescriptor) View(newShape []uint64) (TensorDescriptor, bool) {
	if len(newShape) == 0 || len(newShape) > MaxDims {
		return TensorDescriptor{}, false
	}
	if !d.IsContiguous() {
		return TensorDescriptor{}, false
	}

	n := uint64(1)
	for _, dim := range newShape {
		n *= dim
	}
	if n != d.Numel() {
		return TensorDescriptor{}, false
	}

	out := d
	out.NDim = uint8(len(newShape))
	out.Shape = [MaxDims]uint64{}
	out.Strides = [MaxDims]uint64{}
	copy(out.Shape[:], newShape)

	stride := uint64(1)
	for i := len(newShape) - 1; i >= 0; i-- {
		out.Strides[i] = stride
		stride *= newShape[i]
	}
	return out, true
}

// SliceFirstDim returns a sub-view over [start, end) of the first
// dimension. Fails with (zero, false) when end <= start or end exceeds
// the dimension.
func (d TensorDescriptor) SliceFirstDim(start, end uint64) (TensorDescriptor, bool) {
	if d.NDim == 0 || end <= start || end > d.Shape[0] {
		return TensorDescriptor{}, false
	}

	out := d
	out.Offset += start * d.Strides[0]
	out.Shape[0] = end - start
	out.Size = out.Numel() * d.DType.ElementSize()
	return out, true
}

// Encode writes the descriptor in its fixed little-endian ABI layout.
func (d TensorDescriptor) Encode() [DescriptorSize]byte {
	var buf [DescriptorSize]byte
	le := binary.LittleEndian

	le.PutUint32(buf[0:], d.PoolID)
	le.PutUint32(buf[4:], d.SlotID)
	le.PutUint32(buf[8:], d.Generation)
	// buf[12:16] explicit pad0, zero
	le.PutUint64(buf[16:], d.Offset)
	le.PutUint64(buf[24:], d.Size)
	buf[32] = uint8(d.DType)
	buf[33] = d.NDim
	buf[34] = uint8(d.Device)
	// buf[35:40] explicit pad1, zero
	for i := 0; i < MaxDims; i++ {
		le.PutUint64(buf[40+8*i:], d.Shape[i])
		le.PutUint64(buf[104+8*i:], d.Strides[i])
	}
	copy(buf[168:], d.CudaIPCHandle[:])
	return buf
}

// DecodeDescriptor parses the fixed ABI layout produced by Encode.
func DecodeDescriptor(data []byte) (TensorDescriptor, error) {
	if len(data) != DescriptorSize {
		return TensorDescriptor{}, fmt.Errorf("descriptor must be %d bytes, got %d", DescriptorSize, len(data))
	}
	le := binary.LittleEndian

	var d TensorDescriptor
	d.PoolID = le.Uint32(data[0:])
	d.SlotID = le.Uint32(data[4:])
	d.Generation = le.Uint32(data[8:])
	d.Offset = le.Uint64(data[16:])
	d.Size = le.Uint64(data[24:])
	d.DType = DType(data[32])
	d.NDim = data[33]
	d.Device = Device(data[34])
	for i := 0; i < MaxDims; i++ {
		d.Shape[i] = le.Uint64(data[40+8*i:])
		d.Strides[i] = le.Uint64(data[104+8*i:])
	}
	copy(d.CudaIPCHandle[:], data[168:])

	if d.NDim > MaxDims {
		return TensorDescriptor{}, fmt.Errorf("descriptor ndim %d exceeds %d", d.NDim, MaxDims)
	}
	return d, nil
}
