package domain

// DType identifies the element type of a tensor. Values are part of the
// cross-process descriptor ABI and must never be renumbered.
type DType uint8

const (
	DTypeF32 DType = iota
	DTypeF64
	DTypeF16
	DTypeBF16
	DTypeI8
	DTypeU8
	DTypeI16
	DTypeU16
	DTypeI32
	DTypeU32
	DTypeI64
	DTypeU64
	DTypeBool
)

// ElementSize returns the fixed byte width of one element.
func (d DType) ElementSize() uint64 {
	switch d {
	case DTypeF64, DTypeI64, DTypeU64:
		return 8
	case DTypeF32, DTypeI32, DTypeU32:
		return 4
	case DTypeF16, DTypeBF16, DTypeI16, DTypeU16:
		return 2
	case DTypeI8, DTypeU8, DTypeBool:
		return 1
	default:
		return 0
	}
}

// NumpyTypeString returns the numpy dtype string for cross-runtime interop.
func (d DType) NumpyTypeString() string {
	switch d {
	case DTypeF32:
		return "float32"
	case DTypeF64:
		return "float64"
	case DTypeF16:
		return "float16"
	case DTypeBF16:
		return "bfloat16"
	case DTypeI8:
		return "int8"
	case DTypeU8:
		return "uint8"
	case DTypeI16:
		return "int16"
	case DTypeU16:
		return "uint16"
	case DTypeI32:
		return "int32"
	case DTypeU32:
		return "uint32"
	case DTypeI64:
		return "int64"
	case DTypeU64:
		return "uint64"
	case DTypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

func (d DType) Valid() bool {
	return d.ElementSize() != 0
}

// Device identifies where a tensor's backing memory lives. Part of the ABI.
type Device uint8

const (
	DeviceCPU Device = iota
	DeviceCUDA
)

func (d Device) String() string {
	switch d {
	case DeviceCPU:
		return "cpu"
	case DeviceCUDA:
		return "cuda"
	default:
		return "unknown"
	}
}
