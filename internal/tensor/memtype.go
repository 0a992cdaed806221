package tensor

// MemoryType tags which side of the host/device boundary a tensor's buffer
// lives on. The queue pair and task boundary only ever reason about this
// two-way split; concrete compute device (CPU, WebGPU, ...) is a backend
// concern layered on top.
type MemoryType int

const (
	// Host is ordinary process memory, addressable by CPU tasks.
	Host MemoryType = iota
	// Device is backend-owned memory (e.g. a GPU buffer), opaque to CPU tasks.
	Device
)

// String returns a human-readable memory type name.
func (m MemoryType) String() string {
	switch m {
	case Host:
		return "host"
	case Device:
		return "device"
	default:
		return "unknown"
	}
}
