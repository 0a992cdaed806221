package gputask

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SimulatedDevice runs a compute-shader dispatch in pure Go, for unit tests
// and for platforms without a WebGPU runtime available. It ignores the
// WGSL source it's handed and instead looks up kern by shader name, the
// same float32 elementwise kernel the shader would compute.
type SimulatedDevice struct {
	kernels map[string]func(inputs [][]float32, i int) float32
}

// NewSimulatedDevice returns a Device backed by the given name -> kernel
// table. Each kernel computes one output element from the same index of
// every input buffer.
func NewSimulatedDevice(kernels map[string]func(inputs [][]float32, i int) float32) *SimulatedDevice {
	return &SimulatedDevice{kernels: kernels}
}

// Dispatch implements Device.
func (d *SimulatedDevice) Dispatch(shaderName, _ string, numElements int, inputs [][]byte) ([]byte, error) {
	kern, ok := d.kernels[shaderName]
	if !ok {
		return nil, fmt.Errorf("gputask: simulated device has no kernel registered for %q", shaderName)
	}

	decoded := make([][]float32, len(inputs))
	for i, buf := range inputs {
		decoded[i] = decodeFloat32s(buf, numElements)
	}

	out := make([]byte, numElements*4)
	for i := 0; i < numElements; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(kern(decoded, i)))
	}
	return out, nil
}

func decodeFloat32s(buf []byte, n int) []float32 {
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
