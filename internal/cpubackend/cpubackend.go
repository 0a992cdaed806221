// Package cpubackend provides ready-made elementwise node.Task
// implementations that run entirely on the host, dispatching per
// tensor.DataType the way a CPU compute kernel would.
package cpubackend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/born/internal/node"
	"github.com/born-ml/born/internal/tensor"
)

// Add returns a Task computing outputs[0] = inputs[0] + inputs[1]
// elementwise. Both inputs must share inputs[0]'s data type.
func Add() node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		return binaryOp(inputs[0], inputs[1], outputs[0], func(a, b float64) float64 { return a + b })
	})
}

// Sub returns a Task computing outputs[0] = inputs[0] - inputs[1]
// elementwise.
func Sub() node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		return binaryOp(inputs[0], inputs[1], outputs[0], func(a, b float64) float64 { return a - b })
	})
}

// Mul returns a Task computing outputs[0] = inputs[0] * inputs[1]
// elementwise.
func Mul() node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		return binaryOp(inputs[0], inputs[1], outputs[0], func(a, b float64) float64 { return a * b })
	})
}

// Scale returns a Task computing outputs[0] = inputs[0] * factor
// elementwise, a one-input op useful for demo pipelines.
func Scale(factor float64) node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		return unaryOp(inputs[0], outputs[0], func(a float64) float64 { return a * factor })
	})
}

// AddScalar returns a Task computing outputs[0] = inputs[0] + delta
// elementwise.
func AddScalar(delta float64) node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		return unaryOp(inputs[0], outputs[0], func(a float64) float64 { return a + delta })
	})
}

// Identity returns a Task copying inputs[0] unchanged to every output, so a
// node with several outputs fans its input out to all of them.
func Identity() node.Task {
	return node.TaskFunc(func(inputs, outputs []tensor.View) error {
		for _, out := range outputs {
			copy(out.Data, inputs[0].Data)
		}
		return nil
	})
}

func unaryOp(in, out tensor.View, f func(float64) float64) error {
	n := in.NumElements()
	for i := 0; i < n; i++ {
		setAt(out, i, f(at(in, i)))
	}
	return nil
}

func binaryOp(a, b, out tensor.View, f func(float64, float64) float64) error {
	if a.DType != b.DType {
		return fmt.Errorf("cpubackend: mismatched input dtypes %s and %s", a.DType, b.DType)
	}
	n := a.NumElements()
	for i := 0; i < n; i++ {
		setAt(out, i, f(at(a, i), at(b, i)))
	}
	return nil
}

// at and setAt decode/encode a single element at index i of v's byte
// buffer according to v.DType, surfacing every supported numeric type
// through float64 so the op bodies above stay dtype-agnostic.
func at(v tensor.View, i int) float64 {
	switch v.DType {
	case tensor.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(v.Data[i*4:])))
	case tensor.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(v.Data[i*8:]))
	case tensor.Int32:
		return float64(int32(binary.LittleEndian.Uint32(v.Data[i*4:])))
	case tensor.Int64:
		return float64(int64(binary.LittleEndian.Uint64(v.Data[i*8:])))
	case tensor.Uint8:
		return float64(v.Data[i])
	case tensor.Bool:
		if v.Data[i] != 0 {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("cpubackend: unsupported dtype %s", v.DType))
	}
}

func setAt(v tensor.View, i int, val float64) {
	switch v.DType {
	case tensor.Float32:
		binary.LittleEndian.PutUint32(v.Data[i*4:], math.Float32bits(float32(val)))
	case tensor.Float64:
		binary.LittleEndian.PutUint64(v.Data[i*8:], math.Float64bits(val))
	case tensor.Int32:
		binary.LittleEndian.PutUint32(v.Data[i*4:], uint32(int32(val)))
	case tensor.Int64:
		binary.LittleEndian.PutUint64(v.Data[i*8:], uint64(int64(val)))
	case tensor.Uint8:
		v.Data[i] = byte(val)
	case tensor.Bool:
		if val != 0 {
			v.Data[i] = 1
		} else {
			v.Data[i] = 0
		}
	default:
		panic(fmt.Sprintf("cpubackend: unsupported dtype %s", v.DType))
	}
}
