// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public API for the sized, typed memory region
// carried on every edge of a compute graph.
//
// The package defines the core types used across the graph, node, queue and
// scheduler layers:
//   - Tensor: owning, shaped, typed byte buffer.
//   - View: stable, non-owning descriptor (shape + bytes + memory type)
//     passed across queue and task boundaries.
//   - Shape, DataType, MemoryType: core type definitions.
package tensor

import (
	"github.com/born-ml/born/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// MemoryType tags which side of the host/device boundary a tensor lives on.
type MemoryType = tensor.MemoryType

// Memory type constants.
const (
	Host   MemoryType = tensor.Host
	Device MemoryType = tensor.Device
)

// Tensor owns a shape, an element type, a memory type, and a byte buffer.
type Tensor = tensor.Tensor

// View is a stable, non-owning descriptor of a Tensor.
type View = tensor.View

// Errors returned by Tensor.CopyFrom / Tensor.CopyTo.
var (
	ErrShapeMismatch      = tensor.ErrShapeMismatch
	ErrMemoryTypeMismatch = tensor.ErrMemoryTypeMismatch
)

// New allocates a Tensor with the given shape, element type and memory type.
func New(shape Shape, dtype DataType, memory MemoryType) (*Tensor, error) {
	return tensor.New(shape, dtype, memory)
}
