//go:build windows

package gputask

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

const workgroupSize = 256

// WGPUDevice dispatches kernels on an actual GPU via go-webgpu. Shader
// modules and compute pipelines are cached by name across calls.
type WGPUDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu        sync.Mutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
}

// NewWGPUDevice requests a high-performance adapter and device from the
// default WebGPU instance.
func NewWGPUDevice() (device *WGPUDevice, err error) {
	defer func() {
		if r := recover(); r != nil {
			device = nil
			err = fmt.Errorf("gputask: native webgpu library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("gputask: failed to request adapter: %w", err)
	}

	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gputask: failed to request device: %w", err)
	}

	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gputask: failed to get queue")
	}

	return &WGPUDevice{
		instance:  instance,
		adapter:   adapter,
		device:    dev,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

func (d *WGPUDevice) pipelineFor(name, wgsl string) *wgpu.ComputePipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pipelines[name]; ok {
		return p
	}
	shader := d.device.CreateShaderModuleWGSL(wgsl)
	d.shaders[name] = shader
	pipeline := d.device.CreateComputePipelineSimple(nil, shader, "main")
	d.pipelines[name] = pipeline
	return pipeline
}

// Dispatch implements Device: it uploads every input buffer as a read-only
// storage buffer, a results buffer as read_write storage, and a 16-byte
// aligned uniform carrying the element count, then reads the result back.
func (d *WGPUDevice) Dispatch(shaderName, shaderWGSL string, numElements int, inputs [][]byte) ([]byte, error) {
	pipeline := d.pipelineFor(shaderName, shaderWGSL)
	resultSize := uint64(numElements * 4)

	inBuffers := make([]*wgpu.Buffer, len(inputs))
	for i, data := range inputs {
		inBuffers[i] = d.uploadBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	}
	defer func() {
		for _, b := range inBuffers {
			b.Release()
		}
	}()

	resultBuffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer resultBuffer.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	paramsBuffer := d.uploadBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer paramsBuffer.Release()

	entries := make([]wgpu.BindGroupEntry, 0, len(inBuffers)+2)
	for i, b := range inBuffers {
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), b, 0, resultSize))
	}
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inBuffers)), resultBuffer, 0, resultSize))
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inBuffers)+1), paramsBuffer, 0, 16))

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := d.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	pass.DispatchWorkgroups(workgroups, 1, 1)
	pass.End()

	cmdBuffer := encoder.Finish(nil)
	d.queue.Submit(cmdBuffer)

	return d.readBuffer(resultBuffer, resultSize)
}

func (d *WGPUDevice) uploadBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

func (d *WGPUDevice) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	d.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(d.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("gputask: failed to map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()
	return result, nil
}

// Release releases the device, adapter and instance handles.
func (d *WGPUDevice) Release() {
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}
