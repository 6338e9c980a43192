// Package noop implements backend.Device as an in-memory stand-in for a
// real GPU backend, used by corepool's own tests and by downstream
// packages (geometry, pipeline, batch) that need a backend to exercise
// without a window or driver.
package noop

import (
	"sync"
	"sync/atomic"

	"github.com/vkforge/corepool/backend"
)

// Device is a concurrency-safe, allocation-only backend.Device. Buffers
// and textures are tracked only by handle; no payload is retained.
type Device struct {
	mu sync.Mutex

	nextBuffer   uint64
	nextTexture  uint64
	nextPipeline uint64
	nextInstance uint64

	buffers   map[backend.BufferHandle]backend.BufferDescriptor
	textures  map[backend.TextureHandle]backend.TextureDescriptor
	pipelines map[backend.PipelineHandle]backend.GraphicsPipelineDescriptor
	instances map[backend.InstanceStateHandle]backend.PipelineHandle

	writesAvoided uint64
	waitStats     backend.UploadWaitStats

	// FailCreateBuffer, when set, is called before every CreateBuffer /
	// CreateBufferBatch entry and can force a failure for a given label,
	// letting tests drive partial-batch-failure scenarios (S5).
	FailCreateBuffer func(desc backend.BufferDescriptor) error

	// FailBatchAt forces CreateBufferBatch's i'th request to fail with the
	// given code without consulting FailCreateBuffer, letting tests target
	// one specific index in a batch (scenario S5).
	FailBatchAt map[int]backend.ErrorCode

	destroyBufferCalls int64
}

// New creates an empty noop device.
func New() *Device {
	return &Device{
		buffers:   make(map[backend.BufferHandle]backend.BufferDescriptor),
		textures:  make(map[backend.TextureHandle]backend.TextureDescriptor),
		pipelines: make(map[backend.PipelineHandle]backend.GraphicsPipelineDescriptor),
		instances: make(map[backend.InstanceStateHandle]backend.PipelineHandle),
	}
}

func (d *Device) CreateBuffer(desc backend.BufferDescriptor, upload *backend.Upload) (backend.BufferHandle, error) {
	if desc.Size == 0 {
		return 0, backend.NewError(backend.InvalidParameter, "buffer %q has zero size", desc.Label)
	}
	if upload != nil && upload.Offset+uint64(len(upload.Data)) > desc.Size {
		return 0, backend.NewError(backend.InvalidParameter, "upload for %q overruns buffer size", desc.Label)
	}
	if d.FailCreateBuffer != nil {
		if err := d.FailCreateBuffer(desc); err != nil {
			return 0, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuffer++
	h := backend.BufferHandle(d.nextBuffer)
	d.buffers[h] = desc
	return h, nil
}

func (d *Device) DestroyBuffer(h backend.BufferHandle) {
	atomic.AddInt64(&d.destroyBufferCalls, 1)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, h)
}

// DestroyBufferCallCount reports how many times DestroyBuffer has been
// called, including on handles that were never created. Tests use this to
// observe rollback behavior (scenario S5).
func (d *Device) DestroyBufferCallCount() int64 {
	return atomic.LoadInt64(&d.destroyBufferCalls)
}

func (d *Device) UploadBuffer(h backend.BufferHandle, offset uint64, data []byte) error {
	d.mu.Lock()
	desc, ok := d.buffers[h]
	d.mu.Unlock()
	if !ok {
		return backend.NewError(backend.InvalidHandle, "buffer handle %d unknown", h)
	}
	if offset+uint64(len(data)) > desc.Size {
		return backend.NewError(backend.InvalidParameter, "upload overruns buffer %q", desc.Label)
	}
	return nil
}

// CreateBufferBatch implements backend.BufferBatchCreator.
func (d *Device) CreateBufferBatch(requests []backend.BufferRequest) ([]backend.BufferHandle, []backend.ErrorCode, int) {
	handles := make([]backend.BufferHandle, len(requests))
	errs := make([]backend.ErrorCode, len(requests))
	created := 0

	for i, req := range requests {
		if code, forced := d.FailBatchAt[i]; forced {
			errs[i] = code
			continue
		}
		h, err := d.CreateBuffer(req.Description, req.Upload)
		if err != nil {
			errs[i] = backend.CodeOf(err)
			continue
		}
		handles[i] = h
		errs[i] = backend.None
		created++
	}
	return handles, errs, created
}

func (d *Device) CreateTextureBatch(requests []backend.TextureRequest) ([]backend.TextureHandle, []backend.ErrorCode, int) {
	handles := make([]backend.TextureHandle, len(requests))
	errs := make([]backend.ErrorCode, len(requests))
	created := 0

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, req := range requests {
		if req.Description.Width == 0 || req.Description.Height == 0 {
			errs[i] = backend.InvalidParameter
			continue
		}
		d.nextTexture++
		h := backend.TextureHandle(d.nextTexture)
		d.textures[h] = req.Description
		handles[i] = h
		errs[i] = backend.None
		created++
	}
	return handles, errs, created
}

func (d *Device) DestroyTexture(h backend.TextureHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, h)
}

func (d *Device) CreateGraphicsPipeline(desc backend.GraphicsPipelineDescriptor) (backend.PipelineHandle, error) {
	if desc.VertexModule == "" || desc.FragmentModule == "" {
		return 0, backend.NewError(backend.ShaderCompilationFailed, "pipeline %q missing a shader module", desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextPipeline++
	h := backend.PipelineHandle(d.nextPipeline)
	d.pipelines[h] = desc
	return h, nil
}

func (d *Device) DestroyPipeline(h backend.PipelineHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelines, h)
}

func (d *Device) BindVertexBuffer(backend.BufferHandle, uint32, uint64) {
	atomic.AddUint64(&d.writesAvoided, 0) // bind calls never themselves count as avoided writes
}

func (d *Device) BindIndexBuffer(backend.BufferHandle, uint64, uint32) {}

func (d *Device) DrawIndexed(uint32, uint32, int32, int32, uint32) {}

func (d *Device) DrawIndexedIndirect(backend.BufferHandle, uint64, uint32, uint32) {}

func (d *Device) UpdateGlobalState(p backend.PipelineHandle, _ []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelines[p]; !ok {
		return backend.NewError(backend.InvalidHandle, "pipeline handle %d unknown", p)
	}
	return nil
}

func (d *Device) AcquireInstanceState(p backend.PipelineHandle) (backend.InstanceStateHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelines[p]; !ok {
		return 0, backend.NewError(backend.InvalidHandle, "pipeline handle %d unknown", p)
	}
	d.nextInstance++
	h := backend.InstanceStateHandle(d.nextInstance)
	d.instances[h] = p
	return h, nil
}

func (d *Device) ReleaseInstanceState(h backend.InstanceStateHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.instances, h)
}

func (d *Device) UpdateInstanceState(h backend.InstanceStateHandle, _ []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.instances[h]; !ok {
		return backend.NewError(backend.InvalidHandle, "instance state handle %d unknown", h)
	}
	return nil
}

// ShaderRuntimeLayout implements backend.ShaderLayoutQuerier with a fixed
// placeholder layout; real backends report the shader compiler's actual
// reflection data.
func (d *Device) ShaderRuntimeLayout(p backend.PipelineHandle) (backend.ShaderRuntimeLayout, bool) {
	d.mu.Lock()
	_, ok := d.pipelines[p]
	d.mu.Unlock()
	if !ok {
		return backend.ShaderRuntimeLayout{}, false
	}
	return backend.ShaderRuntimeLayout{
		GlobalUBOSize:     256,
		GlobalUBOStride:   256,
		InstanceUBOSize:   128,
		InstanceUBOStride: 128,
		PushConstantSize:  64,
		TextureCount:      4,
	}, true
}

// RecordWriteAvoided lets tests simulate the backend eliding a redundant
// descriptor write, so pipeline's bind-elision path has something to
// observe through GetAndResetDescriptorWritesAvoided.
func (d *Device) RecordWriteAvoided() {
	atomic.AddUint64(&d.writesAvoided, 1)
}

func (d *Device) GetAndResetDescriptorWritesAvoided() uint64 {
	return atomic.SwapUint64(&d.writesAvoided, 0)
}

// RecordUploadWait lets tests simulate the backend observing a wait
// during upload, so uploadstats has something to drain (scenario S7).
func (d *Device) RecordUploadWait(stats backend.UploadWaitStats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitStats.FenceWaitCount += stats.FenceWaitCount
	d.waitStats.QueueWaitIdleCount += stats.QueueWaitIdleCount
	d.waitStats.DeviceWaitIdleCount += stats.DeviceWaitIdleCount
}

func (d *Device) GetAndResetUploadWaitStats() backend.UploadWaitStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	stats := d.waitStats
	d.waitStats = backend.UploadWaitStats{}
	return stats
}
