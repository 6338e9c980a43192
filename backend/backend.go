package backend

// Buffers is the required buffer half of the backend contract. Every
// concrete backend must implement it; corepool's batch facade and
// geometry system call through it directly.
type Buffers interface {
	// CreateBuffer creates a single buffer, optionally uploading initial
	// data. Returns InvalidParameter if desc.Size is zero or the upload
	// would overrun it.
	CreateBuffer(desc BufferDescriptor, upload *Upload) (BufferHandle, error)

	// DestroyBuffer releases a buffer. Destroying an invalid handle is a
	// no-op, matching the registries' idempotent-destroy convention.
	DestroyBuffer(h BufferHandle)

	// UploadBuffer writes data at offset bytes into an existing buffer.
	UploadBuffer(h BufferHandle, offset uint64, data []byte) error
}

// BufferBatchCreator is an optional capability: a backend that can create
// many buffers in one call, reporting per-request success or failure so
// the caller can roll back partial failures (scenario S5). corepool's
// batch facade type-asserts for this and falls back to repeated
// CreateBuffer calls when a backend doesn't implement it.
type BufferBatchCreator interface {
	// CreateBufferBatch attempts to create every request in order.
	// handles[i] and errs[i] report the outcome for requests[i]; created
	// is the count of requests that succeeded. Callers roll back per
	// request (or per geometry), using errs, not the batch as a whole.
	CreateBufferBatch(requests []BufferRequest) (handles []BufferHandle, errs []ErrorCode, created int)
}

// Textures is the required texture half of the backend contract.
// Unlike buffers, texture creation always carries its pixel payload, so
// there is no separate upload method -- spec.md §6 treats texture upload
// as re-creation, not a mutate-in-place operation.
type Textures interface {
	// CreateTextureBatch creates every texture request, always through the
	// batch path (spec.md §6: "texture batch always delegates to the
	// backend", there is no per-texture fallback).
	CreateTextureBatch(requests []TextureRequest) (handles []TextureHandle, errs []ErrorCode, created int)

	// DestroyTexture releases a texture. Idempotent on an invalid handle.
	DestroyTexture(h TextureHandle)
}

// Pipelines is the required pipeline half of the backend contract: graphics
// pipeline lifecycle, binding, drawing, and per-instance state.
type Pipelines interface {
	CreateGraphicsPipeline(desc GraphicsPipelineDescriptor) (PipelineHandle, error)
	DestroyPipeline(h PipelineHandle)

	BindVertexBuffer(h BufferHandle, binding uint32, offset uint64)
	BindIndexBuffer(h BufferHandle, offset uint64, elementSizeBytes uint32)

	DrawIndexed(indexCount, instanceCount uint32, firstIndex int32, vertexOffset int32, firstInstance uint32)
	DrawIndexedIndirect(indirectBuffer BufferHandle, offset uint64, drawCount, stride uint32)

	UpdateGlobalState(p PipelineHandle, data []byte) error

	AcquireInstanceState(p PipelineHandle) (InstanceStateHandle, error)
	ReleaseInstanceState(h InstanceStateHandle)
	UpdateInstanceState(h InstanceStateHandle, data []byte) error
}

// ShaderLayoutQuerier is an optional capability a pipeline backend may
// implement to report a compiled pipeline's UBO/push-constant layout. The
// pipeline registry queries this once at creation and caches the result;
// a backend without it leaves ShaderRuntimeLayout zeroed.
type ShaderLayoutQuerier interface {
	ShaderRuntimeLayout(p PipelineHandle) (ShaderRuntimeLayout, bool)
}

// DescriptorWriteCounter is an optional telemetry capability: backends
// that elide redundant descriptor writes during bind calls can report how
// many were avoided since the last drain.
type DescriptorWriteCounter interface {
	GetAndResetDescriptorWritesAvoided() uint64
}

// UploadWaitReporter is an optional telemetry capability backing
// get_and_reset_upload_wait_stats (scenario S7). For a backend without it,
// corepool's uploadstats.Collect returns a zero Stats and false.
type UploadWaitReporter interface {
	GetAndResetUploadWaitStats() UploadWaitStats
}

// GlobalStateUpdater is an optional capability for backends that expose a
// single global (per-frame, not per-pipeline) uniform block shared across
// domains, distinct from Pipelines.UpdateGlobalState which targets one
// pipeline's own global slot.
type GlobalStateUpdater interface {
	UpdateGlobalState(data []byte) error
}

// Device is the full backend surface corepool depends on: the required
// buffer, texture and pipeline contracts. Optional capabilities
// (BufferBatchCreator, ShaderLayoutQuerier, DescriptorWriteCounter,
// UploadWaitReporter) are detected with a type assertion at the call
// site, the same optional-interface pattern the standard library uses for
// io.ReaderFrom/io.WriterTo.
type Device interface {
	Buffers
	Textures
	Pipelines
}
