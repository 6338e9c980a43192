package backend

// BufferHandle, TextureHandle and PipelineHandle are opaque identifiers the
// backend hands back from its Create* calls. corepool never interprets
// their bits; it only stores and returns them to the backend on later
// calls. The zero value of each is reserved to mean "no resource".
type (
	BufferHandle   uint64
	TextureHandle  uint64
	PipelineHandle uint64

	// InstanceStateHandle identifies a per-instance uniform/descriptor
	// slot acquired from a pipeline (spec.md §6's instance state
	// acquire/release/update trio).
	InstanceStateHandle uint64
)

// Domain groups pipelines by the render pass / queue they belong to, used
// by the pipeline registry's domain-indexed lists and by bind elision to
// scope "already bound" state per domain rather than globally.
type Domain int

const (
	DomainWorld Domain = iota
	DomainWorldTransparent
	DomainUI
	DomainShadow
	DomainPost
	DomainSkybox
	DomainPicking
	DomainCompute
)

func (d Domain) String() string {
	switch d {
	case DomainWorld:
		return "world"
	case DomainWorldTransparent:
		return "world_transparent"
	case DomainUI:
		return "ui"
	case DomainShadow:
		return "shadow"
	case DomainPost:
		return "post"
	case DomainSkybox:
		return "skybox"
	case DomainPicking:
		return "picking"
	case DomainCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// BufferUsage is a bitmask of how a buffer will be bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageIndirect
	BufferUsageCopyDst
)

// BufferDescriptor describes a buffer creation request.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// Upload is an optional payload uploaded at creation time, at Offset bytes
// into the buffer.
type Upload struct {
	Data   []byte
	Offset uint64
}

// BufferRequest bundles a descriptor with an optional initial upload, the
// unit batch/buffer_create_batch works over.
type BufferRequest struct {
	Description BufferDescriptor
	Upload      *Upload
}

// TextureFormat names a pixel format. corepool treats it as an opaque
// string so it never has to track the backend's format enum.
type TextureFormat string

// TextureDescriptor describes a texture creation request.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Depth  uint32
	Format TextureFormat
	Mips   uint32
}

// TextureRequest bundles a descriptor with its required initial pixel
// payload -- unlike buffers, textures always carry their payload through
// the batch call (spec.md §6).
type TextureRequest struct {
	Description TextureDescriptor
	Payload     []byte
}

// GraphicsPipelineDescriptor describes a graphics pipeline creation
// request.
type GraphicsPipelineDescriptor struct {
	Label          string
	Domain         Domain
	RenderpassName string
	VertexModule   string
	VertexEntry    string
	FragmentModule string
	FragmentEntry  string
}

// ShaderRuntimeLayout reports the UBO/push-constant/texture-slot layout a
// compiled pipeline expects, queried once at pipeline creation time and
// cached by the pipeline registry.
type ShaderRuntimeLayout struct {
	GlobalUBOSize    uint32
	GlobalUBOStride  uint32
	InstanceUBOSize  uint32
	InstanceUBOStride uint32
	PushConstantSize uint32
	TextureCount     uint32
}

// UploadWaitStats is the upload-wait telemetry drained by
// get_and_reset_upload_wait_stats (spec.md §4.J / scenario S7).
type UploadWaitStats struct {
	FenceWaitCount     uint64
	QueueWaitIdleCount uint64
	DeviceWaitIdleCount uint64
}
