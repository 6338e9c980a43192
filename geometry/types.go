// Package geometry owns logical meshes and pools the GPU vertex/index
// buffers they are carved out of, one pool per vertex layout. A geometry
// handle stays live from create to the release that brings its reference
// count to zero with auto-release; generations detect use of a handle
// whose slot has since been recycled (spec.md §3.9).
package geometry

import (
	"errors"
	"fmt"

	"github.com/vkforge/corepool/backend"
	"github.com/vkforge/corepool/freelist"
)

// Handle identifies a logical mesh slot. The zero value is never live:
// Id == 0 always means invalid, regardless of Generation.
type Handle struct {
	Id         uint32
	Generation uint32
}

// IsZero reports whether h is the invalid handle.
func (h Handle) IsZero() bool { return h.Id == 0 }

func (h Handle) String() string { return fmt.Sprintf("geometry.Handle(%d,%d)", h.Id, h.Generation) }

// VertexLayout names one of the fixed interleaved vertex formats a pool is
// built for. Stride is in bytes.
type VertexLayout int

const (
	// LayoutPositionNormalUVTangent is the primary 3-D layout: position
	// (3 floats), normal (3 floats), texcoord (2 floats), tangent
	// (4 floats, w holds handedness).
	LayoutPositionNormalUVTangent VertexLayout = iota
	// LayoutPositionNormalUV omits tangents, for meshes that never need
	// normal mapping.
	LayoutPositionNormalUV
	// LayoutPosition2DUV is the UI/2-D layout: position (2 floats),
	// texcoord (2 floats).
	LayoutPosition2DUV

	layoutCount
)

const floatSize = 4

// Stride returns the vertex size in bytes for the layout.
func (l VertexLayout) Stride() uint32 {
	switch l {
	case LayoutPositionNormalUVTangent:
		return (3 + 3 + 2 + 4) * floatSize
	case LayoutPositionNormalUV:
		return (3 + 3 + 2) * floatSize
	case LayoutPosition2DUV:
		return (2 + 2) * floatSize
	default:
		return 0
	}
}

func (l VertexLayout) valid() bool { return l >= 0 && l < layoutCount }

// IndexElementSize is the byte size of one index; corepool always uses
// 32-bit indices.
const IndexElementSize = 4

// AABB is an axis-aligned bounding box in model space.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// Config describes a geometry to create from already-interleaved vertex
// and index data.
type Config struct {
	Vertices     []float32 // interleaved, Layout.Stride()/4 floats per vertex
	Indices      []uint32
	Layout       VertexLayout
	AutoRelease  bool
	Name         string // if empty, Create synthesizes "geom_<id>"; CreateBatch registers DebugName instead
	DebugName    string
	MaterialName string
	PipelineID   uint32
	Bounds       AABB
}

func (c *Config) vertexCount() uint32 {
	stride := c.Layout.Stride()
	if stride == 0 {
		return 0
	}
	return uint32(len(c.Vertices)) * floatSize / stride
}

// entry is the per-slot bookkeeping for one logical geometry (spec.md
// §3.9). The slot's Generation is never reset on release so stale
// handles remain detectably stale.
type entry struct {
	generation   uint32
	layout       VertexLayout
	firstVertex  uint32
	vertexCount  uint32
	firstIndex   uint32
	indexCount   uint32
	debugName    string
	materialName string
	pipelineID   uint32
	bounds       AABB
	live         bool
}

// batchBufferPair holds the dedicated vertex/index buffers a
// batch-created geometry owns, as opposed to a pool-suballocated range.
type batchBufferPair struct {
	vertex backend.BufferHandle
	index  backend.BufferHandle
}

// nameEntry is the name map's value type: a name maps to a slot plus its
// reference count and auto-release policy.
type nameEntry struct {
	slotIndex   uint32 // 0-based index into System.entries
	refCount    uint32
	autoRelease bool
}

// pool is the per-vertex-layout shared buffer pair plus its byte
// freelists, materialized lazily on first use of that layout.
type pool struct {
	vertexBuffer backend.BufferHandle
	indexBuffer  backend.BufferHandle
	vertexFree   *freelist.Freelist
	indexFree    *freelist.Freelist
	stride       uint32
	maxVertices  uint32
	maxIndices   uint32
}

var (
	// ErrInvalidHandle is returned when a handle's Id is zero, out of
	// range, or its Generation doesn't match the live slot.
	ErrInvalidHandle = errors.New("geometry: invalid handle")
	// ErrInvalidLayout is returned for an out-of-range VertexLayout.
	ErrInvalidLayout = errors.New("geometry: invalid vertex layout")
	// ErrNoVertices is returned when a config has zero vertices or indices.
	ErrNoVertices = errors.New("geometry: vertex or index count is zero")
	// ErrPoolExhausted is returned when a pool's freelist cannot satisfy a
	// reservation.
	ErrPoolExhausted = errors.New("geometry: vertex/index pool exhausted")
	// ErrSlotsExhausted is returned when every geometry slot is occupied.
	ErrSlotsExhausted = errors.New("geometry: no free geometry slots")
)
