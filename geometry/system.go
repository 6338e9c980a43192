package geometry

import (
	"fmt"

	"github.com/vkforge/corepool/backend"
	"github.com/vkforge/corepool/freelist"
	"github.com/vkforge/corepool/hashtable"
)

// Options configures a System at construction time.
type Options struct {
	MaxGeometries       int
	DefaultMaxVertices  uint32
	DefaultMaxIndices   uint32
	PrimaryLayout       VertexLayout
}

// System owns logical meshes and the per-layout GPU buffer pools they are
// carved out of. Not safe for concurrent use without external
// synchronization, matching spec.md §5's single-threaded-per-instance
// model.
type System struct {
	backend backend.Device
	opts    Options

	pools [layoutCount]*pool

	entries        []entry
	freeSlots      []uint32 // 0-based indices into entries, LIFO
	nextGeneration uint32

	names *hashtable.Table[nameEntry]

	// batchBuffers holds the dedicated buffer pair owned by each
	// batch-created geometry, keyed by handle since those geometries are
	// never pool-suballocated (see CreateBatch).
	batchBuffers map[Handle]batchBufferPair

	totalMeshesBatched uint64
}

// New creates a geometry system over backend dev. opts.PrimaryLayout is
// materialized immediately; other layouts are pooled lazily on first use.
func New(dev backend.Device, opts Options) (*System, error) {
	if !opts.PrimaryLayout.valid() {
		return nil, ErrInvalidLayout
	}
	if opts.MaxGeometries <= 0 {
		opts.MaxGeometries = 1024
	}
	if opts.DefaultMaxVertices == 0 {
		opts.DefaultMaxVertices = 1 << 16
	}
	if opts.DefaultMaxIndices == 0 {
		opts.DefaultMaxIndices = 1 << 18
	}

	s := &System{
		backend:      dev,
		opts:         opts,
		names:        hashtable.New[nameEntry](opts.MaxGeometries),
		batchBuffers: make(map[Handle]batchBufferPair),
	}
	if _, err := s.poolFor(opts.PrimaryLayout); err != nil {
		return nil, err
	}
	return s, nil
}

// roundUp rounds n up to the next multiple of alignment. alignment need
// not be a power of two (vertex strides such as 48 bytes are passed here).
func roundUp(n, alignment uint32) uint32 {
	if alignment == 0 {
		return n
	}
	return (n + alignment - 1) / alignment * alignment
}

// poolFor resolves the pool for layout, lazily creating its GPU buffers
// and freelists on first use.
func (s *System) poolFor(layout VertexLayout) (*pool, error) {
	if !layout.valid() {
		return nil, ErrInvalidLayout
	}
	if s.pools[layout] != nil {
		return s.pools[layout], nil
	}

	stride := layout.Stride()
	vbBytes := uint64(s.opts.DefaultMaxVertices) * uint64(stride)
	ibBytes := uint64(s.opts.DefaultMaxIndices) * uint64(IndexElementSize)

	vb, err := s.backend.CreateBuffer(backend.BufferDescriptor{
		Label: fmt.Sprintf("geometry_vertex_pool_%d", layout),
		Size:  vbBytes,
		Usage: backend.BufferUsageVertex | backend.BufferUsageCopyDst,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("geometry: create vertex pool for layout %d: %w", layout, err)
	}
	ib, err := s.backend.CreateBuffer(backend.BufferDescriptor{
		Label: fmt.Sprintf("geometry_index_pool_%d", layout),
		Size:  ibBytes,
		Usage: backend.BufferUsageIndex | backend.BufferUsageCopyDst,
	}, nil)
	if err != nil {
		s.backend.DestroyBuffer(vb)
		return nil, fmt.Errorf("geometry: create index pool for layout %d: %w", layout, err)
	}

	p := &pool{
		vertexBuffer: vb,
		indexBuffer:  ib,
		vertexFree:   freelist.New(vbBytes),
		indexFree:    freelist.New(ibBytes),
		stride:       stride,
		maxVertices:  s.opts.DefaultMaxVertices,
		maxIndices:   s.opts.DefaultMaxIndices,
	}
	s.pools[layout] = p
	return p, nil
}

// acquireSlot pops a free slot or grows entries, stamping a fresh
// generation, and returns the resulting handle.
func (s *System) acquireSlot() (Handle, uint32, error) {
	var idx uint32
	if n := len(s.freeSlots); n > 0 {
		idx = s.freeSlots[n-1]
		s.freeSlots = s.freeSlots[:n-1]
	} else {
		if len(s.entries) >= s.opts.MaxGeometries {
			return Handle{}, 0, ErrSlotsExhausted
		}
		idx = uint32(len(s.entries))
		s.entries = append(s.entries, entry{})
	}

	s.nextGeneration++
	gen := s.nextGeneration
	s.entries[idx] = entry{generation: gen, live: true}
	return Handle{Id: idx + 1, Generation: gen}, idx, nil
}

// releaseSlot pushes idx back onto the free stack. The generation is left
// untouched so stale handles referencing idx remain detectably stale
// until the slot is reacquired and stamped with a new generation.
func (s *System) releaseSlot(idx uint32) {
	s.entries[idx].live = false
	s.freeSlots = append(s.freeSlots, idx)
}

// resolve validates h and returns its 0-based slot index.
func (s *System) resolve(h Handle) (uint32, error) {
	if h.Id == 0 {
		return 0, ErrInvalidHandle
	}
	idx := h.Id - 1
	if int(idx) >= len(s.entries) {
		return 0, ErrInvalidHandle
	}
	e := &s.entries[idx]
	if !e.live || e.generation != h.Generation {
		return 0, ErrInvalidHandle
	}
	return idx, nil
}

// Len returns the number of live geometries.
func (s *System) Len() int {
	n := 0
	for _, e := range s.entries {
		if e.live {
			n++
		}
	}
	return n
}

// TotalMeshesBatched is the lifetime count of geometries successfully
// created through CreateBatch.
func (s *System) TotalMeshesBatched() uint64 { return s.totalMeshesBatched }
