package geometry

import (
	"encoding/binary"
	"fmt"
	"math"
)

func floatsToBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func indicesToBytes(v []uint32) []byte {
	out := make([]byte, len(v)*IndexElementSize)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*IndexElementSize:], x)
	}
	return out
}

// Create builds a geometry from already-interleaved vertex and index
// data (spec.md §4.G "Create from interleaved").
func (s *System) Create(cfg Config) (Handle, error) {
	if !cfg.Layout.valid() {
		return Handle{}, ErrInvalidLayout
	}
	vertexCount := cfg.vertexCount()
	if vertexCount == 0 || len(cfg.Indices) == 0 {
		return Handle{}, ErrNoVertices
	}

	p, err := s.poolFor(cfg.Layout)
	if err != nil {
		return Handle{}, err
	}

	alignment := p.stride
	if alignment == 0 {
		alignment = 1
	}
	vbBytes := roundUp(vertexCount*p.stride, alignment)
	ibBytes := roundUp(uint32(len(cfg.Indices))*IndexElementSize, IndexElementSize)

	vbOffset, ok := p.vertexFree.Allocate(uint64(vbBytes))
	if !ok {
		return Handle{}, fmt.Errorf("%w: vertex bytes %d", ErrPoolExhausted, vbBytes)
	}
	ibOffset, ok := p.indexFree.Allocate(uint64(ibBytes))
	if !ok {
		p.vertexFree.Free(uint64(vbBytes), vbOffset)
		return Handle{}, fmt.Errorf("%w: index bytes %d", ErrPoolExhausted, ibBytes)
	}

	h, slot, err := s.acquireSlot()
	if err != nil {
		p.vertexFree.Free(uint64(vbBytes), vbOffset)
		p.indexFree.Free(uint64(ibBytes), ibOffset)
		return Handle{}, err
	}

	if err := s.backend.UploadBuffer(p.vertexBuffer, vbOffset, floatsToBytes(cfg.Vertices)); err != nil {
		s.rollbackCreate(p, slot, vbOffset, vbBytes, ibOffset, ibBytes)
		return Handle{}, fmt.Errorf("geometry: upload vertices: %w", err)
	}
	if err := s.backend.UploadBuffer(p.indexBuffer, ibOffset, indicesToBytes(cfg.Indices)); err != nil {
		s.rollbackCreate(p, slot, vbOffset, vbBytes, ibOffset, ibBytes)
		return Handle{}, fmt.Errorf("geometry: upload indices: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("geom_%d", h.Id)
	}

	s.entries[slot] = entry{
		generation:   h.Generation,
		layout:       cfg.Layout,
		firstVertex:  uint32(vbOffset) / p.stride,
		vertexCount:  vertexCount,
		firstIndex:   uint32(ibOffset) / IndexElementSize,
		indexCount:   uint32(len(cfg.Indices)),
		debugName:    cfg.DebugName,
		materialName: cfg.MaterialName,
		pipelineID:   cfg.PipelineID,
		bounds:       cfg.Bounds,
		live:         true,
	}
	s.names.Insert(name, nameEntry{slotIndex: slot, refCount: 1, autoRelease: cfg.AutoRelease})

	return h, nil
}

// rollbackCreate undoes a partially completed Create: returns both byte
// ranges to their pool freelists and recycles the geometry slot.
func (s *System) rollbackCreate(p *pool, slot uint32, vbOffset uint64, vbBytes uint32, ibOffset uint64, ibBytes uint32) {
	p.vertexFree.Free(uint64(vbBytes), vbOffset)
	p.indexFree.Free(uint64(ibBytes), ibOffset)
	s.releaseSlot(slot)
}

// Acquire increments the reference count of the geometry named name,
// returning its handle. Fails if no geometry is registered under name.
func (s *System) Acquire(name string) (Handle, error) {
	ne, ok := s.names.Get(name)
	if !ok {
		return Handle{}, fmt.Errorf("geometry: %w: name %q not registered", ErrInvalidHandle, name)
	}
	ne.refCount++
	s.names.Insert(name, ne)

	e := &s.entries[ne.slotIndex]
	return Handle{Id: ne.slotIndex + 1, Generation: e.generation}, nil
}

// Release decrements h's reference count. When the count reaches zero and
// the geometry was created with AutoRelease, its GPU ranges are returned
// to their pool's freelists, the slot is recycled, and its name entry is
// removed.
func (s *System) Release(h Handle, name string) error {
	slot, err := s.resolve(h)
	if err != nil {
		return err
	}

	ne, ok := s.names.Get(name)
	if !ok || ne.slotIndex != slot {
		return fmt.Errorf("geometry: %w: name %q does not match handle", ErrInvalidHandle, name)
	}

	if ne.refCount > 0 {
		ne.refCount--
	}
	if ne.refCount > 0 {
		s.names.Insert(name, ne)
		return nil
	}
	if !ne.autoRelease {
		s.names.Insert(name, ne)
		return nil
	}

	if pair, ok := s.batchBuffers[h]; ok {
		s.backend.DestroyBuffer(pair.vertex)
		s.backend.DestroyBuffer(pair.index)
		delete(s.batchBuffers, h)
	} else {
		e := &s.entries[slot]
		p := s.pools[e.layout]
		vbBytes := roundUp(e.vertexCount*p.stride, p.stride)
		ibBytes := roundUp(e.indexCount*IndexElementSize, IndexElementSize)
		p.vertexFree.Free(uint64(vbBytes), uint64(e.firstVertex)*uint64(p.stride))
		p.indexFree.Free(uint64(ibBytes), uint64(e.firstIndex)*uint64(IndexElementSize))
	}

	s.names.Remove(name)
	s.releaseSlot(slot)
	return nil
}
