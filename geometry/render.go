package geometry

import (
	"errors"

	"github.com/vkforge/corepool/backend"
)

// ErrInvalidInstanceCount is returned when a render call's instance count
// is zero.
var ErrInvalidInstanceCount = errors.New("geometry: instance_count must be > 0")

// buffers resolves the vertex and index backend handles plus byte offsets
// for a live geometry, whether it's pool-suballocated (Create) or
// dedicated (CreateBatch).
func (s *System) buffers(h Handle, slot uint32) (vb, ib backend.BufferHandle, vbOffset, ibOffset uint64) {
	if pair, ok := s.batchBuffers[h]; ok {
		return pair.vertex, pair.index, 0, 0
	}
	e := &s.entries[slot]
	p := s.pools[e.layout]
	return p.vertexBuffer, p.indexBuffer, uint64(e.firstVertex) * uint64(p.stride), uint64(e.firstIndex) * IndexElementSize
}

// Render binds h's vertex and index buffers and issues exactly one
// draw_indexed call with index_count = entry.index_count (spec.md §8.5).
// overrideIndexBuffer, if non-nil, is bound instead of h's own index
// buffer -- used to render one geometry's vertices against a different
// topology.
func (s *System) Render(h Handle, instanceCount uint32, overrideIndexBuffer *backend.BufferHandle) error {
	slot, err := s.resolve(h)
	if err != nil {
		return err
	}
	if instanceCount == 0 {
		return ErrInvalidInstanceCount
	}

	e := &s.entries[slot]
	vb, ib, vbOffset, ibOffset := s.buffers(h, slot)
	if overrideIndexBuffer != nil {
		ib, ibOffset = *overrideIndexBuffer, 0
	}

	s.backend.BindVertexBuffer(vb, 0, vbOffset)
	s.backend.BindIndexBuffer(ib, ibOffset, IndexElementSize)
	s.backend.DrawIndexed(e.indexCount, instanceCount, 0, 0, 0)
	return nil
}

// RenderIndirect is Render's draw_indexed_indirect counterpart: the draw
// arguments come from indirectBuffer at indirectOffset rather than from
// the call's own parameters.
func (s *System) RenderIndirect(h Handle, indirectBuffer backend.BufferHandle, indirectOffset uint64, drawCount, stride uint32) error {
	slot, err := s.resolve(h)
	if err != nil {
		return err
	}

	vb, ib, vbOffset, ibOffset := s.buffers(h, slot)
	s.backend.BindVertexBuffer(vb, 0, vbOffset)
	s.backend.BindIndexBuffer(ib, ibOffset, IndexElementSize)
	s.backend.DrawIndexedIndirect(indirectBuffer, indirectOffset, drawCount, stride)
	return nil
}

// Bounds returns h's axis-aligned bounding box.
func (s *System) Bounds(h Handle) (AABB, error) {
	slot, err := s.resolve(h)
	if err != nil {
		return AABB{}, err
	}
	return s.entries[slot].bounds, nil
}
