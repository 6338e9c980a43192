package geometry

import (
	"fmt"

	"github.com/vkforge/corepool/backend"
	batchpkg "github.com/vkforge/corepool/batch"
)

// BatchResult reports the per-geometry outcome of CreateBatch.
type BatchResult struct {
	Handle Handle
	Err    backend.ErrorCode
}

// CreateBatch creates many geometries in one pass through the batch
// façade (spec.md §4.G "Batch creation"). Unlike Create, which
// suballocates byte ranges inside a shared per-layout pool buffer, a
// batched geometry gets its own dedicated vertex and index buffer --
// this is the chokepoint scenario S5 exercises.
//
// Each config produces exactly two buffer requests, vertex then index, in
// the order configs are given; request 2*i is geometry i's vertex
// buffer, request 2*i+1 is its index buffer. A geometry whose vertex and
// index buffer both succeed is registered and counted in created; any
// other outcome destroys whichever of that geometry's buffers did
// succeed and records the first error for that geometry slot.
func (s *System) CreateBatch(configs []Config) (results []BatchResult, created int) {
	results = make([]BatchResult, len(configs))

	type pending struct {
		slot      uint32
		handle    Handle
		config    *Config
		validIdx  int // index into the valid-configs slice, -1 if invalid
	}
	pendings := make([]pending, len(configs))

	valid := make([]*Config, 0, len(configs))
	for i := range configs {
		cfg := &configs[i]
		pendings[i].config = cfg
		pendings[i].validIdx = -1

		if !cfg.Layout.valid() || cfg.vertexCount() == 0 || len(cfg.Indices) == 0 {
			results[i] = BatchResult{Err: backend.InvalidParameter}
			continue
		}

		h, slot, err := s.acquireSlot()
		if err != nil {
			results[i] = BatchResult{Err: backend.OutOfMemory}
			continue
		}

		pendings[i].slot = slot
		pendings[i].handle = h
		pendings[i].validIdx = len(valid)
		valid = append(valid, cfg)
	}

	requests := make([]backend.BufferRequest, 0, 2*len(valid))
	for _, cfg := range valid {
		stride := cfg.Layout.Stride()
		vertexBytes := uint64(cfg.vertexCount()) * uint64(stride)
		indexBytes := uint64(len(cfg.Indices)) * IndexElementSize

		requests = append(requests,
			backend.BufferRequest{
				Description: backend.BufferDescriptor{
					Label: fmt.Sprintf("%s_vertices", nameOrDefault(cfg)),
					Size:  vertexBytes,
					Usage: backend.BufferUsageVertex | backend.BufferUsageCopyDst,
				},
				Upload: &backend.Upload{Data: floatsToBytes(cfg.Vertices)},
			},
			backend.BufferRequest{
				Description: backend.BufferDescriptor{
					Label: fmt.Sprintf("%s_indices", nameOrDefault(cfg)),
					Size:  indexBytes,
					Usage: backend.BufferUsageIndex | backend.BufferUsageCopyDst,
				},
				Upload: &backend.Upload{Data: indicesToBytes(cfg.Indices)},
			},
		)
	}

	handles, errs, _ := batchpkg.CreateBuffers(s.backend, requests)

	for i := range configs {
		p := pendings[i]
		if p.validIdx < 0 {
			continue
		}
		vbIdx, ibIdx := 2*p.validIdx, 2*p.validIdx+1
		vbHandle, vbErr := handles[vbIdx], errs[vbIdx]
		ibHandle, ibErr := handles[ibIdx], errs[ibIdx]

		if vbErr == backend.None && ibErr == backend.None {
			cfg := p.config
			name := nameOrDefault(cfg)
			s.entries[p.slot] = entry{
				generation:   p.handle.Generation,
				layout:       cfg.Layout,
				vertexCount:  cfg.vertexCount(),
				indexCount:   uint32(len(cfg.Indices)),
				debugName:    cfg.DebugName,
				materialName: cfg.MaterialName,
				pipelineID:   cfg.PipelineID,
				bounds:       cfg.Bounds,
				live:         true,
			}
			s.names.Insert(name, nameEntry{slotIndex: p.slot, refCount: 1, autoRelease: cfg.AutoRelease})
			s.batchBuffers[p.handle] = batchBufferPair{vertex: vbHandle, index: ibHandle}

			results[i] = BatchResult{Handle: p.handle, Err: backend.None}
			created++
			continue
		}

		if vbErr == backend.None {
			s.backend.DestroyBuffer(vbHandle)
		}
		if ibErr == backend.None {
			s.backend.DestroyBuffer(ibHandle)
		}
		s.releaseSlot(p.slot)

		firstErr := vbErr
		if firstErr == backend.None {
			firstErr = ibErr
		}
		results[i] = BatchResult{Err: firstErr}
	}

	s.totalMeshesBatched += uint64(created)
	return results, created
}

func nameOrDefault(cfg *Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return cfg.DebugName
}
