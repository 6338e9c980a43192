// Package batch implements the batched buffer/texture creation façade
// (spec.md §4.I): the single chokepoint where GPU-visible resources are
// created in bulk, with all-or-nothing rollback semantics per request.
package batch

import (
	"github.com/vkforge/corepool/backend"
)

// CreateBuffers creates every request against dev, in order. If dev
// implements backend.BufferBatchCreator, the requests that pass the upload
// offset/size check are forwarded to it in one call and its per-request
// handles/errors are placed back at those requests' original indices
// (spec.md §4.I item 1); requests that fail the check keep
// InvalidParameter and are not forwarded. Otherwise each request is created one
// at a time: a request with an upload is uploaded immediately after
// create, and any failure (create or upload) destroys whatever handle was
// created for that request and records the error, without touching the
// other requests (item 2).
//
// On return, for every index i either handles[i] != 0 and errs[i] ==
// backend.None, or handles[i] == 0 and errs[i] is a non-success code --
// no partially created resource is ever returned to the caller.
func CreateBuffers(dev backend.Device, requests []backend.BufferRequest) (handles []backend.BufferHandle, errs []backend.ErrorCode, created int) {
	handles = make([]backend.BufferHandle, len(requests))
	errs = make([]backend.ErrorCode, len(requests))

	for i, req := range requests {
		if req.Upload != nil && req.Upload.Offset+uint64(len(req.Upload.Data)) > req.Description.Size {
			errs[i] = backend.InvalidParameter
		}
	}

	if batcher, ok := dev.(backend.BufferBatchCreator); ok {
		return forwardBatch(batcher, requests, errs)
	}
	return createSequentially(dev, requests, errs)
}

func forwardBatch(batcher backend.BufferBatchCreator, requests []backend.BufferRequest, preValidated []backend.ErrorCode) ([]backend.BufferHandle, []backend.ErrorCode, int) {
	// Requests already failed by offset/size validation are excluded from
	// the backend call so the backend never sees an invalid request.
	forward := make([]backend.BufferRequest, 0, len(requests))
	forwardIdx := make([]int, 0, len(requests))
	for i, req := range requests {
		if preValidated[i] != backend.None {
			continue
		}
		forward = append(forward, req)
		forwardIdx = append(forwardIdx, i)
	}

	handles := make([]backend.BufferHandle, len(requests))
	errs := make([]backend.ErrorCode, len(requests))
	copy(errs, preValidated)

	if len(forward) == 0 {
		return handles, errs, 0
	}

	batchHandles, batchErrs, created := batcher.CreateBufferBatch(forward)
	for i, origIdx := range forwardIdx {
		handles[origIdx] = batchHandles[i]
		errs[origIdx] = batchErrs[i]
	}
	return handles, errs, created
}

func createSequentially(dev backend.Device, requests []backend.BufferRequest, preValidated []backend.ErrorCode) ([]backend.BufferHandle, []backend.ErrorCode, int) {
	handles := make([]backend.BufferHandle, len(requests))
	errs := make([]backend.ErrorCode, len(requests))
	copy(errs, preValidated)
	created := 0

	for i, req := range requests {
		if errs[i] != backend.None {
			continue
		}

		h, err := dev.CreateBuffer(req.Description, nil)
		if err != nil {
			errs[i] = backend.CodeOf(err)
			continue
		}

		if req.Upload != nil {
			if uploadErr := dev.UploadBuffer(h, req.Upload.Offset, req.Upload.Data); uploadErr != nil {
				dev.DestroyBuffer(h)
				errs[i] = backend.CodeOf(uploadErr)
				continue
			}
		}

		handles[i] = h
		errs[i] = backend.None
		created++
	}
	return handles, errs, created
}

// CreateTextures always delegates to the backend's batch entry -- spec.md
// §4.I is explicit that the texture path never synthesizes a per-request
// fallback, since every texture request always carries its full pixel
// payload.
func CreateTextures(dev backend.Textures, requests []backend.TextureRequest) (handles []backend.TextureHandle, errs []backend.ErrorCode, created int) {
	return dev.CreateTextureBatch(requests)
}
