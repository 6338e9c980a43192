package batch

import (
	"testing"

	"github.com/vkforge/corepool/backend"
	"github.com/vkforge/corepool/backend/noop"
)

func TestCreateBuffersAllSucceedWithBatchBackend(t *testing.T) {
	dev := noop.New()
	reqs := []backend.BufferRequest{
		{Description: backend.BufferDescriptor{Label: "a", Size: 64}},
		{Description: backend.BufferDescriptor{Label: "b", Size: 128}},
	}

	handles, errs, created := CreateBuffers(dev, reqs)
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	for i := range reqs {
		if handles[i] == 0 || errs[i] != backend.None {
			t.Fatalf("index %d = (%v, %v), want success", i, handles[i], errs[i])
		}
	}
}

func TestCreateBuffersValidatesUploadOffsetBeforeBackend(t *testing.T) {
	dev := noop.New()
	reqs := []backend.BufferRequest{
		{
			Description: backend.BufferDescriptor{Label: "overrun", Size: 16},
			Upload:      &backend.Upload{Data: make([]byte, 8), Offset: 12},
		},
	}

	handles, errs, created := CreateBuffers(dev, reqs)
	if created != 0 || handles[0] != 0 || errs[0] != backend.InvalidParameter {
		t.Fatalf("got (%v, %v, %d), want (0, InvalidParameter, 0)", handles[0], errs[0], created)
	}
}

// invariant (spec.md §8.7): for every index, (handles[i] != 0) iff
// (errs[i] == None).
func TestCreateBuffersHandleErrorInvariant(t *testing.T) {
	dev := noop.New()
	dev.FailBatchAt = map[int]backend.ErrorCode{1: backend.DeviceError}
	reqs := []backend.BufferRequest{
		{Description: backend.BufferDescriptor{Label: "ok", Size: 32}},
		{Description: backend.BufferDescriptor{Label: "fails", Size: 32}},
	}

	handles, errs, _ := CreateBuffers(dev, reqs)
	for i := range reqs {
		gotSuccess := handles[i] != 0
		wantSuccess := errs[i] == backend.None
		if gotSuccess != wantSuccess {
			t.Fatalf("index %d: handle!=0 is %v but err==None is %v", i, gotSuccess, wantSuccess)
		}
	}
	if errs[1] != backend.DeviceError {
		t.Fatalf("errs[1] = %v, want DeviceError", errs[1])
	}
}

// TestCreateBuffersSequentialFallbackPath exercises the per-request
// fallback by hiding noop.Device's BufferBatchCreator implementation
// behind a facade that only exposes backend.Device.
func TestCreateBuffersSequentialFallbackPath(t *testing.T) {
	dev := noop.New()
	seq := sequentialFacade{dev}

	reqs := []backend.BufferRequest{
		{Description: backend.BufferDescriptor{Label: "ok", Size: 32}},
		{
			Description: backend.BufferDescriptor{Label: "overruns", Size: 4},
			Upload:      &backend.Upload{Data: make([]byte, 8)}, // 0+8 > 4
		},
	}

	handles, errs, created := CreateBuffers(seq, reqs)
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
	if handles[0] == 0 || errs[0] != backend.None {
		t.Fatalf("index 0 = (%v, %v), want success", handles[0], errs[0])
	}
	if handles[1] != 0 || errs[1] != backend.InvalidParameter {
		t.Fatalf("index 1 = (%v, %v), want (0, InvalidParameter)", handles[1], errs[1])
	}
}

// sequentialFacade exposes only backend.Device, hiding noop.Device's
// BufferBatchCreator implementation so CreateBuffers takes the fallback
// path.
type sequentialFacade struct {
	dev backend.Device
}

func (s sequentialFacade) CreateBuffer(desc backend.BufferDescriptor, upload *backend.Upload) (backend.BufferHandle, error) {
	return s.dev.CreateBuffer(desc, upload)
}
func (s sequentialFacade) DestroyBuffer(h backend.BufferHandle) { s.dev.DestroyBuffer(h) }
func (s sequentialFacade) UploadBuffer(h backend.BufferHandle, offset uint64, data []byte) error {
	return s.dev.UploadBuffer(h, offset, data)
}
func (s sequentialFacade) CreateTextureBatch(r []backend.TextureRequest) ([]backend.TextureHandle, []backend.ErrorCode, int) {
	return s.dev.CreateTextureBatch(r)
}
func (s sequentialFacade) DestroyTexture(h backend.TextureHandle) { s.dev.DestroyTexture(h) }
func (s sequentialFacade) CreateGraphicsPipeline(desc backend.GraphicsPipelineDescriptor) (backend.PipelineHandle, error) {
	return s.dev.CreateGraphicsPipeline(desc)
}
func (s sequentialFacade) DestroyPipeline(h backend.PipelineHandle) { s.dev.DestroyPipeline(h) }
func (s sequentialFacade) BindVertexBuffer(h backend.BufferHandle, binding uint32, offset uint64) {
	s.dev.BindVertexBuffer(h, binding, offset)
}
func (s sequentialFacade) BindIndexBuffer(h backend.BufferHandle, offset uint64, elementSize uint32) {
	s.dev.BindIndexBuffer(h, offset, elementSize)
}
func (s sequentialFacade) DrawIndexed(indexCount, instanceCount uint32, firstIndex, vertexOffset int32, firstInstance uint32) {
	s.dev.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
func (s sequentialFacade) DrawIndexedIndirect(buf backend.BufferHandle, offset uint64, drawCount, stride uint32) {
	s.dev.DrawIndexedIndirect(buf, offset, drawCount, stride)
}
func (s sequentialFacade) UpdateGlobalState(p backend.PipelineHandle, data []byte) error {
	return s.dev.UpdateGlobalState(p, data)
}
func (s sequentialFacade) AcquireInstanceState(p backend.PipelineHandle) (backend.InstanceStateHandle, error) {
	return s.dev.AcquireInstanceState(p)
}
func (s sequentialFacade) ReleaseInstanceState(h backend.InstanceStateHandle) {
	s.dev.ReleaseInstanceState(h)
}
func (s sequentialFacade) UpdateInstanceState(h backend.InstanceStateHandle, data []byte) error {
	return s.dev.UpdateInstanceState(h, data)
}
