package pipeline

import (
	"testing"

	"github.com/vkforge/corepool/backend"
	"github.com/vkforge/corepool/backend/noop"
)

func testDescriptor(label string) Descriptor {
	return Descriptor{
		Label:          label,
		Domain:         backend.DomainWorld,
		RenderpassName: "renderpass_world",
		VertexModule:   "shader.wgsl",
		VertexEntry:    "vertexMain",
		FragmentModule: "shader.wgsl",
		FragmentEntry:  "fragmentMain",
	}
}

// TestBindElidesRedundantBindsAndTracksGlobalState is scenario S6 from
// spec.md: binding the same pipeline twice in a row counts once as a
// pipeline change and once as a redundant bind avoided; binding a second
// pipeline counts as a second change; updating global state clears the
// dirty flag and counts one lifetime apply.
func TestBindElidesRedundantBindsAndTracksGlobalState(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	p1, err := r.CreateGraphicsPipeline(testDescriptor("p1"), "p1")
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline(p1): %v", err)
	}
	p2, err := r.CreateGraphicsPipeline(testDescriptor("p2"), "p2")
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline(p2): %v", err)
	}

	if err := r.Bind(p1); err != nil {
		t.Fatalf("Bind(p1) #1: %v", err)
	}
	if got := r.Stats().TotalPipelineBinds; got != 1 {
		t.Fatalf("TotalPipelineBinds = %d, want 1", got)
	}
	if got := r.Stats().RedundantBindsAvoided; got != 0 {
		t.Fatalf("RedundantBindsAvoided = %d, want 0", got)
	}

	if err := r.Bind(p1); err != nil {
		t.Fatalf("Bind(p1) #2: %v", err)
	}
	if got := r.Stats().TotalPipelineBinds; got != 1 {
		t.Fatalf("TotalPipelineBinds after redundant bind = %d, want 1", got)
	}
	if got := r.Stats().RedundantBindsAvoided; got != 1 {
		t.Fatalf("RedundantBindsAvoided = %d, want 1", got)
	}

	if err := r.Bind(p2); err != nil {
		t.Fatalf("Bind(p2): %v", err)
	}
	if got := r.Stats().TotalPipelineBinds; got != 2 {
		t.Fatalf("TotalPipelineBinds after Bind(p2) = %d, want 2", got)
	}
	if got := r.Stats().RedundantBindsAvoided; got != 1 {
		t.Fatalf("RedundantBindsAvoided after Bind(p2) = %d, want 1", got)
	}

	if !r.GlobalStateDirty() {
		t.Fatal("GlobalStateDirty() = false immediately after a bind, want true")
	}
	if err := r.UpdateGlobalState([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("UpdateGlobalState: %v", err)
	}
	if r.GlobalStateDirty() {
		t.Fatal("GlobalStateDirty() = true after UpdateGlobalState, want false")
	}
	if got := r.Stats().TotalGlobalApplies; got != 1 {
		t.Fatalf("TotalGlobalApplies = %d, want 1", got)
	}
}

func TestUpdateGlobalStateRequiresABoundPipeline(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	if err := r.UpdateGlobalState([]byte{1}); err != ErrNoPipelineBound {
		t.Fatalf("UpdateGlobalState with nothing bound = %v, want ErrNoPipelineBound", err)
	}
}

func TestBindRejectsInvalidHandle(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	if err := r.Bind(Handle{}); err != ErrInvalidHandle {
		t.Fatalf("Bind(zero handle) = %v, want ErrInvalidHandle", err)
	}
}

func TestCreateFromShaderConfigSynthesizesEntryPointsForSharedModule(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	h, err := r.CreateFromShaderConfig(ShaderConfig{
		Label:          "unlit",
		Domain:         backend.DomainWorld,
		VertexModule:   "unlit.wgsl",
		FragmentModule: "unlit.wgsl",
	})
	if err != nil {
		t.Fatalf("CreateFromShaderConfig: %v", err)
	}
	if h.IsZero() {
		t.Fatal("expected a non-zero handle")
	}

	got, err := r.GetPipelineForMaterial("unlit", backend.DomainWorld)
	if err != nil {
		t.Fatalf("GetPipelineForMaterial: %v", err)
	}
	if got != h {
		t.Fatalf("GetPipelineForMaterial returned %v, want %v", got, h)
	}
}

func TestCreateFromShaderConfigRequiresBothStages(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	_, err := r.CreateFromShaderConfig(ShaderConfig{Domain: backend.DomainWorld, VertexModule: "a.wgsl"})
	if err != ErrMissingStages {
		t.Fatalf("err = %v, want ErrMissingStages", err)
	}
}

func TestGetPipelineForMaterialFallsBackToDomainAlias(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	h, err := r.CreateGraphicsPipeline(testDescriptor("ui_default"), "p_world")
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}

	got, err := r.GetPipelineForMaterial("nonexistent_shader", backend.DomainWorld)
	if err != nil {
		t.Fatalf("GetPipelineForMaterial: %v", err)
	}
	if got != h {
		t.Fatalf("GetPipelineForMaterial via alias = %v, want %v", got, h)
	}
}

func TestShutdownDestroysEveryBackendHandle(t *testing.T) {
	dev := noop.New()
	r := New(dev)

	if _, err := r.CreateGraphicsPipeline(testDescriptor("p1"), "p1"); err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	if _, err := r.CreateGraphicsPipeline(testDescriptor("p2"), "p2"); err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}

	r.Shutdown()

	for i, e := range r.entries {
		if e.backend != 0 {
			t.Fatalf("entry %d still has a live backend handle after Shutdown", i)
		}
	}
}
