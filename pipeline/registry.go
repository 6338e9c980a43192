package pipeline

import (
	"fmt"

	"github.com/vkforge/corepool/backend"
	"github.com/vkforge/corepool/hashtable"
)

type nameEntry struct {
	slotIndex uint32
	domain    backend.Domain
}

// Stats holds the frame and lifetime telemetry spec.md §4.H/§7 mandates.
type Stats struct {
	TotalPipelinesCreated        uint64
	TotalPipelineBinds           uint64
	RedundantBindsAvoided        uint64
	TotalGlobalApplies           uint64
	TotalInstanceAcquires        uint64
	TotalInstanceReleases        uint64
	TotalInstanceUpdates         uint64
	TotalDescriptorWritesAvoided uint64

	// per-frame, reset by ResetFrameStats
	FramePipelineChanges uint64
}

// Registry owns graphics pipelines, binds state, elides redundant binds,
// and tracks telemetry. Not safe for concurrent use without external
// synchronization (spec.md §5).
type Registry struct {
	dev backend.Device

	entries   []entry
	freeSlots []uint32
	nextGen   uint32

	names   *hashtable.Table[nameEntry]
	domains map[backend.Domain][]uint32 // slot indices, insertion order

	currentHandle    Handle
	currentDomain    backend.Domain
	pipelineBound    bool
	globalStateDirty bool

	stats Stats
}

// New creates an empty registry over dev.
func New(dev backend.Device) *Registry {
	return &Registry{
		dev:     dev,
		names:   hashtable.New[nameEntry](64),
		domains: make(map[backend.Domain][]uint32),
	}
}

func (r *Registry) acquireSlot() (Handle, uint32) {
	var idx uint32
	if n := len(r.freeSlots); n > 0 {
		idx = r.freeSlots[n-1]
		r.freeSlots = r.freeSlots[:n-1]
	} else {
		idx = uint32(len(r.entries))
		r.entries = append(r.entries, entry{})
	}
	r.nextGen++
	gen := r.nextGen
	r.entries[idx] = entry{generation: gen, live: true}
	return Handle{Id: idx + 1, Generation: gen}, idx
}

func (r *Registry) resolve(h Handle) (uint32, error) {
	if h.Id == 0 {
		return 0, ErrInvalidHandle
	}
	idx := h.Id - 1
	if int(idx) >= len(r.entries) {
		return 0, ErrInvalidHandle
	}
	e := &r.entries[idx]
	if !e.live || e.generation != h.Generation {
		return 0, ErrInvalidHandle
	}
	return idx, nil
}

// CreateGraphicsPipeline registers a new pipeline, calling through to the
// backend and storing its reflection-derived ABI layout. names holds the
// canonical name plus any aliases to insert into the name map, all
// resolving to the same slot and domain.
func (r *Registry) CreateGraphicsPipeline(desc Descriptor, names ...string) (Handle, error) {
	backendDesc := backend.GraphicsPipelineDescriptor{
		Label:          desc.Label,
		Domain:         desc.Domain,
		RenderpassName: desc.RenderpassName,
		VertexModule:   desc.VertexModule,
		VertexEntry:    desc.VertexEntry,
		FragmentModule: desc.FragmentModule,
		FragmentEntry:  desc.FragmentEntry,
	}

	bh, err := r.dev.CreateGraphicsPipeline(backendDesc)
	if err != nil {
		return Handle{}, err
	}

	if layoutQuerier, ok := r.dev.(backend.ShaderLayoutQuerier); ok {
		if layout, ok := layoutQuerier.ShaderRuntimeLayout(bh); ok {
			desc.Layout = layout
		}
	}

	h, slot := r.acquireSlot()
	r.entries[slot] = entry{
		generation: h.Generation,
		backend:    bh,
		domain:     desc.Domain,
		desc:       desc,
		live:       true,
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		r.names.Insert(name, nameEntry{slotIndex: slot, domain: desc.Domain})
	}
	r.domains[desc.Domain] = append(r.domains[desc.Domain], slot)

	r.stats.TotalPipelinesCreated++
	return h, nil
}

// CreateFromShaderConfig resolves a higher-level shader config into a
// Descriptor and calls CreateGraphicsPipeline (spec.md §4.H "Create from
// shader config").
func (r *Registry) CreateFromShaderConfig(cfg ShaderConfig) (Handle, error) {
	vertexModule, vertexEntry := cfg.VertexModule, cfg.VertexEntry
	fragmentModule, fragmentEntry := cfg.FragmentModule, cfg.FragmentEntry

	if vertexModule != "" && vertexModule == fragmentModule {
		// Single-file multi-entry: synthesize missing entry names.
		if vertexEntry == "" {
			vertexEntry = "vertexMain"
		}
		if fragmentEntry == "" {
			fragmentEntry = "fragmentMain"
		}
	}
	if vertexModule == "" || fragmentModule == "" {
		return Handle{}, ErrMissingStages
	}

	renderpass := cfg.RenderpassName
	if renderpass == "" {
		renderpass = builtinRenderpassFallback(cfg.Domain)
	}

	desc := Descriptor{
		Label:          cfg.Label,
		Domain:         cfg.Domain,
		RenderpassName: renderpass,
		VertexModule:   vertexModule,
		VertexEntry:    vertexEntry,
		FragmentModule: fragmentModule,
		FragmentEntry:  fragmentEntry,
	}

	names := cfg.Names
	if len(names) == 0 {
		names = []string{cfg.Label}
	}
	return r.CreateGraphicsPipeline(desc, names...)
}

// Bind makes h the current pipeline. If h is already bound, this is a
// no-op that increments RedundantBindsAvoided (spec.md §8.6 / scenario
// S6). The actual GPU bind is performed lazily by the backend on the
// next state update.
func (r *Registry) Bind(h Handle) error {
	slot, err := r.resolve(h)
	if err != nil {
		return err
	}

	if r.pipelineBound && r.currentHandle == h {
		r.stats.RedundantBindsAvoided++
		return nil
	}

	r.currentHandle = h
	r.currentDomain = r.entries[slot].domain
	r.pipelineBound = true
	r.globalStateDirty = true

	r.stats.TotalPipelineBinds++
	r.stats.FramePipelineChanges++
	return nil
}

// IsPipelineBound reports whether h is the currently bound pipeline.
func (r *Registry) IsPipelineBound(h Handle) bool {
	return r.pipelineBound && r.currentHandle == h
}

// GlobalStateDirty reports whether UpdateGlobalState has not yet been
// called since the last Bind.
func (r *Registry) GlobalStateDirty() bool { return r.globalStateDirty }

// UpdateGlobalState pushes ubo to the backend for the currently bound
// pipeline. Requires a pipeline to be bound.
func (r *Registry) UpdateGlobalState(ubo []byte) error {
	if !r.pipelineBound {
		return ErrNoPipelineBound
	}
	slot, err := r.resolve(r.currentHandle)
	if err != nil {
		return err
	}

	if err := r.dev.UpdateGlobalState(r.entries[slot].backend, ubo); err != nil {
		return err
	}
	r.globalStateDirty = false
	r.stats.TotalGlobalApplies++
	return nil
}

// AcquireInstanceState, ReleaseInstanceState and UpdateInstanceState
// delegate to the backend, keyed by h's backend handle.
func (r *Registry) AcquireInstanceState(h Handle) (backend.InstanceStateHandle, error) {
	slot, err := r.resolve(h)
	if err != nil {
		return 0, err
	}
	inst, err := r.dev.AcquireInstanceState(r.entries[slot].backend)
	if err != nil {
		return 0, err
	}
	r.stats.TotalInstanceAcquires++
	return inst, nil
}

func (r *Registry) ReleaseInstanceState(inst backend.InstanceStateHandle) {
	r.dev.ReleaseInstanceState(inst)
	r.stats.TotalInstanceReleases++
}

func (r *Registry) UpdateInstanceState(inst backend.InstanceStateHandle, data []byte) error {
	if err := r.dev.UpdateInstanceState(inst, data); err != nil {
		return err
	}
	r.stats.TotalInstanceUpdates++
	return nil
}

// GetPipelineForMaterial takes the domain directly from the caller; it
// does not map a pipeline id to a domain and applies no WORLD default. It
// tries shaderName first, falls back to the alias "p_<domain>", and
// returns the entry only if its domain matches domain.
func (r *Registry) GetPipelineForMaterial(shaderName string, domain backend.Domain) (Handle, error) {
	if ne, ok := r.names.Get(shaderName); ok && ne.domain == domain {
		return r.handleForSlot(ne.slotIndex), nil
	}

	alias := fmt.Sprintf("p_%s", domain)
	if ne, ok := r.names.Get(alias); ok && ne.domain == domain {
		return r.handleForSlot(ne.slotIndex), nil
	}

	return Handle{}, ErrInvalidHandle
}

func (r *Registry) handleForSlot(slot uint32) Handle {
	return Handle{Id: slot + 1, Generation: r.entries[slot].generation}
}

// ResetFrameStats clears per-frame counters.
func (r *Registry) ResetFrameStats() {
	r.stats.FramePipelineChanges = 0
}

// CollectBackendTelemetry drains the backend's descriptor-writes-avoided
// counter, if it implements the optional hook, and folds it into the
// lifetime total.
func (r *Registry) CollectBackendTelemetry() {
	if counter, ok := r.dev.(backend.DescriptorWriteCounter); ok {
		r.stats.TotalDescriptorWritesAvoided += counter.GetAndResetDescriptorWritesAvoided()
	}
}

// Stats returns a snapshot of the registry's telemetry.
func (r *Registry) Stats() Stats { return r.stats }

// Shutdown destroys the backend pipeline of every slot whose backend
// handle is non-zero and clears that handle. It does not check whether a
// slot is still live; the registry has no per-pipeline release, so every
// created pipeline's handle stays set until Shutdown runs.
func (r *Registry) Shutdown() {
	for i := range r.entries {
		if r.entries[i].backend != 0 {
			r.dev.DestroyPipeline(r.entries[i].backend)
			r.entries[i].backend = 0
		}
	}
}
