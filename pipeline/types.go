// Package pipeline implements the graphics pipeline registry (spec.md
// §4.H): owns pipelines, binds state, elides redundant binds, and tracks
// per-frame and lifetime telemetry.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/vkforge/corepool/backend"
)

// Handle identifies a registered pipeline. The zero value is invalid.
type Handle struct {
	Id         uint32
	Generation uint32
}

func (h Handle) IsZero() bool { return h.Id == 0 }

func (h Handle) String() string { return fmt.Sprintf("pipeline.Handle(%d,%d)", h.Id, h.Generation) }

// Descriptor is the canonical description stored alongside a registered
// pipeline, including the ABI sizes read back from the backend at
// creation time.
type Descriptor struct {
	Label          string
	Domain         backend.Domain
	RenderpassName string
	VertexModule   string
	VertexEntry    string
	FragmentModule string
	FragmentEntry  string

	Layout backend.ShaderRuntimeLayout
}

// ShaderConfig is a higher-level pipeline creation request that resolves
// module stages before delegating to CreateGraphicsPipeline (spec.md
// §4.H "Create from shader config").
type ShaderConfig struct {
	Label          string
	Domain         backend.Domain
	RenderpassName string

	VertexModule   string
	VertexEntry    string
	FragmentModule string
	FragmentEntry  string

	Names []string // primary name plus any aliases
}

type entry struct {
	generation uint32
	backend    backend.PipelineHandle
	domain     backend.Domain
	desc       Descriptor
	live       bool
}

var (
	ErrInvalidHandle     = errors.New("pipeline: invalid handle")
	ErrMissingStages     = errors.New("pipeline: vertex and fragment modules are both required")
	ErrNoPipelineBound   = errors.New("pipeline: no pipeline is currently bound")
	ErrRenderpassUnknown = errors.New("pipeline: renderpass could not be resolved")
)

// builtinRenderpassFallback maps a domain to the built-in renderpass name
// used whenever ShaderConfig.RenderpassName is empty (spec.md §4.H
// "domain-specific fallback").
func builtinRenderpassFallback(d backend.Domain) string {
	switch d {
	case backend.DomainUI:
		return "renderpass_ui"
	case backend.DomainPicking:
		return "renderpass_picking"
	default:
		return "renderpass_world"
	}
}
