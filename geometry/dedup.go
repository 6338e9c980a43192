package geometry

import (
	"encoding/binary"
	"math"

	"github.com/vkforge/corepool/hashtable"
)

// quantScale controls how finely position/normal/texcoord components are
// bucketed before hashing; two floats whose quantized buckets differ are
// never considered duplicates regardless of FloatEpsilon.
const quantScale = 1.0 / FloatEpsilon

func quantize(f float32) int32 {
	return int32(math.Round(float64(f) * quantScale))
}

// dedupKey builds a byte key from a vertex's quantized position, normal
// and texcoord components (tangent is excluded, matching spec.md §4.G:
// dedup hashes position/normal/texcoord only).
func dedupKey(v []float32, stride int) string {
	// position(3), normal(3 if present), uv(2) -- tangent components, if
	// any, are always the trailing 4 floats and are skipped.
	n := stride
	if n > 8 {
		n = 8
	}
	buf := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(quantize(v[i])))
	}
	return string(buf)
}

func componentsEqual(a, b []float32, n int) bool {
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > FloatEpsilon {
			return false
		}
	}
	return true
}

// Dedup collapses vertices that are component-wise equal within
// FloatEpsilon across position/normal/texcoord, rewriting indices to
// point at the surviving copies. Uses an open-addressed table sized at 2x
// the input vertex count, keyed by the quantized components. Each vertex
// is compared only against its key's current occupant: if they are equal
// the vertex is merged into it, otherwise the vertex is kept and replaces
// the occupant under that key. With one lookup per vertex the pass runs
// in expected O(n).
func Dedup(vertices []float32, indices []uint32, layout VertexLayout) (newVertices []float32, newIndices []uint32) {
	stride := int(layout.Stride() / floatSize)
	if stride == 0 {
		return vertices, indices
	}
	vertexCount := len(vertices) / stride

	type slot struct {
		vertexStart int // offset into the ORIGINAL vertices slice
		newIndex    uint32
	}
	seen := hashtable.New[slot](2 * vertexCount)

	remap := make([]uint32, vertexCount)
	newVertices = make([]float32, 0, len(vertices))
	var nextNewIndex uint32

	compareN := stride
	if compareN > 8 {
		compareN = 8
	}

	for i := 0; i < vertexCount; i++ {
		start := i * stride
		v := vertices[start : start+stride]
		key := dedupKey(v, stride)

		if existing, ok := seen.Get(key); ok {
			candidate := vertices[existing.vertexStart : existing.vertexStart+compareN]
			if componentsEqual(v[:compareN], candidate, compareN) {
				remap[i] = existing.newIndex
				continue
			}
		}

		remap[i] = nextNewIndex
		seen.Insert(key, slot{vertexStart: start, newIndex: nextNewIndex})
		newVertices = append(newVertices, v...)
		nextNewIndex++
	}

	newIndices = make([]uint32, len(indices))
	for i, idx := range indices {
		newIndices[i] = remap[idx]
	}
	return newVertices, newIndices
}
