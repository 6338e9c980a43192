package geometry

import "testing"

func TestClampSegmentsEnforcesMinima(t *testing.T) {
	if got := clampSegments(1, 3); got != 3 {
		t.Fatalf("clampSegments(1, 3) = %d, want 3", got)
	}
	if got := clampSegments(5, 3); got != 5 {
		t.Fatalf("clampSegments(5, 3) = %d, want 5", got)
	}
	if got := clampSegments(1, 2); got != 2 {
		t.Fatalf("clampSegments(1, 2) = %d, want 2", got)
	}
}

func TestDefaultCubeHasSixFacesCounterClockwise(t *testing.T) {
	cfg := DefaultCube(2)
	stride := int(LayoutPositionNormalUVTangent.Stride() / floatSize)
	vertexCount := len(cfg.Vertices) / stride

	if vertexCount != 24 { // 6 faces * 4 vertices
		t.Fatalf("vertex count = %d, want 24", vertexCount)
	}
	if len(cfg.Indices) != 36 { // 6 faces * 2 triangles * 3 indices
		t.Fatalf("index count = %d, want 36", len(cfg.Indices))
	}

	// Every triangle's winding should be counter-clockwise as seen from
	// outside: cross(p1-p0, p2-p0) should point roughly along the face
	// normal stored at its first vertex.
	for t0 := 0; t0+2 < len(cfg.Indices); t0 += 3 {
		i0, i1, i2 := cfg.Indices[t0], cfg.Indices[t0+1], cfg.Indices[t0+2]
		p0 := vertexPos(cfg.Vertices, stride, i0)
		p1 := vertexPos(cfg.Vertices, stride, i1)
		p2 := vertexPos(cfg.Vertices, stride, i2)
		n := vertexNormal(cfg.Vertices, stride, i0)

		faceNormal := cross3(sub3(p1, p0), sub3(p2, p0))
		if dot3(faceNormal, n) <= 0 {
			t.Fatalf("triangle at index %d is not counter-clockwise w.r.t. its normal", t0)
		}
	}
}

func vertexPos(v []float32, stride int, idx uint32) vec3 {
	o := int(idx) * stride
	return vec3{v[o], v[o+1], v[o+2]}
}

func vertexNormal(v []float32, stride int, idx uint32) vec3 {
	o := int(idx) * stride
	return vec3{v[o+3], v[o+4], v[o+5]}
}

func TestDefaultPlane2DHasFourVerticesAndTwoTriangles(t *testing.T) {
	cfg := DefaultPlane2D(4, 2)
	stride := int(LayoutPosition2DUV.Stride() / floatSize)
	if len(cfg.Vertices)/stride != 4 {
		t.Fatalf("vertex count = %d, want 4", len(cfg.Vertices)/stride)
	}
	if len(cfg.Indices) != 6 {
		t.Fatalf("index count = %d, want 6", len(cfg.Indices))
	}
}

func TestSphereSegmentCountsAreClamped(t *testing.T) {
	cfg := Sphere(1, 0, 0)
	stride := int(LayoutPositionNormalUVTangent.Stride() / floatSize)
	vertexCount := len(cfg.Vertices) / stride

	// clamped to lat=2, lon=3 => (lat+1)*(lon+1) = 3*4 = 12 vertices.
	if vertexCount != 12 {
		t.Fatalf("vertex count = %d, want 12 after clamping", vertexCount)
	}
}

func TestGenerateTangentsProducesUnitTangents(t *testing.T) {
	// A single flat quad on the XY plane with a trivial UV mapping.
	posNormalUV := []float32{
		0, 0, 0, 0, 0, 1, 0, 0,
		1, 0, 0, 0, 0, 1, 1, 0,
		1, 1, 0, 0, 0, 1, 1, 1,
		0, 1, 0, 0, 0, 1, 0, 1,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	out := GenerateTangents(posNormalUV, indices)
	stride := 12
	if len(out)/stride != 4 {
		t.Fatalf("vertex count = %d, want 4", len(out)/stride)
	}
	for i := 0; i < 4; i++ {
		o := i * stride
		tangent := vec3{out[o+8], out[o+9], out[o+10]}
		l := len3(tangent)
		if l < 0.99 || l > 1.01 {
			t.Fatalf("vertex %d tangent length = %v, want ~1", i, l)
		}
	}
}
