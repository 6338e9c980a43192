package geometry

import "math"

// FloatEpsilon is the tolerance vertex deduplication and tangent
// generation use for component-wise float comparisons (spec.md §4.G).
const FloatEpsilon = 1e-5

type vec3 = [3]float32
type vec2 = [2]float32

func sub3(a, b vec3) vec3    { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func cross3(a, b vec3) vec3 {
	return vec3{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}
func dot3(a, b vec3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func len3(a vec3) float32    { return float32(math.Sqrt(float64(dot3(a, a)))) }
func normalize3(a vec3) vec3 {
	l := len3(a)
	if l < FloatEpsilon {
		return vec3{0, 0, 0}
	}
	return vec3{a[0] / l, a[1] / l, a[2] / l}
}

// clampSegments enforces the documented minima: at least 3 segments
// generally, at least 2 for latitude rings.
func clampSegments(n, min int) int {
	if n < min {
		return min
	}
	return n
}

// builder accumulates interleaved position/normal/uv/tangent vertices and
// 32-bit indices for the 3-D primitives.
type builder struct {
	vertices []float32 // 12 floats per vertex: pos3, normal3, uv2, tangent4
	indices  []uint32
}

func (b *builder) addVertex(p, n vec3, uv vec2, tangent [4]float32) uint32 {
	idx := uint32(len(b.vertices) / 12)
	b.vertices = append(b.vertices, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1],
		tangent[0], tangent[1], tangent[2], tangent[3])
	return idx
}

func (b *builder) addQuad(p0, p1, p2, p3 vec3, n vec3, tangent [4]float32) {
	i0 := b.addVertex(p0, n, vec2{0, 0}, tangent)
	i1 := b.addVertex(p1, n, vec2{1, 0}, tangent)
	i2 := b.addVertex(p2, n, vec2{1, 1}, tangent)
	i3 := b.addVertex(p3, n, vec2{0, 1}, tangent)
	b.indices = append(b.indices, i0, i1, i2, i0, i2, i3)
}

func (b *builder) toConfig(name string, autoRelease bool, bounds AABB) Config {
	return Config{
		Vertices:    b.vertices,
		Indices:     b.indices,
		Layout:      LayoutPositionNormalUVTangent,
		AutoRelease: autoRelease,
		Name:        name,
		Bounds:      bounds,
	}
}

// DefaultCube builds an axis-aligned, counter-clockwise-wound cube
// centered at the origin with the given edge length.
func DefaultCube(size float32) Config {
	h := size / 2
	var b builder

	type face struct {
		n          vec3
		p0, p1, p2, p3 vec3
	}
	faces := []face{
		{vec3{0, 0, 1}, vec3{-h, -h, h}, vec3{h, -h, h}, vec3{h, h, h}, vec3{-h, h, h}},     // +Z
		{vec3{0, 0, -1}, vec3{h, -h, -h}, vec3{-h, -h, -h}, vec3{-h, h, -h}, vec3{h, h, -h}}, // -Z
		{vec3{1, 0, 0}, vec3{h, -h, h}, vec3{h, -h, -h}, vec3{h, h, -h}, vec3{h, h, h}},     // +X
		{vec3{-1, 0, 0}, vec3{-h, -h, -h}, vec3{-h, -h, h}, vec3{-h, h, h}, vec3{-h, h, -h}}, // -X
		{vec3{0, 1, 0}, vec3{-h, h, h}, vec3{h, h, h}, vec3{h, h, -h}, vec3{-h, h, -h}},     // +Y
		{vec3{0, -1, 0}, vec3{-h, -h, -h}, vec3{h, -h, -h}, vec3{h, -h, h}, vec3{-h, -h, h}}, // -Y
	}
	for _, f := range faces {
		tangent := tangentForNormal(f.n)
		b.addQuad(f.p0, f.p1, f.p2, f.p3, f.n, tangent)
	}

	return b.toConfig("", true, AABB{Min: vec3{-h, -h, -h}, Max: vec3{h, h, h}})
}

// Box is DefaultCube generalized to independent per-axis extents.
func Box(extents vec3) Config {
	hx, hy, hz := extents[0]/2, extents[1]/2, extents[2]/2
	var b builder
	type face struct {
		n              vec3
		p0, p1, p2, p3 vec3
	}
	faces := []face{
		{vec3{0, 0, 1}, vec3{-hx, -hy, hz}, vec3{hx, -hy, hz}, vec3{hx, hy, hz}, vec3{-hx, hy, hz}},
		{vec3{0, 0, -1}, vec3{hx, -hy, -hz}, vec3{-hx, -hy, -hz}, vec3{-hx, hy, -hz}, vec3{hx, hy, -hz}},
		{vec3{1, 0, 0}, vec3{hx, -hy, hz}, vec3{hx, -hy, -hz}, vec3{hx, hy, -hz}, vec3{hx, hy, hz}},
		{vec3{-1, 0, 0}, vec3{-hx, -hy, -hz}, vec3{-hx, -hy, hz}, vec3{-hx, hy, hz}, vec3{-hx, hy, -hz}},
		{vec3{0, 1, 0}, vec3{-hx, hy, hz}, vec3{hx, hy, hz}, vec3{hx, hy, -hz}, vec3{-hx, hy, -hz}},
		{vec3{0, -1, 0}, vec3{-hx, -hy, -hz}, vec3{hx, -hy, -hz}, vec3{hx, -hy, hz}, vec3{-hx, -hy, hz}},
	}
	for _, f := range faces {
		b.addQuad(f.p0, f.p1, f.p2, f.p3, f.n, tangentForNormal(f.n))
	}
	return b.toConfig("", true, AABB{Min: vec3{-hx, -hy, -hz}, Max: vec3{hx, hy, hz}})
}

// DefaultPlane builds a horizontal (XZ), +Y-facing, counter-clockwise
// quad of the given width/depth centered at the origin.
func DefaultPlane(width, depth float32) Config {
	hw, hd := width/2, depth/2
	var b builder
	n := vec3{0, 1, 0}
	b.addQuad(vec3{-hw, 0, hd}, vec3{hw, 0, hd}, vec3{hw, 0, -hd}, vec3{-hw, 0, -hd}, n, tangentForNormal(n))
	return b.toConfig("", true, AABB{Min: vec3{-hw, 0, -hd}, Max: vec3{hw, 0, hd}})
}

// DefaultPlane2D builds a 2-D, Z-up-free quad for UI rendering: position
// (x, y), texcoord (u, v); no normal or tangent.
func DefaultPlane2D(width, height float32) Config {
	hw, hh := width/2, height/2
	verts := []float32{
		-hw, -hh, 0, 1,
		hw, -hh, 1, 1,
		hw, hh, 1, 0,
		-hw, hh, 0, 0,
	}
	return Config{
		Vertices:    verts,
		Indices:     []uint32{0, 1, 2, 0, 2, 3},
		Layout:      LayoutPosition2DUV,
		AutoRelease: true,
		Bounds:      AABB{Min: vec3{-hw, -hh, 0}, Max: vec3{hw, hh, 0}},
	}
}

// tangentForNormal picks an arbitrary but consistent tangent orthogonal
// to n, used by built-ins whose faces are axis-aligned so an analytic
// tangent is cheaper than running GenerateTangents.
func tangentForNormal(n vec3) [4]float32 {
	up := vec3{0, 1, 0}
	if math.Abs(float64(n[1])) > 0.99 {
		up = vec3{1, 0, 0}
	}
	t := normalize3(cross3(up, n))
	return [4]float32{t[0], t[1], t[2], 1}
}

// Sphere builds a UV sphere with latSegments latitude rings (clamped to
// at least 2) and lonSegments longitude segments (clamped to at least 3).
// Its tangents are computed with GenerateTangents, so the result uses
// LayoutPositionNormalUVTangent.
func Sphere(radius float32, latSegments, lonSegments int) Config {
	lat := clampSegments(latSegments, 2)
	lon := clampSegments(lonSegments, 3)

	var positions []vec3
	var normals []vec3
	var uvs []vec2

	for y := 0; y <= lat; y++ {
		v := float64(y) / float64(lat)
		theta := v * math.Pi
		sinT, cosT := math.Sin(theta), math.Cos(theta)
		for x := 0; x <= lon; x++ {
			u := float64(x) / float64(lon)
			phi := u * 2 * math.Pi
			sinP, cosP := math.Sin(phi), math.Cos(phi)

			nx, ny, nz := float32(sinT*cosP), float32(cosT), float32(sinT*sinP)
			n := vec3{nx, ny, nz}
			positions = append(positions, vec3{n[0] * radius, n[1] * radius, n[2] * radius})
			normals = append(normals, n)
			uvs = append(uvs, vec2{float32(u), float32(v)})
		}
	}

	var verts []float32
	for i := range positions {
		verts = append(verts, positions[i][0], positions[i][1], positions[i][2],
			normals[i][0], normals[i][1], normals[i][2], uvs[i][0], uvs[i][1])
	}

	var indices []uint32
	stride := lon + 1
	for y := 0; y < lat; y++ {
		for x := 0; x < lon; x++ {
			a := uint32(y*stride + x)
			bIdx := a + uint32(stride)
			indices = append(indices, a, bIdx, a+1, a+1, bIdx, bIdx+1)
		}
	}

	tangented := GenerateTangents(verts, indices)
	return Config{
		Vertices:    tangented,
		Indices:     indices,
		Layout:      LayoutPositionNormalUVTangent,
		AutoRelease: true,
		Bounds:      AABB{Min: vec3{-radius, -radius, -radius}, Max: vec3{radius, radius, radius}},
	}
}

// Cylinder builds a capped cylinder of the given radius/height with
// segments radial subdivisions (clamped to at least 3).
func Cylinder(radius, height float32, segments int) Config {
	return cylinderLike(radius, radius, height, segments)
}

// Cone is a cylinder whose top radius is zero.
func Cone(radius, height float32, segments int) Config {
	return cylinderLike(radius, 0, height, segments)
}

func cylinderLike(bottomRadius, topRadius, height float32, segments int) Config {
	seg := clampSegments(segments, 3)
	half := height / 2

	var positions, normals []vec3
	var uvs []vec2
	var indices []uint32

	slope := (bottomRadius - topRadius) / height

	for i := 0; i <= seg; i++ {
		u := float64(i) / float64(seg)
		theta := u * 2 * math.Pi
		c, s := float32(math.Cos(theta)), float32(math.Sin(theta))

		// bottom ring
		positions = append(positions, vec3{bottomRadius * c, -half, bottomRadius * s})
		normals = append(normals, normalize3(vec3{c, slope, s}))
		uvs = append(uvs, vec2{float32(u), 0})
		// top ring
		positions = append(positions, vec3{topRadius * c, half, topRadius * s})
		normals = append(normals, normalize3(vec3{c, slope, s}))
		uvs = append(uvs, vec2{float32(u), 1})
	}

	for i := 0; i < seg; i++ {
		b0, t0 := uint32(2*i), uint32(2*i+1)
		b1, t1 := uint32(2*(i+1)), uint32(2*(i+1)+1)
		indices = append(indices, b0, b1, t0, t0, b1, t1)
	}

	// bottom and top caps as triangle fans around a center vertex.
	bottomCenter := uint32(len(positions))
	positions = append(positions, vec3{0, -half, 0})
	normals = append(normals, vec3{0, -1, 0})
	uvs = append(uvs, vec2{0.5, 0.5})
	if bottomRadius > 0 {
		for i := 0; i < seg; i++ {
			indices = append(indices, bottomCenter, uint32(2*i), uint32(2*(i+1)))
		}
	}

	topCenter := uint32(len(positions))
	positions = append(positions, vec3{0, half, 0})
	normals = append(normals, vec3{0, 1, 0})
	uvs = append(uvs, vec2{0.5, 0.5})
	if topRadius > 0 {
		for i := 0; i < seg; i++ {
			indices = append(indices, topCenter, uint32(2*(i+1)+1), uint32(2*i+1))
		}
	}

	var verts []float32
	for i := range positions {
		verts = append(verts, positions[i][0], positions[i][1], positions[i][2],
			normals[i][0], normals[i][1], normals[i][2], uvs[i][0], uvs[i][1])
	}

	tangented := GenerateTangents(verts, indices)
	maxR := bottomRadius
	if topRadius > maxR {
		maxR = topRadius
	}
	return Config{
		Vertices:    tangented,
		Indices:     indices,
		Layout:      LayoutPositionNormalUVTangent,
		AutoRelease: true,
		Bounds:      AABB{Min: vec3{-maxR, -half, -maxR}, Max: vec3{maxR, half, maxR}},
	}
}

// Torus builds a torus of revolution: radius is the ring's center
// distance from the origin, tubeRadius is the tube's own radius.
func Torus(radius, tubeRadius float32, radialSegments, tubularSegments int) Config {
	radial := clampSegments(radialSegments, 3)
	tubular := clampSegments(tubularSegments, 3)

	var positions, normals []vec3
	var uvs []vec2

	for i := 0; i <= radial; i++ {
		u := float64(i) / float64(radial) * 2 * math.Pi
		cu, su := float32(math.Cos(u)), float32(math.Sin(u))
		center := vec3{radius * cu, 0, radius * su}

		for j := 0; j <= tubular; j++ {
			v := float64(j) / float64(tubular) * 2 * math.Pi
			cv, sv := float32(math.Cos(v)), float32(math.Sin(v))

			p := vec3{
				(radius + tubeRadius*cv) * cu,
				tubeRadius * sv,
				(radius + tubeRadius*cv) * su,
			}
			n := normalize3(sub3(p, center))
			positions = append(positions, p)
			normals = append(normals, n)
			uvs = append(uvs, vec2{float32(i) / float32(radial), float32(j) / float32(tubular)})
		}
	}

	var verts []float32
	for i := range positions {
		verts = append(verts, positions[i][0], positions[i][1], positions[i][2],
			normals[i][0], normals[i][1], normals[i][2], uvs[i][0], uvs[i][1])
	}

	var indices []uint32
	stride := tubular + 1
	for i := 0; i < radial; i++ {
		for j := 0; j < tubular; j++ {
			a := uint32(i*stride + j)
			b := a + uint32(stride)
			indices = append(indices, a, b, a+1, a+1, b, b+1)
		}
	}

	tangented := GenerateTangents(verts, indices)
	outer := radius + tubeRadius
	return Config{
		Vertices:    tangented,
		Indices:     indices,
		Layout:      LayoutPositionNormalUVTangent,
		AutoRelease: true,
		Bounds:      AABB{Min: vec3{-outer, -tubeRadius, -outer}, Max: vec3{outer, tubeRadius, outer}},
	}
}

// Arrow builds a shaft-plus-cone debug arrow pointing along +Y, commonly
// used to visualize gizmo axes or normals.
func Arrow(shaftRadius, shaftLength, headRadius, headLength float32, segments int) Config {
	shaft := cylinderLike(shaftRadius, shaftRadius, shaftLength, segments)
	head := cylinderLike(headRadius, 0, headLength, segments)

	// Translate the head so it sits on top of the shaft, and the whole
	// arrow's base at y=0 rather than straddling the origin.
	shaftOffset := shaftLength / 2
	headOffset := shaftLength + headLength/2
	translateConfig(&shaft, vec3{0, shaftOffset, 0})
	translateConfig(&head, vec3{0, headOffset, 0})

	merged := mergeConfigs(shaft, head)
	merged.Bounds = AABB{
		Min: vec3{-maxf(shaftRadius, headRadius), 0, -maxf(shaftRadius, headRadius)},
		Max: vec3{maxf(shaftRadius, headRadius), shaftLength + headLength, maxf(shaftRadius, headRadius)},
	}
	return merged
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// translateConfig shifts every vertex position in cfg by offset in place.
// cfg must use LayoutPositionNormalUVTangent (12 floats/vertex).
func translateConfig(cfg *Config, offset vec3) {
	const stride = 12
	for i := 0; i+2 < len(cfg.Vertices); i += stride {
		cfg.Vertices[i] += offset[0]
		cfg.Vertices[i+1] += offset[1]
		cfg.Vertices[i+2] += offset[2]
	}
}

// mergeConfigs concatenates b's vertices/indices onto a, rebasing b's
// indices by a's existing vertex count. Both must share a.Layout.
func mergeConfigs(a, b Config) Config {
	stride := a.Layout.Stride() / floatSize
	base := uint32(uint32(len(a.Vertices)) / stride)

	out := Config{
		Vertices:    append(append([]float32{}, a.Vertices...), b.Vertices...),
		Indices:     append([]uint32{}, a.Indices...),
		Layout:      a.Layout,
		AutoRelease: a.AutoRelease,
	}
	for _, idx := range b.Indices {
		out.Indices = append(out.Indices, idx+base)
	}
	return out
}

// GenerateTangents computes per-vertex tangents for vertices laid out as
// position(3)/normal(3)/uv(2) -- LayoutPositionNormalUV -- and returns a
// new interleaved buffer in LayoutPositionNormalUVTangent order. Tangents
// are accumulated per-triangle from the UV gradient and then
// orthonormalized against each vertex's normal (Lengyel's method), the
// standard approach for meshes that carry UVs but weren't authored with
// tangents.
func GenerateTangents(posNormalUV []float32, indices []uint32) []float32 {
	const srcStride = 8
	n := len(posNormalUV) / srcStride

	tan1 := make([]vec3, n)

	pos := func(i int) vec3 {
		o := i * srcStride
		return vec3{posNormalUV[o], posNormalUV[o+1], posNormalUV[o+2]}
	}
	uv := func(i int) vec2 {
		o := i * srcStride
		return vec2{posNormalUV[o+6], posNormalUV[o+7]}
	}
	normal := func(i int) vec3 {
		o := i * srcStride
		return vec3{posNormalUV[o+3], posNormalUV[o+4], posNormalUV[o+5]}
	}

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		p0, p1, p2 := pos(int(i0)), pos(int(i1)), pos(int(i2))
		uv0, uv1, uv2 := uv(int(i0)), uv(int(i1)), uv(int(i2))

		e1, e2 := sub3(p1, p0), sub3(p2, p0)
		du1, dv1 := uv1[0]-uv0[0], uv1[1]-uv0[1]
		du2, dv2 := uv2[0]-uv0[0], uv2[1]-uv0[1]

		denom := du1*dv2 - du2*dv1
		if float32(math.Abs(float64(denom))) < FloatEpsilon {
			continue
		}
		r := 1 / denom
		tangent := vec3{
			(dv2*e1[0] - dv1*e2[0]) * r,
			(dv2*e1[1] - dv1*e2[1]) * r,
			(dv2*e1[2] - dv1*e2[2]) * r,
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			tan1[idx][0] += tangent[0]
			tan1[idx][1] += tangent[1]
			tan1[idx][2] += tangent[2]
		}
	}

	out := make([]float32, 0, n*12)
	for i := 0; i < n; i++ {
		nrm := normal(i)
		t := tan1[i]
		// Gram-Schmidt orthogonalize against the normal.
		ortho := sub3(t, scale3(nrm, dot3(nrm, t)))
		ortho = normalize3(ortho)
		if len3(ortho) < FloatEpsilon {
			fallback := tangentForNormal(nrm)
			ortho = vec3{fallback[0], fallback[1], fallback[2]}
		}
		w := float32(1)
		if dot3(cross3(nrm, ortho), t) < 0 {
			w = -1
		}

		p := pos(i)
		u := uv(i)
		out = append(out, p[0], p[1], p[2], nrm[0], nrm[1], nrm[2], u[0], u[1], ortho[0], ortho[1], ortho[2], w)
	}
	return out
}

func scale3(a vec3, s float32) vec3 { return vec3{a[0] * s, a[1] * s, a[2] * s} }
