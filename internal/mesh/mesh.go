package mesh

import "colliderbake/internal/mathutil"

// Mesh is read-only triangle geometry: vertex positions plus index triples
// into them. Builders return fresh meshes; nothing mutates one in place.
type Mesh struct {
	Vertices  []mathutil.Vec3 `json:"vertices"`
	Triangles [][3]int        `json:"triangles"`
}

// Empty reports whether the mesh has no usable triangle.
func (m *Mesh) Empty() bool {
	if m == nil || len(m.Vertices) == 0 {
		return true
	}
	for _, t := range m.Triangles {
		if m.valid(t) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounds over all vertices.
func (m *Mesh) Bounds() mathutil.AABB {
	if m == nil {
		return mathutil.EmptyAABB()
	}
	return mathutil.AABBFromPoints(m.Vertices)
}

// Triangle returns the corners of triangle i and false when one of its
// indices is out of range.
func (m *Mesh) Triangle(i int) (a, b, c mathutil.Vec3, ok bool) {
	t := m.Triangles[i]
	if !m.valid(t) {
		return a, b, c, false
	}
	return m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]], true
}

func (m *Mesh) valid(t [3]int) bool {
	n := len(m.Vertices)
	for _, i := range t {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}

// Transform returns a copy of m with every vertex multiplied by x.
func (m *Mesh) Transform(x mathutil.Mat4) *Mesh {
	out := &Mesh{
		Vertices:  make([]mathutil.Vec3, len(m.Vertices)),
		Triangles: m.Triangles,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = x.MulPoint(v)
	}
	return out
}

// Merge concatenates meshes into one, rebasing triangle indices.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, t := range m.Triangles {
			out.Triangles = append(out.Triangles, [3]int{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}

// Box returns a closed 12-triangle mesh of the box between min and max,
// wound counter-clockwise seen from outside.
func Box(min, max mathutil.Vec3) *Mesh {
	v := make([]mathutil.Vec3, 8)
	for i := range v {
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				v[i][k] = max[k]
			} else {
				v[i][k] = min[k]
			}
		}
	}
	return &Mesh{
		Vertices: v,
		Triangles: [][3]int{
			{0, 4, 6}, {0, 6, 2}, // -X
			{1, 3, 7}, {1, 7, 5}, // +X
			{0, 1, 5}, {0, 5, 4}, // -Y
			{2, 6, 7}, {2, 7, 3}, // +Y
			{0, 2, 3}, {0, 3, 1}, // -Z
			{4, 5, 7}, {4, 7, 6}, // +Z
		},
	}
}
