package mathutil

import "math"

// TriangleOverlapsBox runs the separating axis test between triangle (a, b, c)
// and the box given by center and half-extents. Touching counts as overlap.
//
// Degenerate triangles skip the plane axis, which reduces the test to a
// segment (or point) against the box.
func TriangleOverlapsBox(center, half Vec3, a, b, c Vec3) bool {
	v0 := a.Sub(center)
	v1 := b.Sub(center)
	v2 := c.Sub(center)

	// Box face normals.
	for k := 0; k < 3; k++ {
		lo := math.Min(v0[k], math.Min(v1[k], v2[k]))
		hi := math.Max(v0[k], math.Max(v1[k], v2[k]))
		if lo > slack(half[k]) || hi < -slack(half[k]) {
			return false
		}
	}

	edges := [3]Vec3{v1.Sub(v0), v2.Sub(v1), v0.Sub(v2)}

	// Cross products of box axes and triangle edges.
	for _, e := range edges {
		for k := 0; k < 3; k++ {
			var axis Vec3
			switch k {
			case 0:
				axis = Vec3{0, -e[2], e[1]}
			case 1:
				axis = Vec3{e[2], 0, -e[0]}
			default:
				axis = Vec3{-e[1], e[0], 0}
			}
			if separated(axis, half, v0, v1, v2) {
				return false
			}
		}
	}

	n := edges[0].Cross(edges[1])
	if n.Len() < 1e-12 {
		return true
	}
	r := slack(half.Dot(n.Abs()))
	return math.Abs(n.Dot(v0)) <= r
}

func separated(axis, half, v0, v1, v2 Vec3) bool {
	p0, p1, p2 := v0.Dot(axis), v1.Dot(axis), v2.Dot(axis)
	r := slack(half.Dot(axis.Abs()))
	lo := math.Min(p0, math.Min(p1, p2))
	hi := math.Max(p0, math.Max(p1, p2))
	return lo > r || hi < -r
}

// slack widens a projected radius so cell faces that coincide with geometry
// survive rounding in the grid arithmetic.
func slack(r float64) float64 {
	return r + r*1e-9 + 1e-12
}
