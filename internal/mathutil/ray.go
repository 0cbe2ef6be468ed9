package mathutil

import "math"

// RayHitsTriangle reports whether the ray origin + t*dir, t > 0, crosses
// triangle (a, b, c). Rays parallel to the triangle never hit.
func RayHitsTriangle(origin, dir, a, b, c Vec3) bool {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-14 {
		return false
	}
	inv := 1 / det
	s := origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	return e2.Dot(q)*inv > 1e-12
}
