package mathutil

import "math"

// AABB is an axis-aligned bounding box given by its min and max corners.
type AABB struct {
	Min Vec3
	Max Vec3
}

// EmptyAABB returns an inverted box that any point extends.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// AABBFromPoints returns the bounds of pts, or an empty box for no points.
func AABBFromPoints(pts []Vec3) AABB {
	b := EmptyAABB()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// AABBFromCenter builds a box from its center and half-extents.
func AABBFromCenter(center, half Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b AABB) Extend(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

func (b AABB) Union(o AABB) AABB {
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Overlaps reports whether the closed boxes share at least one point.
func (b AABB) Overlaps(o AABB) bool {
	return b.Max[0] >= o.Min[0] && b.Min[0] <= o.Max[0] &&
		b.Max[1] >= o.Min[1] && b.Min[1] <= o.Max[1] &&
		b.Max[2] >= o.Min[2] && b.Min[2] <= o.Max[2]
}

// ContainsBox reports whether o lies within b, allowing eps of slack.
func (b AABB) ContainsBox(o AABB, eps float64) bool {
	for k := 0; k < 3; k++ {
		if o.Min[k] < b.Min[k]-eps || o.Max[k] > b.Max[k]+eps {
			return false
		}
	}
	return true
}
