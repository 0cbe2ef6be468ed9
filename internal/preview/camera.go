package preview

import (
	"colliderbake/internal/mathutil"
)

// Camera is an orthographic view orbiting the scene center.
type Camera struct {
	Yaw   float64 // degrees around Y
	Pitch float64 // degrees around X
}

// DefaultCamera looks down at the scene from the front right.
var DefaultCamera = Camera{Yaw: -35, Pitch: 30}

// ViewMatrix rotates world space into view space.
func (c Camera) ViewMatrix() mathutil.Mat3 {
	return mathutil.Mat3Mul(
		mathutil.RotX(mathutil.Deg2Rad(c.Pitch)),
		mathutil.RotY(mathutil.Deg2Rad(c.Yaw)),
	)
}

// projection maps world points to pixel coordinates of a square target,
// fitting the given bounds with a margin.
type projection struct {
	view   mathutil.Mat3
	center mathutil.Vec3
	scale  float64
	half   float64
}

func newProjection(c Camera, bounds mathutil.AABB, size, margin int) projection {
	view := c.ViewMatrix()

	// Fit the view-space extents of the eight bounds corners.
	viewBounds := mathutil.EmptyAABB()
	for i := 0; i < 8; i++ {
		var p mathutil.Vec3
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				p[k] = bounds.Max[k]
			} else {
				p[k] = bounds.Min[k]
			}
		}
		viewBounds = viewBounds.Extend(view.MulVec3(p))
	}

	extent := viewBounds.Size()
	span := extent[0]
	if extent[1] > span {
		span = extent[1]
	}
	if span < 0.001 {
		span = 0.001
	}

	return projection{
		view:   view,
		center: viewBounds.Center(),
		scale:  float64(size-2*margin) / span,
		half:   float64(size) / 2,
	}
}

func (p projection) project(v mathutil.Vec3) mathutil.Vec3 {
	tv := p.view.MulVec3(v).Sub(p.center)
	return mathutil.Vec3{
		p.half + tv[0]*p.scale,
		p.half - tv[1]*p.scale,
		tv[2] * p.scale,
	}
}
