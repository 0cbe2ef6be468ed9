package preview

import (
	"math"

	"colliderbake/internal/mathutil"
)

// RasterizeTriangle fills one screen-space triangle with a flat-shaded
// color, testing and writing the z-buffer. Larger z is closer to the camera.
func RasterizeTriangle(fb *FrameBuffer, p0, p1, p2 mathutil.Vec3, color [3]uint8, alpha uint8, lc *LightConfig) {
	x0, y0, z0 := p0[0], p0[1], p0[2]
	x1, y1, z1 := p1[0], p1[1], p1[2]
	x2, y2, z2 := p2[0], p2[1], p2[2]

	// Face normal for flat shading. Screen y points down.
	normal := mathutil.Vec3{x1 - x0, y0 - y1, z1 - z0}.
		Cross(mathutil.Vec3{x2 - x0, y0 - y2, z2 - z0})
	if normal.Len() < 1e-8 {
		return
	}
	lit := lc.Lit(color, lc.Shade(normal.Normalize()))

	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = lit[0]
			fb.Color[pxIdx+1] = lit[1]
			fb.Color[pxIdx+2] = lit[2]
			fb.Color[pxIdx+3] = alpha
		}
	}
}
