// Package decompose approximates arbitrary triangle meshes with axis-aligned
// boxes laid out on a uniform grid over the mesh bounds.
package decompose

import (
	"math"

	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ErrTypeInvalidParams is the error type returned for unusable Params.
const ErrTypeInvalidParams = "decompose_invalid_params"

// Fill selects which grid cells become boxes.
type Fill string

const (
	// FillSurface keeps the cells the mesh surface passes through.
	FillSurface Fill = "surface"

	// FillSolid also keeps cells whose center lies inside the closed mesh.
	FillSolid Fill = "solid"
)

// Valid reports whether f names a known policy.
func (f Fill) Valid() bool {
	return f == FillSurface || f == FillSolid
}

// Params configures one decomposition.
type Params struct {
	BoxesPerEdge int
	IsTrigger    bool
	Material     string
	Fill         Fill
	Merge        bool
}

// Box is one generated collider volume.
type Box struct {
	Center      mathutil.Vec3 `json:"center"`
	HalfExtents mathutil.Vec3 `json:"half_extents"`
	IsTrigger   bool          `json:"is_trigger"`
	Material    string        `json:"material,omitempty"`
}

// Bounds returns the box as min/max corners.
func (b Box) Bounds() mathutil.AABB {
	return mathutil.AABBFromCenter(b.Center, b.HalfExtents)
}

// Size returns the full edge lengths.
func (b Box) Size() mathutil.Vec3 {
	return b.HalfExtents.Scale(2)
}

// Decompose returns the boxes approximating m on a BoxesPerEdge³ grid.
//
// Boxes come out in z-major cell order and never leave the mesh bounds. An
// empty mesh yields no boxes and no error. Axes along which the mesh is flat
// get a single cell layer instead of BoxesPerEdge coincident ones.
func Decompose(m *mesh.Mesh, p Params) ([]Box, error) {
	if p.BoxesPerEdge <= 0 {
		return nil, errors.New("boxes per edge must be positive").
			WithType(ErrTypeInvalidParams).
			WithTag("boxes_per_edge", p.BoxesPerEdge)
	}
	if p.Fill == "" {
		p.Fill = FillSurface
	}
	if !p.Fill.Valid() {
		return nil, errors.New("unknown fill policy").
			WithType(ErrTypeInvalidParams).
			WithTag("fill", string(p.Fill))
	}
	if m.Empty() {
		return nil, nil
	}

	g := newGrid(m.Bounds(), p.BoxesPerEdge)
	g.markSurface(m)
	if p.Fill == FillSolid {
		g.markInterior(m)
	}

	var boxes []Box
	if p.Merge {
		boxes = g.mergedBoxes()
	} else {
		boxes = g.cellBoxes()
	}
	for i := range boxes {
		boxes[i].IsTrigger = p.IsTrigger
		boxes[i].Material = p.Material
	}
	return boxes, nil
}

// grid is the cell occupancy over the mesh bounds.
type grid struct {
	bounds   mathutil.AABB
	dims     [3]int
	cell     mathutil.Vec3
	occupied []bool
}

func newGrid(bounds mathutil.AABB, n int) *grid {
	g := &grid{bounds: bounds}
	size := bounds.Size()
	for k := 0; k < 3; k++ {
		g.dims[k] = n
		if size[k] <= 0 {
			g.dims[k] = 1
		}
		g.cell[k] = size[k] / float64(g.dims[k])
	}
	g.occupied = make([]bool, g.dims[0]*g.dims[1]*g.dims[2])
	return g
}

func (g *grid) index(i, j, k int) int {
	return (k*g.dims[1]+j)*g.dims[0] + i
}

// edge returns the coordinate of grid plane c on axis. The last plane is
// pinned to the bounds so cells tile them exactly.
func (g *grid) edge(axis, c int) float64 {
	if c >= g.dims[axis] {
		return g.bounds.Max[axis]
	}
	return g.bounds.Min[axis] + g.bounds.Size()[axis]*float64(c)/float64(g.dims[axis])
}

func (g *grid) cellBounds(i, j, k int) mathutil.AABB {
	return mathutil.AABB{
		Min: mathutil.Vec3{g.edge(0, i), g.edge(1, j), g.edge(2, k)},
		Max: mathutil.Vec3{g.edge(0, i+1), g.edge(1, j+1), g.edge(2, k+1)},
	}
}

// span returns the inclusive cell range on axis that [lo, hi] may touch,
// padded by one cell so the exact test decides boundary cases.
func (g *grid) span(axis int, lo, hi float64) (int, int) {
	last := g.dims[axis] - 1
	if g.cell[axis] <= 0 {
		return 0, last
	}
	a := int(math.Floor((lo-g.bounds.Min[axis])/g.cell[axis])) - 1
	b := int(math.Floor((hi-g.bounds.Min[axis])/g.cell[axis])) + 1
	return clampInt(a, 0, last), clampInt(b, 0, last)
}

func (g *grid) markSurface(m *mesh.Mesh) {
	for t := range m.Triangles {
		a, b, c, ok := m.Triangle(t)
		if !ok {
			continue
		}
		tb := mathutil.AABBFromPoints([]mathutil.Vec3{a, b, c})
		i0, i1 := g.span(0, tb.Min[0], tb.Max[0])
		j0, j1 := g.span(1, tb.Min[1], tb.Max[1])
		k0, k1 := g.span(2, tb.Min[2], tb.Max[2])

		for k := k0; k <= k1; k++ {
			for j := j0; j <= j1; j++ {
				for i := i0; i <= i1; i++ {
					idx := g.index(i, j, k)
					if g.occupied[idx] {
						continue
					}
					cb := g.cellBounds(i, j, k)
					half := cb.Size().Scale(0.5)
					if mathutil.TriangleOverlapsBox(cb.Center(), half, a, b, c) {
						g.occupied[idx] = true
					}
				}
			}
		}
	}
}

// rayDir is +X tilted slightly so parity rays avoid running exactly along
// shared triangle edges of axis-aligned geometry.
var rayDir = mathutil.Vec3{1, 0.000131, 0.000173}

func (g *grid) markInterior(m *mesh.Mesh) {
	reach := g.bounds.Size()[0] + 1
	margin := mathutil.Vec3{0, rayDir[1] * reach, rayDir[2] * reach}

	var row []int
	for k := 0; k < g.dims[2]; k++ {
		for j := 0; j < g.dims[1]; j++ {
			cb := g.cellBounds(0, j, k)
			cy, cz := cb.Center()[1], cb.Center()[2]

			// Triangles a ray through this row can cross.
			row = row[:0]
			for t := range m.Triangles {
				a, b, c, ok := m.Triangle(t)
				if !ok {
					continue
				}
				tb := mathutil.AABBFromPoints([]mathutil.Vec3{a, b, c})
				if tb.Max[1] < cy || tb.Min[1] > cy+margin[1] ||
					tb.Max[2] < cz || tb.Min[2] > cz+margin[2] {
					continue
				}
				row = append(row, t)
			}
			if len(row) == 0 {
				continue
			}

			for i := 0; i < g.dims[0]; i++ {
				idx := g.index(i, j, k)
				if g.occupied[idx] {
					continue
				}
				origin := g.cellBounds(i, j, k).Center()
				hits := 0
				for _, t := range row {
					a, b, c, _ := m.Triangle(t)
					if mathutil.RayHitsTriangle(origin, rayDir, a, b, c) {
						hits++
					}
				}
				if hits%2 == 1 {
					g.occupied[idx] = true
				}
			}
		}
	}
}

func (g *grid) boxFromCells(i0, j0, k0, i1, j1, k1 int) Box {
	b := mathutil.AABB{
		Min: g.cellBounds(i0, j0, k0).Min,
		Max: g.cellBounds(i1, j1, k1).Max,
	}
	return Box{Center: b.Center(), HalfExtents: b.Size().Scale(0.5)}
}

func (g *grid) cellBoxes() []Box {
	var boxes []Box
	for k := 0; k < g.dims[2]; k++ {
		for j := 0; j < g.dims[1]; j++ {
			for i := 0; i < g.dims[0]; i++ {
				if g.occupied[g.index(i, j, k)] {
					boxes = append(boxes, g.boxFromCells(i, j, k, i, j, k))
				}
			}
		}
	}
	return boxes
}

// mergedBoxes grows each unconsumed occupied cell along X, then Y, then Z
// for as long as every covered cell is occupied and unconsumed.
func (g *grid) mergedBoxes() []Box {
	consumed := make([]bool, len(g.occupied))
	free := func(i, j, k int) bool {
		idx := g.index(i, j, k)
		return g.occupied[idx] && !consumed[idx]
	}

	var boxes []Box
	for k := 0; k < g.dims[2]; k++ {
		for j := 0; j < g.dims[1]; j++ {
			for i := 0; i < g.dims[0]; i++ {
				if !free(i, j, k) {
					continue
				}

				i1 := i
				for i1+1 < g.dims[0] && free(i1+1, j, k) {
					i1++
				}

				j1 := j
			growY:
				for j1+1 < g.dims[1] {
					for x := i; x <= i1; x++ {
						if !free(x, j1+1, k) {
							break growY
						}
					}
					j1++
				}

				k1 := k
			growZ:
				for k1+1 < g.dims[2] {
					for y := j; y <= j1; y++ {
						for x := i; x <= i1; x++ {
							if !free(x, y, k1+1) {
								break growZ
							}
						}
					}
					k1++
				}

				for z := k; z <= k1; z++ {
					for y := j; y <= j1; y++ {
						for x := i; x <= i1; x++ {
							consumed[g.index(x, y, z)] = true
						}
					}
				}
				boxes = append(boxes, g.boxFromCells(i, j, k, i1, j1, k1))
			}
		}
	}
	return boxes
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
