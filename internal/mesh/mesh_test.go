package mesh

import (
	"testing"

	"colliderbake/internal/mathutil"
	"github.com/stretchr/testify/require"
)

func TestBoxBounds(t *testing.T) {
	m := Box(mathutil.Vec3{-1, 0, 2}, mathutil.Vec3{1, 3, 4})
	require.Len(t, m.Vertices, 8)
	require.Len(t, m.Triangles, 12)

	b := m.Bounds()
	require.Equal(t, mathutil.Vec3{-1, 0, 2}, b.Min)
	require.Equal(t, mathutil.Vec3{1, 3, 4}, b.Max)
	require.False(t, m.Empty())
}

func TestEmpty(t *testing.T) {
	var nilMesh *Mesh
	require.True(t, nilMesh.Empty())
	require.True(t, (&Mesh{}).Empty())

	outOfRange := &Mesh{
		Vertices:  []mathutil.Vec3{{0, 0, 0}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	require.True(t, outOfRange.Empty())

	_, _, _, ok := outOfRange.Triangle(0)
	require.False(t, ok)
}

func TestTransform(t *testing.T) {
	m := Box(mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 1, 1})
	x := mathutil.TRS(mathutil.Vec3{10, 0, 0}, mathutil.Vec3{}, mathutil.Vec3{2, 2, 2})

	moved := m.Transform(x)
	b := moved.Bounds()
	require.True(t, b.Min.ApproxEqual(mathutil.Vec3{10, 0, 0}, 1e-9))
	require.True(t, b.Max.ApproxEqual(mathutil.Vec3{12, 2, 2}, 1e-9))

	// source untouched
	require.Equal(t, mathutil.Vec3{1, 1, 1}, m.Bounds().Max)
}

func TestMerge(t *testing.T) {
	a := Box(mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 1, 1})
	b := Box(mathutil.Vec3{2, 2, 2}, mathutil.Vec3{3, 3, 3})

	m := Merge(a, nil, b)
	require.Len(t, m.Vertices, 16)
	require.Len(t, m.Triangles, 24)
	require.Equal(t, [3]int{8, 12, 14}, m.Triangles[12])
	require.Equal(t, mathutil.Vec3{3, 3, 3}, m.Bounds().Max)
}
