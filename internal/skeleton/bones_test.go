package skeleton

import (
	"testing"

	"colliderbake/internal/bmd"
	"colliderbake/internal/mathutil"
	"github.com/stretchr/testify/require"
)

func TestBuildWorldMatricesChainsParents(t *testing.T) {
	bones := []bmd.Bone{
		{Parent: -1, BindPosition: [3]float64{1, 0, 0}},
		{Parent: 0, BindPosition: [3]float64{0, 2, 0}},
		{Parent: -1, IsDummy: true},
	}

	worlds := BuildWorldMatrices(bones)
	require.Len(t, worlds, 3)

	p := worlds[1].MulPoint(mathutil.Vec3{})
	require.True(t, p.ApproxEqual(mathutil.Vec3{1, 2, 0}, 1e-12))
	require.True(t, worlds[2].IsIdentity())
}

func TestPose(t *testing.T) {
	model := &bmd.Model{
		Meshes: []bmd.Mesh{{
			Verts: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Nodes: []int16{0, 0, 7},
			Tris:  []bmd.Triangle{{Polygon: 3, VI: [4]int16{0, 1, 2}}},
		}},
		Bones: []bmd.Bone{{Parent: -1, BindPosition: [3]float64{0, 0, 3}}},
	}

	posed := Pose(model)
	require.Len(t, posed, 1)
	require.Equal(t, mathutil.Vec3{1, 0, 3}, posed[0].Vertices[1])
	// out-of-range bone index leaves the vertex alone
	require.Equal(t, mathutil.Vec3{0, 1, 0}, posed[0].Vertices[2])
	// source is not mutated
	require.Equal(t, [3]float32{1, 0, 0}, model.Meshes[0].Verts[1])
}

func TestPoseWithoutBones(t *testing.T) {
	model := &bmd.Model{
		Meshes: []bmd.Mesh{{
			Verts: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
			Tris:  []bmd.Triangle{{Polygon: 4, VI: [4]int16{0, 1, 3, 2}}},
		}},
	}

	posed := Pose(model)
	require.Len(t, posed[0].Triangles, 2)
	require.Equal(t, mathutil.Vec3{1, 1, 0}, posed[0].Vertices[3])
}
