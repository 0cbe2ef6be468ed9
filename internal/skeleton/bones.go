package skeleton

import (
	"colliderbake/internal/bmd"
	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
)

// BuildWorldMatrices computes the world transform for each bone using bind pose (frame 0, action 0).
// Returns a slice of 4×4 matrices indexed by bone index.
func BuildWorldMatrices(bones []bmd.Bone) []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(bones))
	for i := range worlds {
		worlds[i] = mathutil.Mat4Identity()
	}

	for i, bone := range bones {
		if bone.IsDummy {
			continue
		}

		q := mathutil.EulerToQuat(bone.BindRotation[0], bone.BindRotation[1], bone.BindRotation[2])
		local := mathutil.FromMat3Translation(mathutil.QuatToMat3(q), mathutil.Vec3(bone.BindPosition))

		// Parents always precede children in BMD files.
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = mathutil.Mat4Mul(worlds[bone.Parent], local)
		} else {
			worlds[i] = local
		}
	}

	return worlds
}

// Pose returns the geometry of every sub-mesh in bind pose.
// Rigid skinning: 1 bone per vertex, weight = 1.0. The model is not modified.
func Pose(model *bmd.Model) []*mesh.Mesh {
	out := make([]*mesh.Mesh, len(model.Meshes))
	for i := range model.Meshes {
		out[i] = model.Meshes[i].Geometry()
	}
	if len(model.Bones) == 0 {
		return out
	}

	worlds := BuildWorldMatrices(model.Bones)
	allIdentity := true
	for _, w := range worlds {
		if !w.IsIdentity() {
			allIdentity = false
			break
		}
	}
	if allIdentity {
		return out
	}

	for mi, src := range model.Meshes {
		g := out[mi]
		for vi := range g.Vertices {
			if vi >= len(src.Nodes) {
				break
			}
			boneIdx := int(src.Nodes[vi])
			if boneIdx < 0 || boneIdx >= len(worlds) {
				continue
			}
			g.Vertices[vi] = worlds[boneIdx].MulPoint(g.Vertices[vi])
		}
	}
	return out
}
