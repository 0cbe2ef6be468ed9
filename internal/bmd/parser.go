package bmd

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
)

// Version is the only BMD layout read here. Versions 12 and 15 wrap the
// same layout in a client-specific cipher and are rejected.
const Version = 10

// maxMeshes bounds the header mesh count; larger values mean a corrupt file.
const maxMeshes = 100

// Parse reads a BMD file.
func Parse(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	m, err := ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return m, nil
}

// ParseBytes decodes an in-memory BMD file.
func ParseBytes(raw []byte) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("bmd: invalid header")
	}
	if v := raw[3]; v != Version {
		return nil, fmt.Errorf("bmd: unsupported version %d", v)
	}

	r := &reader{data: raw[4:]}
	return r.parse()
}

// Geometry flattens the sub-mesh into triangles, splitting quads.
func (m *Mesh) Geometry() *mesh.Mesh {
	out := &mesh.Mesh{
		Vertices:  make([]mathutil.Vec3, len(m.Verts)),
		Triangles: make([][3]int, 0, len(m.Tris)),
	}
	for i, v := range m.Verts {
		out.Vertices[i] = mathutil.V3F32(v)
	}
	for _, t := range m.Tris {
		out.Triangles = append(out.Triangles, [3]int{int(t.VI[0]), int(t.VI[1]), int(t.VI[2])})
		if t.Polygon == 4 {
			out.Triangles = append(out.Triangles, [3]int{int(t.VI[0]), int(t.VI[2]), int(t.VI[3])})
		}
	}
	return out
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) readStr(n int) string {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		return ""
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v
}

func (r *reader) readU16() uint16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readF32() float32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *reader) readByte() byte {
	if r.off >= len(r.data) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) skip(n int) {
	r.off += n
	if r.off > len(r.data) {
		r.off = len(r.data)
	}
}

func (r *reader) parse() (*Model, error) {
	name := r.readStr(32)
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())

	if meshCount > maxMeshes {
		return nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	meshes := make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		nv := int(r.readI16())
		nn := int(r.readI16())
		ntc := int(r.readI16())
		nt := int(r.readI16())
		_ = r.readI16() // texture index

		if nv < 0 || nn < 0 || ntc < 0 || nt < 0 {
			return nil, fmt.Errorf("bmd: negative element count in mesh %d", i)
		}

		// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
		verts := make([][3]float32, nv)
		nodes := make([]int16, nv)
		for j := 0; j < nv; j++ {
			nodes[j] = r.readI16()
			_ = r.readI16() // padding
			verts[j][0] = r.readF32()
			verts[j][1] = r.readF32()
			verts[j][2] = r.readF32()
		}

		// Normals (20 bytes) and texcoords (8 bytes) carry nothing for collision.
		r.skip(nn * 20)
		r.skip(ntc * 8)

		// Triangles: 64 bytes each
		tris := make([]Triangle, 0, nt)
		for j := 0; j < nt; j++ {
			base := r.off
			if base+64 > len(r.data) {
				return nil, fmt.Errorf("bmd: truncated triangles in mesh %d", i)
			}
			var vi [4]int16
			for k := 0; k < 4; k++ {
				vi[k] = int16(binary.LittleEndian.Uint16(r.data[base+2+k*2:]))
			}
			tris = append(tris, Triangle{Polygon: int(r.data[base]), VI: vi})
			r.off += 64
		}

		texPath := r.readStr(32)
		// Normalize backslashes
		texPath = strings.ReplaceAll(texPath, "\\", "/")

		meshes = append(meshes, Mesh{
			Verts:   verts,
			Nodes:   nodes,
			Tris:    tris,
			TexPath: texPath,
		})
	}

	// Actions: key counts are needed to walk the bone tracks.
	actionKeys := make([]int, actionCount)
	for a := 0; a < actionCount; a++ {
		numKeys := int(r.readI16())
		if r.readByte() > 0 {
			r.skip(numKeys * 12) // locked positions
		}
		actionKeys[a] = numKeys
	}

	bones := make([]Bone, 0, boneCount)
	for b := 0; b < boneCount; b++ {
		if r.readByte() > 0 {
			bones = append(bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		_ = r.readStr(32) // bone name
		parent := int(r.readI16())

		// Bind pose is frame 0 of action 0; the rest is skipped.
		var bindPos, bindRot [3]float64
		for a := 0; a < actionCount; a++ {
			numKeys := actionKeys[a]
			if numKeys <= 0 {
				continue
			}
			if a == 0 {
				bindPos = [3]float64{float64(r.readF32()), float64(r.readF32()), float64(r.readF32())}
				r.skip((numKeys - 1) * 12)
				bindRot = [3]float64{float64(r.readF32()), float64(r.readF32()), float64(r.readF32())}
				r.skip((numKeys - 1) * 12)
				continue
			}
			r.skip(numKeys * 24)
		}

		bones = append(bones, Bone{
			Parent:       parent,
			BindPosition: bindPos,
			BindRotation: bindRot,
		})
	}

	return &Model{Name: name, Meshes: meshes, Bones: bones}, nil
}
