package bmd

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Encode serializes a model as an unencrypted BMD file. Normals and texture
// coordinates are not kept by Parse and are written empty; bones get a
// single-key bind-pose action.
func Encode(m *Model) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("BMD")
	buf.WriteByte(Version)
	writeStr(&buf, m.Name, 32)

	actions := 0
	if len(m.Bones) > 0 {
		actions = 1
	}
	binary.Write(&buf, le, uint16(len(m.Meshes)))
	binary.Write(&buf, le, uint16(len(m.Bones)))
	binary.Write(&buf, le, uint16(actions))

	for _, mesh := range m.Meshes {
		binary.Write(&buf, le, [5]int16{int16(len(mesh.Verts)), 0, 0, int16(len(mesh.Tris)), 0})
		for i, v := range mesh.Verts {
			var node int16
			if i < len(mesh.Nodes) {
				node = mesh.Nodes[i]
			}
			binary.Write(&buf, le, [2]int16{node, 0})
			binary.Write(&buf, le, v)
		}
		for _, t := range mesh.Tris {
			rec := make([]byte, 64)
			rec[0] = byte(t.Polygon)
			for k, vi := range t.VI {
				le.PutUint16(rec[2+k*2:], uint16(vi))
			}
			buf.Write(rec)
		}
		writeStr(&buf, strings.ReplaceAll(mesh.TexPath, "/", "\\"), 32)
	}

	if actions == 1 {
		binary.Write(&buf, le, int16(1))
		buf.WriteByte(0)
	}

	for _, b := range m.Bones {
		if b.IsDummy {
			buf.WriteByte(1)
			continue
		}
		buf.WriteByte(0)
		writeStr(&buf, "", 32)
		binary.Write(&buf, le, int16(b.Parent))
		binary.Write(&buf, le, [3]float32{float32(b.BindPosition[0]), float32(b.BindPosition[1]), float32(b.BindPosition[2])})
		binary.Write(&buf, le, [3]float32{float32(b.BindRotation[0]), float32(b.BindRotation[1]), float32(b.BindRotation[2])})
	}

	return buf.Bytes()
}

func writeStr(buf *bytes.Buffer, s string, n int) {
	out := make([]byte, n)
	copy(out, s)
	buf.Write(out)
}
