package meshsrc

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"colliderbake/internal/bmd"
	"colliderbake/internal/mathutil"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, path string, m *bmd.Model) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, bmd.Encode(m), 0644))
}

func crate(offset float32) *bmd.Model {
	return &bmd.Model{
		Name: "crate",
		Meshes: []bmd.Mesh{{
			Verts:   [][3]float32{{offset, 0, 0}, {offset + 1, 0, 0}, {offset + 1, 1, 0}, {offset, 1, 0}},
			Nodes:   []int16{0, 0, 0, 0},
			Tris:    []bmd.Triangle{{Polygon: 4, VI: [4]int16{0, 1, 2, 3}}},
			TexPath: "crate.jpg",
		}},
		Bones: []bmd.Bone{{Parent: -1, BindPosition: [3]float64{0, 0, 2}}},
	}
}

func TestIndexResolvePath(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, filepath.Join(dir, "Crate.bmd"), crate(0))
	writeModel(t, filepath.Join(dir, "props", "old", "crate.bmd"), crate(5))
	writeModel(t, filepath.Join(dir, "props", "barrel.BMD"), crate(0))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	idx := BuildIndex(dir)
	require.Equal(t, 2, idx.Len())

	path, ok := idx.ResolvePath(`Models\CRATE.bmd`)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "Crate.bmd"), path)

	path, ok = idx.ResolvePath("props/old/crate.bmd")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "props", "old", "crate.bmd"), path)

	_, ok = idx.ResolvePath("missing.bmd")
	require.False(t, ok)

	require.True(t, idx.Contains(filepath.Join(dir, "props", "barrel.BMD")))
	require.False(t, idx.Contains(filepath.Join(dir, "props", "old", "crate.bmd")))
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crate.bmd")
	writeModel(t, path, crate(0))

	c := NewCache(BuildIndex(dir))
	meshes, err := c.Resolve("crate.bmd")
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	require.Equal(t, "crate.jpg", meshes[0].Texture)
	require.Len(t, meshes[0].Geometry.Triangles, 2)
	// bind pose lifts the quad to z=2
	require.Equal(t, mathutil.Vec3{1, 1, 2}, meshes[0].Geometry.Vertices[2])

	// cached until invalidated
	writeModel(t, path, crate(10))
	again, err := c.Resolve("crate")
	require.NoError(t, err)
	require.Same(t, meshes[0].Geometry, again[0].Geometry)

	c.Invalidate(path)
	fresh, err := c.Resolve("crate")
	require.NoError(t, err)
	require.Equal(t, mathutil.Vec3{11, 1, 2}, fresh[0].Geometry.Vertices[2])
}

func TestCacheErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.bmd"), []byte("BMD"), 0644))
	c := NewCache(BuildIndex(dir))

	_, err := c.Resolve("nothing.bmd")
	require.True(t, errors.IsType(err, ErrTypeNotFound))

	_, err = c.Resolve("broken.bmd")
	require.True(t, errors.IsType(err, ErrTypeLoad))
}

func TestCacheConcurrentResolve(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, filepath.Join(dir, "crate.bmd"), crate(0))
	c := NewCache(BuildIndex(dir))

	var wg sync.WaitGroup
	results := make([][]SubMesh, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Resolve("crate.bmd")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Same(t, results[0][0].Geometry, r[0].Geometry)
	}
}

func TestCacheReindex(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(BuildIndex(dir))

	_, err := c.Resolve("barrel.bmd")
	require.True(t, errors.IsType(err, ErrTypeNotFound))

	writeModel(t, filepath.Join(dir, "props", "barrel.bmd"), crate(0))
	c.Reindex(BuildIndex(dir))

	subs, err := c.Resolve("barrel.bmd")
	require.NoError(t, err)
	require.Len(t, subs, 1)
}

func TestStem(t *testing.T) {
	require.Equal(t, "crate", Stem(`Models\..\props/Crate.BMD`))
	require.Equal(t, "barrel", Stem("barrel"))
}
