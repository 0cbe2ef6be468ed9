package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"colliderbake/internal/asset"
	"colliderbake/internal/bmd"
	"colliderbake/internal/meshsrc"
	"github.com/stretchr/testify/require"
)

func withSource(name, file string) *asset.Prefab {
	return &asset.Prefab{
		Name: name,
		Root: &asset.Node{
			Name: name,
			Children: []*asset.Node{{
				Name: "Body",
				Components: []asset.Component{
					{Type: asset.MeshRenderer, Source: &asset.MeshSource{File: file, Index: -1}},
				},
			}},
		},
	}
}

func testStore(t *testing.T) *asset.MemStore {
	s := asset.NewMemStore()
	require.NoError(t, s.Put("crate", withSource("Crate", `Models\Crate.bmd`)))
	require.NoError(t, s.Put("barrel", withSource("Barrel", "barrel.bmd")))
	require.NoError(t, s.Put("empty", &asset.Prefab{Name: "Empty", Root: &asset.Node{Name: "Empty"}}))
	return s
}

func TestReferences(t *testing.T) {
	stems := map[string]struct{}{"crate": {}}
	require.True(t, References(withSource("A", `Models\CRATE.bmd`), stems))
	require.False(t, References(withSource("B", "barrel.bmd"), stems))
	require.False(t, References(&asset.Prefab{Name: "C"}, stems))
}

func TestDependents(t *testing.T) {
	s := testStore(t)
	paths := []string{"empty", "crate", "barrel", "missing"}

	deps := Dependents(s, paths, []string{"/meshes/props/crate.bmd"})
	require.Equal(t, []string{"crate"}, deps)

	deps = Dependents(s, paths, []string{"/meshes/crate.bmd", "/meshes/Barrel.bmd"})
	require.Equal(t, []string{"barrel", "crate"}, deps)

	// Inspection never saves.
	require.Zero(t, s.Saves["crate"])
	require.Equal(t, s.Loads["crate"], s.Unloads["crate"])
}

func TestRunRegeneratesDependents(t *testing.T) {
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "crate.bmd")
	model := &bmd.Model{Name: "crate"}
	require.NoError(t, os.WriteFile(meshPath, bmd.Encode(model), 0644))

	regenerated := make(chan []string, 16)
	w := &Watcher{
		MeshDir:  dir,
		Cache:    meshsrc.NewCache(meshsrc.BuildIndex(dir)),
		Store:    testStore(t),
		Assets:   []string{"crate", "barrel", "empty"},
		Debounce: 20 * time.Millisecond,
		Regenerate: func(_ context.Context, paths []string) error {
			regenerated <- paths
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	var got []string
	require.Eventually(t, func() bool {
		select {
		case got = <-regenerated:
			return true
		default:
			_ = os.WriteFile(meshPath, bmd.Encode(model), 0644)
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
	require.Equal(t, []string{"crate"}, got)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunMissingDirectory(t *testing.T) {
	w := &Watcher{MeshDir: filepath.Join(t.TempDir(), "missing")}
	require.Error(t, w.Run(context.Background()))
}
