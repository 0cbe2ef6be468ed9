package config

import (
	"os"
	"path/filepath"
	"testing"

	"colliderbake/internal/decompose"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "bake.json",
			content: `{
				"asset_root": "Assets",
				"boxes_per_edge": 12,
				"fill": "solid",
				"exclude_patterns": ["^glass"],
				"overrides": [{"match": "Tree*", "boxes_per_edge": 4}]
			}`,
		},
		{
			name: "toml",
			file: "bake.toml",
			content: `
asset_root = "Assets"
boxes_per_edge = 12
fill = "solid"
exclude_patterns = ["^glass"]

[[overrides]]
match = "Tree*"
boxes_per_edge = 4
`,
		},
		{
			name: "yaml",
			file: "bake.yaml",
			content: `
asset_root: Assets
boxes_per_edge: 12
fill: solid
exclude_patterns:
  - ^glass
overrides:
  - match: Tree*
    boxes_per_edge: 4
`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := Load(writeFile(t, test.file, test.content))
			require.NoError(t, err)
			require.Equal(t, "Assets", s.AssetRoot)
			require.Equal(t, 12, s.BoxesPerEdge)
			require.Equal(t, "solid", s.Fill)
			require.Equal(t, []string{"^glass"}, s.ExcludePatterns)
			require.Len(t, s.Overrides, 1)
			require.Equal(t, "Tree*", s.Overrides[0].Match)
			require.NotNil(t, s.Overrides[0].BoxesPerEdge)
			require.Equal(t, 4, *s.Overrides[0].BoxesPerEdge)
			require.Nil(t, s.Overrides[0].Fill)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.True(t, errors.IsType(err, ErrTypeConfig))

	_, err = Load(writeFile(t, "bake.ini", "boxes=3"))
	require.True(t, errors.IsType(err, ErrTypeConfig))

	_, err = Load(writeFile(t, "bake.json", "{"))
	require.True(t, errors.IsType(err, ErrTypeConfig))
}

func TestResolveDefaults(t *testing.T) {
	var s Settings
	s.Resolve(Flags{AssetRoot: "Assets"})

	require.Equal(t, DefaultBoxesPerEdge, s.BoxesPerEdge)
	require.Equal(t, "surface", s.Fill)
	require.Equal(t, "Assets", s.MeshDir)
	require.Equal(t, DefaultPreviewFormat, s.PreviewFormat)
	require.Equal(t, DefaultPreviewSize, s.PreviewSize)
	require.Equal(t, "info", s.LogLevel)
	require.False(t, s.KeepMeshColliders)
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	s := Settings{BoxesPerEdge: 8, Material: "Stone", Fill: "solid", MeshDir: "Meshes"}
	s.Resolve(Flags{BoxesPerEdge: 30, Material: "Wood", IsTrigger: true})

	require.Equal(t, 30, s.BoxesPerEdge)
	require.Equal(t, "Wood", s.Material)
	require.Equal(t, "solid", s.Fill)
	require.Equal(t, "Meshes", s.MeshDir)
	require.True(t, s.IsTrigger)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -3, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 20, want: 20},
		{in: 50, want: 50},
		{in: 51, want: 50},
		{in: 1000, want: 50},
	}

	for _, test := range tests {
		s := Settings{BoxesPerEdge: test.in, Fill: "hollow"}
		s.Clamp()
		require.Equal(t, test.want, s.BoxesPerEdge, "in=%d", test.in)
		require.Equal(t, "surface", s.Fill)
	}
}

func TestForAppliesFirstMatchingOverride(t *testing.T) {
	four := 4
	solid := "solid"
	trigger := true
	huge := 500

	s := Settings{
		BoxesPerEdge: 20,
		Fill:         "surface",
		Overrides: []Override{
			{Match: "Props/Tree*", BoxesPerEdge: &four, Fill: &solid},
			{Match: "*.prefab.json", IsTrigger: &trigger},
			{Match: "Huge*", BoxesPerEdge: &huge},
		},
	}

	tree := s.For("Props/TreeOak.prefab.json")
	require.Equal(t, 4, tree.BoxesPerEdge)
	require.Equal(t, "solid", tree.Fill)
	require.False(t, tree.IsTrigger)

	rock := s.For("Props/Rock.prefab.json")
	require.Equal(t, 20, rock.BoxesPerEdge)
	require.True(t, rock.IsTrigger)

	huge500 := Settings{BoxesPerEdge: 20, Overrides: s.Overrides[2:]}.For("HugeWall.asset")
	require.Equal(t, MaxBoxesPerEdge, huge500.BoxesPerEdge)

	// Base settings are untouched.
	require.Equal(t, 20, s.BoxesPerEdge)
	require.False(t, s.IsTrigger)
}

func TestParams(t *testing.T) {
	s := Settings{BoxesPerEdge: 7, IsTrigger: true, Material: "Ice", Fill: "solid", Merge: true}
	require.Equal(t, decompose.Params{
		BoxesPerEdge: 7,
		IsTrigger:    true,
		Material:     "Ice",
		Fill:         decompose.FillSolid,
		Merge:        true,
	}, s.Params())
}
