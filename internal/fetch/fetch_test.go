package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFetchLocalDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Crate.prefab.json"), []byte(`{"name":"Crate"}`), 0o644))

	dst := filepath.Join(t.TempDir(), "assets")
	require.NoError(t, Fetch(context.Background(), src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "Crate.prefab.json"))
	require.NoError(t, err)
	require.Equal(t, `{"name":"Crate"}`, string(data))
}

func TestFetchMissingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "does-not-exist")
	dst := filepath.Join(t.TempDir(), "assets")

	err := Fetch(context.Background(), src, dst)
	require.True(t, errors.IsType(err, ErrTypeFetch))
}
