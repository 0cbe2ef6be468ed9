package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAsset(t *testing.T) {
	success := assetsProcessed.With(prometheus.Labels{opLabel: "test-op", resultLabel: resultSuccess})
	failure := assetsProcessed.With(prometheus.Labels{opLabel: "test-op", resultLabel: resultFailure})
	typed := assetErrors.With(prometheus.Labels{opLabel: "test-op", errTypeLabel: "test_error"})

	successBefore := testutil.ToFloat64(success)
	failureBefore := testutil.ToFloat64(failure)
	typedBefore := testutil.ToFloat64(typed)
	boxesBefore := testutil.ToFloat64(boxesGenerated)

	ObserveAsset("test-op", nil, 12, time.Millisecond)
	ObserveAsset("test-op", errors.New("boom").WithType("test_error"), 5, time.Millisecond)

	require.Equal(t, successBefore+1, testutil.ToFloat64(success))
	require.Equal(t, failureBefore+1, testutil.ToFloat64(failure))
	require.Equal(t, typedBefore+1, testutil.ToFloat64(typed))
	require.Equal(t, boxesBefore+12, testutil.ToFloat64(boxesGenerated))
}

func TestWriteTextfile(t *testing.T) {
	ObserveAsset("textfile-op", nil, 1, time.Millisecond)

	path := filepath.Join(t.TempDir(), "colliderbake.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "colliderbake_assets_processed"))
	require.True(t, strings.Contains(string(data), `op="textfile-op"`))
}

func TestWriteTextfileError(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
}
