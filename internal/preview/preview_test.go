package preview

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"colliderbake/internal/decompose"
	"colliderbake/internal/mathutil"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/require"
)

func cube() []decompose.Box {
	return []decompose.Box{{
		Center:      mathutil.Vec3{0.5, 0.5, 0.5},
		HalfExtents: mathutil.Vec3{0.5, 0.5, 0.5},
	}}
}

func opaquePixels(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			n++
		}
	}
	return n
}

func TestRenderEmpty(t *testing.T) {
	img := Render(nil, Options{Size: 32})
	require.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	require.Zero(t, opaquePixels(img))
}

func TestRenderBox(t *testing.T) {
	img := Render(cube(), Options{Size: 64, Camera: DefaultCamera})
	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	// The box is centered and the corners stay transparent.
	require.Equal(t, uint8(255), img.NRGBAAt(32, 32).A)
	require.Zero(t, img.NRGBAAt(0, 0).A)
	require.Zero(t, img.NRGBAAt(63, 63).A)
	require.Greater(t, opaquePixels(img), 64*64/8)
}

func TestRenderTriggerColor(t *testing.T) {
	solid := Render(cube(), Options{Size: 32})

	boxes := cube()
	boxes[0].IsTrigger = true
	trigger := Render(boxes, Options{Size: 32})

	s := solid.NRGBAAt(16, 16)
	tr := trigger.NRGBAAt(16, 16)
	require.Greater(t, s.R, s.B)
	require.Greater(t, tr.B, tr.R)
}

func TestRenderSupersample(t *testing.T) {
	img := Render(cube(), Options{Size: 32, Supersample: 3, Camera: DefaultCamera})
	require.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	require.Equal(t, uint8(255), img.NRGBAAt(16, 16).A)
}

func TestRasterizeTriangleDepth(t *testing.T) {
	fb := NewFrameBuffer(8, 8)
	lc := DefaultLightConfig()

	far := [3]mathutil.Vec3{{0, 0, 0}, {8, 0, 0}, {0, 8, 0}}
	near := [3]mathutil.Vec3{{0, 0, 1}, {8, 0, 1}, {0, 8, 1}}

	RasterizeTriangle(fb, near[0], near[1], near[2], [3]uint8{255, 0, 0}, 255, &lc)
	RasterizeTriangle(fb, far[0], far[1], far[2], [3]uint8{0, 0, 255}, 255, &lc)

	img := fb.Image()
	px := img.NRGBAAt(1, 1)
	require.Greater(t, px.R, px.B)
	require.InDelta(t, 1.0, fb.ZBuf[1*8+1], 1e-9)
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	dst := Downsample(src, 4)
	require.Equal(t, image.Rect(0, 0, 4, 4), dst.Bounds())
	px := dst.NRGBAAt(2, 2)
	require.InDelta(t, 200, int(px.R), 1)
	require.InDelta(t, 10, int(px.G), 1)
	require.InDelta(t, 255, int(px.A), 1)

	require.Same(t, src, Downsample(src, 8))
}

func TestEncode(t *testing.T) {
	img := Render(cube(), Options{Size: 16})

	var webp bytes.Buffer
	require.NoError(t, Encode(&webp, img, FormatWebP))
	require.Equal(t, "RIFF", webp.String()[:4])
	require.Equal(t, "WEBP", webp.String()[8:12])

	var raw bytes.Buffer
	require.NoError(t, Encode(&raw, img, FormatTGA))
	decoded, err := tga.Decode(&raw)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())

	err = Encode(&raw, img, Format("bmp"))
	require.True(t, errors.IsType(err, ErrTypeEncode))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "previews")
	path, err := WriteFile(dir, "props/Crate.prefab.json", Render(cube(), Options{Size: 16}), FormatTGA)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "props", "Crate.tga"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size())

	other, err := WriteFile(dir, "ruins/Crate.prefab.json", Render(cube(), Options{Size: 16}), FormatTGA)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "ruins", "Crate.tga"), other)
	_, err = os.Stat(path)
	require.NoError(t, err)

	escaped, err := WriteFile(dir, "../Crate.prefab.json", Render(cube(), Options{Size: 16}), FormatTGA)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "Crate.tga"), escaped)
}
