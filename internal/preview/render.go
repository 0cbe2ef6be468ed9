// Package preview renders generated collider boxes to images for review.
package preview

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"colliderbake/internal/decompose"
	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
	"github.com/HugoSmits86/nativewebp"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ftrvxmtrx/tga"
)

const ErrTypeEncode = "preview_encode"

// Format is an output image format.
type Format string

const (
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatWebP || f == FormatTGA
}

// Options configures a render.
type Options struct {
	Size        int
	Supersample int
	Camera      Camera
}

var (
	solidColor   = [3]uint8{230, 140, 40}
	triggerColor = [3]uint8{70, 150, 230}
)

// boxInset shrinks every drawn box so neighbouring cells stay visible.
const boxInset = 0.9

// Render draws boxes as flat-shaded solids on a transparent square image.
func Render(boxes []decompose.Box, opts Options) *image.NRGBA {
	size := opts.Size
	if size <= 0 {
		size = 256
	}
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	if len(boxes) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	bounds := mathutil.EmptyAABB()
	for _, b := range boxes {
		bounds = bounds.Union(b.Bounds())
	}

	renderSize := size * ss
	proj := newProjection(opts.Camera, bounds, renderSize, 8*ss)
	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig()

	for _, b := range boxes {
		color := solidColor
		if b.IsTrigger {
			color = triggerColor
		}

		half := b.HalfExtents.Scale(boxInset)
		m := mesh.Box(b.Center.Sub(half), b.Center.Add(half))
		for i := range m.Triangles {
			a, bv, c, ok := m.Triangle(i)
			if !ok {
				continue
			}
			RasterizeTriangle(fb, proj.project(a), proj.project(bv), proj.project(c), color, 255, &lc)
		}
	}

	img := fb.Image()
	if ss > 1 {
		img = Downsample(img, size)
	}
	return img
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatTGA:
		err = tga.Encode(w, img)
	default:
		return errors.New("unsupported preview format").
			WithType(ErrTypeEncode).
			WithTag("format", f)
	}
	if err != nil {
		return errors.New("encoding preview failed").
			WithType(ErrTypeEncode).
			WithTag("format", f).
			Wrap(err)
	}
	return nil
}

// WriteFile encodes img under dir at the asset's path with the extension
// replaced, so assets sharing a name in different folders keep separate
// previews. It returns the written path.
func WriteFile(dir, assetPath string, img image.Image, f Format) (string, error) {
	rel := filepath.Clean(string(filepath.Separator) + assetPath)
	rel = strings.TrimSuffix(rel, ".prefab.json")
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	path := filepath.Join(dir, rel+"."+string(f))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.New("creating preview directory failed").
			WithTag("dir", filepath.Dir(path)).
			Wrap(err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", errors.New("creating preview failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := Encode(file, img, f); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", errors.New("writing preview failed").
			WithTag("path", path).
			Wrap(err)
	}
	return path, nil
}
