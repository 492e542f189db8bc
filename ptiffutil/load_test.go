package ptiffutil

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xtiff "golang.org/x/image/tiff"

	"github.com/mrjoshuak/go-ptiff/pyramid"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadImageNative(t *testing.T) {
	for _, dt := range []tiff.DataType{tiff.Uint8, tiff.Int32, tiff.Float16, tiff.Float64} {
		t.Run(dt.String(), func(t *testing.T) {
			src := gradient(40, 30, 2, dt)
			got, err := LoadImage(createStripped(t, src))
			require.NoError(t, err)
			assert.True(t, src.Equal(got))
		})
	}
}

func TestLoadImagesMultiPage(t *testing.T) {
	a := gradient(32, 32, 1, tiff.Uint8)
	b := gradient(16, 48, 3, tiff.Uint16)

	path := filepath.Join(t.TempDir(), "pages.tif")
	w, err := tiff.Create(path, nil)
	require.NoError(t, err)
	_, err = w.WriteImage(tiff.NewDirectory(), a, tiff.WriteOptions{})
	require.NoError(t, err)
	_, err = w.WriteImage(tiff.NewDirectory(), b, tiff.WriteOptions{TileWidth: 16, TileHeight: 16})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	images, err := LoadImages(path)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.True(t, a.Equal(images[0]))
	assert.True(t, b.Equal(images[1]))
}

func TestLoadImagePNGGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 3))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 10)
	}

	img, err := LoadImage(writePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, 5, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, tiff.Uint8, img.Type)
	assert.Equal(t, src.Pix, img.Pix)
}

func TestLoadImagePNGGray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			src.SetGray16(x, y, color.Gray16{Y: uint16(1000*x + 20000*y)})
		}
	}

	img, err := LoadImage(writePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, tiff.Uint16, img.Type)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, 21000.0, img.Value(1, 1, 0, 0))
	assert.Equal(t, 2000.0, img.Value(2, 0, 0, 0))
}

func TestLoadImagePNGColor(t *testing.T) {
	t.Run("opaque", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				src.SetRGBA(x, y, color.RGBA{uint8(x * 60), uint8(y * 60), 9, 255})
			}
		}
		img, err := LoadImage(writePNG(t, src))
		require.NoError(t, err)
		assert.Equal(t, 3, img.Channels)
		assert.Equal(t, tiff.Uint8, img.Type)
		assert.Equal(t, 180.0, img.Value(3, 1, 0, 0))
		assert.Equal(t, 60.0, img.Value(3, 1, 1, 0))
		assert.Equal(t, 9.0, img.Value(3, 1, 2, 0))
	})

	t.Run("alpha", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		src.SetNRGBA(1, 0, color.NRGBA{200, 100, 50, 128})
		img, err := LoadImage(writePNG(t, src))
		require.NoError(t, err)
		assert.Equal(t, 4, img.Channels)
		assert.Equal(t, []float64{200, 100, 50, 128}, []float64{
			img.Value(1, 0, 0, 0), img.Value(1, 0, 1, 0), img.Value(1, 0, 2, 0), img.Value(1, 0, 3, 0),
		})
	})
}

func TestLoadImagePaletteTIFF(t *testing.T) {
	pal := color.Palette{color.Gray{0}, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255}}
	src := image.NewPaletted(image.Rect(0, 0, 3, 1), pal)
	src.Pix = []uint8{0, 1, 2}

	path := filepath.Join(t.TempDir(), "palette.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, xtiff.Encode(f, src, nil))
	require.NoError(t, f.Close())

	img, err := LoadImage(path)
	require.NoError(t, err)
	require.Equal(t, 3, img.Channels)
	assert.Equal(t, tiff.Uint8, img.Type)
	assert.Equal(t, []byte{0, 0, 0, 255, 0, 0, 0, 0, 255}, img.Pix)
}

func TestLoadImageErrors(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.tif"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.bin")
	require.NoError(t, os.WriteFile(path, []byte("neither a tiff nor a png"), 0o644))
	_, err = LoadImage(path)
	assert.ErrorIs(t, err, tiff.ErrFormat)
}

func TestLoadedImageBuildsPyramid(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 300, 40))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	img, err := LoadImage(writePNG(t, src))
	require.NoError(t, err)

	path := createPyramid(t, "from-png.tif", pyramid.Options{}, img)
	info, err := GetFileInfo(path)
	require.NoError(t, err)
	require.Len(t, info.Images[0].Levels, 2)
	assert.Equal(t, 150, info.Images[0].Levels[1].Width)
	assert.Equal(t, 20, info.Images[0].Levels[1].Height)
}
