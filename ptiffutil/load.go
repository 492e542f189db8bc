package ptiffutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG sources
	_ "image/png"  // Register PNG sources
	"os"

	_ "golang.org/x/image/tiff" // Register bilevel, palette and JPEG TIFF sources

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

// ===========================================
// Source Loading
// ===========================================

// LoadImage reads the first image of a source file. See LoadImages.
func LoadImage(path string) (*tiff.Image, error) {
	images, err := LoadImages(path)
	if err != nil {
		return nil, err
	}
	return images[0], nil
}

// LoadImages reads every top-level image of a source file.
//
// TIFF files are read natively so that every sample type survives. Files the
// native reader cannot handle, such as PNG, JPEG or palette and bilevel
// TIFF, are decoded with the registered image codecs and converted to 8 or
// 16 bit unsigned samples. Only the first image of those files is returned.
func LoadImages(path string) ([]*tiff.Image, error) {
	images, err := loadNative(path)
	if err == nil {
		return images, nil
	}
	if !fallback(err) {
		return nil, err
	}

	img, ferr := loadDecoded(path)
	if ferr != nil {
		return nil, fmt.Errorf("%s: %w (fallback: %v)", path, err, ferr)
	}
	return []*tiff.Image{img}, nil
}

var errPalette = errors.New("ptiffutil: palette image")

func fallback(err error) bool {
	return errors.Is(err, tiff.ErrFormat) ||
		errors.Is(err, tiff.ErrUnsupportedType) ||
		errors.Is(err, compression.ErrUnsupported) ||
		errors.Is(err, errPalette)
}

func loadNative(path string) ([]*tiff.Image, error) {
	r, err := tiff.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var images []*tiff.Image
	for d, err := range r.Directories() {
		if err != nil {
			return nil, err
		}
		info, err := d.Info()
		if err != nil {
			return nil, err
		}
		if info.Photometric == tiff.PhotometricPalette {
			return nil, errPalette
		}
		img, err := r.ReadImage()
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images", tiff.ErrFormat)
	}
	return images, nil
}

func loadDecoded(path string) (*tiff.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return FromImage(src), nil
}

// FromImage converts a standard library image. Gray images keep one
// channel, other images become RGB, or RGBA when they are not opaque.
// 16-bit models keep their depth.
func FromImage(src image.Image) *tiff.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	le := binary.LittleEndian

	switch s := src.(type) {
	case *image.Gray:
		img := tiff.NewImage(w, h, 1, tiff.Uint8)
		for y := 0; y < h; y++ {
			copy(img.Pix[y*w:(y+1)*w], s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return img
	case *image.Gray16:
		img := tiff.NewImage(w, h, 1, tiff.Uint16)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				le.PutUint16(img.Pix[(y*w+x)*2:], s.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return img
	}

	deep := false
	switch src.ColorModel() {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model:
		deep = true
	}
	channels := 3
	if o, ok := src.(interface{ Opaque() bool }); !ok || !o.Opaque() {
		channels = 4
	}
	t := tiff.Uint8
	if deep {
		t = tiff.Uint16
	}

	img := tiff.NewImage(w, h, channels, t)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			v := [4]uint16{c.R, c.G, c.B, c.A}
			for ch := 0; ch < channels; ch++ {
				if deep {
					le.PutUint16(img.Pix[((y*w+x)*channels+ch)*2:], v[ch])
				} else {
					img.Pix[(y*w+x)*channels+ch] = uint8(v[ch] >> 8)
				}
			}
		}
	}
	return img
}
