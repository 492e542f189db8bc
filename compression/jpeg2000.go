package compression

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/mrjoshuak/go-jpeg2000"
)

// JPEG 2000 compression errors
var (
	ErrJPEG2000Corrupted = errors.New("compression: corrupted JPEG 2000 data")
)

// JPEG2000DecompressTo decodes a JPEG 2000 codestream into dst, which must
// hold exactly l.Size() bytes. 16-bit samples are stored in l.Order.
//
// JPEG 2000 tiles of foreign files are read only; Supports refuses the
// method for writing.
func JPEG2000DecompressTo(dst, src []byte, l Layout) error {
	l = l.withOrder()
	if len(src) == 0 {
		return ErrJPEG2000Corrupted
	}
	img, err := jpeg2000.Decode(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJPEG2000Corrupted, err)
	}

	b := img.Bounds()
	if b.Dx() != l.Width || b.Dy() != l.Height {
		return fmt.Errorf("%w: decoded %dx%d, want %dx%d",
			ErrJPEG2000Corrupted, b.Dx(), b.Dy(), l.Width, l.Height)
	}
	if len(dst) != l.Size() {
		return fmt.Errorf("jpeg2000: size mismatch: expected %d, got %d", l.Size(), len(dst))
	}

	// Extract based on image type
	switch m := img.(type) {
	case *image.Gray:
		if l.Channels == 1 && l.BitsPerSample == 8 {
			for y := 0; y < l.Height; y++ {
				off := m.PixOffset(b.Min.X, b.Min.Y+y)
				copy(dst[y*l.Width:(y+1)*l.Width], m.Pix[off:off+l.Width])
			}
			return nil
		}
	case *image.NRGBA:
		if l.BitsPerSample == 8 && l.Channels > 1 {
			for y := 0; y < l.Height; y++ {
				for x := 0; x < l.Width; x++ {
					off := m.PixOffset(b.Min.X+x, b.Min.Y+y)
					i := (y*l.Width + x) * l.Channels
					copy(dst[i:i+l.Channels], m.Pix[off:off+l.Channels])
				}
			}
			return nil
		}
	}

	// Generic fallback using color.Model
	var comps [4]uint16
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if l.Channels == 1 {
				comps[0] = color.Gray16Model.Convert(c).(color.Gray16).Y
			} else {
				n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
				comps = [4]uint16{n.R, n.G, n.B, n.A}
			}

			i := (y*l.Width + x) * l.Channels
			for ch := 0; ch < l.Channels; ch++ {
				if l.BitsPerSample == 8 {
					dst[i+ch] = uint8(comps[ch] >> 8)
				} else {
					l.Order.PutUint16(dst[(i+ch)*2:], comps[ch])
				}
			}
		}
	}
	return nil
}
