// Package tiff reads and writes tiled and stripped TIFF and BigTIFF files.
//
// It covers the storage primitives a pyramidal image container needs:
// images as fixed-size tiles or strips in a directory, named fields on each
// directory, sub-directories linked from a parent through the SubIFDs tag,
// and random access to single tiles by absolute directory address.
//
// Files are written little-endian with contiguous planar configuration.
// Both byte orders and both planar configurations are read.
package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/mrjoshuak/go-ptiff/half"
)

// ErrInvalidImage is returned for images whose buffer does not match their
// dimensions.
var ErrInvalidImage = errors.New("tiff: invalid image")

// Image is a 2-D array of samples with an optional channel axis.
//
// Pix holds rows top to bottom, each row holding Width pixels of Channels
// interleaved samples. Multi-byte samples are little-endian regardless of
// the byte order of the file they were read from.
type Image struct {
	Width    int
	Height   int
	Channels int
	Type     DataType
	Pix      []byte
}

// NewImage allocates a zeroed image.
func NewImage(width, height, channels int, t DataType) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Type:     t,
		Pix:      make([]byte, width*height*channels*t.Bytes()),
	}
}

// PixelBytes returns the size of one pixel.
func (img *Image) PixelBytes() int {
	return img.Channels * img.Type.Bytes()
}

// RowBytes returns the size of one row.
func (img *Image) RowBytes() int {
	return img.Width * img.PixelBytes()
}

// Validate checks dimensions, sample type and buffer size.
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if err := img.Type.Validate(); err != nil {
		return err
	}
	if img.Width <= 0 || img.Height <= 0 || img.Channels <= 0 {
		return fmt.Errorf("%w: dimensions %dx%dx%d", ErrInvalidImage, img.Width, img.Height, img.Channels)
	}
	if want := img.Height * img.RowBytes(); len(img.Pix) != want {
		return fmt.Errorf("%w: buffer holds %d bytes, want %d", ErrInvalidImage, len(img.Pix), want)
	}
	return nil
}

// offset returns the byte offset of lane 0 of sample (x, y, c).
func (img *Image) offset(x, y, c int) int {
	return ((y*img.Width+x)*img.Channels + c) * img.Type.Bytes()
}

// Value returns one scalar part of sample (x, y, c) as a float64. lane
// selects the real (0) or imaginary (1) part of complex samples and must be
// 0 otherwise. 64-bit integers beyond 2^53 lose precision.
func (img *Image) Value(x, y, c, lane int) float64 {
	p := img.Pix[img.offset(x, y, c)+lane*img.Type.LaneBytes():]
	le := binary.LittleEndian

	switch img.Type.Kind {
	case Uint:
		switch img.Type.Bits {
		case 8:
			return float64(p[0])
		case 16:
			return float64(le.Uint16(p))
		case 32:
			return float64(le.Uint32(p))
		default:
			return float64(le.Uint64(p))
		}
	case Int:
		switch img.Type.Bits {
		case 8:
			return float64(int8(p[0]))
		case 16:
			return float64(int16(le.Uint16(p)))
		case 32:
			return float64(int32(le.Uint32(p)))
		default:
			return float64(int64(le.Uint64(p)))
		}
	default:
		switch img.Type.LaneBytes() {
		case 2:
			return half.FromBits(le.Uint16(p)).Float64()
		case 4:
			return float64(math.Float32frombits(le.Uint32(p)))
		default:
			return math.Float64frombits(le.Uint64(p))
		}
	}
}

// SetValue stores v into one scalar part of sample (x, y, c).
// Integer samples are rounded half away from zero and clamped to the range
// of the type; NaN stores as zero.
func (img *Image) SetValue(x, y, c, lane int, v float64) {
	p := img.Pix[img.offset(x, y, c)+lane*img.Type.LaneBytes():]
	le := binary.LittleEndian

	switch img.Type.Kind {
	case Uint:
		u := clampUint(v, img.Type.Bits)
		switch img.Type.Bits {
		case 8:
			p[0] = uint8(u)
		case 16:
			le.PutUint16(p, uint16(u))
		case 32:
			le.PutUint32(p, uint32(u))
		default:
			le.PutUint64(p, u)
		}
	case Int:
		i := clampInt(v, img.Type.Bits)
		switch img.Type.Bits {
		case 8:
			p[0] = uint8(int8(i))
		case 16:
			le.PutUint16(p, uint16(int16(i)))
		case 32:
			le.PutUint32(p, uint32(int32(i)))
		default:
			le.PutUint64(p, uint64(i))
		}
	default:
		switch img.Type.LaneBytes() {
		case 2:
			le.PutUint16(p, half.FromFloat64(v).Bits())
		case 4:
			le.PutUint32(p, math.Float32bits(float32(v)))
		default:
			le.PutUint64(p, math.Float64bits(v))
		}
	}
}

func clampUint(v float64, bits int) uint64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	v = math.Round(v)
	if bits == 64 {
		if v >= math.MaxUint64 {
			return math.MaxUint64
		}
		return uint64(v)
	}
	hi := float64(uint64(1)<<bits - 1)
	if v >= hi {
		return uint64(hi)
	}
	return uint64(v)
}

func clampInt(v float64, bits int) int64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	lo := -math.Ldexp(1, bits-1)
	hi := math.Ldexp(1, bits-1) - 1
	if v <= lo {
		return int64(lo)
	}
	if bits == 64 {
		if v >= math.MaxInt64 {
			return math.MaxInt64
		}
	} else if v >= hi {
		return int64(hi)
	}
	return int64(v)
}

// Region returns a copy of the w×h rectangle at (x0, y0). Parts of the
// rectangle outside the image are zero.
func (img *Image) Region(x0, y0, w, h int) *Image {
	out := NewImage(w, h, img.Channels, img.Type)
	out.Paste(img, -x0, -y0)
	return out
}

// Paste copies src into img with its top-left corner at (x0, y0), clipping
// to img. Both images must share channel count and sample type.
func (img *Image) Paste(src *Image, x0, y0 int) {
	sx0, sy0 := max(0, -x0), max(0, -y0)
	sx1 := min(src.Width, img.Width-x0)
	sy1 := min(src.Height, img.Height-y0)
	if sx0 >= sx1 || sy0 >= sy1 {
		return
	}

	pb := img.PixelBytes()
	n := (sx1 - sx0) * pb
	for sy := sy0; sy < sy1; sy++ {
		s := (sy*src.Width + sx0) * pb
		d := ((sy+y0)*img.Width + sx0 + x0) * pb
		copy(img.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// Equal reports whether both images have the same shape, type and samples.
func (img *Image) Equal(other *Image) bool {
	if img == nil || other == nil {
		return img == other
	}
	if img.Width != other.Width || img.Height != other.Height ||
		img.Channels != other.Channels || img.Type != other.Type {
		return false
	}
	return bytes.Equal(img.Pix, other.Pix)
}
