// Package resample resizes tiff images to an exact output shape.
//
// The default filter is linear interpolation over a grid that aligns the
// corner samples of input and output: output index o along an axis of
// input size n and output size m samples input coordinate o*(n-1)/(m-1).
// Channels are never mixed. Integer outputs are rounded half away from
// zero and clamped to the range of their type.
package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/mrjoshuak/go-ptiff/tiff"
)

// ErrInvalidSize is returned for non-positive output dimensions.
var ErrInvalidSize = errors.New("resample: invalid output size")

// Filter selects the resampling kernel.
type Filter int

const (
	// FilterLinear interpolates linearly between the two nearest input
	// samples on each axis.
	FilterLinear Filter = iota
	// FilterBox averages k×k input blocks when both axes shrink by the same
	// integer factor k, and behaves like FilterLinear otherwise.
	FilterBox
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterLinear:
		return "linear"
	case FilterBox:
		return "box"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter returns the filter with the given name.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", "linear", "bilinear":
		return FilterLinear, nil
	case "box":
		return FilterBox, nil
	}
	return 0, fmt.Errorf("resample: unknown filter %q", s)
}

// Resample returns img resized to height×width with FilterLinear.
func Resample(img *tiff.Image, height, width int) (*tiff.Image, error) {
	return ResampleWith(img, height, width, FilterLinear)
}

// ResampleWith returns img resized to height×width with filter f. The
// result has the channel count and sample type of img.
func ResampleWith(img *tiff.Image, height, width int, f Filter) (*tiff.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	if f == FilterBox {
		if k, ok := boxFactor(img, height, width); ok {
			return box(img, height, width, k), nil
		}
	}
	return linear(img, height, width), nil
}

// axis holds the two input taps and the weight of the second for every
// output index along one axis.
type axis struct {
	lo, hi []int
	w      []float64
}

// newAxis maps out output samples onto in input samples with the
// corner-aligned grid.
func newAxis(in, out int) axis {
	a := axis{lo: make([]int, out), hi: make([]int, out), w: make([]float64, out)}
	scale := 0.0
	if out > 1 {
		scale = float64(in-1) / float64(out-1)
	}
	for o := 0; o < out; o++ {
		pos := float64(o) * scale
		lo := min(int(math.Floor(pos)), in-1)
		a.lo[o] = lo
		a.hi[o] = min(lo+1, in-1)
		a.w[o] = pos - float64(lo)
	}
	return a
}

func linear(img *tiff.Image, height, width int) *tiff.Image {
	out := tiff.NewImage(width, height, img.Channels, img.Type)
	ax := newAxis(img.Width, width)
	ay := newAxis(img.Height, height)
	lanes := img.Type.Lanes()

	for y := 0; y < height; y++ {
		y0, y1, wy := ay.lo[y], ay.hi[y], ay.w[y]
		for x := 0; x < width; x++ {
			x0, x1, wx := ax.lo[x], ax.hi[x], ax.w[x]
			for c := 0; c < img.Channels; c++ {
				for l := 0; l < lanes; l++ {
					top := lerp(img.Value(x0, y0, c, l), img.Value(x1, y0, c, l), wx)
					if wy == 0 {
						out.SetValue(x, y, c, l, top)
						continue
					}
					bottom := lerp(img.Value(x0, y1, c, l), img.Value(x1, y1, c, l), wx)
					out.SetValue(x, y, c, l, lerp(top, bottom, wy))
				}
			}
		}
	}
	return out
}

// lerp keeps a exact at w == 0 so that copied samples survive unchanged,
// including infinities.
func lerp(a, b, w float64) float64 {
	if w == 0 {
		return a
	}
	return a + (b-a)*w
}

// boxFactor returns the common integer shrink factor of both axes.
func boxFactor(img *tiff.Image, height, width int) (int, bool) {
	if img.Height%height != 0 || img.Width%width != 0 {
		return 0, false
	}
	k := img.Height / height
	if k < 1 || img.Width/width != k {
		return 0, false
	}
	return k, true
}

func box(img *tiff.Image, height, width, k int) *tiff.Image {
	out := tiff.NewImage(width, height, img.Channels, img.Type)
	lanes := img.Type.Lanes()
	n := float64(k * k)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < img.Channels; c++ {
				for l := 0; l < lanes; l++ {
					var sum float64
					for dy := 0; dy < k; dy++ {
						for dx := 0; dx < k; dx++ {
							sum += img.Value(x*k+dx, y*k+dy, c, l)
						}
					}
					out.SetValue(x, y, c, l, sum/n)
				}
			}
		}
	}
	return out
}
