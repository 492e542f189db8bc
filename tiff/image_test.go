package tiff

import (
	"errors"
	"math"
	"testing"
)

func TestImageValidate(t *testing.T) {
	if err := NewImage(3, 2, 1, Uint16).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	short := NewImage(3, 2, 1, Uint16)
	short.Pix = short.Pix[1:]
	if err := short.Validate(); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("short buffer error = %v, want ErrInvalidImage", err)
	}

	empty := &Image{Width: 0, Height: 2, Channels: 1, Type: Uint8}
	if err := empty.Validate(); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("zero width error = %v, want ErrInvalidImage", err)
	}

	odd := &Image{Width: 1, Height: 1, Channels: 1, Type: DataType{Uint, 12}, Pix: []byte{0}}
	if err := odd.Validate(); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("12-bit error = %v, want ErrUnsupportedType", err)
	}

	var nilImg *Image
	if err := nilImg.Validate(); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("nil image error = %v, want ErrInvalidImage", err)
	}
}

func TestSetValueRoundsAndClamps(t *testing.T) {
	tests := []struct {
		t    DataType
		in   float64
		want float64
	}{
		{Uint8, 2.5, 3},
		{Uint8, 2.49, 2},
		{Uint8, -4, 0},
		{Uint8, 300, 255},
		{Uint8, math.NaN(), 0},
		{Uint16, 65535.7, 65535},
		{Int8, -2.5, -3},
		{Int8, -200, -128},
		{Int8, 200, 127},
		{Int16, -1.5, -2},
		{Int32, 1e12, math.MaxInt32},
		{Uint32, 4294967295.2, 4294967295},
		{Int64, -5, -5},
		{Float32, 0.25, 0.25},
		{Float64, -1e300, -1e300},
		{Float16, 1.5, 1.5},
	}
	for _, tt := range tests {
		img := NewImage(1, 1, 1, tt.t)
		img.SetValue(0, 0, 0, 0, tt.in)
		if got := img.Value(0, 0, 0, 0); got != tt.want {
			t.Errorf("%v: SetValue(%v) then Value() = %v, want %v", tt.t, tt.in, got, tt.want)
		}
	}
}

func TestComplexLanes(t *testing.T) {
	img := NewImage(2, 1, 1, Complex64)
	img.SetValue(1, 0, 0, 0, 1.5)
	img.SetValue(1, 0, 0, 1, -2)
	if re, im := img.Value(1, 0, 0, 0), img.Value(1, 0, 0, 1); re != 1.5 || im != -2 {
		t.Errorf("complex sample = (%v, %v), want (1.5, -2)", re, im)
	}
	if img.Value(0, 0, 0, 0) != 0 || img.Value(0, 0, 0, 1) != 0 {
		t.Error("neighbouring sample modified")
	}
}

func TestChannelOffsets(t *testing.T) {
	img := NewImage(2, 2, 3, Uint16)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			for c := 0; c < 3; c++ {
				img.SetValue(x, y, c, 0, float64(100*y+10*x+c))
			}
		}
	}
	if got := img.Value(1, 1, 2, 0); got != 112 {
		t.Errorf("Value(1, 1, 2) = %v, want 112", got)
	}
	// Pixel (1, 0) channel 1 is sample 4 of the buffer.
	if got := img.Pix[8]; got != 11 {
		t.Errorf("Pix[8] = %d, want 11", got)
	}
}

func rampImage(w, h, channels int, t DataType) *Image {
	img := NewImage(w, h, channels, t)
	for i := range img.Pix {
		img.Pix[i] = byte(i*7 + i/13)
	}
	return img
}

func TestRegionPadsWithZeros(t *testing.T) {
	img := rampImage(5, 4, 1, Uint8)
	r := img.Region(3, 2, 4, 4)
	if r.Width != 4 || r.Height != 4 {
		t.Fatalf("Region size = %dx%d, want 4x4", r.Width, r.Height)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := 0.0
			if 3+x < 5 && 2+y < 4 {
				want = img.Value(3+x, 2+y, 0, 0)
			}
			if got := r.Value(x, y, 0, 0); got != want {
				t.Errorf("Region(%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPasteClips(t *testing.T) {
	dst := NewImage(4, 4, 2, Int16)
	src := rampImage(3, 3, 2, Int16)
	dst.Paste(src, 2, -1)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			for c := 0; c < 2; c++ {
				want := 0.0
				if x >= 2 && y < 2 {
					want = src.Value(x-2, y+1, c, 0)
				}
				if got := dst.Value(x, y, c, 0); got != want {
					t.Errorf("dst(%d, %d, %d) = %v, want %v", x, y, c, got, want)
				}
			}
		}
	}

	// Entirely outside is a no-op.
	before := append([]byte(nil), dst.Pix...)
	dst.Paste(src, 10, 10)
	if string(before) != string(dst.Pix) {
		t.Error("Paste outside the image modified it")
	}
}

func TestImageEqual(t *testing.T) {
	a := rampImage(3, 3, 1, Uint8)
	b := a.Region(0, 0, 3, 3)
	if !a.Equal(b) {
		t.Error("Equal() = false for identical images")
	}
	b.Pix[4]++
	if a.Equal(b) {
		t.Error("Equal() = true for different samples")
	}
	c := &Image{Width: 3, Height: 3, Channels: 1, Type: Int8, Pix: a.Pix}
	if a.Equal(c) {
		t.Error("Equal() = true for different types")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) = true")
	}
}
