package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestMethodString(t *testing.T) {
	tests := []struct {
		m    Method
		want string
	}{
		{None, "none"},
		{Deflate, "deflate"},
		{PackBits, "packbits"},
		{LZW, "lzw"},
		{JPEG2000, "jpeg2000"},
		{Method(7), "Method(7)"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Method(%d).String() = %q, want %q", uint16(tt.m), got, tt.want)
		}
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"", None},
		{"none", None},
		{"Deflate", Deflate},
		{"zip", Deflate},
		{" packbits ", PackBits},
		{"lzw", LZW},
		{"j2k", JPEG2000},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMethod(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseMethod("jpeg"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseMethod(jpeg) error = %v, want ErrUnsupported", err)
	}
}

func TestLayoutSize(t *testing.T) {
	l := Layout{Width: 10, Height: 3, Channels: 3, BitsPerSample: 16}
	if l.RowBytes() != 60 {
		t.Errorf("RowBytes() = %d, want 60", l.RowBytes())
	}
	if l.Size() != 180 {
		t.Errorf("Size() = %d, want 180", l.Size())
	}
}

func TestSupports(t *testing.T) {
	gray8 := Layout{Channels: 1, BitsPerSample: 8, Unsigned: true}
	f32 := Layout{Channels: 1, BitsPerSample: 32}

	tests := []struct {
		name string
		m    Method
		l    Layout
		ok   bool
	}{
		{"none float", None, f32, true},
		{"deflate float", Deflate, f32, true},
		{"packbits gray", PackBits, gray8, true},
		{"lzw gray", LZW, gray8, true},
		{"deflate best size", Deflate, Layout{Channels: 1, BitsPerSample: 8, Level: LevelBestSize}, true},
		{"deflate bad level", Deflate, Layout{Channels: 1, BitsPerSample: 8, Level: 12}, false},
		{"jpeg2000 gray", JPEG2000, gray8, false},
		{"jpeg2000 float", JPEG2000, f32, false},
		{"deflate-old encode", DeflateOld, gray8, false},
		{"unknown", Method(2), gray8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Supports(tt.m, tt.l)
			if tt.ok && err != nil {
				t.Errorf("Supports() error = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnsupported) {
				t.Errorf("Supports() error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	l := Layout{Width: 32, Height: 8, Channels: 2, BitsPerSample: 16, Order: binary.LittleEndian}
	src := make([]byte, l.Size())
	for i := range src {
		if i%64 < 20 {
			src[i] = 7
		} else {
			src[i] = byte(i * 13)
		}
	}

	for _, m := range []Method{None, Deflate, PackBits, LZW} {
		t.Run(m.String(), func(t *testing.T) {
			compressed, err := Compress(m, src, l)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			got, err := Decompress(m, compressed, l)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if !bytes.Equal(got, src) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestDecompressDeflateOldAlias(t *testing.T) {
	l := Layout{Width: 4, Height: 1, Channels: 1, BitsPerSample: 8}
	src := []byte{1, 2, 3, 4}
	compressed, err := Compress(Deflate, src, l)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	got, err := Decompress(DeflateOld, compressed, l)
	if err != nil || !bytes.Equal(got, src) {
		t.Errorf("Decompress(DeflateOld) = %v, %v, want %v", got, err, src)
	}
}

func TestCompressErrors(t *testing.T) {
	l := Layout{Width: 4, Height: 1, Channels: 1, BitsPerSample: 8}
	if _, err := Compress(JPEG2000, make([]byte, 4), l); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Compress(JPEG2000) error = %v, want ErrUnsupported", err)
	}
	if _, err := Compress(DeflateOld, make([]byte, 4), l); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Compress(DeflateOld) error = %v, want ErrUnsupported", err)
	}
	l.Level = -5
	if _, err := Compress(Deflate, make([]byte, 4), l); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Compress(Deflate) bad level error = %v, want ErrUnsupported", err)
	}
	if _, err := Decompress(Method(99), nil, l); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decompress(99) error = %v, want ErrUnsupported", err)
	}
	if _, err := Decompress(None, []byte{1, 2}, l); err != ErrTruncated {
		t.Errorf("Decompress(None) short error = %v, want ErrTruncated", err)
	}
}
