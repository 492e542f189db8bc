// Package compression provides the tile and strip codecs of TIFF files:
// none, Adobe Deflate, PackBits, LZW and JPEG 2000 (decode only).
//
// Every codec works on one block (a tile or a strip) at a time. Blocks are
// raw interleaved samples; the horizontal predictor, when used, is applied
// by the caller before Compress and after Decompress.
package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Method is a TIFF Compression tag value.
type Method uint16

// Supported compression methods.
const (
	None       Method = 1
	LZW        Method = 5
	Deflate    Method = 8     // Adobe Deflate
	PackBits   Method = 32773 // Apple PackBits
	DeflateOld Method = 32946 // Pre-TIFF 6.0 code for Deflate, read only
	JPEG2000   Method = 34712
)

// Common errors
var (
	ErrUnsupported = errors.New("compression: unsupported method")
	ErrTruncated   = errors.New("compression: truncated block")
)

var methodNames = map[Method]string{
	None:       "none",
	LZW:        "lzw",
	Deflate:    "deflate",
	PackBits:   "packbits",
	DeflateOld: "deflate-old",
	JPEG2000:   "jpeg2000",
}

// String returns the lower-case method name.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", uint16(m))
}

// ParseMethod parses a method name as used in configuration files and on the
// command line.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return None, nil
	case "deflate", "zip", "adobe-deflate":
		return Deflate, nil
	case "packbits", "rle":
		return PackBits, nil
	case "lzw":
		return LZW, nil
	case "jpeg2000", "j2k", "jp2":
		return JPEG2000, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Layout describes the block handed to a codec.
type Layout struct {
	Width         int  // Pixels per row
	Height        int  // Rows
	Channels      int  // Interleaved samples per pixel
	BitsPerSample int  // Whole multiple of 8
	Unsigned      bool // Samples are unsigned integers

	// Order is the byte order of multi-byte samples in the raw block.
	// Only codecs that interpret sample values look at it. Nil means
	// little-endian.
	Order binary.ByteOrder

	// Level is the Deflate compression level. Other codecs ignore it.
	Level Level
}

// RowBytes returns the size of one uncompressed row.
func (l Layout) RowBytes() int {
	return l.Width * l.Channels * (l.BitsPerSample / 8)
}

// Size returns the uncompressed block size.
func (l Layout) Size() int {
	return l.RowBytes() * l.Height
}

func (l Layout) withOrder() Layout {
	if l.Order == nil {
		l.Order = binary.LittleEndian
	}
	return l
}

// Supports reports whether blocks of the given layout can be written with m.
// It returns nil when they can, or an error wrapping ErrUnsupported.
func Supports(m Method, l Layout) error {
	switch m {
	case None, PackBits, LZW:
		return nil
	case Deflate:
		if !l.Level.Valid() {
			return fmt.Errorf("%w: deflate level %d", ErrUnsupported, l.Level)
		}
		return nil
	case JPEG2000, DeflateOld:
		return fmt.Errorf("%w: %v is read only", ErrUnsupported, m)
	}
	return fmt.Errorf("%w: %v", ErrUnsupported, m)
}

// Compress encodes one raw block with method m.
// For None the returned slice is src itself.
func Compress(m Method, src []byte, l Layout) ([]byte, error) {
	l = l.withOrder()
	switch m {
	case None:
		return src, nil
	case Deflate:
		if !l.Level.Valid() {
			return nil, Supports(m, l)
		}
		return DeflateCompressLevel(src, l.Level)
	case PackBits:
		return PackBitsCompress(src, l.RowBytes()), nil
	case LZW:
		return LZWCompress(src)
	}
	return nil, Supports(m, l)
}

// Decompress decodes one block into a new buffer of exactly l.Size() bytes.
func Decompress(m Method, src []byte, l Layout) ([]byte, error) {
	l = l.withOrder()
	size := l.Size()
	switch m {
	case None:
		if len(src) < size {
			return nil, ErrTruncated
		}
		dst := make([]byte, size)
		copy(dst, src)
		return dst, nil
	case Deflate, DeflateOld:
		return DeflateDecompress(src, size)
	case PackBits:
		return PackBitsDecompress(src, size)
	case LZW:
		return LZWDecompress(src, size)
	case JPEG2000:
		dst := make([]byte, size)
		if err := JPEG2000DecompressTo(dst, src, l); err != nil {
			return nil, err
		}
		return dst, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, m)
}
