package compression

import (
	"bytes"
	"errors"
	"io"

	hhlzw "github.com/hhrutter/lzw"
	"golang.org/x/image/tiff/lzw"
)

// LZW compression errors
var (
	ErrLZWCorrupted = errors.New("compression: corrupted LZW data")
)

type nopWriteCloser struct {
	*bytes.Buffer
}

func (nopWriteCloser) Close() error { return nil }

// LZWCompress encodes data as TIFF-flavoured LZW (TIFF compression 5): MSB
// first, 8-bit literals, code width growing one code early.
func LZWCompress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := hhlzw.NewWriter(nopWriteCloser{&buf}, true)
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LZWDecompress decodes TIFF-flavoured LZW data (MSB first, 8-bit literals,
// early code width change).
func LZWDecompress(src []byte, expectedSize int) ([]byte, error) {
	dst := make([]byte, expectedSize)
	if err := LZWDecompressTo(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// LZWDecompressTo decodes LZW data into dst, which must have exactly the
// decompressed size.
func LZWDecompressTo(dst, src []byte) error {
	if len(src) == 0 {
		if len(dst) != 0 {
			return ErrLZWCorrupted
		}
		return nil
	}

	r := lzw.NewReader(bytes.NewReader(src), lzw.MSB, 8)
	defer r.Close()

	n, err := io.ReadFull(r, dst)
	if n != len(dst) {
		return ErrLZWCorrupted
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ErrLZWCorrupted
	}
	return nil
}
