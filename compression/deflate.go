package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Deflate compression errors
var (
	ErrDeflateCorrupted = errors.New("compression: corrupted Deflate data")
)

// Level is a zlib compression level from 1 (best speed) to 9 (best size).
// The zero value selects the default level (6). LevelHuffmanOnly is the
// klauspost extension skipping match search.
type Level int

// Standard compression levels
const (
	LevelHuffmanOnly Level = -2
	LevelDefault     Level = 0
	LevelBestSpeed   Level = 1
	LevelBestSize    Level = 9
)

// Valid reports whether l can be handed to DeflateCompressLevel.
func (l Level) Valid() bool {
	return l == LevelHuffmanOnly || (l >= LevelDefault && l <= LevelBestSize)
}

// Pool for zlib writers to reduce allocations.
// Each pooled item contains both the writer and its destination buffer.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// DeflateCompress compresses data with zlib at the default level, as stored
// in TIFF compression 8 (Adobe Deflate).
//
// The horizontal predictor, when used, is applied by the caller.
func DeflateCompress(src []byte) ([]byte, error) {
	return DeflateCompressLevel(src, LevelDefault)
}

// DeflateCompressLevel compresses data using the specified compression level.
func DeflateCompressLevel(src []byte, level Level) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	if !level.Valid() {
		return nil, fmt.Errorf("%w: deflate level %d", ErrUnsupported, level)
	}

	// Use pool for default level (most common case)
	if level == LevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		item.buf.Reset()
		item.writer.Reset(item.buf)

		if _, err := item.writer.Write(src); err != nil {
			item.writer.Close()
			zlibWriterPool.Put(item)
			return nil, err
		}

		if err := item.writer.Close(); err != nil {
			zlibWriterPool.Put(item)
			return nil, err
		}

		result := make([]byte, item.buf.Len())
		copy(result, item.buf.Bytes())
		zlibWriterPool.Put(item)

		return result, nil
	}

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// zlibReaderPoolItem wraps a zlib reader for pooling
type zlibReaderPoolItem struct {
	reader io.ReadCloser
	srcBuf *bytes.Reader
}

var zlibReaderPool = sync.Pool{
	New: func() any {
		return &zlibReaderPoolItem{
			srcBuf: bytes.NewReader(nil),
		}
	},
}

// DeflateDecompress decompresses zlib data.
// The expectedSize parameter is the expected decompressed size.
func DeflateDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 && expectedSize == 0 {
		return nil, nil
	}
	dst := make([]byte, expectedSize)
	if err := DeflateDecompressTo(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// DeflateDecompressTo decompresses zlib data into the provided buffer.
// The dst buffer must be exactly the right size for the decompressed data.
// Trailing decompressed bytes beyond len(dst) are ignored, as some writers
// pad the last strip.
func DeflateDecompressTo(dst, src []byte) error {
	if len(src) == 0 {
		if len(dst) != 0 {
			return ErrDeflateCorrupted
		}
		return nil
	}

	item := zlibReaderPool.Get().(*zlibReaderPoolItem)
	defer zlibReaderPool.Put(item)
	item.srcBuf.Reset(src)

	var err error
	if item.reader == nil {
		item.reader, err = zlib.NewReader(item.srcBuf)
		if err != nil {
			item.reader = nil
			return ErrDeflateCorrupted
		}
	} else if err = item.reader.(zlib.Resetter).Reset(item.srcBuf, nil); err != nil {
		item.reader.Close()
		item.reader, err = zlib.NewReader(item.srcBuf)
		if err != nil {
			item.reader = nil
			return ErrDeflateCorrupted
		}
	}

	n, err := io.ReadFull(item.reader, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ErrDeflateCorrupted
	}
	if n != len(dst) {
		return ErrDeflateCorrupted
	}
	return nil
}
