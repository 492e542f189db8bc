// Package byteio provides byte-order aware binary encoding and decoding
// utilities for reading and writing TIFF structures.
//
// TIFF files declare their byte order in the first two bytes of the file
// ("II" for little-endian, "MM" for big-endian), and classic TIFF and BigTIFF
// differ in the width of file offsets. Readers and writers in this package
// carry both properties so that directory parsing code can stay agnostic of
// the file variant.
package byteio

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read cannot complete because there
	// isn't enough data left in the buffer.
	ErrShortBuffer = errors.New("byteio: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("byteio: negative size")
)

// Order is a byte order usable for both decoding and appending.
// binary.LittleEndian and binary.BigEndian satisfy it.
type Order interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Reader provides bounds-checked binary reading from a byte slice.
type Reader struct {
	data  []byte
	pos   int
	order Order
	big   bool
}

// NewReader creates a Reader over data using the given byte order.
// If big is true, offsets are read as 64-bit values (BigTIFF).
func NewReader(data []byte, order Order, big bool) *Reader {
	return &Reader{data: data, order: order, big: big}
}

// Order returns the byte order of the reader.
func (r *Reader) Order() Order {
	return r.order
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// SetPos sets the read position.
func (r *Reader) SetPos(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return ErrShortBuffer
	}
	r.pos = pos
	return nil
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// ReadBytes returns the next n bytes. The returned slice aliases the
// reader's buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := r.order.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := r.order.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadFloat32 reads a 32-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a 64-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadOffset reads a file offset: 32 bits for classic TIFF, 64 bits for BigTIFF.
func (r *Reader) ReadOffset() (uint64, error) {
	if r.big {
		return r.ReadUint64()
	}
	v, err := r.ReadUint32()
	return uint64(v), err
}

// BufferWriter is a growing buffer for writing binary data.
type BufferWriter struct {
	buf   []byte
	order Order
	big   bool
}

// NewBufferWriter creates a BufferWriter with an initial capacity.
func NewBufferWriter(capacity int, order Order, big bool) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity), order: order, big: big}
}

// Len returns the number of bytes written.
func (w *BufferWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// Reset empties the buffer, keeping its capacity.
func (w *BufferWriter) Reset() {
	w.buf = w.buf[:0]
}

// WriteBytes appends b.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint8 appends an unsigned 8-bit integer.
func (w *BufferWriter) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends an unsigned 16-bit integer.
func (w *BufferWriter) WriteUint16(v uint16) {
	w.buf = w.order.AppendUint16(w.buf, v)
}

// WriteUint32 appends an unsigned 32-bit integer.
func (w *BufferWriter) WriteUint32(v uint32) {
	w.buf = w.order.AppendUint32(w.buf, v)
}

// WriteUint64 appends an unsigned 64-bit integer.
func (w *BufferWriter) WriteUint64(v uint64) {
	w.buf = w.order.AppendUint64(w.buf, v)
}

// WriteFloat32 appends a 32-bit IEEE 754 floating-point number.
func (w *BufferWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a 64-bit IEEE 754 floating-point number.
func (w *BufferWriter) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteOffset appends a file offset in the width of the file variant.
func (w *BufferWriter) WriteOffset(v uint64) {
	if w.big {
		w.WriteUint64(v)
		return
	}
	w.WriteUint32(uint32(v))
}

// Pad appends zero bytes until the buffer length is a multiple of n.
func (w *BufferWriter) Pad(n int) {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

// PutOffsetAt overwrites the offset stored at position pos.
func (w *BufferWriter) PutOffsetAt(pos int, v uint64) {
	if w.big {
		w.order.PutUint64(w.buf[pos:], v)
		return
	}
	w.order.PutUint32(w.buf[pos:], uint32(v))
}

// SwapOrder reverses the byte order of every size-byte element of data in
// place. It is a no-op for size 1.
func SwapOrder(data []byte, size int) {
	if size <= 1 {
		return
	}
	for i := 0; i+size <= len(data); i += size {
		for a, b := i, i+size-1; a < b; a, b = a+1, b-1 {
			data[a], data[b] = data[b], data[a]
		}
	}
}
