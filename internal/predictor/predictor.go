// Package predictor implements the TIFF horizontal differencing predictor
// (Predictor=2) and the floating point predictor (Predictor=3).
//
// Within each row, every sample is replaced by its difference from the
// sample of the same channel in the previous pixel. Differences wrap around
// in the sample's integer width. The first pixel of each row is left as is.
//
// Buffers are little-endian sample arrays; callers that read big-endian
// files swap to little-endian before decoding.
package predictor

import "encoding/binary"

// Encode applies horizontal differencing in place to rows of width pixels,
// each pixel holding channels samples of bytesPerSample bytes.
func Encode(data []byte, width, channels, bytesPerSample int) {
	rowBytes := width * channels * bytesPerSample
	if rowBytes == 0 {
		return
	}
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		encodeRow(data[off:off+rowBytes], channels, bytesPerSample)
	}
}

// Decode reverses Encode in place.
func Decode(data []byte, width, channels, bytesPerSample int) {
	rowBytes := width * channels * bytesPerSample
	if rowBytes == 0 {
		return
	}
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		decodeRow(data[off:off+rowBytes], channels, bytesPerSample)
	}
}

func encodeRow(row []byte, channels, size int) {
	stride := channels * size
	// Work backwards to preserve values we still need.
	switch size {
	case 1:
		for i := len(row) - 1; i >= stride; i-- {
			row[i] -= row[i-stride]
		}
	case 2:
		le := binary.LittleEndian
		for i := len(row) - 2; i >= stride; i -= 2 {
			le.PutUint16(row[i:], le.Uint16(row[i:])-le.Uint16(row[i-stride:]))
		}
	case 4:
		le := binary.LittleEndian
		for i := len(row) - 4; i >= stride; i -= 4 {
			le.PutUint32(row[i:], le.Uint32(row[i:])-le.Uint32(row[i-stride:]))
		}
	case 8:
		le := binary.LittleEndian
		for i := len(row) - 8; i >= stride; i -= 8 {
			le.PutUint64(row[i:], le.Uint64(row[i:])-le.Uint64(row[i-stride:]))
		}
	}
}

func decodeRow(row []byte, channels, size int) {
	stride := channels * size
	switch size {
	case 1:
		for i := stride; i < len(row); i++ {
			row[i] += row[i-stride]
		}
	case 2:
		le := binary.LittleEndian
		for i := stride; i+2 <= len(row); i += 2 {
			le.PutUint16(row[i:], le.Uint16(row[i:])+le.Uint16(row[i-stride:]))
		}
	case 4:
		le := binary.LittleEndian
		for i := stride; i+4 <= len(row); i += 4 {
			le.PutUint32(row[i:], le.Uint32(row[i:])+le.Uint32(row[i-stride:]))
		}
	case 8:
		le := binary.LittleEndian
		for i := stride; i+8 <= len(row); i += 8 {
			le.PutUint64(row[i:], le.Uint64(row[i:])+le.Uint64(row[i-stride:]))
		}
	}
}
