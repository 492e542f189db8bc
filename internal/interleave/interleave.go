// Package interleave splits arrays of multi-byte samples into byte planes
// and joins them back.
//
// The TIFF floating point predictor stores each row as byte planes, the
// most significant byte of every sample first, so that the slowly varying
// sign and exponent bytes sit next to each other:
//
//	Samples: [A0, A1, B0, B1, C0, C1]  (big-endian, 2 bytes each)
//	Planes:  [A0, B0, C0, A1, B1, C1]
package interleave

// Interleave groups the bytes of data by their offset within each
// size-byte element. Trailing bytes that do not fill an element are copied
// unchanged. If out is nil, a new buffer is allocated; otherwise it must be
// as long as data.
func Interleave(data []byte, size int, out []byte) []byte {
	if out == nil {
		out = make([]byte, len(data))
	}
	if size <= 1 {
		copy(out, data)
		return out
	}

	n := len(data) / size
	for offset := 0; offset < size; offset++ {
		plane := out[offset*n : (offset+1)*n]
		for i := range plane {
			plane[i] = data[i*size+offset]
		}
	}
	copy(out[n*size:], data[n*size:])
	return out
}

// Deinterleave reverses Interleave.
func Deinterleave(data []byte, size int, out []byte) []byte {
	if out == nil {
		out = make([]byte, len(data))
	}
	if size <= 1 {
		copy(out, data)
		return out
	}

	n := len(data) / size
	for offset := 0; offset < size; offset++ {
		plane := data[offset*n : (offset+1)*n]
		for i, b := range plane {
			out[i*size+offset] = b
		}
	}
	copy(out[n*size:], data[n*size:])
	return out
}
