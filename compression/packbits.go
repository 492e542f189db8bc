package compression

import (
	"errors"
)

// PackBits compression errors
var (
	ErrPackBitsCorrupted = errors.New("compression: corrupted PackBits data")
	ErrPackBitsOverflow  = errors.New("compression: PackBits decompressed size overflow")
)

// PackBits constants
const (
	// packBitsMinRun is the minimum run length that is encoded as a run
	packBitsMinRun = 3
	// packBitsMaxRun is the longest run or literal one header byte can describe
	packBitsMaxRun = 128
	// packBitsNoop is the header byte decoders must skip
	packBitsNoop = 0x80
)

// PackBitsCompress compresses data using the Apple PackBits scheme
// (TIFF compression 32773).
//
// Each packet starts with a signed header byte n:
//   - 0 to 127: the next n+1 bytes are copied literally
//   - -1 to -127: the next byte is repeated -n+1 times
//   - -128: no operation
//
// TIFF requires every row to be packed separately, so packets never span a
// rowBytes boundary. A rowBytes of 0 treats src as a single row.
//
// For example:
//
//	[A, A, A, A, B, C, D] -> [-3, A, 2, B, C, D]
func PackBitsCompress(src []byte, rowBytes int) []byte {
	if len(src) == 0 {
		return nil
	}
	if rowBytes <= 0 || rowBytes > len(src) {
		rowBytes = len(src)
	}

	// Worst case: one header byte per 128 literals
	dst := make([]byte, 0, len(src)+len(src)/packBitsMaxRun+1)
	for off := 0; off < len(src); off += rowBytes {
		end := min(off+rowBytes, len(src))
		dst = packBitsRow(dst, src[off:end])
	}
	return dst
}

func packBitsRow(dst, src []byte) []byte {
	i := 0
	for i < len(src) {
		// Look for a run of identical bytes
		val := src[i]
		runEnd := i + 1
		for runEnd < len(src) && src[runEnd] == val && runEnd-i < packBitsMaxRun {
			runEnd++
		}
		runLength := runEnd - i

		if runLength >= packBitsMinRun {
			dst = append(dst, byte(-(runLength - 1)), val)
			i = runEnd
			continue
		}

		literalStart := i
		for i < len(src) && i-literalStart < packBitsMaxRun {
			if i+packBitsMinRun <= len(src) && src[i+1] == src[i] && src[i+2] == src[i] {
				break
			}
			i++
		}

		if n := i - literalStart; n > 0 {
			dst = append(dst, byte(n-1))
			dst = append(dst, src[literalStart:i]...)
		}
	}
	return dst
}

// PackBitsDecompressTo decompresses PackBits data into dst, which must have
// exactly the decompressed size.
func PackBitsDecompressTo(dst, src []byte) error {
	if len(src) == 0 {
		if len(dst) != 0 {
			return ErrPackBitsCorrupted
		}
		return nil
	}

	dstPos := 0
	expectedSize := len(dst)

	i := 0
	for i < len(src) && dstPos < expectedSize {
		header := src[i]
		i++

		switch {
		case header == packBitsNoop:
			continue

		case header > packBitsNoop:
			runLength := -int(int8(header)) + 1
			if i >= len(src) {
				return ErrPackBitsCorrupted
			}
			if dstPos+runLength > expectedSize {
				return ErrPackBitsOverflow
			}
			val := src[i]
			i++
			for end := dstPos + runLength; dstPos < end; dstPos++ {
				dst[dstPos] = val
			}

		default:
			literalLength := int(header) + 1
			if i+literalLength > len(src) {
				return ErrPackBitsCorrupted
			}
			if dstPos+literalLength > expectedSize {
				return ErrPackBitsOverflow
			}
			copy(dst[dstPos:], src[i:i+literalLength])
			dstPos += literalLength
			i += literalLength
		}
	}

	if dstPos != expectedSize {
		return ErrPackBitsCorrupted
	}
	return nil
}

// PackBitsDecompress decompresses PackBits data.
// The expectedSize parameter is the expected decompressed size,
// which is used to preallocate the output buffer and validate the result.
func PackBitsDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 && expectedSize == 0 {
		return nil, nil
	}
	dst := make([]byte, expectedSize)
	if err := PackBitsDecompressTo(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}
