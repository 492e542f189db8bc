package predictor

import (
	"github.com/mrjoshuak/go-ptiff/internal/byteio"
	"github.com/mrjoshuak/go-ptiff/internal/interleave"
)

// EncodeFloat applies the floating point predictor (Predictor=3) in place to
// rows of little-endian floating point samples.
//
// Each row is split into byte planes, most significant byte first, and the
// planes are then differenced byte by byte with a distance of one pixel.
// The encoded rows do not depend on the byte order of the file.
func EncodeFloat(data []byte, width, channels, bytesPerSample int) {
	rowBytes := width * channels * bytesPerSample
	if rowBytes == 0 {
		return
	}
	tmp := make([]byte, rowBytes)
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		byteio.SwapOrder(row, bytesPerSample)
		copy(row, interleave.Interleave(row, bytesPerSample, tmp))
		encodeRow(row, channels, 1)
	}
}

// DecodeFloat reverses EncodeFloat in place. The result holds
// little-endian samples whatever the byte order of the file.
func DecodeFloat(data []byte, width, channels, bytesPerSample int) {
	rowBytes := width * channels * bytesPerSample
	if rowBytes == 0 {
		return
	}
	tmp := make([]byte, rowBytes)
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		decodeRow(row, channels, 1)
		copy(row, interleave.Deinterleave(row, bytesPerSample, tmp))
		byteio.SwapOrder(row, bytesPerSample)
	}
}
