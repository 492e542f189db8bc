package compression

import (
	"bytes"
	"testing"
)

// signedByte converts a signed int8 value to a byte for use in test data.
func signedByte(v int8) byte {
	return byte(v)
}

func TestPackBitsCompressEmpty(t *testing.T) {
	if result := PackBitsCompress(nil, 0); result != nil {
		t.Error("Compressing nil should return nil")
	}
	if result := PackBitsCompress([]byte{}, 4); result != nil {
		t.Error("Compressing empty should return nil")
	}
}

func TestPackBitsCompressRun(t *testing.T) {
	data := []byte{42, 42, 42, 42, 42}
	compressed := PackBitsCompress(data, 0)

	// 5 copies of 42
	expected := []byte{signedByte(-4), 42}
	if !bytes.Equal(compressed, expected) {
		t.Errorf("Compress run: got %v, want %v", compressed, expected)
	}
}

func TestPackBitsCompressLiterals(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	compressed := PackBitsCompress(data, 0)

	expected := []byte{3, 1, 2, 3, 4}
	if !bytes.Equal(compressed, expected) {
		t.Errorf("Compress literals: got %v, want %v", compressed, expected)
	}
}

func TestPackBitsAppleExample(t *testing.T) {
	// The sample from Apple Technical Note TN1023.
	packed := []byte{
		0xFE, 0xAA, 0x02, 0x80, 0x00, 0x2A, 0xFD, 0xAA, 0x03, 0x80, 0x00, 0x2A, 0x22, 0xF7, 0xAA,
	}
	expected := []byte{
		0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0xAA, 0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0x22,
		0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA,
	}
	got, err := PackBitsDecompress(packed, len(expected))
	if err != nil {
		t.Fatalf("PackBitsDecompress() error = %v", err)
	}
	if !bytes.Equal(got, expected) {
		t.Errorf("PackBitsDecompress() = % X, want % X", got, expected)
	}
}

func TestPackBitsDecompressSkipsNoop(t *testing.T) {
	packed := []byte{packBitsNoop, 1, 7, 8}
	got, err := PackBitsDecompress(packed, 2)
	if err != nil {
		t.Fatalf("PackBitsDecompress() error = %v", err)
	}
	if !bytes.Equal(got, []byte{7, 8}) {
		t.Errorf("PackBitsDecompress() = %v, want [7 8]", got)
	}
}

func TestPackBitsRowsAreIndependent(t *testing.T) {
	// Two rows of four identical bytes must not merge into one run.
	data := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	compressed := PackBitsCompress(data, 4)
	expected := []byte{signedByte(-3), 9, signedByte(-3), 9}
	if !bytes.Equal(compressed, expected) {
		t.Errorf("per-row compress = %v, want %v", compressed, expected)
	}
}

func TestPackBitsRoundTrip(t *testing.T) {
	tests := [][]byte{
		{1},
		{1, 2},
		{1, 1, 1},
		{1, 2, 3, 4, 5},
		{100, 100, 100, 100, 100, 100, 100, 100},
		{1, 2, 3, 3, 3, 3, 4, 5, 6},
		{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3},
	}

	for i, original := range tests {
		compressed := PackBitsCompress(original, 0)
		decompressed, err := PackBitsDecompress(compressed, len(original))
		if err != nil {
			t.Errorf("test %d: decompress error: %v", i, err)
			continue
		}
		if !bytes.Equal(decompressed, original) {
			t.Errorf("test %d: round-trip failed:\ngot  %v\nwant %v", i, decompressed, original)
		}
	}
}

func TestPackBitsRoundTripLarge(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		if i%100 < 30 {
			data[i] = 0
		} else {
			data[i] = byte(i * 17)
		}
	}

	for _, rowBytes := range []int{0, 64, 100} {
		compressed := PackBitsCompress(data, rowBytes)
		decompressed, err := PackBitsDecompress(compressed, len(data))
		if err != nil {
			t.Fatalf("rowBytes %d: decompress error: %v", rowBytes, err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Errorf("rowBytes %d: large round-trip failed", rowBytes)
		}
	}
}

func TestPackBitsMaxRunLength(t *testing.T) {
	data := bytes.Repeat([]byte{42}, 300)
	compressed := PackBitsCompress(data, 0)
	// 128 + 128 + 44
	if len(compressed) != 6 {
		t.Errorf("compressed length = %d, want 6", len(compressed))
	}
	decompressed, err := PackBitsDecompress(compressed, len(data))
	if err != nil {
		t.Fatalf("Decompress error: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("Long run round-trip failed")
	}
}

func TestPackBitsDecompressErrors(t *testing.T) {
	tests := []struct {
		name   string
		packed []byte
		size   int
		want   error
	}{
		{"short output", []byte{signedByte(-4), 42}, 10, ErrPackBitsCorrupted},
		{"truncated run", []byte{signedByte(-4)}, 5, ErrPackBitsCorrupted},
		{"truncated literals", []byte{3, 1, 2}, 4, ErrPackBitsCorrupted},
		{"run overflow", []byte{signedByte(-126), 42}, 10, ErrPackBitsOverflow},
		{"literal overflow", []byte{3, 1, 2, 3, 4}, 2, ErrPackBitsOverflow},
		{"empty input", nil, 10, ErrPackBitsCorrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PackBitsDecompress(tt.packed, tt.size); err != tt.want {
				t.Errorf("PackBitsDecompress() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func BenchmarkPackBitsCompress(b *testing.B) {
	data := make([]byte, 4096)
	for i := range data {
		if i%10 < 5 {
			data[i] = 0
		} else {
			data[i] = byte(i)
		}
	}

	b.ResetTimer()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		PackBitsCompress(data, 256)
	}
}
