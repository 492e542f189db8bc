package tiff

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned for sample types this package cannot store.
var ErrUnsupportedType = errors.New("tiff: unsupported sample type")

// SampleKind is the numeric family of a sample.
type SampleKind uint8

// Sample kinds, mirroring the TIFF SampleFormat values.
const (
	Uint SampleKind = iota + 1
	Int
	Float
	Complex
)

// String returns the kind name.
func (k SampleKind) String() string {
	switch k {
	case Uint:
		return "uint"
	case Int:
		return "int"
	case Float:
		return "float"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("SampleKind(%d)", uint8(k))
	}
}

// DataType is the type of one sample: a kind and its width in bits.
// For complex samples Bits covers both the real and imaginary parts.
type DataType struct {
	Kind SampleKind
	Bits int
}

// Common data types.
var (
	Uint8      = DataType{Uint, 8}
	Uint16     = DataType{Uint, 16}
	Uint32     = DataType{Uint, 32}
	Uint64     = DataType{Uint, 64}
	Int8       = DataType{Int, 8}
	Int16      = DataType{Int, 16}
	Int32      = DataType{Int, 32}
	Int64      = DataType{Int, 64}
	Float16    = DataType{Float, 16}
	Float32    = DataType{Float, 32}
	Float64    = DataType{Float, 64}
	Complex64  = DataType{Complex, 64}
	Complex128 = DataType{Complex, 128}
)

// Validate returns an error wrapping ErrUnsupportedType if the type cannot be
// stored.
func (t DataType) Validate() error {
	ok := false
	switch t.Kind {
	case Uint, Int:
		ok = t.Bits == 8 || t.Bits == 16 || t.Bits == 32 || t.Bits == 64
	case Float:
		ok = t.Bits == 16 || t.Bits == 32 || t.Bits == 64
	case Complex:
		ok = t.Bits == 64 || t.Bits == 128
	}
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}
	return nil
}

// String returns a Go-style type name such as "uint8" or "complex64".
func (t DataType) String() string {
	return fmt.Sprintf("%v%d", t.Kind, t.Bits)
}

// Bytes returns the size of one sample in bytes.
func (t DataType) Bytes() int {
	return t.Bits / 8
}

// Lanes returns the number of scalar parts of a sample: 2 for complex
// samples, 1 otherwise.
func (t DataType) Lanes() int {
	if t.Kind == Complex {
		return 2
	}
	return 1
}

// LaneBytes returns the size of one scalar part of a sample.
func (t DataType) LaneBytes() int {
	return t.Bytes() / t.Lanes()
}

// IsInteger reports whether samples are signed or unsigned integers.
func (t DataType) IsInteger() bool {
	return t.Kind == Uint || t.Kind == Int
}

// SampleFormat returns the TIFF SampleFormat value of the type.
func (t DataType) SampleFormat() uint16 {
	switch t.Kind {
	case Int:
		return SampleFormatInt
	case Float:
		return SampleFormatFloat
	case Complex:
		return SampleFormatComplexFloat
	default:
		return SampleFormatUint
	}
}

// DataTypeOf resolves a TIFF SampleFormat and BitsPerSample pair.
// SampleFormat 4 (void) is read as unsigned.
func DataTypeOf(sampleFormat uint16, bits int) (DataType, error) {
	var t DataType
	switch sampleFormat {
	case SampleFormatUint, SampleFormatVoid:
		t = DataType{Uint, bits}
	case SampleFormatInt:
		t = DataType{Int, bits}
	case SampleFormatFloat:
		t = DataType{Float, bits}
	case SampleFormatComplexFloat:
		t = DataType{Complex, bits}
	default:
		return DataType{}, fmt.Errorf("%w: SampleFormat %d", ErrUnsupportedType, sampleFormat)
	}
	if err := t.Validate(); err != nil {
		return DataType{}, err
	}
	return t, nil
}
