// Package half converts between IEEE 754 binary16 values and Go floats.
//
// TIFF stores 16-bit floating-point samples (SampleFormat=3,
// BitsPerSample=16) in this layout:
//   - 1 bit sign
//   - 5 bits exponent (bias of 15)
//   - 10 bits mantissa (implicit leading 1 for normalized values)
//
// Pixel buffers keep the raw 16-bit patterns; this package is only used when
// a sample has to be interpolated.
package half

import (
	"math"
)

// Half is an IEEE 754 binary16 value stored as its bit pattern.
type Half uint16

const (
	signBit      = 0x8000
	exponentMask = 0x7C00
	mantissaMask = 0x03FF

	exponentBias = 15
	maxExponent  = 31
)

var (
	// Inf is positive infinity.
	Inf = Half(0x7C00)
	// NaN is a quiet NaN value.
	NaN = Half(0x7E00)
	// Max is the largest finite half value (65504).
	Max = Half(0x7BFF)
)

// FromBits wraps a raw bit pattern.
func FromBits(bits uint16) Half {
	return Half(bits)
}

// Bits returns the raw bit pattern.
func (h Half) Bits() uint16 {
	return uint16(h)
}

// FromFloat64 converts a float64 to a Half using round-to-nearest-even.
// The value is narrowed to float32 first.
func FromFloat64(f float64) Half {
	return FromFloat32(float32(f))
}

// Float64 converts a Half to a float64. The conversion is exact.
func (h Half) Float64() float64 {
	return float64(h.Float32())
}

// FromFloat32 converts a float32 to a Half using round-to-nearest-even.
func FromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & signBit)
	exp := int((bits >> 23) & 0xFF)
	mantissa := bits & 0x007FFFFF

	switch {
	case exp == 0xFF:
		if mantissa == 0 {
			return Half(sign | exponentMask)
		}
		return Half(sign | exponentMask | uint16(mantissa>>13) | 0x0200)
	case exp == 0:
		// float32 subnormals are far below the half range
		return Half(sign)
	}

	exp = exp - 127 + exponentBias
	if exp >= maxExponent {
		return Half(sign | exponentMask)
	}
	if exp < -10 {
		return Half(sign)
	}

	if exp <= 0 {
		mantissa |= 0x00800000
		shift := uint(14 - exp)
		m := mantissa >> shift
		round := (mantissa >> (shift - 1)) & 1
		sticky := mantissa & ((1 << (shift - 1)) - 1)
		if round != 0 && (sticky != 0 || m&1 != 0) {
			m++
		}
		return Half(sign | uint16(m))
	}

	m := mantissa >> 13
	round := (mantissa >> 12) & 1
	sticky := mantissa & 0x0FFF
	if round != 0 && (sticky != 0 || m&1 != 0) {
		m++
		if m > mantissaMask {
			m = 0
			exp++
			if exp >= maxExponent {
				return Half(sign | exponentMask)
			}
		}
	}
	return Half(sign | uint16(exp<<10) | uint16(m))
}

// Float32 converts a Half to a float32. The conversion is exact.
func (h Half) Float32() float32 {
	sign := uint32(h&signBit) << 16
	exp := int((h >> 10) & 0x1F)
	mantissa := uint32(h & mantissaMask)

	switch exp {
	case 0:
		if mantissa == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: renormalize
		for mantissa&0x0400 == 0 {
			mantissa <<= 1
			exp--
		}
		exp++
		mantissa &= mantissaMask
		return math.Float32frombits(sign | uint32(exp-exponentBias+127)<<23 | mantissa<<13)
	case maxExponent:
		if mantissa == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7F800000 | mantissa<<13 | 0x00400000)
	default:
		return math.Float32frombits(sign | uint32(exp-exponentBias+127)<<23 | mantissa<<13)
	}
}

// IsNaN reports whether h is a NaN.
func (h Half) IsNaN() bool {
	return h&exponentMask == exponentMask && h&mantissaMask != 0
}
