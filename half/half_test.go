package half

import (
	"math"
	"testing"
)

func TestFromFloat32RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input float32
	}{
		{"zero", 0.0},
		{"one", 1.0},
		{"negative one", -1.0},
		{"half", 0.5},
		{"max normal", 65504.0},
		{"min normal", 6.103515625e-5},
		{"sample value", 100.0},
		{"gray", 0.18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromFloat32(tt.input).Float32()
			if tt.input == 0 {
				if result != 0 {
					t.Errorf("FromFloat32(0).Float32() = %v, want 0", result)
				}
				return
			}
			relDiff := math.Abs(float64(result-tt.input)) / math.Abs(float64(tt.input))
			if relDiff > 0.001 {
				t.Errorf("FromFloat32(%v).Float32() = %v, relative error = %v", tt.input, result, relDiff)
			}
		})
	}
}

func TestExactBits(t *testing.T) {
	tests := []struct {
		input    float32
		expected uint16
	}{
		{1.0, 0x3C00},
		{1.5, 0x3E00},
		{2.0, 0x4000},
		{-2.0, 0xC000},
		{65504, 0x7BFF},
	}
	for _, tt := range tests {
		if got := FromFloat32(tt.input).Bits(); got != tt.expected {
			t.Errorf("FromFloat32(%v).Bits() = 0x%04X, want 0x%04X", tt.input, got, tt.expected)
		}
	}
}

func TestSpecialValues(t *testing.T) {
	if got := FromFloat32(float32(math.Inf(1))); got != Inf {
		t.Errorf("FromFloat32(+Inf) = 0x%04X, want 0x%04X", got.Bits(), Inf.Bits())
	}
	if !math.IsInf(float64(Inf.Float32()), 1) {
		t.Errorf("Inf.Float32() = %v, want +Inf", Inf.Float32())
	}
	if !FromFloat32(float32(math.NaN())).IsNaN() {
		t.Error("FromFloat32(NaN) is not NaN")
	}
	if !math.IsNaN(NaN.Float64()) {
		t.Errorf("NaN.Float64() = %v, want NaN", NaN.Float64())
	}
	// Overflow saturates to infinity.
	if got := FromFloat32(1e6); got != Inf {
		t.Errorf("FromFloat32(1e6) = 0x%04X, want Inf", got.Bits())
	}
	// Underflow flushes to zero.
	if got := FromFloat32(1e-10); got.Bits() != 0 {
		t.Errorf("FromFloat32(1e-10) = 0x%04X, want 0", got.Bits())
	}
}

func TestSubnormalRoundTrip(t *testing.T) {
	for _, bits := range []uint16{0x0001, 0x0200, 0x03FF, 0x8001, 0x83FF} {
		h := FromBits(bits)
		if got := FromFloat32(h.Float32()).Bits(); got != bits {
			t.Errorf("round trip of 0x%04X = 0x%04X", bits, got)
		}
	}
}

func TestAllFiniteBitsRoundTrip(t *testing.T) {
	for bits := 0; bits < 0x10000; bits++ {
		h := FromBits(uint16(bits))
		if h.IsNaN() {
			continue
		}
		if got := FromFloat64(h.Float64()); got != h {
			t.Fatalf("round trip of 0x%04X = 0x%04X", bits, got.Bits())
		}
	}
}

func TestNegativeZero(t *testing.T) {
	h := FromFloat32(float32(math.Copysign(0, -1)))
	if h.Bits() != 0x8000 {
		t.Errorf("FromFloat32(-0) = 0x%04X, want 0x8000", h.Bits())
	}
	if math.Float32bits(h.Float32())&0x80000000 == 0 {
		t.Error("negative zero sign bit not preserved")
	}
}
