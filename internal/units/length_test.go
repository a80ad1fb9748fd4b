package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false, want true", u)
		}
	}
	for _, u := range []string{"ft", "px", "", "Mm"} {
		if IsValid(u) {
			t.Errorf("IsValid(%q) = true, want false", u)
		}
	}
}

func TestConvertLength(t *testing.T) {
	tests := []struct {
		mm   float64
		unit string
		want float64
	}{
		{254, IN, 10},
		{100, CM, 10},
		{2500, M, 2.5},
		{42, MM, 42},
		{42, "unknown", 42},
	}
	for _, tt := range tests {
		if got := ConvertLength(tt.mm, tt.unit); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertLength(%v, %q) = %v, want %v", tt.mm, tt.unit, got, tt.want)
		}
	}
}

func TestRoundTripConversions(t *testing.T) {
	for _, u := range ValidUnits {
		const mm = 123.45
		got := ConvertToMM(ConvertLength(mm, u), u)
		if math.Abs(got-mm) > 1e-9 {
			t.Errorf("round trip through %q: %v, want %v", u, got, mm)
		}
	}
}

func TestPixelsPerMM(t *testing.T) {
	if got := PixelsPerMM(1920, 120); math.Abs(got-16) > 1e-12 {
		t.Errorf("PixelsPerMM = %v, want 16", got)
	}
	if got := PixelsPerMM(0, 120); got != 0 {
		t.Errorf("PixelsPerMM with zero pixels = %v, want 0", got)
	}
	if got := PixelsPerMM(1920, 0); got != 0 {
		t.Errorf("PixelsPerMM with zero width = %v, want 0", got)
	}
}
