package units

import (
	"math"
	"testing"
)

func TestFormatPK(t *testing.T) {
	cases := []struct {
		chainage float64
		want     string
	}{
		{0, "0+000"},
		{20, "0+020"},
		{999.6, "1+000"},
		{1434, "1+434"},
		{12345, "12+345"},
	}
	for _, c := range cases {
		if got := FormatPK(c.chainage); got != c.want {
			t.Errorf("FormatPK(%v) = %q, want %q", c.chainage, got, c.want)
		}
	}
}

func TestParsePKRoundTrip(t *testing.T) {
	for _, chainage := range []float64{0, 20, 440, 1434} {
		got, err := ParsePK(FormatPK(chainage))
		if err != nil {
			t.Fatalf("ParsePK(%q): %v", FormatPK(chainage), err)
		}
		if got != chainage {
			t.Errorf("round trip %v -> %v", chainage, got)
		}
	}
}

func TestParsePKPlainNumber(t *testing.T) {
	got, err := ParsePK("140.5")
	if err != nil {
		t.Fatalf("ParsePK: %v", err)
	}
	if got != 140.5 {
		t.Errorf("got %v, want 140.5", got)
	}
}

func TestParsePKInvalid(t *testing.T) {
	for _, s := range []string{"", "a+b", "1+1000", "1+-5"} {
		if _, err := ParsePK(s); err == nil {
			t.Errorf("ParsePK(%q): expected error", s)
		}
	}
}

func TestNormalizeBearing(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-540, 180},
	}
	for _, c := range cases {
		if got := NormalizeBearing(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeBearing(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestPerpendicularBearing(t *testing.T) {
	if got := PerpendicularBearing(300); got != 30 {
		t.Errorf("PerpendicularBearing(300) = %v, want 30", got)
	}
}

func TestBearingVector(t *testing.T) {
	ux, uy := BearingVector(90)
	if math.Abs(ux) > 1e-12 || math.Abs(uy-1) > 1e-12 {
		t.Errorf("BearingVector(90) = (%v, %v), want (0, 1)", ux, uy)
	}
}
