// Package units provides chainage (PK) formatting and bearing helpers shared
// across the alignment, profile and export layers.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPK renders a chainage in metres as a kilometre-style label,
// e.g. 0 -> "0+000", 1434 -> "1+434". Metres are rounded to the nearest
// whole metre, matching survey drawings.
func FormatPK(chainage float64) string {
	if chainage < 0 {
		return "-" + FormatPK(-chainage)
	}
	m := math.Round(chainage)
	km := int(m) / 1000
	rem := int(m) % 1000
	return fmt.Sprintf("%d+%03d", km, rem)
}

// ParsePK converts a "k+mmm" label back to a chainage in metres. Plain
// numeric strings are accepted too so CSV round trips stay forgiving.
func ParsePK(pk string) (float64, error) {
	pk = strings.TrimSpace(pk)
	if pk == "" {
		return 0, fmt.Errorf("empty PK label")
	}
	if i := strings.IndexByte(pk, '+'); i >= 0 {
		km, err := strconv.Atoi(strings.TrimSpace(pk[:i]))
		if err != nil {
			return 0, fmt.Errorf("invalid PK %q: %w", pk, err)
		}
		m, err := strconv.ParseFloat(strings.TrimSpace(pk[i+1:]), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid PK %q: %w", pk, err)
		}
		if m < 0 || m >= 1000 {
			return 0, fmt.Errorf("invalid PK %q: metres part out of range", pk)
		}
		return float64(km)*1000 + m, nil
	}
	v, err := strconv.ParseFloat(pk, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PK %q: %w", pk, err)
	}
	return v, nil
}

// NormalizeBearing wraps an angle in degrees into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// PerpendicularBearing returns the bearing rotated 90 degrees
// counter-clockwise, normalised to [0, 360). Cross-sections are sampled
// along this direction.
func PerpendicularBearing(deg float64) float64 {
	return NormalizeBearing(deg + 90)
}

// BearingVector returns the unit vector for a bearing expressed as a
// mathematical angle in degrees (counter-clockwise from +X).
func BearingVector(deg float64) (ux, uy float64) {
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}
