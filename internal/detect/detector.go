// Package detect locates terrain features on cross-section profiles: the
// left/right intersections of a horizontal reference with the ground (width
// detection) and snap targets for placing crown and LAMA points. Detectors
// are stateless; failures are soft and reported as sentinel errors the
// caller absorbs into record state.
package detect

import (
	"errors"
	"math"

	"github.com/crest-data/freeboard.report/internal/profile"
)

// ErrNoIntersection reports that one side of a profile never crosses the
// reference elevation before the profile boundary.
var ErrNoIntersection = errors.New("no intersection with reference elevation")

// ErrNoTerrainInRadius reports a snap window with no valid samples.
var ErrNoTerrainInRadius = errors.New("no terrain inside search radius")

// Crossing is a detected point on a profile.
type Crossing struct {
	Offset    float64
	Elevation float64
}

// Width is a detected pair of reference-line intersections.
type Width struct {
	Left         Crossing
	Right        Crossing
	Distance     float64
	RefElevation float64
}

// Detector holds detection tuning. The zero value uses a 1mm interpolation
// tolerance.
type Detector struct {
	// Tolerance is the minimum elevation delta between bracketing samples
	// for linear interpolation; below it the pair is treated as level with
	// the reference.
	Tolerance float64
}

func (d Detector) tolerance() float64 {
	if d.Tolerance > 0 {
		return d.Tolerance
	}
	return 0.001
}

// WidthAt finds the first crossing of refElevation on each side of
// refOffset, walking consecutive valid samples outward toward the profile
// boundary. Both sides must intersect; otherwise ErrNoIntersection is
// returned and the caller must not mark the width automatic.
//
// Freeboard mode passes the crown elevation here; projected-width mode
// passes the LAMA elevation plus a fixed vertical offset (ProjectedWidth).
// Both modes share this one routine so their behaviour cannot drift apart.
func (d Detector) WidthAt(p *profile.Profile, refOffset, refElevation float64) (Width, error) {
	valid := validSamples(p)

	left, okL := d.scanOutward(leftOf(valid, refOffset), refOffset, refElevation)
	right, okR := d.scanOutward(rightOf(valid, refOffset), refOffset, refElevation)
	if !okL || !okR {
		return Width{}, ErrNoIntersection
	}

	return Width{
		Left:         left,
		Right:        right,
		Distance:     math.Abs(right.Offset - left.Offset),
		RefElevation: refElevation,
	}, nil
}

// ProjectedWidth runs WidthAt against a reference derived from a pivot:
// pivotElevation + vertOffset (typically the LAMA point plus 3m).
func (d Detector) ProjectedWidth(p *profile.Profile, pivotOffset, pivotElevation, vertOffset float64) (Width, error) {
	return d.WidthAt(p, pivotOffset, pivotElevation+vertOffset)
}

// SnapToTerrain returns the valid sample nearest targetOffset within radius.
// Used for crown and LAMA placement from a user-indicated position.
func (d Detector) SnapToTerrain(p *profile.Profile, targetOffset, radius float64) (Crossing, error) {
	var best Crossing
	bestDiff := math.Inf(1)
	found := false
	for _, s := range validSamples(p) {
		diff := math.Abs(s.Offset - targetOffset)
		if diff > radius {
			continue
		}
		if diff < bestDiff {
			best = Crossing{Offset: s.Offset, Elevation: s.Elevation}
			bestDiff = diff
			found = true
		}
	}
	if !found {
		return Crossing{}, ErrNoTerrainInRadius
	}
	return best, nil
}

// SnapToReference searches the radius window around targetOffset for
// crossings of refElevation and returns the one closest to the target
// (ties keep the first found scanning from the negative-offset side). When
// the window has valid terrain but no crossing, it falls back to the sample
// whose elevation is closest to refElevation. An empty window fails with
// ErrNoTerrainInRadius.
func (d Detector) SnapToReference(p *profile.Profile, targetOffset, radius, refElevation float64) (Crossing, error) {
	var window []profile.Sample
	for _, s := range validSamples(p) {
		if math.Abs(s.Offset-targetOffset) <= radius {
			window = append(window, s)
		}
	}
	if len(window) == 0 {
		return Crossing{}, ErrNoTerrainInRadius
	}

	var best Crossing
	bestDiff := math.Inf(1)
	found := false
	for i := 0; i < len(window)-1; i++ {
		c, ok := d.interpolate(window[i], window[i+1], refElevation)
		if !ok {
			continue
		}
		// Strict < keeps the first (more negative) crossing on exact ties.
		if diff := math.Abs(c.Offset - targetOffset); diff < bestDiff {
			best, bestDiff = c, diff
			found = true
		}
	}
	if found {
		return best, nil
	}

	// Closest terrain point fallback: nearest elevation, not nearest offset.
	best = Crossing{Offset: window[0].Offset, Elevation: window[0].Elevation}
	bestDiff = math.Abs(window[0].Elevation - refElevation)
	for _, s := range window[1:] {
		if diff := math.Abs(s.Elevation - refElevation); diff < bestDiff {
			best = Crossing{Offset: s.Offset, Elevation: s.Elevation}
			bestDiff = diff
		}
	}
	return best, nil
}

// scanOutward walks sample pairs ordered nearest-to-furthest from the
// reference point and returns the first bracketing crossing. Crossings at
// the pivot offset itself are skipped: in freeboard mode the pivot sample
// sits exactly on the reference line and would report a zero-width crossing.
func (d Detector) scanOutward(samples []profile.Sample, pivot, refElevation float64) (Crossing, bool) {
	for i := 0; i < len(samples)-1; i++ {
		c, ok := d.interpolate(samples[i], samples[i+1], refElevation)
		if !ok || math.Abs(c.Offset-pivot) < 1e-9 {
			continue
		}
		return c, true
	}
	return Crossing{}, false
}

// interpolate tests whether refElevation lies between the two samples'
// elevations and, if so, returns the linear crossing point. A pair level
// with the reference (delta under tolerance) snaps to the first sample.
func (d Detector) interpolate(a, b profile.Sample, refElevation float64) (Crossing, bool) {
	if (a.Elevation-refElevation)*(b.Elevation-refElevation) > 0 {
		return Crossing{}, false
	}
	delta := b.Elevation - a.Elevation
	if math.Abs(delta) < d.tolerance() {
		if math.Abs(a.Elevation-refElevation) >= d.tolerance() {
			return Crossing{}, false
		}
		return Crossing{Offset: a.Offset, Elevation: refElevation}, true
	}
	ratio := (refElevation - a.Elevation) / delta
	return Crossing{
		Offset:    a.Offset + ratio*(b.Offset-a.Offset),
		Elevation: refElevation,
	}, true
}

// validSamples filters a profile down to its valid samples, preserving
// offset order. Invalid gaps are skipped so bracketing pairs are always
// consecutive valid terrain.
func validSamples(p *profile.Profile) []profile.Sample {
	out := make([]profile.Sample, 0, len(p.Samples))
	for _, s := range p.Samples {
		if s.Valid {
			out = append(out, s)
		}
	}
	return out
}

// leftOf returns samples at or below the pivot offset, ordered nearest
// first (decreasing offset). The pivot sample is included so a crossing in
// the first interval is not missed; scanOutward discards the degenerate
// crossing at the pivot itself.
func leftOf(samples []profile.Sample, pivot float64) []profile.Sample {
	var out []profile.Sample
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Offset <= pivot {
			out = append(out, samples[i])
		}
	}
	return out
}

// rightOf returns samples at or above the pivot offset, nearest first.
func rightOf(samples []profile.Sample, pivot float64) []profile.Sample {
	var out []profile.Sample
	for _, s := range samples {
		if s.Offset >= pivot {
			out = append(out, s)
		}
	}
	return out
}
