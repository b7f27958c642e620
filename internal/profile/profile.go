// Package profile generates cross-section profiles perpendicular to an
// alignment and answers simple queries over them. Generators are stateless;
// profiles are built fresh per station and never mutated.
package profile

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Sample is one point of a cross-section. Invalid samples (outside the DEM
// or touching nodata) are kept in place so offsets stay index-aligned for
// the detection scans; Valid is false and Elevation is zero for them.
type Sample struct {
	Offset    float64 // signed metres from the centreline, negative = left
	X, Y      float64 // world coordinates
	Elevation float64
	Valid     bool
}

// Profile is an ordered cross-section at one station. Samples are strictly
// increasing in offset with uniform spacing.
type Profile struct {
	Chainage  float64
	PK        string
	Bearing   float64
	CenterX   float64
	CenterY   float64
	HalfWidth float64
	Step      float64
	Samples   []Sample
}

// ValidCount returns the number of samples with a usable elevation.
func (p *Profile) ValidCount() int {
	n := 0
	for _, s := range p.Samples {
		if s.Valid {
			n++
		}
	}
	return n
}

// SampleNearest returns the valid sample closest to the given offset.
func (p *Profile) SampleNearest(offset float64) (Sample, bool) {
	var best Sample
	bestDiff := math.Inf(1)
	found := false
	for _, s := range p.Samples {
		if !s.Valid {
			continue
		}
		if d := math.Abs(s.Offset - offset); d < bestDiff {
			best, bestDiff = s, d
			found = true
		}
	}
	return best, found
}

// Stats summarises the valid elevations of a profile.
type Stats struct {
	ValidCount int
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
	Range      float64
}

// Stats computes elevation statistics over the valid samples. The zero Stats
// is returned when the profile has no valid samples.
func (p *Profile) Stats() Stats {
	elevs := make([]float64, 0, len(p.Samples))
	for _, s := range p.Samples {
		if s.Valid {
			elevs = append(elevs, s.Elevation)
		}
	}
	if len(elevs) == 0 {
		return Stats{}
	}

	min, max := elevs[0], elevs[0]
	for _, e := range elevs[1:] {
		if e < min {
			min = e
		}
		if e > max {
			max = e
		}
	}
	mean, std := stat.MeanStdDev(elevs, nil)
	if len(elevs) < 2 {
		std = 0
	}
	return Stats{
		ValidCount: len(elevs),
		Min:        min,
		Max:        max,
		Mean:       mean,
		StdDev:     std,
		Range:      max - min,
	}
}

// HighestSample returns the valid sample with the maximum elevation whose
// offset lies within [-window, +window] of the centreline. Crown placement
// starts from this point when no manual pick exists.
func (p *Profile) HighestSample(window float64) (Sample, bool) {
	var best Sample
	found := false
	for _, s := range p.Samples {
		if !s.Valid || math.Abs(s.Offset) > window {
			continue
		}
		if !found || s.Elevation > best.Elevation {
			best = s
			found = true
		}
	}
	return best, found
}
