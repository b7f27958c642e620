// Package alignment models a wall centreline as an ordered sequence of
// stations. Each station carries a tangent bearing: the direction of travel
// of the path at that exact chainage, which fixes the perpendicular used for
// cross-sections. Alignments are immutable once constructed.
package alignment

import (
	"errors"
	"fmt"
	"math"

	"github.com/crest-data/freeboard.report/internal/units"
)

// ErrMalformedAlignment reports stations with duplicate or decreasing
// chainage, or too few stations to define a path.
var ErrMalformedAlignment = errors.New("malformed alignment")

// Station is one sampling position along the centreline.
type Station struct {
	Chainage float64 // metres along the alignment
	PK       string  // survey label, e.g. "0+020"
	X, Y     float64 // world coordinates
	Bearing  float64 // tangent bearing in degrees, [0, 360)

	// RefElevation optionally carries a design reference elevation for the
	// station (used to seed width detection when no crown has been picked).
	RefElevation *float64
}

// Alignment owns an ordered, chainage-keyed sequence of stations.
type Alignment struct {
	name     string
	stations []Station
}

// New validates and constructs an alignment. Chainage must be strictly
// increasing; bearings must be finite. PK labels are filled in when empty.
func New(name string, stations []Station) (*Alignment, error) {
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: no stations", ErrMalformedAlignment)
	}
	for i := range stations {
		st := &stations[i]
		if math.IsNaN(st.Bearing) || math.IsInf(st.Bearing, 0) {
			return nil, fmt.Errorf("%w: station %d has undefined bearing", ErrMalformedAlignment, i)
		}
		st.Bearing = units.NormalizeBearing(st.Bearing)
		if st.PK == "" {
			st.PK = units.FormatPK(st.Chainage)
		}
		if i > 0 && st.Chainage <= stations[i-1].Chainage {
			return nil, fmt.Errorf("%w: chainage %v at index %d is not strictly increasing",
				ErrMalformedAlignment, st.Chainage, i)
		}
	}
	cp := make([]Station, len(stations))
	copy(cp, stations)
	return &Alignment{name: name, stations: cp}, nil
}

// Name returns the wall name this alignment belongs to.
func (a *Alignment) Name() string { return a.name }

// Len returns the number of stations.
func (a *Alignment) Len() int { return len(a.stations) }

// Stations returns the stations in chainage order. The slice is a copy;
// mutating it does not affect the alignment.
func (a *Alignment) Stations() []Station {
	cp := make([]Station, len(a.stations))
	copy(cp, a.stations)
	return cp
}

// StationAt returns the station with exactly the given chainage.
func (a *Alignment) StationAt(chainage float64) (Station, bool) {
	for _, st := range a.stations {
		if st.Chainage == chainage {
			return st, true
		}
	}
	return Station{}, false
}

// Nearest returns the station whose chainage is closest to the given value.
func (a *Alignment) Nearest(chainage float64) Station {
	best := a.stations[0]
	bestDiff := math.Abs(best.Chainage - chainage)
	for _, st := range a.stations[1:] {
		if d := math.Abs(st.Chainage - chainage); d < bestDiff {
			best, bestDiff = st, d
		}
	}
	return best
}

// TotalLength returns the chainage span covered by the alignment.
func (a *Alignment) TotalLength() float64 {
	return a.stations[len(a.stations)-1].Chainage - a.stations[0].Chainage
}

// Coverage reports how many stations fall inside the extent of the given
// bounds, as a quick sanity check that a DEM actually covers the wall.
func (a *Alignment) Coverage(contains func(x, y float64) bool) (inside, total int) {
	for _, st := range a.stations {
		if contains(st.X, st.Y) {
			inside++
		}
	}
	return inside, len(a.stations)
}
