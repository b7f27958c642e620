// Package lama loads surveyed water-edge ("LAMA") points and projects them
// onto alignment stations so the analyzer can seed its LAMA placements.
// Points arrive as Perfil,X,Y rows in CSV; one point maps to one numbered
// cross-section profile.
package lama

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/crest-data/freeboard.report/internal/alignment"
	"github.com/crest-data/freeboard.report/internal/monitoring"
	"github.com/crest-data/freeboard.report/internal/terrain"
	"github.com/crest-data/freeboard.report/internal/units"
)

// Point is a surveyed LAMA point tied to a numbered profile. Elevation is
// filled later from the terrain surface; HasElevation distinguishes a
// missing extraction from a zero one.
type Point struct {
	Profile      int
	X, Y         float64
	Elevation    float64
	HasElevation bool
}

// LoadCSV reads Perfil,X,Y rows. Blank lines, #-comments and a header row
// starting with "Perfil" are skipped; malformed rows are logged and dropped
// rather than failing the whole file.
func LoadCSV(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []Point
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read lama csv: %w", err)
		}
		line++
		if len(rec) < 3 || strings.EqualFold(strings.TrimSpace(rec[0]), "Perfil") {
			continue
		}

		profile, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			monitoring.Logf("lama: line %d: bad profile number %q, skipping", line, rec[0])
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if errX != nil || errY != nil {
			monitoring.Logf("lama: line %d: bad coordinates, skipping", line)
			continue
		}
		points = append(points, Point{Profile: profile, X: x, Y: y})
	}
	return points, nil
}

// LoadFile reads a LAMA points CSV from disk.
func LoadFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lama csv: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// Set indexes LAMA points by profile number for a given station interval.
// Profile numbering starts at 1 for chainage 0.
type Set struct {
	interval float64
	byNumber map[int]*Point
}

// NewSet builds a set from loaded points. Duplicate profile numbers keep
// the first point.
func NewSet(points []Point, interval float64) (*Set, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("station interval must be positive, got %v", interval)
	}
	s := &Set{interval: interval, byNumber: make(map[int]*Point, len(points))}
	for i := range points {
		p := points[i]
		if _, dup := s.byNumber[p.Profile]; dup {
			monitoring.Logf("lama: duplicate point for profile %d, keeping the first", p.Profile)
			continue
		}
		s.byNumber[p.Profile] = &p
	}
	return s, nil
}

// Len returns the number of indexed points.
func (s *Set) Len() int { return len(s.byNumber) }

// ExtractElevations samples the surface at every point. Points outside the
// surface or over NODATA cells are left without an elevation. Returns the
// counts of extracted and failed points.
func (s *Set) ExtractElevations(surf *terrain.Surface) (extracted, failed int) {
	for _, p := range s.byNumber {
		elev, ok := surf.ElevationAt(p.X, p.Y)
		if !ok {
			monitoring.Logf("lama: profile %d point (%.2f, %.2f) has no terrain", p.Profile, p.X, p.Y)
			p.HasElevation = false
			failed++
			continue
		}
		p.Elevation = elev
		p.HasElevation = true
		extracted++
	}
	return extracted, failed
}

// ForProfileNumber returns the point assigned to a 1-based profile number.
func (s *Set) ForProfileNumber(n int) (Point, bool) {
	p, ok := s.byNumber[n]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// ForStation projects the station's LAMA point onto its cross-section and
// returns the signed perpendicular offset and the extracted elevation.
// Chainage 0 is profile 1, one profile per interval. ok is false when the
// station has no point or its elevation was never extracted.
func (s *Set) ForStation(st alignment.Station) (offset, elevation float64, ok bool) {
	n := int(st.Chainage/s.interval) + 1
	p, found := s.byNumber[n]
	if !found || !p.HasElevation {
		return 0, 0, false
	}

	ux, uy := units.BearingVector(units.PerpendicularBearing(st.Bearing))
	dx := p.X - st.X
	dy := p.Y - st.Y
	return dx*ux + dy*uy, p.Elevation, true
}

// DistanceToStation reports how far a profile's point sits from its station,
// useful for flagging survey/alignment mismatches.
func (s *Set) DistanceToStation(st alignment.Station) (float64, bool) {
	n := int(st.Chainage/s.interval) + 1
	p, found := s.byNumber[n]
	if !found {
		return 0, false
	}
	return math.Hypot(p.X-st.X, p.Y-st.Y), true
}
