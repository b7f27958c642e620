package alignment

import (
	"fmt"
	"math"

	"github.com/crest-data/freeboard.report/internal/units"
)

// Straight synthesises an alignment between two endpoints with stations every
// interval metres plus the exact endpoint. The bearing is constant: the
// mathematical angle of the segment (degrees counter-clockwise from +X).
func Straight(name string, startX, startY, endX, endY, interval float64) (*Alignment, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %v", ErrMalformedAlignment, interval)
	}
	dx := endX - startX
	dy := endY - startY
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, fmt.Errorf("%w: start and end coincide", ErrMalformedAlignment)
	}
	bearing := units.NormalizeBearing(math.Atan2(dy, dx) * 180 / math.Pi)

	var stations []Station
	for chainage := 0.0; chainage < length; chainage += interval {
		t := chainage / length
		stations = append(stations, Station{
			Chainage: chainage,
			X:        startX + t*dx,
			Y:        startY + t*dy,
			Bearing:  bearing,
		})
	}
	stations = append(stations, Station{
		Chainage: length,
		X:        endX,
		Y:        endY,
		Bearing:  bearing,
	})

	return New(name, stations)
}

// Vertex is one point of a centreline polyline.
type Vertex struct {
	X, Y float64
}

// FromPolyline samples a polyline centreline every interval metres plus the
// exact end vertex. The bearing at each station is the tangent direction of
// the segment the station falls on; a station landing exactly on an interior
// vertex gets the circular mean of the adjacent segment directions. Using
// the tangent rather than a chord to a neighbouring station keeps
// cross-sections truly perpendicular through curves.
func FromPolyline(name string, vertices []Vertex, interval float64) (*Alignment, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %v", ErrMalformedAlignment, interval)
	}
	if len(vertices) < 2 {
		return nil, fmt.Errorf("%w: polyline needs at least 2 vertices", ErrMalformedAlignment)
	}

	type segment struct {
		x, y    float64 // start point
		dx, dy  float64 // unit direction
		len     float64
		startCh float64
		bearing float64
	}

	segs := make([]segment, 0, len(vertices)-1)
	chainage := 0.0
	for i := 0; i < len(vertices)-1; i++ {
		dx := vertices[i+1].X - vertices[i].X
		dy := vertices[i+1].Y - vertices[i].Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			return nil, fmt.Errorf("%w: zero-length segment at vertex %d", ErrMalformedAlignment, i)
		}
		segs = append(segs, segment{
			x: vertices[i].X, y: vertices[i].Y,
			dx: dx / l, dy: dy / l,
			len:     l,
			startCh: chainage,
			bearing: units.NormalizeBearing(math.Atan2(dy, dx) * 180 / math.Pi),
		})
		chainage += l
	}
	total := chainage

	const vertexEps = 1e-9

	bearingAt := func(ch float64) float64 {
		for i, s := range segs {
			if ch < s.startCh-vertexEps || ch > s.startCh+s.len+vertexEps {
				continue
			}
			// Interior vertex: blend the two adjacent tangents.
			if i > 0 && math.Abs(ch-s.startCh) <= vertexEps {
				return meanBearing(segs[i-1].bearing, s.bearing)
			}
			if i < len(segs)-1 && math.Abs(ch-(s.startCh+s.len)) <= vertexEps {
				return meanBearing(s.bearing, segs[i+1].bearing)
			}
			return s.bearing
		}
		return segs[len(segs)-1].bearing
	}

	positionAt := func(ch float64) (float64, float64) {
		for _, s := range segs {
			if ch <= s.startCh+s.len+vertexEps {
				d := ch - s.startCh
				return s.x + d*s.dx, s.y + d*s.dy
			}
		}
		last := segs[len(segs)-1]
		return last.x + last.len*last.dx, last.y + last.len*last.dy
	}

	var stations []Station
	for ch := 0.0; ch < total; ch += interval {
		x, y := positionAt(ch)
		stations = append(stations, Station{Chainage: ch, X: x, Y: y, Bearing: bearingAt(ch)})
	}
	endX, endY := positionAt(total)
	stations = append(stations, Station{Chainage: total, X: endX, Y: endY, Bearing: segs[len(segs)-1].bearing})

	return New(name, stations)
}

// meanBearing averages two bearings on the circle, so 350 and 10 blend to 0
// rather than 180.
func meanBearing(a, b float64) float64 {
	ar := a * math.Pi / 180
	br := b * math.Pi / 180
	x := math.Cos(ar) + math.Cos(br)
	y := math.Sin(ar) + math.Sin(br)
	if x == 0 && y == 0 {
		return units.NormalizeBearing(a)
	}
	return units.NormalizeBearing(math.Atan2(y, x) * 180 / math.Pi)
}
