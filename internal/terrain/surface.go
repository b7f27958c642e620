// Package terrain wraps a regular elevation grid (a DEM) and answers point
// elevation queries with bilinear interpolation. The grid is immutable after
// construction so lookups are safe from any goroutine.
package terrain

import (
	"fmt"
	"math"
)

// DefaultNoData is the sentinel used when the source grid does not declare one.
const DefaultNoData = -9999.0

// Surface is an immutable elevation grid. The origin is the lower-left
// (south-west) corner; rows are stored north-to-south, matching the source
// raster layout.
type Surface struct {
	originX, originY float64
	cellSize         float64
	rows, cols       int
	nodata           float64
	values           []float64 // row-major, row 0 = northernmost
}

// NewSurface builds a Surface from a row-major value slice. Row 0 holds the
// northernmost cells. The value slice is not copied; callers hand over
// ownership.
func NewSurface(originX, originY, cellSize float64, rows, cols int, values []float64, nodata float64) (*Surface, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("value count %d does not match %dx%d grid", len(values), rows, cols)
	}
	return &Surface{
		originX:  originX,
		originY:  originY,
		cellSize: cellSize,
		rows:     rows,
		cols:     cols,
		nodata:   nodata,
		values:   values,
	}, nil
}

// ElevationAt returns the bilinearly interpolated elevation at a world
// coordinate. The second return is false when the point falls outside the
// grid or any of the four enclosing corners is a nodata cell; no partial
// interpolation is attempted since it would silently bias measurements.
func (s *Surface) ElevationAt(x, y float64) (float64, bool) {
	col := (x - s.originX) / s.cellSize
	row := (s.originY + float64(s.rows)*s.cellSize - y) / s.cellSize

	if col < 0 || col >= float64(s.cols-1) || row < 0 || row >= float64(s.rows-1) {
		return 0, false
	}

	ci := int(col)
	ri := int(row)

	z11 := s.values[ri*s.cols+ci]
	z12 := s.values[ri*s.cols+ci+1]
	z21 := s.values[(ri+1)*s.cols+ci]
	z22 := s.values[(ri+1)*s.cols+ci+1]

	if s.isNoData(z11) || s.isNoData(z12) || s.isNoData(z21) || s.isNoData(z22) {
		return 0, false
	}

	dx := col - float64(ci)
	dy := row - float64(ri)

	z1 := z11*(1-dx) + z12*dx
	z2 := z21*(1-dx) + z22*dx
	return z1*(1-dy) + z2*dy, true
}

func (s *Surface) isNoData(v float64) bool {
	return v == s.nodata || math.IsNaN(v)
}

// Bounds returns the world-coordinate extent of the grid.
func (s *Surface) Bounds() (xmin, ymin, xmax, ymax float64) {
	return s.originX,
		s.originY,
		s.originX + float64(s.cols)*s.cellSize,
		s.originY + float64(s.rows)*s.cellSize
}

// Contains reports whether a world coordinate falls inside the grid extent.
// A point may be contained yet still yield an invalid elevation if it touches
// nodata cells.
func (s *Surface) Contains(x, y float64) bool {
	xmin, ymin, xmax, ymax := s.Bounds()
	return x >= xmin && x <= xmax && y >= ymin && y <= ymax
}

// Rows returns the grid row count.
func (s *Surface) Rows() int { return s.rows }

// Cols returns the grid column count.
func (s *Surface) Cols() int { return s.cols }

// CellSize returns the grid cell size in world units.
func (s *Surface) CellSize() float64 { return s.cellSize }

// NoData returns the nodata sentinel declared by the source grid.
func (s *Surface) NoData() float64 { return s.nodata }

// Info summarises the grid for diagnostics and validation reports.
type Info struct {
	Rows, Cols             int
	CellSize               float64
	Xmin, Ymin, Xmax, Ymax float64
	NoData                 float64
	ValidCells             int
}

// Info scans the grid once and returns its summary.
func (s *Surface) Info() Info {
	valid := 0
	for _, v := range s.values {
		if !s.isNoData(v) {
			valid++
		}
	}
	xmin, ymin, xmax, ymax := s.Bounds()
	return Info{
		Rows:       s.rows,
		Cols:       s.cols,
		CellSize:   s.cellSize,
		Xmin:       xmin,
		Ymin:       ymin,
		Xmax:       xmax,
		Ymax:       ymax,
		NoData:     s.nodata,
		ValidCells: valid,
	}
}
