package profile

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/crest-data/freeboard.report/internal/alignment"
	"github.com/crest-data/freeboard.report/internal/terrain"
	"github.com/crest-data/freeboard.report/internal/units"
)

// ErrDegenerateGeometry reports a station whose bearing cannot define a
// perpendicular direction.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Generator produces cross-section profiles. It is stateless and safe for
// concurrent use.
type Generator struct{}

// Generate samples a perpendicular line at the station from -halfWidth to
// +halfWidth every step metres. Offset 0 coincides exactly with the station
// position. Samples over nodata or out-of-grid terrain are emitted invalid
// rather than dropped, so the sample count is always floor(2h/s)+1.
// Non-positive halfWidth or step yields an empty profile.
func (Generator) Generate(st alignment.Station, surf *terrain.Surface, halfWidth, step float64) (*Profile, error) {
	if math.IsNaN(st.Bearing) || math.IsInf(st.Bearing, 0) {
		return nil, fmt.Errorf("%w: station %s has undefined bearing", ErrDegenerateGeometry, st.PK)
	}

	p := &Profile{
		Chainage:  st.Chainage,
		PK:        st.PK,
		Bearing:   st.Bearing,
		CenterX:   st.X,
		CenterY:   st.Y,
		HalfWidth: halfWidth,
		Step:      step,
	}
	if halfWidth <= 0 || step <= 0 {
		return p, nil
	}

	ux, uy := units.BearingVector(units.PerpendicularBearing(st.Bearing))

	count := int(math.Floor(2*halfWidth/step)) + 1
	p.Samples = make([]Sample, 0, count)
	for i := 0; i < count; i++ {
		offset := float64(i)*step - halfWidth
		x := st.X + offset*ux
		y := st.Y + offset*uy
		elev, ok := surf.ElevationAt(x, y)
		if !ok {
			elev = 0
		}
		p.Samples = append(p.Samples, Sample{
			Offset:    offset,
			X:         x,
			Y:         y,
			Elevation: elev,
			Valid:     ok,
		})
	}
	return p, nil
}

// Progress receives batch progress as completed and total station counts.
type Progress func(done, total int)

// GenerateAll runs Generate for every station sequentially. Cancellation via
// ctx stops dispatching further stations; profiles generated so far are
// returned alongside ctx.Err(). A nil progress callback is allowed.
func (g Generator) GenerateAll(ctx context.Context, al *alignment.Alignment, surf *terrain.Surface, halfWidth, step float64, progress Progress) ([]*Profile, error) {
	stations := al.Stations()
	profiles := make([]*Profile, 0, len(stations))
	for i, st := range stations {
		select {
		case <-ctx.Done():
			return profiles, ctx.Err()
		default:
		}
		p, err := g.Generate(st, surf, halfWidth, step)
		if err != nil {
			return profiles, fmt.Errorf("station %s: %w", st.PK, err)
		}
		profiles = append(profiles, p)
		if progress != nil {
			progress(i+1, len(stations))
		}
	}
	return profiles, nil
}
