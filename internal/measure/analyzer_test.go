package measure

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/crest-data/freeboard.report/internal/alignment"
	"github.com/crest-data/freeboard.report/internal/config"
	"github.com/crest-data/freeboard.report/internal/monitoring"
	"github.com/crest-data/freeboard.report/internal/terrain"
)

// crest is a synthetic embankment cross-section as a function of the signed
// perpendicular distance from the centreline: a gently crowned crest at 104,
// slopes dropping to 100, and berms rising to 105 before falling away.
func crest(dy float64) float64 {
	ad := math.Abs(dy)
	switch {
	case ad <= 8:
		return 104 - 0.5*ad
	case ad <= 13:
		return 100 + (ad - 8)
	default:
		return 105 - 0.5*(ad-13)
	}
}

// embankmentSurface extrudes crest along the x axis on a 60x60 grid with
// 1m cells, centreline at y=30.
func embankmentSurface(t *testing.T) *terrain.Surface {
	t.Helper()
	const rows, cols = 60, 60
	values := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			values[r*cols+c] = crest(float64(30 - r))
		}
	}
	surf, err := terrain.NewSurface(0, 0, 1, rows, cols, values, terrain.DefaultNoData)
	if err != nil {
		t.Fatal(err)
	}
	return surf
}

func analyzerConfig() *config.TuningConfig {
	f := func(v float64) *float64 { return &v }
	return &config.TuningConfig{
		HalfWidth:            f(20),
		Step:                 f(1),
		StationInterval:      f(20),
		SnapRadius:           f(5),
		CrownSearchHalfWidth: f(10),
		ProjectedOffset:      f(1),
	}
}

func wallAlignment(t *testing.T) *alignment.Alignment {
	t.Helper()
	al, err := alignment.Straight("muro", 10, 30, 50, 30, 20)
	if err != nil {
		t.Fatal(err)
	}
	return al
}

func seedAt(offset, elevation float64) LamaSeed {
	return func(alignment.Station) (float64, float64, bool) {
		return offset, elevation, true
	}
}

func TestAnalyzerFreeboardRun(t *testing.T) {
	surf := embankmentSurface(t)
	al := wallAlignment(t)
	sess, err := NewSession("muro", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}

	var calls [][2]int
	a := NewAnalyzer(surf, analyzerConfig(), seedAt(-18, 102.5))
	if err := a.Run(context.Background(), al, sess, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}); err != nil {
		t.Fatal(err)
	}

	if len(calls) != 3 || calls[2] != [2]int{3, 3} {
		t.Errorf("progress calls = %v", calls)
	}
	if sess.Len() != 3 {
		t.Fatalf("records = %d, want 3", sess.Len())
	}

	for _, rec := range sess.Records() {
		if !rec.Crown.Set || !rec.Crown.Automatic {
			t.Fatalf("chainage %v: crown = %+v", rec.Chainage, rec.Crown)
		}
		if rec.Crown.Offset != 0 || rec.Crown.Elevation != 104 {
			t.Errorf("chainage %v: crown at (%v, %v), want (0, 104)", rec.Chainage, rec.Crown.Offset, rec.Crown.Elevation)
		}
		if !rec.Lama.Set || rec.Lama.Offset != -18 || rec.Lama.Elevation != 102.5 {
			t.Errorf("chainage %v: lama = %+v", rec.Chainage, rec.Lama)
		}
		if fb, ok := rec.Freeboard(); !ok || fb != 1.5 {
			t.Errorf("chainage %v: freeboard = %v, %v", rec.Chainage, fb, ok)
		}

		// The line at crown elevation re-crosses the berms at +/-12.
		if !rec.Width.Set || !rec.Width.Automatic {
			t.Fatalf("chainage %v: width = %+v", rec.Chainage, rec.Width)
		}
		if math.Abs(rec.Width.Left.Offset+12) > 1e-9 || math.Abs(rec.Width.Right.Offset-12) > 1e-9 {
			t.Errorf("chainage %v: width endpoints %v..%v, want -12..12", rec.Chainage, rec.Width.Left.Offset, rec.Width.Right.Offset)
		}
		if rec.Width.RefElevation != 104 {
			t.Errorf("chainage %v: width ref = %v, want 104", rec.Chainage, rec.Width.RefElevation)
		}
	}

	if _, ok := sess.Profile(20); !ok {
		t.Error("cross-section not cached for chainage 20")
	}
}

func TestAnalyzerProjectedWidthRun(t *testing.T) {
	surf := embankmentSurface(t)
	al := wallAlignment(t)
	sess, err := NewSession("muro", ModeProjectedWidth)
	if err != nil {
		t.Fatal(err)
	}

	a := NewAnalyzer(surf, analyzerConfig(), seedAt(-18, 102.5))
	if err := a.Run(context.Background(), al, sess, nil); err != nil {
		t.Fatal(err)
	}

	for _, rec := range sess.Records() {
		// Reference is lama 102.5 + 1m; the crest flanks cross it at +/-1.
		if !rec.Width.Set {
			t.Fatalf("chainage %v: no width", rec.Chainage)
		}
		if rec.Width.RefElevation != 103.5 {
			t.Errorf("chainage %v: width ref = %v, want 103.5", rec.Chainage, rec.Width.RefElevation)
		}
		if math.Abs(rec.Width.Distance-2) > 1e-9 {
			t.Errorf("chainage %v: distance = %v, want 2", rec.Chainage, rec.Width.Distance)
		}
	}
}

func TestAnalyzerPreservesManualFields(t *testing.T) {
	surf := embankmentSurface(t)
	al := wallAlignment(t)
	sess, err := NewSession("muro", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	sess.Apply(20, func(r *Record) {
		r.SetCrownManual(1, 103.5)
	})

	a := NewAnalyzer(surf, analyzerConfig(), seedAt(-18, 102.5))
	if err := a.Run(context.Background(), al, sess, nil); err != nil {
		t.Fatal(err)
	}

	rec, _ := sess.Get(20)
	if rec.Crown.Automatic || rec.Crown.Offset != 1 || rec.Crown.Elevation != 103.5 {
		t.Errorf("manual crown lost: %+v", rec.Crown)
	}
	// Width detection follows the manual crown.
	if !rec.Width.Set || rec.Width.RefElevation != 103.5 {
		t.Errorf("width = %+v, want ref 103.5", rec.Width)
	}

	// Untouched stations still detect automatically.
	other, _ := sess.Get(0)
	if !other.Crown.Automatic || other.Crown.Elevation != 104 {
		t.Errorf("automatic crown at chainage 0 = %+v", other.Crown)
	}
}

func TestAnalyzerWithoutSeedLeavesLamaUnset(t *testing.T) {
	surf := embankmentSurface(t)
	al := wallAlignment(t)
	sess, err := NewSession("muro", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}

	a := NewAnalyzer(surf, analyzerConfig(), nil)
	if err := a.Run(context.Background(), al, sess, nil); err != nil {
		t.Fatal(err)
	}

	rec, _ := sess.Get(0)
	if rec.Lama.Set {
		t.Errorf("lama = %+v, want unset without seed data", rec.Lama)
	}
	if _, ok := rec.Freeboard(); ok {
		t.Error("freeboard derived without a lama point")
	}
	// Crown and width do not depend on the seed.
	if !rec.Crown.Set || !rec.Width.Set {
		t.Errorf("crown/width = %+v / %+v, want both set", rec.Crown, rec.Width)
	}
}

func TestAnalyzerOffSurfaceStationsAreSkipped(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(prev)

	surf := embankmentSurface(t)
	al, err := alignment.Straight("fuera", -100, 30, -60, 30, 20)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := NewSession("muro", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}

	a := NewAnalyzer(surf, analyzerConfig(), nil)
	if err := a.Run(context.Background(), al, sess, nil); err != nil {
		t.Fatal(err)
	}
	if sess.Len() != 0 {
		t.Errorf("records = %d, want 0 for stations off the surface", sess.Len())
	}
}

func TestAnalyzerDesignElevationFallback(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(prev)

	// Crest band erased: no crown can be picked, the width walk has to use
	// the station's design elevation instead.
	const rows, cols = 60, 60
	values := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		dy := float64(30 - r)
		v := crest(dy)
		if math.Abs(dy) <= 10 {
			v = terrain.DefaultNoData
		}
		for c := 0; c < cols; c++ {
			values[r*cols+c] = v
		}
	}
	surf, err := terrain.NewSurface(0, 0, 1, rows, cols, values, terrain.DefaultNoData)
	if err != nil {
		t.Fatal(err)
	}

	sess, err := NewSession("muro", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	ref := 104.0
	st := alignment.Station{Chainage: 0, PK: "0+000", X: 30, Y: 30, RefElevation: &ref}

	a := NewAnalyzer(surf, analyzerConfig(), nil)
	a.AnalyzeStation(st, sess)

	rec, ok := sess.Get(0)
	if !ok {
		t.Fatal("no record created")
	}
	if rec.Crown.Set {
		t.Fatalf("crown = %+v, want unset over the erased band", rec.Crown)
	}
	if !rec.Width.Set || rec.Width.RefElevation != 104 {
		t.Fatalf("width = %+v, want automatic at design elevation 104", rec.Width)
	}
	if rec.Width.Left.Offset != -12 || rec.Width.Right.Offset != 12 {
		t.Errorf("width endpoints = %.1f / %.1f, want -12 / 12",
			rec.Width.Left.Offset, rec.Width.Right.Offset)
	}
}

func TestAnalyzerRunCancellation(t *testing.T) {
	surf := embankmentSurface(t)
	al := wallAlignment(t)
	sess, err := NewSession("muro", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(surf, analyzerConfig(), nil)
	if err := a.Run(ctx, al, sess, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if sess.Len() != 0 {
		t.Errorf("records = %d, want 0 after immediate cancel", sess.Len())
	}
}
