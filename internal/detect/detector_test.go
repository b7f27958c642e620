package detect

import (
	"errors"
	"math"
	"testing"

	"github.com/crest-data/freeboard.report/internal/profile"
)

// sectionOf builds a profile from parallel offset/elevation slices. A NaN
// elevation marks an invalid sample.
func sectionOf(t *testing.T, offsets, elevations []float64) *profile.Profile {
	t.Helper()
	if len(offsets) != len(elevations) {
		t.Fatal("offsets and elevations must align")
	}
	p := &profile.Profile{PK: "0+000"}
	for i := range offsets {
		s := profile.Sample{Offset: offsets[i], Elevation: elevations[i], Valid: true}
		if math.IsNaN(elevations[i]) {
			s.Elevation = 0
			s.Valid = false
		}
		p.Samples = append(p.Samples, s)
	}
	return p
}

func TestWidthAtSpecExample(t *testing.T) {
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{100, 101, 103, 101, 99},
	)

	w, err := Detector{}.WidthAt(p, 0, 101)
	if err != nil {
		t.Fatalf("WidthAt: %v", err)
	}
	if math.Abs(w.Left.Offset-(-1)) > 1e-9 {
		t.Errorf("left offset = %v, want -1", w.Left.Offset)
	}
	if math.Abs(w.Right.Offset-1) > 1e-9 {
		t.Errorf("right offset = %v, want 1", w.Right.Offset)
	}
	if math.Abs(w.Distance-2) > 1e-9 {
		t.Errorf("distance = %v, want 2", w.Distance)
	}
	if w.RefElevation != 101 {
		t.Errorf("ref elevation = %v, want 101", w.RefElevation)
	}
}

func TestWidthAtInterpolatesBetweenSamples(t *testing.T) {
	// Reference 100.5 crosses halfway between adjacent samples.
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{100, 101, 103, 101, 100},
	)

	w, err := Detector{}.WidthAt(p, 0, 100.5)
	if err != nil {
		t.Fatalf("WidthAt: %v", err)
	}
	if math.Abs(w.Left.Offset-(-1.5)) > 1e-9 {
		t.Errorf("left offset = %v, want -1.5", w.Left.Offset)
	}
	if math.Abs(w.Right.Offset-1.5) > 1e-9 {
		t.Errorf("right offset = %v, want 1.5", w.Right.Offset)
	}
}

func TestWidthAtFirstBracketWins(t *testing.T) {
	// Terrain re-crosses the reference further out on the right; the walk
	// outward must stop at the first bracketing pair.
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2, 3, 4},
		[]float64{100, 101, 103, 102, 100, 102, 100},
	)

	w, err := Detector{}.WidthAt(p, 0, 101)
	if err != nil {
		t.Fatalf("WidthAt: %v", err)
	}
	if w.Right.Offset >= 2 {
		t.Errorf("right offset = %v, expected first crossing before 2", w.Right.Offset)
	}
}

func TestWidthAtIdempotent(t *testing.T) {
	p := sectionOf(t,
		[]float64{-3, -2, -1, 0, 1, 2, 3},
		[]float64{99, 100.2, 101.7, 103, 101.9, 100.1, 99},
	)

	w1, err := Detector{}.WidthAt(p, 0, 101)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := Detector{}.WidthAt(p, 0, 101)
	if err != nil {
		t.Fatal(err)
	}
	if w1 != w2 {
		t.Errorf("repeated detection differs: %+v vs %+v", w1, w2)
	}
}

func TestWidthAtNoIntersectionOneSide(t *testing.T) {
	// The left side rises above 104 so it crosses; every sample to the
	// right stays below the reference, so that walk runs off the profile.
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{105, 104.5, 103, 100, 99},
	)

	if _, err := (Detector{}).WidthAt(p, 0, 104); !errors.Is(err, ErrNoIntersection) {
		t.Errorf("err = %v, want ErrNoIntersection", err)
	}
}

func TestWidthAtReferenceAboveEverything(t *testing.T) {
	p := sectionOf(t,
		[]float64{-1, 0, 1},
		[]float64{100, 101, 100},
	)
	if _, err := (Detector{}).WidthAt(p, 0, 200); !errors.Is(err, ErrNoIntersection) {
		t.Errorf("err = %v, want ErrNoIntersection", err)
	}
}

func TestWidthAtSkipsInvalidGaps(t *testing.T) {
	nan := math.NaN()
	// Invalid samples at +/-1; bracketing must use consecutive valid
	// samples across the gap.
	p := sectionOf(t,
		[]float64{-3, -2, -1, 0, 1, 2, 3},
		[]float64{99, 100, nan, 103, nan, 100, 99},
	)

	w, err := Detector{}.WidthAt(p, 0, 101)
	if err != nil {
		t.Fatalf("WidthAt: %v", err)
	}
	// Crossing interpolated between offset 0 (103) and offset 2 (100):
	// ratio (101-103)/(100-103) = 2/3 -> offset 4/3. Left mirrors it.
	if math.Abs(w.Right.Offset-4.0/3) > 1e-9 {
		t.Errorf("right offset = %v, want %v", w.Right.Offset, 4.0/3)
	}
	if math.Abs(w.Left.Offset+4.0/3) > 1e-9 {
		t.Errorf("left offset = %v, want %v", w.Left.Offset, -4.0/3)
	}
}

func TestProjectedWidthSharesAlgorithm(t *testing.T) {
	p := sectionOf(t,
		[]float64{-3, -2, -1, 0, 1, 2, 3},
		[]float64{99, 100.2, 101.7, 103, 101.9, 100.1, 99},
	)

	// LAMA at elevation 98 with +3 offset must equal a direct width at 101.
	direct, err := Detector{}.WidthAt(p, 0, 101)
	if err != nil {
		t.Fatal(err)
	}
	projected, err := Detector{}.ProjectedWidth(p, 0, 98, 3)
	if err != nil {
		t.Fatal(err)
	}
	if direct != projected {
		t.Errorf("projected width diverged: %+v vs %+v", projected, direct)
	}
}

func TestSnapToTerrain(t *testing.T) {
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{100, 101, 103, 101, 99},
	)

	c, err := Detector{}.SnapToTerrain(p, 0.8, 5)
	if err != nil {
		t.Fatal(err)
	}
	if c.Offset != 1 || c.Elevation != 101 {
		t.Errorf("snap = %+v, want offset 1 elevation 101", c)
	}
}

func TestSnapToTerrainRespectsRadius(t *testing.T) {
	nan := math.NaN()
	p := sectionOf(t,
		[]float64{-10, -1, 0, 1, 10},
		[]float64{100, nan, nan, nan, 99},
	)

	if _, err := (Detector{}).SnapToTerrain(p, 0, 5); !errors.Is(err, ErrNoTerrainInRadius) {
		t.Errorf("err = %v, want ErrNoTerrainInRadius", err)
	}

	// Widening the radius reaches the valid terrain.
	c, err := Detector{}.SnapToTerrain(p, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Offset) != 10 {
		t.Errorf("snap offset = %v, want +/-10", c.Offset)
	}
}

func TestSnapToReferencePicksNearestCrossing(t *testing.T) {
	// Two crossings of elevation 101: near offset -1 and near offset 1.
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{100, 102, 103, 102, 100},
	)

	c, err := Detector{}.SnapToReference(p, 1.2, 5, 101)
	if err != nil {
		t.Fatal(err)
	}
	// Crossings at -1.5 and 1.5; target 1.2 is nearer the right one.
	if math.Abs(c.Offset-1.5) > 1e-9 {
		t.Errorf("snap offset = %v, want 1.5", c.Offset)
	}
	if c.Elevation != 101 {
		t.Errorf("snap elevation = %v, want 101", c.Elevation)
	}
}

func TestSnapToReferenceTieKeepsNegativeSide(t *testing.T) {
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{100, 102, 103, 102, 100},
	)

	// Target 0 is equidistant from the crossings at -1.5 and 1.5.
	c, err := Detector{}.SnapToReference(p, 0, 5, 101)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Offset-(-1.5)) > 1e-9 {
		t.Errorf("tie broke to %v, want -1.5", c.Offset)
	}
}

func TestSnapToReferenceFallbackClosestElevation(t *testing.T) {
	// No crossing of 105 inside the window; fall back to the sample whose
	// elevation is closest to it.
	p := sectionOf(t,
		[]float64{-2, -1, 0, 1, 2},
		[]float64{100, 102, 103, 102, 100},
	)

	c, err := Detector{}.SnapToReference(p, 0, 5, 105)
	if err != nil {
		t.Fatal(err)
	}
	if c.Offset != 0 || c.Elevation != 103 {
		t.Errorf("fallback = %+v, want the offset-0 sample at 103", c)
	}
}

func TestSnapToReferenceEmptyWindow(t *testing.T) {
	nan := math.NaN()
	p := sectionOf(t,
		[]float64{-10, 0, 10},
		[]float64{100, nan, 100},
	)
	if _, err := (Detector{}).SnapToReference(p, 0, 2, 101); !errors.Is(err, ErrNoTerrainInRadius) {
		t.Errorf("err = %v, want ErrNoTerrainInRadius", err)
	}
}

func TestSnapResultsStayInsideRadius(t *testing.T) {
	p := sectionOf(t,
		[]float64{-6, -4, -2, 0, 2, 4, 6},
		[]float64{99, 100, 102, 103, 102, 100, 99},
	)

	for _, target := range []float64{-3, 0, 2.5} {
		c, err := Detector{}.SnapToReference(p, target, 3, 101)
		if err != nil {
			t.Fatalf("target %v: %v", target, err)
		}
		if math.Abs(c.Offset-target) > 3+1e-9 {
			t.Errorf("target %v: snap %v escaped radius", target, c.Offset)
		}

		s, err := Detector{}.SnapToTerrain(p, target, 3)
		if err != nil {
			t.Fatalf("target %v: %v", target, err)
		}
		if math.Abs(s.Offset-target) > 3+1e-9 {
			t.Errorf("target %v: terrain snap %v escaped radius", target, s.Offset)
		}
	}
}
