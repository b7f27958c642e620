package measure

import (
	"context"
	"errors"

	"github.com/crest-data/freeboard.report/internal/alignment"
	"github.com/crest-data/freeboard.report/internal/config"
	"github.com/crest-data/freeboard.report/internal/detect"
	"github.com/crest-data/freeboard.report/internal/monitoring"
	"github.com/crest-data/freeboard.report/internal/profile"
	"github.com/crest-data/freeboard.report/internal/terrain"
)

// LamaSeed supplies an initial LAMA position for a station, typically
// projected from surveyed water-edge points. ok is false when the station
// has no seed.
type LamaSeed func(st alignment.Station) (offset, elevation float64, ok bool)

// Progress is called after each station with counts so far.
type Progress func(done, total int)

// Analyzer runs the full per-station pipeline: sample a cross-section,
// place the LAMA and crown points, then detect the crest width for the
// session mode. Detection failures are soft; the affected field stays
// unset and the run continues.
type Analyzer struct {
	Surface *terrain.Surface
	Config  *config.TuningConfig

	// Seed provides initial LAMA placements. Nil means no seeding;
	// freeboard records then rely on manual LAMA points.
	Seed LamaSeed

	gen profile.Generator
	det detect.Detector
}

// NewAnalyzer wires an analyzer with the detector tolerance taken from cfg.
func NewAnalyzer(surf *terrain.Surface, cfg *config.TuningConfig, seed LamaSeed) *Analyzer {
	return &Analyzer{
		Surface: surf,
		Config:  cfg,
		Seed:    seed,
		det:     detect.Detector{Tolerance: cfg.GetIntersectionTolerance()},
	}
}

// Run analyzes every station of al into sess, respecting manual fields on
// existing records. Cancelling ctx stops between stations and returns the
// context error with the session partially updated.
func (a *Analyzer) Run(ctx context.Context, al *alignment.Alignment, sess *Session, progress Progress) error {
	stations := al.Stations()
	total := len(stations)
	for i, st := range stations {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.analyzeStation(st, sess)
		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}

// AnalyzeStation re-runs the pipeline for a single station, used after an
// operator edits a point that downstream values depend on.
func (a *Analyzer) AnalyzeStation(st alignment.Station, sess *Session) {
	a.analyzeStation(st, sess)
}

func (a *Analyzer) analyzeStation(st alignment.Station, sess *Session) {
	prof, err := a.gen.Generate(st, a.Surface, a.Config.GetHalfWidth(), a.Config.GetStep())
	if err != nil {
		monitoring.Logf("measure: station %s: profile generation failed: %v", st.PK, err)
		return
	}
	sess.SetProfile(prof)
	if prof.ValidCount() == 0 {
		monitoring.Logf("measure: station %s: no terrain under profile", st.PK)
		return
	}

	sess.Apply(st.Chainage, func(rec *Record) {
		a.placeLama(st, prof, rec)
		a.placeCrown(st, prof, rec)
		a.detectWidth(st, prof, rec, sess.Mode())
	})
}

// placeLama seeds the LAMA point from surveyed data, snapping it onto the
// sampled terrain. Manual LAMA points are left alone.
func (a *Analyzer) placeLama(st alignment.Station, prof *profile.Profile, rec *Record) {
	if rec.Lama.Set && !rec.Lama.Automatic {
		return
	}
	if a.Seed == nil {
		return
	}
	offset, elevation, ok := a.Seed(st)
	if !ok {
		return
	}
	snapped, err := a.det.SnapToTerrain(prof, offset, a.Config.GetSnapRadius())
	if err != nil {
		monitoring.Logf("measure: station %s: lama seed at offset %.2f: %v", st.PK, offset, err)
		// Keep the surveyed elevation when the terrain snap fails.
		rec.SetLamaAuto(detect.Crossing{Offset: offset, Elevation: elevation})
		return
	}
	rec.SetLamaAuto(snapped)
}

// placeCrown takes the highest valid sample near the axis as the crown.
func (a *Analyzer) placeCrown(st alignment.Station, prof *profile.Profile, rec *Record) {
	if rec.Crown.Set && !rec.Crown.Automatic {
		return
	}
	top, ok := prof.HighestSample(a.Config.GetCrownSearchHalfWidth())
	if !ok {
		monitoring.Logf("measure: station %s: no terrain near axis for crown", st.PK)
		return
	}
	rec.SetCrownAuto(detect.Crossing{Offset: top.Offset, Elevation: top.Elevation})
}

func (a *Analyzer) detectWidth(st alignment.Station, prof *profile.Profile, rec *Record, mode Mode) {
	if rec.Width.Set && !rec.Width.Automatic {
		return
	}

	var (
		w   detect.Width
		err error
	)
	switch mode {
	case ModeFreeboard:
		switch {
		case rec.Crown.Set:
			w, err = a.det.WidthAt(prof, rec.Crown.Offset, rec.Crown.Elevation)
		case st.RefElevation != nil:
			// No crown found; fall back to the station's design elevation.
			w, err = a.det.WidthAt(prof, 0, *st.RefElevation)
		default:
			return
		}
	case ModeProjectedWidth:
		if !rec.Lama.Set {
			return
		}
		// The walk pivots at the crest, not the LAMA point; the reservoir
		// side of the LAMA never re-crosses a line above it.
		pivot := 0.0
		if rec.Crown.Set {
			pivot = rec.Crown.Offset
		}
		w, err = a.det.ProjectedWidth(prof, pivot, rec.Lama.Elevation, a.Config.GetProjectedOffset())
	default:
		return
	}
	if err != nil {
		if !errors.Is(err, detect.ErrNoIntersection) {
			monitoring.Logf("measure: station %s: width detection: %v", st.PK, err)
		}
		return
	}
	rec.SetWidthAuto(w)
}
