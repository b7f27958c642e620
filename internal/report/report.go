// Package report aggregates a session's records into wall-level statistics:
// freeboard and width distributions, the longitudinal crest trend, and a
// coarse variability classification used to flag uneven crests.
package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/crest-data/freeboard.report/internal/measure"
)

// Summary describes the distribution of one measured quantity.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// WallReport is the aggregate view of one session.
type WallReport struct {
	Wall     string       `json:"wall"`
	Mode     measure.Mode `json:"mode"`
	Stations int          `json:"stations"`
	Complete int          `json:"complete"`

	Freeboard Summary `json:"freeboard"`
	Width     Summary `json:"width"`
	Crown     Summary `json:"crown"`

	// CrownSlope is the linear trend of crown elevation along the wall,
	// in metres of elevation per metre of chainage.
	CrownSlope float64 `json:"crown_slope"`

	// Variability classifies the freeboard spread: "uniforme" under 0.15m
	// standard deviation, "moderada" under 0.5m, "alta" above.
	Variability string `json:"variability"`

	// MinFreeboardPK locates the most exposed station.
	MinFreeboardPK string `json:"min_freeboard_pk,omitempty"`
}

// Build computes the report for a session's current records.
func Build(sess *measure.Session) WallReport {
	records := sess.Records()
	rep := WallReport{
		Wall:     sess.Wall(),
		Mode:     sess.Mode(),
		Stations: len(records),
	}

	var freeboards, widths, crowns, crownChainages []float64
	minFB := math.Inf(1)
	for _, rec := range records {
		if rec.Complete(sess.Mode()) {
			rep.Complete++
		}
		if rec.Crown.Set {
			crowns = append(crowns, rec.Crown.Elevation)
			crownChainages = append(crownChainages, rec.Chainage)
		}
		if rec.Width.Set {
			widths = append(widths, rec.Width.Distance)
		}
		if fb, ok := rec.Freeboard(); ok {
			freeboards = append(freeboards, fb)
			if fb < minFB {
				minFB = fb
				rep.MinFreeboardPK = rec.PK
			}
		}
	}

	rep.Freeboard = summarize(freeboards)
	rep.Width = summarize(widths)
	rep.Crown = summarize(crowns)

	if len(crowns) >= 2 {
		_, rep.CrownSlope = stat.LinearRegression(crownChainages, crowns, nil, false)
	}

	switch {
	case rep.Freeboard.Count == 0:
		rep.Variability = "sin datos"
	case rep.Freeboard.StdDev < 0.15:
		rep.Variability = "uniforme"
	case rep.Freeboard.StdDev < 0.5:
		rep.Variability = "moderada"
	default:
		rep.Variability = "alta"
	}

	return rep
}

func summarize(vs []float64) Summary {
	if len(vs) == 0 {
		return Summary{}
	}
	s := Summary{
		Count: len(vs),
		Min:   vs[0],
		Max:   vs[0],
	}
	for _, v := range vs {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if len(vs) == 1 {
		s.Mean = vs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vs, nil)
	return s
}
