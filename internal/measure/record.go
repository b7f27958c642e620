// Package measure holds the per-station measurement records produced by the
// analysis run and the session object that groups them. Records carry crown,
// LAMA and width fields through a three-state lifecycle: unset, automatically
// detected, or manually placed. Manual values survive re-analysis.
package measure

import (
	"github.com/crest-data/freeboard.report/internal/detect"
	"github.com/crest-data/freeboard.report/internal/units"
)

// Mode selects which measurement a session is after.
type Mode string

const (
	// ModeFreeboard measures crown elevation, LAMA elevation, freeboard
	// and the crest width at the crown elevation.
	ModeFreeboard Mode = "freeboard"
	// ModeProjectedWidth measures the crest width at the LAMA elevation
	// plus a fixed vertical offset.
	ModeProjectedWidth Mode = "projected_width"
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	return m == ModeFreeboard || m == ModeProjectedWidth
}

// PointField is a crown or LAMA point on a cross-section. Set distinguishes
// a missing value from a zero one; Automatic records whether the value came
// from detection rather than an operator.
type PointField struct {
	Set       bool
	Offset    float64
	Elevation float64
	Automatic bool
}

// WidthField is a detected or operator-placed crest width.
type WidthField struct {
	Set          bool
	Left         detect.Crossing
	Right        detect.Crossing
	Distance     float64
	RefElevation float64
	Automatic    bool
}

// Record is the measurement state of one station. Fields move unset ->
// automatic on analysis and automatic -> manual on operator edits; manual
// fields are never overwritten by a re-run.
type Record struct {
	Chainage float64
	PK       string

	Crown PointField
	Lama  PointField
	Width WidthField
}

// NewRecord returns an empty record for a station chainage.
func NewRecord(chainage float64) *Record {
	return &Record{Chainage: chainage, PK: units.FormatPK(chainage)}
}

// SetCrownAuto stores a detected crown point. Manual crowns are preserved.
func (r *Record) SetCrownAuto(c detect.Crossing) {
	if r.Crown.Set && !r.Crown.Automatic {
		return
	}
	r.Crown = PointField{Set: true, Offset: c.Offset, Elevation: c.Elevation, Automatic: true}
}

// SetCrownManual stores an operator-placed crown point, overriding any
// automatic value for this field only.
func (r *Record) SetCrownManual(offset, elevation float64) {
	r.Crown = PointField{Set: true, Offset: offset, Elevation: elevation}
}

// SetLamaAuto stores a detected LAMA point. Manual values are preserved.
func (r *Record) SetLamaAuto(c detect.Crossing) {
	if r.Lama.Set && !r.Lama.Automatic {
		return
	}
	r.Lama = PointField{Set: true, Offset: c.Offset, Elevation: c.Elevation, Automatic: true}
}

// SetLamaManual stores an operator-placed LAMA point.
func (r *Record) SetLamaManual(offset, elevation float64) {
	r.Lama = PointField{Set: true, Offset: offset, Elevation: elevation}
}

// SetWidthAuto stores a detected width. Manual widths are preserved.
func (r *Record) SetWidthAuto(w detect.Width) {
	if r.Width.Set && !r.Width.Automatic {
		return
	}
	r.Width = WidthField{
		Set:          true,
		Left:         w.Left,
		Right:        w.Right,
		Distance:     w.Distance,
		RefElevation: w.RefElevation,
		Automatic:    true,
	}
}

// SetWidthManual stores an operator-placed width from its two endpoints.
func (r *Record) SetWidthManual(left, right detect.Crossing, refElevation float64) {
	if right.Offset < left.Offset {
		left, right = right, left
	}
	r.Width = WidthField{
		Set:          true,
		Left:         left,
		Right:        right,
		Distance:     right.Offset - left.Offset,
		RefElevation: refElevation,
	}
}

// ClearCrown, ClearLama and ClearWidth return a field to the unset state.
func (r *Record) ClearCrown() { r.Crown = PointField{} }
func (r *Record) ClearLama()  { r.Lama = PointField{} }
func (r *Record) ClearWidth() { r.Width = WidthField{} }

// Freeboard derives crown minus LAMA elevation. It is never stored; the
// second return is false until both points are set.
func (r *Record) Freeboard() (float64, bool) {
	if !r.Crown.Set || !r.Lama.Set {
		return 0, false
	}
	return r.Crown.Elevation - r.Lama.Elevation, true
}

// Complete reports whether the record carries every value its mode exports.
func (r *Record) Complete(mode Mode) bool {
	switch mode {
	case ModeFreeboard:
		return r.Crown.Set && r.Lama.Set && r.Width.Set
	case ModeProjectedWidth:
		return r.Width.Set
	}
	return false
}
