// Package api exposes a measurement session over HTTP: station and record
// listings, manual point overrides, CSV export, profile charts and the
// wall-level report.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crest-data/freeboard.report/internal/alignment"
	"github.com/crest-data/freeboard.report/internal/detect"
	"github.com/crest-data/freeboard.report/internal/export"
	"github.com/crest-data/freeboard.report/internal/httputil"
	"github.com/crest-data/freeboard.report/internal/measure"
	"github.com/crest-data/freeboard.report/internal/monitoring"
	"github.com/crest-data/freeboard.report/internal/report"
	"github.com/crest-data/freeboard.report/internal/store"
)

type Server struct {
	session   *measure.Session
	alignment *alignment.Alignment
	analyzer  *measure.Analyzer
	store     *store.Store // may be nil; persistence is then skipped
	precision int
}

func NewServer(sess *measure.Session, al *alignment.Alignment, an *measure.Analyzer, st *store.Store, precision int) *Server {
	return &Server{
		session:   sess,
		alignment: al,
		analyzer:  an,
		store:     st,
		precision: precision,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/records", s.handleRecords)
	mux.HandleFunc("/api/records/manual", s.handleManual)
	mux.HandleFunc("/api/profile", s.handleProfile)
	mux.HandleFunc("/api/export.csv", s.handleExportCSV)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/chart", s.handleChart)
	return mux
}

type pointView struct {
	Offset    float64 `json:"offset"`
	Elevation float64 `json:"elevation"`
	Automatic bool    `json:"automatic"`
}

type widthView struct {
	Left         pointView `json:"left"`
	Right        pointView `json:"right"`
	Distance     float64   `json:"distance"`
	RefElevation float64   `json:"reference_elevation"`
	Automatic    bool      `json:"automatic"`
}

type recordView struct {
	Chainage  float64    `json:"chainage"`
	PK        string     `json:"pk"`
	Crown     *pointView `json:"crown,omitempty"`
	Lama      *pointView `json:"lama,omitempty"`
	Width     *widthView `json:"width,omitempty"`
	Freeboard *float64   `json:"freeboard,omitempty"`
}

func viewOf(rec measure.Record) recordView {
	v := recordView{Chainage: rec.Chainage, PK: rec.PK}
	if rec.Crown.Set {
		v.Crown = &pointView{Offset: rec.Crown.Offset, Elevation: rec.Crown.Elevation, Automatic: rec.Crown.Automatic}
	}
	if rec.Lama.Set {
		v.Lama = &pointView{Offset: rec.Lama.Offset, Elevation: rec.Lama.Elevation, Automatic: rec.Lama.Automatic}
	}
	if rec.Width.Set {
		v.Width = &widthView{
			Left:         pointView{Offset: rec.Width.Left.Offset, Elevation: rec.Width.Left.Elevation},
			Right:        pointView{Offset: rec.Width.Right.Offset, Elevation: rec.Width.Right.Elevation},
			Distance:     rec.Width.Distance,
			RefElevation: rec.Width.RefElevation,
			Automatic:    rec.Width.Automatic,
		}
	}
	if fb, ok := rec.Freeboard(); ok {
		v.Freeboard = &fb
	}
	return v
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"id":         s.session.ID(),
		"wall":       s.session.Wall(),
		"mode":       s.session.Mode(),
		"created_at": s.session.CreatedAt().Format(time.RFC3339),
		"stations":   s.alignment.Len(),
		"records":    s.session.Len(),
	})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	type stationView struct {
		Chainage float64 `json:"chainage"`
		PK       string  `json:"pk"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Bearing  float64 `json:"bearing"`
	}
	stations := s.alignment.Stations()
	out := make([]stationView, 0, len(stations))
	for _, st := range stations {
		out = append(out, stationView{Chainage: st.Chainage, PK: st.PK, X: st.X, Y: st.Y, Bearing: st.Bearing})
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	records := s.session.Records()
	out := make([]recordView, 0, len(records))
	for _, rec := range records {
		out = append(out, viewOf(rec))
	}
	httputil.WriteJSONOK(w, out)
}

// manualRequest is a manual override for one field of one record.
type manualRequest struct {
	Chainage float64 `json:"chainage"`
	Field    string  `json:"field"` // crown, lama or width

	// crown / lama
	Offset    float64 `json:"offset"`
	Elevation float64 `json:"elevation"`

	// width
	Left         *pointView `json:"left,omitempty"`
	Right        *pointView `json:"right,omitempty"`
	RefElevation float64    `json:"reference_elevation"`
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("decode request: %v", err))
		return
	}
	st, ok := s.alignment.StationAt(req.Chainage)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("no station at chainage %v", req.Chainage))
		return
	}

	switch req.Field {
	case "crown":
		s.session.Apply(req.Chainage, func(rec *measure.Record) {
			rec.SetCrownManual(req.Offset, req.Elevation)
		})
	case "lama":
		s.session.Apply(req.Chainage, func(rec *measure.Record) {
			rec.SetLamaManual(req.Offset, req.Elevation)
		})
	case "width":
		if req.Left == nil || req.Right == nil {
			httputil.BadRequest(w, "width override needs left and right points")
			return
		}
		s.session.Apply(req.Chainage, func(rec *measure.Record) {
			rec.SetWidthManual(
				detect.Crossing{Offset: req.Left.Offset, Elevation: req.Left.Elevation},
				detect.Crossing{Offset: req.Right.Offset, Elevation: req.Right.Elevation},
				req.RefElevation,
			)
		})
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown field %q", req.Field))
		return
	}

	// Re-run the station so automatic fields that depend on the edited
	// point are refreshed; manual fields survive the pass.
	if s.analyzer != nil {
		s.analyzer.AnalyzeStation(st, s.session)
	}

	rec, _ := s.session.Get(req.Chainage)
	if s.store != nil {
		if err := s.store.SaveRecord(s.session.ID(), rec); err != nil {
			monitoring.Logf("api: persist record %s: %v", rec.PK, err)
		}
	}
	httputil.WriteJSONOK(w, viewOf(rec))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	chainage, ok := s.chainageParam(w, r)
	if !ok {
		return
	}
	prof, ok := s.session.Profile(chainage)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("no profile for chainage %v", chainage))
		return
	}
	httputil.WriteJSONOK(w, prof)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	filename := export.DefaultFilename(s.session.Mode(), time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := export.Writer{Precision: s.precision}
	if err := writer.WriteSession(w, s.session); err != nil {
		monitoring.Logf("api: csv export: %v", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, report.Build(s.session))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.analyzer == nil {
		httputil.InternalServerError(w, "no analyzer configured")
		return
	}
	if err := s.analyzer.Run(r.Context(), s.alignment, s.session, nil); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("analysis failed: %v", err))
		return
	}
	if s.store != nil {
		if err := s.store.SaveAll(s.session); err != nil {
			monitoring.Logf("api: persist session: %v", err)
		}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"stations": s.alignment.Len(),
		"records":  s.session.Len(),
	})
}

func (s *Server) chainageParam(w http.ResponseWriter, r *http.Request) (float64, bool) {
	raw := r.URL.Query().Get("chainage")
	if raw == "" {
		httputil.BadRequest(w, "missing chainage parameter")
		return 0, false
	}
	chainage, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("bad chainage %q", raw))
		return 0, false
	}
	return chainage, true
}
