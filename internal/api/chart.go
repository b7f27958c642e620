package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/crest-data/freeboard.report/internal/httputil"
)

// handleChart renders one cross-section as an interactive HTML chart:
// terrain line plus crown, LAMA and width markers. Query param: chainage.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
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
	rec, _ := s.session.Get(chainage)

	xAxis := make([]string, 0, len(prof.Samples))
	terrain := make([]opts.LineData, 0, len(prof.Samples))
	for _, sample := range prof.Samples {
		xAxis = append(xAxis, fmt.Sprintf("%.1f", sample.Offset))
		if sample.Valid {
			terrain = append(terrain, opts.LineData{Value: sample.Elevation})
		} else {
			terrain = append(terrain, opts.LineData{Value: "-"})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Perfil %s", prof.PK),
			Width:     "1100px",
			Height:    "550px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Perfil Topográfico - %s", prof.PK),
			Subtitle: fmt.Sprintf("muro=%s modo=%s", s.session.Wall(), s.session.Mode()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distancia desde Eje (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Elevación (m)", Scale: opts.Bool(true)}),
	)

	line.SetXAxis(xAxis).AddSeries("Terreno Natural", terrain,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	var markers []opts.ScatterData
	if rec.Crown.Set {
		markers = append(markers, opts.ScatterData{
			Name:  "Coronamiento",
			Value: []interface{}{fmt.Sprintf("%.1f", rec.Crown.Offset), rec.Crown.Elevation},
		})
	}
	if rec.Lama.Set {
		markers = append(markers, opts.ScatterData{
			Name:  "LAMA",
			Value: []interface{}{fmt.Sprintf("%.1f", rec.Lama.Offset), rec.Lama.Elevation},
		})
	}
	if rec.Width.Set {
		markers = append(markers,
			opts.ScatterData{Name: "Ancho izq", Value: []interface{}{fmt.Sprintf("%.1f", rec.Width.Left.Offset), rec.Width.RefElevation}},
			opts.ScatterData{Name: "Ancho der", Value: []interface{}{fmt.Sprintf("%.1f", rec.Width.Right.Offset), rec.Width.RefElevation}},
		)
	}
	if len(markers) > 0 {
		sc := charts.NewScatter()
		sc.AddSeries("Mediciones", markers,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
		line.Overlap(sc)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
