// Package render draws cross-section profiles to PNG files with their
// measured features marked: terrain line, crown and LAMA points, and the
// detected width segment.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/crest-data/freeboard.report/internal/measure"
	"github.com/crest-data/freeboard.report/internal/profile"
)

var (
	terrainColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	crownColor   = color.RGBA{G: 200, A: 255}
	lamaColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	widthColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// ProfilePNG renders one cross-section with its record's features to path.
func ProfilePNG(path string, p *profile.Profile, rec measure.Record) error {
	plt, err := buildPlot(p, rec)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
	}
	if err := plt.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save profile plot: %w", err)
	}
	return nil
}

func buildPlot(p *profile.Profile, rec measure.Record) (*plot.Plot, error) {
	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("Perfil Topográfico - %s", p.PK)
	plt.X.Label.Text = "Distancia desde Eje (m)"
	plt.Y.Label.Text = "Elevación (m)"
	plt.Add(plotter.NewGrid())

	terrain := make(plotter.XYs, 0, len(p.Samples))
	for _, s := range p.Samples {
		if !s.Valid {
			continue
		}
		terrain = append(terrain, plotter.XY{X: s.Offset, Y: s.Elevation})
	}
	if len(terrain) == 0 {
		return nil, fmt.Errorf("profile %s has no valid samples to plot", p.PK)
	}

	line, err := plotter.NewLine(terrain)
	if err != nil {
		return nil, err
	}
	line.Color = terrainColor
	line.Width = vg.Points(1.5)
	plt.Add(line)
	plt.Legend.Add("Terreno Natural", line)

	if rec.Width.Set {
		seg, err := plotter.NewLine(plotter.XYs{
			{X: rec.Width.Left.Offset, Y: rec.Width.RefElevation},
			{X: rec.Width.Right.Offset, Y: rec.Width.RefElevation},
		})
		if err != nil {
			return nil, err
		}
		seg.Color = widthColor
		seg.Width = vg.Points(2)
		seg.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		plt.Add(seg)
		plt.Legend.Add(fmt.Sprintf("Ancho %.2f m", rec.Width.Distance), seg)
	}

	if rec.Crown.Set {
		if err := addMarker(plt, rec.Crown, crownColor, "Coronamiento"); err != nil {
			return nil, err
		}
	}
	if rec.Lama.Set {
		if err := addMarker(plt, rec.Lama, lamaColor, "LAMA"); err != nil {
			return nil, err
		}
	}

	plt.Legend.Top = true
	plt.Legend.Left = true
	return plt, nil
}

func addMarker(plt *plot.Plot, f measure.PointField, c color.Color, label string) error {
	sc, err := plotter.NewScatter(plotter.XYs{{X: f.Offset, Y: f.Elevation}})
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Radius = vg.Points(4)
	plt.Add(sc)
	plt.Legend.Add(label, sc)
	return nil
}
