// Package export writes session measurements to the two canonical CSV
// shapes: the full freeboard table (PK, Cota_Coronamiento, Revancha, Lama,
// Ancho) and the simplified projected-width table (PK, Ancho_Proyectado).
// Both derive from the same records; missing values stay blank.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/crest-data/freeboard.report/internal/measure"
)

var freeboardHeader = []string{"PK", "Cota_Coronamiento", "Revancha", "Lama", "Ancho"}
var projectedHeader = []string{"PK", "Ancho_Proyectado"}

// Writer shapes session records into CSV rows. Precision is the number of
// decimal places; zero or negative falls back to 3.
type Writer struct {
	Precision int
}

func (w Writer) precision() int {
	if w.Precision > 0 {
		return w.Precision
	}
	return 3
}

// WriteSession writes the shape matching the session mode.
func (w Writer) WriteSession(out io.Writer, sess *measure.Session) error {
	if sess.Mode() == measure.ModeProjectedWidth {
		return w.WriteProjected(out, sess.Records())
	}
	return w.WriteFreeboard(out, sess.Records())
}

// WriteFreeboard writes the full freeboard table. Every record produces a
// row; fields not yet measured are left blank rather than dropped.
func (w Writer) WriteFreeboard(out io.Writer, records []measure.Record) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(freeboardHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.PK, "", "", "", ""}
		if rec.Crown.Set {
			row[1] = w.num(rec.Crown.Elevation)
		}
		if fb, ok := rec.Freeboard(); ok {
			row[2] = w.num(fb)
		}
		if rec.Lama.Set {
			row[3] = w.num(rec.Lama.Elevation)
		}
		if rec.Width.Set {
			row[4] = w.num(rec.Width.Distance)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteProjected writes the simplified projected-width table.
func (w Writer) WriteProjected(out io.Writer, records []measure.Record) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(projectedHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.PK, ""}
		if rec.Width.Set {
			row[1] = w.num(rec.Width.Distance)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the session's CSV to path.
func (w Writer) WriteFile(path string, sess *measure.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := w.WriteSession(f, sess); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w Writer) num(v float64) string {
	return strconv.FormatFloat(v, 'f', w.precision(), 64)
}

// DefaultFilename names an export after its mode and the current time,
// e.g. Revanchas_20260829_1430.csv.
func DefaultFilename(mode measure.Mode, now time.Time) string {
	ts := now.Format("20060102_1504")
	if mode == measure.ModeProjectedWidth {
		return fmt.Sprintf("AnchoProyectado_%s.csv", ts)
	}
	return fmt.Sprintf("Revanchas_%s.csv", ts)
}
