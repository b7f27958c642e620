package alignment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadPolylineCSV reads X,Y centreline vertices, one per row. Blank lines,
// #-comments and a header row starting with "X" are skipped. Unlike the LAMA
// loader a malformed vertex is an error: dropping one silently would bend the
// centreline.
func LoadPolylineCSV(r io.Reader) ([]Vertex, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var vertices []Vertex
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read centreline csv: %w", err)
		}
		line++
		if len(rec) < 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rec[0]), "X") {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("centreline csv line %d: bad vertex %v", line, rec)
		}
		vertices = append(vertices, Vertex{X: x, Y: y})
	}
	return vertices, nil
}

// LoadPolylineFile reads a centreline CSV from disk and samples it.
func LoadPolylineFile(name, path string, interval float64) (*Alignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open centreline %s: %w", path, err)
	}
	defer f.Close()
	vertices, err := LoadPolylineCSV(f)
	if err != nil {
		return nil, err
	}
	return FromPolyline(name, vertices, interval)
}
