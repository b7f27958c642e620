package terrain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseASC reads an ESRI ASCII grid. The header carries ncols, nrows,
// xllcorner, yllcorner and cellsize; nodata_value is optional and defaults
// to DefaultNoData. Values follow row-major, north row first.
func ParseASC(r io.Reader) (*Surface, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	header := map[string]float64{}
	var firstDataLine string

	for len(header) < 6 && sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed header line %q", line)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed header value in %q: %w", line, err)
			}
			header[key] = v
		default:
			// First row of elevation values; nodata_value was omitted.
			firstDataLine = line
		}
		if firstDataLine != "" {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid header: %w", err)
	}

	for _, req := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := header[req]; !ok {
			return nil, fmt.Errorf("grid header missing %s", req)
		}
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	nodata, ok := header["nodata_value"]
	if !ok {
		nodata = DefaultNoData
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", rows, cols)
	}

	values := make([]float64, 0, rows*cols)
	appendLine := func(line string) error {
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("invalid elevation value %q: %w", tok, err)
			}
			values = append(values, v)
		}
		return nil
	}

	if firstDataLine != "" {
		if err := appendLine(firstDataLine); err != nil {
			return nil, err
		}
	}
	for sc.Scan() {
		if err := appendLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid values: %w", err)
	}

	if len(values) != rows*cols {
		return nil, fmt.Errorf("grid has %d values, expected %d (%dx%d)", len(values), rows*cols, rows, cols)
	}

	return NewSurface(header["xllcorner"], header["yllcorner"], header["cellsize"], rows, cols, values, nodata)
}

// LoadASC opens and parses an ESRI ASCII grid file.
func LoadASC(path string) (*Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open DEM file: %w", err)
	}
	defer f.Close()

	s, err := ParseASC(f)
	if err != nil {
		return nil, fmt.Errorf("parse DEM %s: %w", path, err)
	}
	return s, nil
}
