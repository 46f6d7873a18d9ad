package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fgtools.fluvialgeomorph.org/internal/models"
)

// ReadASCIIGrid parses an ESRI ASCII grid. The linear unit is left empty;
// Open fills it from the .prj file.
func ReadASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{}
	var first string
	for len(header) < 6 {
		if !sc.Scan() {
			return nil, errors.New("ascii grid: truncated header")
		}
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("ascii grid: missing value for %s", key)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("ascii grid: header %s: %w", key, err)
		}
		header[key] = v
	}

	cols, rows := int(header["ncols"]), int(header["nrows"])
	cell := header["cellsize"]
	if cols <= 0 || rows <= 0 || cell <= 0 {
		return nil, fmt.Errorf("ascii grid: %w: ncols=%d nrows=%d cellsize=%v", models.ErrInvalidParameter, cols, rows, cell)
	}
	nodata, ok := header["nodata_value"]
	if !ok {
		nodata = -9999
	}

	xll, yll := header["xllcorner"], header["yllcorner"]
	if v, ok := header["xllcenter"]; ok {
		xll = v - cell/2
	}
	if v, ok := header["yllcenter"]; ok {
		yll = v - cell/2
	}

	g := NewGrid(cols, rows, xll, yll, cell, nodata, "")
	i := 0
	if first != "" {
		v, _ := strconv.ParseFloat(first, 64)
		g.Data[i] = v
		i++
	}
	for ; i < len(g.Data) && sc.Scan(); i++ {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("ascii grid: cell %d: %w", i, err)
		}
		g.Data[i] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascii grid: %w", err)
	}
	if i != len(g.Data) {
		return nil, fmt.Errorf("ascii grid: expected %d cells, read %d", len(g.Data), i)
	}
	return g, nil
}

// WriteASCIIGrid writes g in ESRI ASCII format.
func WriteASCIIGrid(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\nxllcorner %s\nyllcorner %s\ncellsize %s\nNODATA_value %s\n",
		g.Cols, g.Rows, ftoa(g.XLL), ftoa(g.YLL), ftoa(g.Cell), ftoa(g.NoData))
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(ftoa(g.Data[r*g.Cols+c]))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Open reads an ASCII grid from path. When a sidecar .prj exists its linear
// unit is used; otherwise fallback is.
func Open(path string, fallback models.LinearUnit) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck

	g, err := ReadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	g.Linear = fallback

	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if b, err := os.ReadFile(prj); err == nil {
		u, err := UnitFromWKT(string(b))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prj, err)
		}
		g.Linear = u
	}
	return g, nil
}

var unitPattern = regexp.MustCompile(`UNIT\[\s*"([^"]+)"\s*,\s*([0-9.eE+-]+)`)

// UnitFromWKT returns the linear unit of a projected coordinate system WKT,
// which is the last UNIT clause of the PROJCS.
func UnitFromWKT(wkt string) (models.LinearUnit, error) {
	if !strings.Contains(strings.ToUpper(wkt), "PROJCS") {
		return "", fmt.Errorf("%w: not a projected coordinate system", models.ErrUnsupportedLinearUnit)
	}
	m := unitPattern.FindAllStringSubmatch(wkt, -1)
	if len(m) == 0 {
		return "", fmt.Errorf("%w: no UNIT clause", models.ErrUnsupportedLinearUnit)
	}
	last := m[len(m)-1]
	factor, err := strconv.ParseFloat(last[2], 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedLinearUnit, last[2])
	}
	for _, u := range []models.LinearUnit{models.Meter, models.Foot, models.USSurveyFoot} {
		if mp, _ := u.MetersPer(); math.Abs(mp-factor) < 1e-9 {
			return u, nil
		}
	}
	return models.ParseLinearUnit(last[1])
}
