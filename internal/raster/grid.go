// Package raster holds the single-band float grids sampled by the attribute
// and watershed packages.
package raster

import (
	"math"

	"github.com/paulmach/orb"

	"fgtools.fluvialgeomorph.org/internal/models"
)

// Resampling selects how a grid is sampled between cell centers.
type Resampling int

const (
	Bilinear Resampling = iota
	Nearest
)

// Surface is the raster contract the linear-referencing packages need.
type Surface interface {
	Sample(x, y float64, method Resampling) (float64, bool)
	CellSize() float64
	Unit() models.LinearUnit
}

// Grid is a north-up raster with square cells. Row 0 is the northern row.
type Grid struct {
	Name   string
	Cols   int
	Rows   int
	XLL    float64 // lower-left corner of the lower-left cell
	YLL    float64
	Cell   float64
	NoData float64
	Linear models.LinearUnit
	Data   []float64
}

// NewGrid allocates a grid filled with nodata.
func NewGrid(cols, rows int, xll, yll, cell, nodata float64, unit models.LinearUnit) *Grid {
	g := &Grid{
		Cols:   cols,
		Rows:   rows,
		XLL:    xll,
		YLL:    yll,
		Cell:   cell,
		NoData: nodata,
		Linear: unit,
		Data:   make([]float64, cols*rows),
	}
	for i := range g.Data {
		g.Data[i] = nodata
	}
	return g
}

func (g *Grid) CellSize() float64       { return g.Cell }
func (g *Grid) Unit() models.LinearUnit { return g.Linear }

// Bound is the grid's extent.
func (g *Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.XLL, g.YLL},
		Max: orb.Point{g.XLL + float64(g.Cols)*g.Cell, g.YLL + float64(g.Rows)*g.Cell},
	}
}

// Value returns the cell value, false for nodata or out of range.
func (g *Grid) Value(row, col int) (float64, bool) {
	if row < 0 || col < 0 || row >= g.Rows || col >= g.Cols {
		return 0, false
	}
	v := g.Data[row*g.Cols+col]
	if v == g.NoData || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Set writes a cell value.
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Cols+col] = v
}

// CellAt returns the cell containing (x, y).
func (g *Grid) CellAt(x, y float64) (row, col int, ok bool) {
	top := g.YLL + float64(g.Rows)*g.Cell
	col = int(math.Floor((x - g.XLL) / g.Cell))
	row = int(math.Floor((top - y) / g.Cell))
	if row < 0 || col < 0 || row >= g.Rows || col >= g.Cols {
		return row, col, false
	}
	return row, col, true
}

// CellCenter returns the center of a cell.
func (g *Grid) CellCenter(row, col int) orb.Point {
	top := g.YLL + float64(g.Rows)*g.Cell
	return orb.Point{
		g.XLL + (float64(col)+0.5)*g.Cell,
		top - (float64(row)+0.5)*g.Cell,
	}
}

// Sample reads the grid at (x, y). Bilinear sampling uses the four cell
// centers around the point and falls back to the containing cell when any of
// them is nodata or off the grid.
func (g *Grid) Sample(x, y float64, method Resampling) (float64, bool) {
	row, col, ok := g.CellAt(x, y)
	if !ok {
		return 0, false
	}
	if method == Nearest {
		return g.Value(row, col)
	}

	top := g.YLL + float64(g.Rows)*g.Cell
	fx := (x-g.XLL)/g.Cell - 0.5
	fy := (top-y)/g.Cell - 0.5
	c0, r0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(c0), fy-float64(r0)

	v00, ok00 := g.Value(r0, c0)
	v01, ok01 := g.Value(r0, c0+1)
	v10, ok10 := g.Value(r0+1, c0)
	v11, ok11 := g.Value(r0+1, c0+1)
	if !(ok00 && ok01 && ok10 && ok11) {
		return g.Value(row, col)
	}
	top0 := v00 + tx*(v01-v00)
	bot0 := v10 + tx*(v11-v10)
	return top0 + ty*(bot0-top0), true
}
