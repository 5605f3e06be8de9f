package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptySelection is returned when a region selects no grid cell.
var ErrEmptySelection = errors.New("region selects no grid cell")

// Grid holds ascending cell-center coordinates in degrees.
type Grid struct {
	Lat []float64
	Lon []float64
}

// Shape returns the number of latitudes and longitudes.
func (g Grid) Shape() (nlat, nlon int) { return len(g.Lat), len(g.Lon) }

// Equal reports whether both grids have identical coordinates.
func (g Grid) Equal(o Grid) bool {
	if len(g.Lat) != len(o.Lat) || len(g.Lon) != len(o.Lon) {
		return false
	}
	for i := range g.Lat {
		if g.Lat[i] != o.Lat[i] {
			return false
		}
	}
	for i := range g.Lon {
		if g.Lon[i] != o.Lon[i] {
			return false
		}
	}
	return true
}

// Field is a time series of 2-D fields on a Grid. Data is shaped
// [time, lat, lon]; NaN marks a missing value.
type Field struct {
	Grid Grid
	NT   int
	Data *sparse.DenseArray
}

// NewField returns a field of nt time steps on g with every value missing.
func NewField(g Grid, nt int) *Field {
	nlat, nlon := g.Shape()
	d := sparse.ZerosDense(nt, nlat, nlon)
	for i := range d.Elements {
		d.Elements[i] = math.NaN()
	}
	return &Field{Grid: g, NT: nt, Data: d}
}

func (f *Field) index(t, i, j int) int {
	nlat, nlon := f.Grid.Shape()
	return (t*nlat+i)*nlon + j
}

// At returns the value at time t, latitude index i and longitude index j.
func (f *Field) At(t, i, j int) float64 { return f.Data.Elements[f.index(t, i, j)] }

// Set stores v at time t, latitude index i and longitude index j.
func (f *Field) Set(v float64, t, i, j int) { f.Data.Elements[f.index(t, i, j)] = v }

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	o := NewField(Grid{
		Lat: append([]float64(nil), f.Grid.Lat...),
		Lon: append([]float64(nil), f.Grid.Lon...),
	}, f.NT)
	copy(o.Data.Elements, f.Data.Elements)
	return o
}

// Apply replaces every valid value v with fn(v).
func (f *Field) Apply(fn func(float64) float64) {
	for i, v := range f.Data.Elements {
		if !math.IsNaN(v) {
			f.Data.Elements[i] = fn(v)
		}
	}
}

// Count returns the number of valid cells of the first time step.
func (f *Field) Count() int {
	nlat, nlon := f.Grid.Shape()
	n := 0
	for _, v := range f.Data.Elements[:nlat*nlon] {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Subset extracts the cells inside the latitude and longitude intervals.
// Longitudes are wrapped into the interval's 360-degree window, so the
// result's longitude axis is expressed in the interval's convention.
func Subset(f *Field, lat, lon Interval) (*Field, error) {
	li, lv := SelectLat(f.Grid.Lat, lat)
	oi, ov := SelectLon(f.Grid.Lon, lon)
	if len(li) == 0 || len(oi) == 0 {
		return nil, fmt.Errorf("%w: lat %s, lon %s", ErrEmptySelection, lat, lon)
	}
	o := NewField(Grid{Lat: lv, Lon: ov}, f.NT)
	for t := 0; t < f.NT; t++ {
		for a, i := range li {
			for b, j := range oi {
				o.Set(f.At(t, i, j), t, a, b)
			}
		}
	}
	return o, nil
}

// CellBounds returns the len(centers)+1 cell edges for ascending centers:
// midpoints between neighbours, half a spacing beyond the outermost
// centers, clipped to [lo, hi].
func CellBounds(centers []float64, lo, hi float64) []float64 {
	n := len(centers)
	if n == 0 {
		return nil
	}
	b := make([]float64, n+1)
	if n == 1 {
		b[0], b[1] = centers[0]-0.5, centers[0]+0.5
	} else {
		for i := 1; i < n; i++ {
			b[i] = (centers[i-1] + centers[i]) / 2
		}
		b[0] = centers[0] - (centers[1]-centers[0])/2
		b[n] = centers[n-1] + (centers[n-1]-centers[n-2])/2
	}
	for i := range b {
		b[i] = math.Max(lo, math.Min(hi, b[i]))
	}
	return b
}

func latBounds(g Grid) []float64 { return CellBounds(g.Lat, -90, 90) }

func lonBounds(g Grid) []float64 { return CellBounds(g.Lon, math.Inf(-1), math.Inf(1)) }

func sinDeg(x float64) float64 { return math.Sin(x * math.Pi / 180) }

// AreaWeights returns the relative area of every cell of g, shaped
// [lat, lon]: (sin(north) - sin(south)) * (east - west) in radians.
func AreaWeights(g Grid) *sparse.DenseArray {
	nlat, nlon := g.Shape()
	lb, ob := latBounds(g), lonBounds(g)
	w := sparse.ZerosDense(nlat, nlon)
	for i := 0; i < nlat; i++ {
		dy := sinDeg(lb[i+1]) - sinDeg(lb[i])
		for j := 0; j < nlon; j++ {
			w.Elements[i*nlon+j] = dy * (ob[j+1] - ob[j]) * math.Pi / 180
		}
	}
	return w
}

// SpatialMeanSeries returns the area-weighted mean over the valid cells of
// every time step. Time steps without any valid cell are dropped.
func SpatialMeanSeries(f *Field) []float64 {
	nlat, nlon := f.Grid.Shape()
	w := AreaWeights(f.Grid)
	out := make([]float64, 0, f.NT)
	x := make([]float64, 0, nlat*nlon)
	ws := make([]float64, 0, nlat*nlon)
	for t := 0; t < f.NT; t++ {
		x, ws = x[:0], ws[:0]
		base := t * nlat * nlon
		for k := 0; k < nlat*nlon; k++ {
			v := f.Data.Elements[base+k]
			if math.IsNaN(v) || w.Elements[k] <= 0 {
				continue
			}
			x = append(x, v)
			ws = append(ws, w.Elements[k])
		}
		if len(x) == 0 {
			continue
		}
		out = append(out, stat.Mean(x, ws))
	}
	return out
}
