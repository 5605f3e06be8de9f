package grid

import (
	"fmt"
	"math"
)

// Mask flags cells of a [lat, lon] grid. Masked cells are excluded from
// every computation.
type Mask struct {
	NLat   int    `json:"nlat"`
	NLon   int    `json:"nlon"`
	Masked []bool `json:"masked"`
}

// NewMask returns a mask of the given shape with no cell masked.
func NewMask(nlat, nlon int) Mask {
	return Mask{NLat: nlat, NLon: nlon, Masked: make([]bool, nlat*nlon)}
}

// At reports whether cell (i, j) is masked.
func (m Mask) At(i, j int) bool { return m.Masked[i*m.NLon+j] }

// Valid returns the number of unmasked cells.
func (m Mask) Valid() int {
	n := 0
	for _, b := range m.Masked {
		if !b {
			n++
		}
	}
	return n
}

// MissingMask masks the cells of f that are missing in its first time step.
func MissingMask(f *Field) Mask {
	nlat, nlon := f.Grid.Shape()
	m := NewMask(nlat, nlon)
	for k := range m.Masked {
		m.Masked[k] = math.IsNaN(f.Data.Elements[k])
	}
	return m
}

// CombineMasks returns the union of a and b.
func CombineMasks(a, b Mask) (Mask, error) {
	if a.NLat != b.NLat || a.NLon != b.NLon {
		return Mask{}, fmt.Errorf("mask shapes differ: %dx%d vs %dx%d", a.NLat, a.NLon, b.NLat, b.NLon)
	}
	o := NewMask(a.NLat, a.NLon)
	for k := range o.Masked {
		o.Masked[k] = a.Masked[k] || b.Masked[k]
	}
	return o, nil
}

// MaskWhere returns a copy of f where every time step is missing at the
// masked cells.
func MaskWhere(f *Field, m Mask) (*Field, error) {
	nlat, nlon := f.Grid.Shape()
	if m.NLat != nlat || m.NLon != nlon {
		return nil, fmt.Errorf("mask shape %dx%d does not match field %dx%d", m.NLat, m.NLon, nlat, nlon)
	}
	o := f.Clone()
	for t := 0; t < f.NT; t++ {
		base := t * nlat * nlon
		for k, masked := range m.Masked {
			if masked {
				o.Data.Elements[base+k] = math.NaN()
			}
		}
	}
	return o, nil
}

// Compressed returns the values of time step t at the unmasked cells in
// row-major order.
func Compressed(f *Field, t int, m Mask) []float64 {
	nlat, nlon := f.Grid.Shape()
	base := t * nlat * nlon
	out := make([]float64, 0, m.Valid())
	for k, masked := range m.Masked {
		if !masked {
			out = append(out, f.Data.Elements[base+k])
		}
	}
	return out
}

// CompressedWeights returns the area weights of the unmasked cells of g,
// in the same order as Compressed.
func CompressedWeights(g Grid, m Mask) []float64 {
	w := AreaWeights(g)
	out := make([]float64, 0, m.Valid())
	for k, masked := range m.Masked {
		if !masked {
			out = append(out, w.Elements[k])
		}
	}
	return out
}
