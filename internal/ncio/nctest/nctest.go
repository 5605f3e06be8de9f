// Package nctest writes small NetCDF files for tests.
package nctest

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
)

// Variable describes one gridded variable to write. Values are laid out
// [time, lat, lon] following the order of Lat and Lon as given, so a
// descending Lat writes a north-to-south file. NaN values are stored as
// FillValue.
type Variable struct {
	Name   string
	Lat    []float64
	Lon    []float64
	NT     int
	Values []float64
	// NoTime writes a 2-D [lat, lon] variable; NT must then be 1.
	NoTime bool
	// Record makes time the unlimited dimension, as in model output. Only
	// the first variable's setting is used.
	Record bool
	// Packed stores the values as int16 with the given scale and offset.
	Packed        bool
	Scale, Offset float64
	// FillValue defaults to 1e20, or -32768 for packed variables.
	FillValue float64
	Units     string
}

func (v Variable) fill() float64 {
	switch {
	case v.FillValue != 0:
		return v.FillValue
	case v.Packed:
		return math.MinInt16
	default:
		return 1e20
	}
}

// Write creates path holding the given variables. All variables share the
// time, lat and lon dimensions of the first one.
func Write(path string, vars ...Variable) error {
	if len(vars) == 0 {
		return fmt.Errorf("nctest: no variable")
	}
	v0 := vars[0]
	if v0.NT < 1 {
		v0.NT = 1
	}
	ntDim := v0.NT
	if v0.Record {
		ntDim = 0
	}
	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{ntDim, len(v0.Lat), len(v0.Lon)})
	h.AddAttribute("", "comment", "test fixture")
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	for _, v := range vars {
		dims := []string{"time", "lat", "lon"}
		if v.NoTime {
			dims = dims[1:]
		}
		if v.Packed {
			h.AddVariable(v.Name, dims, []int16{0})
			h.AddAttribute(v.Name, "scale_factor", []float32{float32(v.Scale)})
			h.AddAttribute(v.Name, "add_offset", []float32{float32(v.Offset)})
			h.AddAttribute(v.Name, "_FillValue", []int16{int16(v.fill())})
		} else {
			h.AddVariable(v.Name, dims, []float32{0})
			h.AddAttribute(v.Name, "_FillValue", []float32{float32(v.fill())})
		}
		if v.Units != "" {
			h.AddAttribute(v.Name, "units", v.Units)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("nctest: invalid header: %v", errs[0])
	}

	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	f, err := cdf.Create(fh, h)
	if err != nil {
		return err
	}
	if err := write(f, "lat", v0.Lat); err != nil {
		return err
	}
	if err := write(f, "lon", v0.Lon); err != nil {
		return err
	}
	for _, v := range vars {
		if err := writeVariable(f, v); err != nil {
			return fmt.Errorf("nctest: writing %s: %w", v.Name, err)
		}
	}
	return cdf.UpdateNumRecs(fh)
}

func write(f *cdf.File, name string, data any) error {
	if f.Header.IsRecordVariable(name) {
		// Record variables grow the file as they are written.
		_, err := f.Writer(name, nil, nil).Write(data)
		return err
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	_, err := f.Writer(name, start, end).Write(data)
	return err
}

func writeVariable(f *cdf.File, v Variable) error {
	if v.Packed {
		data := make([]int16, len(v.Values))
		for i, x := range v.Values {
			if math.IsNaN(x) {
				data[i] = int16(v.fill())
				continue
			}
			data[i] = int16(math.Round((x - v.Offset) / v.Scale))
		}
		return write(f, v.Name, data)
	}
	data := make([]float32, len(v.Values))
	for i, x := range v.Values {
		if math.IsNaN(x) {
			data[i] = float32(v.fill())
			continue
		}
		data[i] = float32(x)
	}
	return write(f, v.Name, data)
}
