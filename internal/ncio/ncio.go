package ncio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/cdf"

	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/grid"
)

// File is an open NetCDF file.
type File struct {
	path string
	fh   *os.File
	f    *cdf.File
	nrec int
}

// Open opens the NetCDF file at path for reading.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError(path, err, "cannot open")
	}
	f, err := cdf.Open(fh)
	if err != nil {
		fh.Close()
		return nil, apperrors.NewDataError(path, err, "not a NetCDF file")
	}
	fi, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, apperrors.NewDataError(path, err, "cannot stat")
	}
	// The header numrecs field may be left as streaming; the file size is
	// authoritative.
	nrec := f.Header.NumRecs(fi.Size())
	return &File{path: path, fh: fh, f: f, nrec: int(nrec)}, nil
}

// Close releases the underlying file handle.
func (f *File) Close() error { return f.fh.Close() }

// Path returns the file name the File was opened from.
func (f *File) Path() string { return f.path }

// NumRecs returns the number of records along the unlimited dimension.
func (f *File) NumRecs() int { return f.nrec }

// lengths returns the shape of name with the record count substituted
// for the unlimited dimension.
func (f *File) lengths(name string) []int {
	lens := append([]int(nil), f.f.Header.Lengths(name)...)
	if len(lens) > 0 && f.f.Header.IsRecordVariable(name) {
		lens[0] = f.nrec
	}
	return lens
}

// Variables lists the variables stored in the file.
func (f *File) Variables() []string { return f.f.Header.Variables() }

// Read loads variable over the latitude and longitude intervals. The two
// last dimensions of the variable are taken as latitude and longitude; all
// leading dimensions are flattened into time steps.
func (f *File) Read(variable string, lat, lon grid.Interval) (*grid.Field, error) {
	lens := f.lengths(variable)
	if len(lens) == 0 {
		return nil, apperrors.NewDataError(f.path, nil, "no variable %q", variable)
	}
	if len(lens) < 2 {
		return nil, apperrors.NewDataError(f.path, nil, "variable %q has %d dimensions, want at least 2", variable, len(lens))
	}
	dims := f.f.Header.Dimensions(variable)
	latName, lonName := dims[len(dims)-2], dims[len(dims)-1]
	lats, err := f.coordinate(latName)
	if err != nil {
		return nil, err
	}
	lons, err := f.coordinate(lonName)
	if err != nil {
		return nil, err
	}
	nlat, nlon := lens[len(lens)-2], lens[len(lens)-1]
	if len(lats) != nlat || len(lons) != nlon {
		return nil, apperrors.NewDataError(f.path, nil, "coordinate lengths of %q do not match its shape", variable)
	}
	nt := 1
	for _, n := range lens[:len(lens)-2] {
		nt *= n
	}
	if nt == 0 {
		return nil, apperrors.NewDataError(f.path, nil, "variable %q has no records", variable)
	}

	values, err := f.values(variable)
	if err != nil {
		return nil, err
	}
	if len(values) != nt*nlat*nlon {
		return nil, apperrors.NewDataError(f.path, nil, "variable %q holds %d values, want %d", variable, len(values), nt*nlat*nlon)
	}
	f.unpack(variable, values)

	descending := nlat > 1 && lats[0] > lats[nlat-1]
	g := grid.Grid{Lat: make([]float64, nlat), Lon: lons}
	for i := range lats {
		if descending {
			g.Lat[i] = lats[nlat-1-i]
		} else {
			g.Lat[i] = lats[i]
		}
	}
	full := grid.NewField(g, nt)
	for t := 0; t < nt; t++ {
		for i := 0; i < nlat; i++ {
			src := i
			if descending {
				src = nlat - 1 - i
			}
			copy(full.Data.Elements[(t*nlat+i)*nlon:(t*nlat+i+1)*nlon], values[(t*nlat+src)*nlon:(t*nlat+src+1)*nlon])
		}
	}
	sub, err := grid.Subset(full, lat, lon)
	if err != nil {
		return nil, apperrors.NewDataError(f.path, err, "variable %q", variable)
	}
	return sub, nil
}

func (f *File) coordinate(name string) ([]float64, error) {
	if len(f.f.Header.Lengths(name)) != 1 {
		return nil, apperrors.NewDataError(f.path, nil, "no coordinate variable %q", name)
	}
	return f.values(name)
}

// values reads a whole variable, every record included, and converts it
// to float64.
func (f *File) values(name string) ([]float64, error) {
	lens := f.lengths(name)
	n := 1
	last := make([]int, len(lens))
	for i, l := range lens {
		n *= l
		last[i] = l - 1
	}
	if n == 0 {
		return nil, nil
	}
	r := f.f.Reader(name, make([]int, len(lens)), last)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewDataError(f.path, err, "reading %q", name)
	}
	out, err := toFloat64s(buf)
	if err != nil {
		return nil, apperrors.NewDataError(f.path, err, "variable %q", name)
	}
	return out, nil
}

// unpack replaces fill and missing values with NaN and applies the
// scale_factor and add_offset attributes.
func (f *File) unpack(variable string, values []float64) {
	var missing []float64
	for _, attr := range []string{"_FillValue", "missing_value"} {
		if v, err := toFloat64s(f.f.Header.GetAttribute(variable, attr)); err == nil {
			missing = append(missing, v...)
		}
	}
	scale, offset := 1.0, 0.0
	if v, err := toFloat64s(f.f.Header.GetAttribute(variable, "scale_factor")); err == nil && len(v) > 0 {
		scale = v[0]
	}
	if v, err := toFloat64s(f.f.Header.GetAttribute(variable, "add_offset")); err == nil && len(v) > 0 {
		offset = v[0]
	}
	for i, v := range values {
		if isMissing(v, missing) {
			values[i] = math.NaN()
			continue
		}
		values[i] = v*scale + offset
	}
}

func isMissing(v float64, missing []float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, m := range missing {
		if v == m {
			return true
		}
		// Fill values stored as float32 do not round-trip exactly.
		if m != 0 && math.Abs(v-m) <= math.Abs(m)*1e-6 {
			return true
		}
	}
	return false
}

func toFloat64s(v any) ([]float64, error) {
	switch s := v.(type) {
	case []float64:
		return append([]float64(nil), s...), nil
	case []float32:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case []uint8:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("no value")
	default:
		return nil, fmt.Errorf("unsupported storage type %T", v)
	}
}
