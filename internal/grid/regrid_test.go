package grid

import (
	"math"
	"testing"
)

func TestRegridIdentity(t *testing.T) {
	t.Parallel()
	g := Grid{Lat: []float64{-30, 30}, Lon: []float64{0, 120, 240}}
	f := NewField(g, 1)
	for k := range f.Data.Elements {
		f.Data.Elements[k] = float64(k)
	}
	o := Regrid(f, g)
	for k := range o.Data.Elements {
		if o.Data.Elements[k] != f.Data.Elements[k] {
			t.Fatalf("identity regrid changed element %d", k)
		}
	}
}

func TestRegridAcrossLongitudeConventions(t *testing.T) {
	t.Parallel()
	src := Grid{Lat: []float64{0}, Lon: seq(10, 20, 18)}
	dst := Grid{Lat: []float64{0}, Lon: seq(-170, 20, 18)}
	f := NewField(src, 1)
	for j, lon := range src.Lon {
		f.Set(lon, 0, 0, j)
	}
	o := Regrid(f, dst)
	if got := o.At(0, 0, 0); !almostEqual(got, 190, 1e-9) {
		t.Errorf("target lon -170 = %g, want source value at 190", got)
	}
	if got := o.At(0, 0, 9); !almostEqual(got, 10, 1e-9) {
		t.Errorf("target lon 10 = %g, want 10", got)
	}
}

func TestRegridIgnoresMissing(t *testing.T) {
	t.Parallel()
	src := Grid{Lat: []float64{-45, 45}, Lon: []float64{90, 270}}
	dst := Grid{Lat: []float64{0}, Lon: []float64{90, 270}}
	f := NewField(src, 1)
	f.Set(5, 0, 0, 0)
	f.Set(math.NaN(), 0, 1, 0)
	o := Regrid(f, dst)
	if got := o.At(0, 0, 0); got != 5 {
		t.Errorf("regridded value = %g, want 5", got)
	}
	if got := o.At(0, 0, 1); !math.IsNaN(got) {
		t.Errorf("cell without valid source = %g, want NaN", got)
	}
}
