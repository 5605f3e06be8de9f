package grid

import (
	"fmt"
	"math"
)

// Interval is a coordinate range with a two-letter closure code: the first
// letter applies to Lo, the second to Hi, 'c' closed and 'o' open.
type Interval struct {
	Lo      float64 `yaml:"lo" json:"lo"`
	Hi      float64 `yaml:"hi" json:"hi"`
	Closure string  `yaml:"closure" json:"closure"`
}

// Validate checks the bounds and closure code.
func (iv Interval) Validate() error {
	if math.IsNaN(iv.Lo) || math.IsNaN(iv.Hi) {
		return fmt.Errorf("interval bounds must be numbers")
	}
	if iv.Lo > iv.Hi {
		return fmt.Errorf("interval lower bound %g is above upper bound %g", iv.Lo, iv.Hi)
	}
	switch iv.closure() {
	case "cc", "co", "oc", "oo":
		return nil
	default:
		return fmt.Errorf("invalid closure %q (want cc, co, oc or oo)", iv.Closure)
	}
}

// closure defaults to a closed interval.
func (iv Interval) closure() string {
	if iv.Closure == "" {
		return "cc"
	}
	return iv.Closure
}

// Contains reports whether x lies in the interval.
func (iv Interval) Contains(x float64) bool {
	c := iv.closure()
	if len(c) != 2 {
		return false
	}
	switch c[0] {
	case 'c':
		if x < iv.Lo {
			return false
		}
	default:
		if x <= iv.Lo {
			return false
		}
	}
	switch c[1] {
	case 'c':
		return x <= iv.Hi
	default:
		return x < iv.Hi
	}
}

// String formats the interval in bracket notation.
func (iv Interval) String() string {
	c := iv.closure()
	left, right := "[", "]"
	if len(c) == 2 {
		if c[0] == 'o' {
			left = "("
		}
		if c[1] == 'o' {
			right = ")"
		}
	}
	return fmt.Sprintf("%s%g, %g%s", left, iv.Lo, iv.Hi, right)
}

// wrapLon maps x into [lo, lo+360).
func wrapLon(x, lo float64) float64 {
	d := math.Mod(x-lo, 360)
	if d < 0 {
		d += 360
	}
	if w := lo + d; w < lo+360 {
		return w
	}
	return lo
}

// SelectLon returns the indices of the longitudes falling inside iv once
// wrapped into [iv.Lo, iv.Lo+360), ordered by their wrapped value, together
// with the wrapped values. A 0..360 axis queried with a -180..180 interval is
// thus rotated into ascending -180..180 order.
func SelectLon(lons []float64, iv Interval) (idx []int, values []float64) {
	type pick struct {
		i int
		v float64
	}
	picks := make([]pick, 0, len(lons))
	for i, x := range lons {
		w := wrapLon(x, iv.Lo)
		if iv.Contains(w) {
			picks = append(picks, pick{i, w})
		}
	}
	// Insertion sort: axes are short and usually already ordered.
	for a := 1; a < len(picks); a++ {
		for b := a; b > 0 && picks[b].v < picks[b-1].v; b-- {
			picks[b], picks[b-1] = picks[b-1], picks[b]
		}
	}
	idx = make([]int, len(picks))
	values = make([]float64, len(picks))
	for k, p := range picks {
		idx[k] = p.i
		values[k] = p.v
	}
	return idx, values
}

// SelectLat returns the indices and values of the latitudes inside iv.
func SelectLat(lats []float64, iv Interval) (idx []int, values []float64) {
	for i, y := range lats {
		if iv.Contains(y) {
			idx = append(idx, i)
			values = append(values, y)
		}
	}
	return idx, values
}
