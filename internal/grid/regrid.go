package grid

import "math"

type overlap struct {
	src int
	w   float64
}

// latOverlaps returns, per target latitude band, the source bands it
// intersects weighted by the intersection in sin(latitude).
func latOverlaps(src, dst []float64) [][]overlap {
	out := make([][]overlap, len(dst)-1)
	for i := 0; i+1 < len(dst); i++ {
		s, n := dst[i], dst[i+1]
		for k := 0; k+1 < len(src); k++ {
			lo, hi := math.Max(s, src[k]), math.Min(n, src[k+1])
			if hi <= lo {
				continue
			}
			out[i] = append(out[i], overlap{src: k, w: sinDeg(hi) - sinDeg(lo)})
		}
	}
	return out
}

// lonOverlaps is latOverlaps for longitudes. Source cells are also tried
// shifted by +/-360 degrees so that axes in different conventions line up.
func lonOverlaps(src, dst []float64) [][]overlap {
	out := make([][]overlap, len(dst)-1)
	for i := 0; i+1 < len(dst); i++ {
		w, e := dst[i], dst[i+1]
		for k := 0; k+1 < len(src); k++ {
			var total float64
			for _, shift := range []float64{-360, 0, 360} {
				lo, hi := math.Max(w, src[k]+shift), math.Min(e, src[k+1]+shift)
				if hi > lo {
					total += hi - lo
				}
			}
			if total > 0 {
				out[i] = append(out[i], overlap{src: k, w: total})
			}
		}
	}
	return out
}

// Regrid interpolates f onto target with first-order conservative
// remapping: each target cell is the overlap-area-weighted mean of the valid
// source cells it intersects. Target cells without valid overlap are NaN.
func Regrid(f *Field, target Grid) *Field {
	if f.Grid.Equal(target) {
		return f.Clone()
	}
	lat := latOverlaps(latBounds(f.Grid), latBounds(target))
	lon := lonOverlaps(lonBounds(f.Grid), lonBounds(target))
	o := NewField(target, f.NT)
	nlat, nlon := target.Shape()
	for t := 0; t < f.NT; t++ {
		for i := 0; i < nlat; i++ {
			for j := 0; j < nlon; j++ {
				var sum, wsum float64
				for _, a := range lat[i] {
					for _, b := range lon[j] {
						v := f.At(t, a.src, b.src)
						if math.IsNaN(v) {
							continue
						}
						w := a.w * b.w
						sum += w * v
						wsum += w
					}
				}
				if wsum > 0 {
					o.Set(sum/wsum, t, i, j)
				}
			}
		}
	}
	return o
}
