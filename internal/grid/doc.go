// Package grid holds rectilinear latitude/longitude fields and the spatial
// operations the comparison needs: region subsetting with longitude wrapping,
// area weights, first-order conservative regridding, masking and
// area-weighted means.
//
// Fields are stored as ctessum/sparse dense arrays shaped [time, lat, lon]
// with NaN marking missing values.
package grid
