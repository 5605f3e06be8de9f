// Package figure renders the data-model comparison figures with gonum/plot:
// the multi-panel summary of regional and global anomalies and the land
// versus ocean scatter. Figures are assembled from the report package's
// panel data, so the numeric reports and the plots always agree.
package figure
