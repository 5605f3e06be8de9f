// Package ncio reads gridded variables from NetCDF classic files into
// grid.Field values, applying the CF packing and missing-value conventions.
package ncio
