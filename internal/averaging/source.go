//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

package averaging

import (
	"context"
	"path/filepath"

	"github.com/pmip/dmcompare/internal/grid"
	"github.com/pmip/dmcompare/internal/ncio"
)

// FieldSource reads gridded fields and lists candidate files.
type FieldSource interface {
	// ReadField loads variable from the file at path over a region.
	ReadField(ctx context.Context, path, variable string, lat, lon grid.Interval) (*grid.Field, error)
	// Glob returns the files matching pattern.
	Glob(pattern string) ([]string, error)
}

// NetCDFSource reads fields from NetCDF files on the local file system.
type NetCDFSource struct{}

// ReadField opens path, reads the region and closes the file.
func (NetCDFSource) ReadField(ctx context.Context, path, variable string, lat, lon grid.Interval) (*grid.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Read(variable, lat, lon)
}

// Glob matches pattern with filepath.Glob.
func (NetCDFSource) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
