// Package catalog holds the static tables driving a comparison run: the
// simulated periods and their model ensembles, reconstruction datasets,
// regions, variable mappings, display styling and figure layouts.
//
// The default catalog is embedded in the binary; Load reads an alternative
// YAML document with the same layout.
package catalog
