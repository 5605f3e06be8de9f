// Package results holds the comparison result tree and persists it in a
// SQLite key-value table so that figures and reports can be regenerated
// without recomputing the averages.
package results
