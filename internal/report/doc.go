// Package report assembles the values shown by the summary figures from a
// result tree and writes them as plain-text numeric reports.
//
// Build* functions return the panel data shared with the figure renderer,
// Write* functions produce the text files.
package report
