// Package ui provides theme and color support for the command-line output.
// It defines color schemes as lipgloss colors and derives the styles used by
// the presentation layer, so business logic never deals with escape codes.
package ui
