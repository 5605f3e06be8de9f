package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors of the CLI output.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary is the main accent color for headings.
	Primary lipgloss.TerminalColor
	// Secondary is used for labels and less prominent elements.
	Secondary lipgloss.TerminalColor
	// Success indicates completed tasks.
	Success lipgloss.TerminalColor
	// Warning is used for skipped models and slow tasks.
	Warning lipgloss.TerminalColor
	// Error indicates failures.
	Error lipgloss.TerminalColor
	// Info is used for file paths and values.
	Info lipgloss.TerminalColor
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   lipgloss.Color("39"),  // Bright blue
		Secondary: lipgloss.Color("245"), // Grey
		Success:   lipgloss.Color("82"),  // Bright green
		Warning:   lipgloss.Color("220"), // Yellow
		Error:     lipgloss.Color("196"), // Red
		Info:      lipgloss.Color("141"), // Purple
	}

	// LightTheme is optimized for light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   lipgloss.Color("27"),  // Dark blue
		Secondary: lipgloss.Color("240"), // Dark grey
		Success:   lipgloss.Color("28"),  // Dark green
		Warning:   lipgloss.Color("130"), // Orange
		Error:     lipgloss.Color("124"), // Dark red
		Info:      lipgloss.Color("54"),  // Dark purple
	}

	// NoColorTheme disables all color output.
	// Used when NO_COLOR is set.
	NoColorTheme = Theme{
		Name:      "none",
		Primary:   lipgloss.NoColor{},
		Secondary: lipgloss.NoColor{},
		Success:   lipgloss.NoColor{},
		Warning:   lipgloss.NoColor{},
		Error:     lipgloss.NoColor{},
		Info:      lipgloss.NoColor{},
	}

	// currentTheme is the active theme used throughout the application.
	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// Styles returns the styles of the theme.
func (t Theme) Styles() Styles {
	bold := t.Name != "none"
	return Styles{
		Title:   lipgloss.NewStyle().Bold(bold).Foreground(t.Primary),
		Label:   lipgloss.NewStyle().Foreground(t.Secondary),
		Value:   lipgloss.NewStyle().Foreground(t.Info),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Bold(bold).Foreground(t.Error),
	}
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name.
// Valid names are: "dark", "light", "none".
// Unknown names default to dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	switch name {
	case "light":
		currentTheme = LightTheme
	case "none":
		currentTheme = NoColorTheme
	default:
		currentTheme = DarkTheme
	}
}

// InitTheme selects the named theme unless the NO_COLOR environment variable
// (https://no-color.org/) is set, in which case colors are disabled.
func InitTheme(name string) {
	// Any value disables colors, see no-color.org
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		name = "none"
	}
	SetTheme(name)
}
