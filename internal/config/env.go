// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the DMC_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides,
// grouped as numeric, duration, string and bool.
var envOverrides = []envOverride{
	// Numeric overrides
	{"ITERATIONS", []string{"iterations"}, func(c *AppConfig, v string) { c.Iterations = parseIntEnv(v, c.Iterations) }},
	{"YEARS", []string{"years"}, func(c *AppConfig, v string) { c.Years = parseIntEnv(v, c.Years) }},
	{"WORKERS", []string{"workers"}, func(c *AppConfig, v string) { c.Workers = parseIntEnv(v, c.Workers) }},
	{"SEED", []string{"seed"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},

	// String overrides
	{"CATALOG", []string{"catalog"}, func(c *AppConfig, v string) { c.CatalogPath = v }},
	{"DATA_ROOT", []string{"data-root"}, func(c *AppConfig, v string) { c.DataRoot = v }},
	{"LGM_DIR", []string{"lgm-dir"}, func(c *AppConfig, v string) { c.LGMDir = v }},
	{"MH_DIR", []string{"mh-dir"}, func(c *AppConfig, v string) { c.MHDir = v }},
	{"STORE", []string{"store"}, func(c *AppConfig, v string) { c.StorePath = v }},
	{"OUT", []string{"out"}, func(c *AppConfig, v string) { c.OutDir = v }},
	{"VERSION_TAG", []string{"version-tag"}, func(c *AppConfig, v string) { c.VersionTag = v }},
	{"ERROR_MODEL", []string{"error-model"}, func(c *AppConfig, v string) { c.ErrorModel = v }},
	{"METRICS_FILE", []string{"metrics-file"}, func(c *AppConfig, v string) { c.MetricsFile = v }},
	{"THEME", []string{"theme"}, func(c *AppConfig, v string) { c.Theme = v }},

	// Boolean overrides
	{"REUSE", []string{"reuse"}, func(c *AppConfig, v string) { c.Reuse = parseBoolEnv(v, c.Reuse) }},
	{"MONTE_CARLO", []string{"monte-carlo"}, func(c *AppConfig, v string) { c.MonteCarlo = parseBoolEnv(v, c.MonteCarlo) }},
	{"SKIP_MISSING", []string{"skip-missing"}, func(c *AppConfig, v string) { c.SkipMissing = parseBoolEnv(v, c.SkipMissing) }},
	{"NO_PLOTS", []string{"no-plots"}, func(c *AppConfig, v string) { c.NoPlots = parseBoolEnv(v, c.NoPlots) }},
	{"NO_FIG32A", []string{"no-fig32a"}, func(c *AppConfig, v string) { c.NoFig32a = parseBoolEnv(v, c.NoFig32a) }},
	{"VERBOSE", []string{"v"}, func(c *AppConfig, v string) { c.Verbose = parseBoolEnv(v, c.Verbose) }},
	{"QUIET", []string{"quiet"}, func(c *AppConfig, v string) { c.Quiet = parseBoolEnv(v, c.Quiet) }},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// parseIntEnv parses an integer environment variable value, returning
// defaultVal if it is not a valid integer.
func parseIntEnv(val string, defaultVal int) int {
	if parsed, err := strconv.Atoi(val); err == nil {
		return parsed
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
