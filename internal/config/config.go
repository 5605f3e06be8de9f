// Package config parses the command line and environment into the run
// configuration.
package config

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"time"

	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/stats"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "DMC_"

// Defaults.
const (
	DefaultStore      = "DMC_LGM_MH_PMIP3_PMIP4_IPCC_save_res2.db"
	DefaultVersionTag = "20210326"
	DefaultIterations = 10000
	DefaultYears      = 50
	DefaultSeed       = 20210326
	DefaultTimeout    = 6 * time.Hour
	DefaultTheme      = "dark"
)

// Themes are the accepted -theme values.
var Themes = []string{"dark", "light", "none"}

// AppConfig is the configuration of one run.
type AppConfig struct {
	// CatalogPath is a YAML catalog replacing the embedded one.
	CatalogPath string
	DataRoot    string
	LGMDir      string
	MHDir       string
	StorePath   string
	OutDir      string
	VersionTag  string

	Reuse       bool
	MonteCarlo  bool
	Iterations  int
	Years       int
	ErrorModel  string
	Seed        uint64
	Workers     int
	SkipMissing bool

	NoPlots     bool
	NoFig32a    bool
	MetricsFile string

	Timeout time.Duration
	Verbose bool
	Quiet   bool
	// Theme colors the console output: dark, light or none.
	Theme string
}

// PeriodDirs returns the model directory overrides by period.
func (c AppConfig) PeriodDirs() map[string]string {
	dirs := make(map[string]string)
	if c.LGMDir != "" {
		dirs["LGM"] = c.LGMDir
	}
	if c.MHDir != "" {
		dirs["MH"] = c.MHDir
	}
	return dirs
}

// Validate checks the values that flag parsing cannot.
func (c AppConfig) Validate() error {
	if c.Verbose && c.Quiet {
		return apperrors.NewConfigError("-v and -quiet are mutually exclusive")
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers must not be negative, got %d", c.Workers)
	}
	if c.VersionTag == "" {
		return apperrors.NewConfigError("version tag must not be empty")
	}
	if c.Theme != "" && !slices.Contains(Themes, c.Theme) {
		return apperrors.NewConfigError("unknown theme %q, want one of %v", c.Theme, Themes)
	}
	if c.StorePath == "" {
		return apperrors.NewConfigError("a result store path is required")
	}
	if c.Reuse {
		return nil
	}
	// The reconstruction uncertainty is sampled even without -monte-carlo.
	if c.Iterations <= 0 {
		return apperrors.NewConfigError("iterations must be positive, got %d", c.Iterations)
	}
	if c.MonteCarlo && c.Years <= 0 {
		return apperrors.NewConfigError("years must be positive, got %d", c.Years)
	}
	if _, err := stats.ParseErrorModel(c.ErrorModel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	return nil
}

// ParseConfig parses args (without the program name). Explicit flags win
// over DMC_ environment variables, which win over the defaults.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [options]\n\n", programName)
		fmt.Fprintln(errWriter, "Compares paleoclimate reconstructions with PMIP model ensembles.")
		fmt.Fprintln(errWriter, "Every option can also be set with a DMC_ environment variable, e.g. DMC_WORKERS=8.")
		fmt.Fprintln(errWriter)
		fs.PrintDefaults()
	}

	var c AppConfig
	fs.StringVar(&c.CatalogPath, "catalog", "", "YAML catalog replacing the embedded tables.")
	fs.StringVar(&c.DataRoot, "data-root", "", "Root directory of the reconstruction files (overrides the catalog).")
	fs.StringVar(&c.LGMDir, "lgm-dir", "", "Directory of the LGM model output (overrides the catalog).")
	fs.StringVar(&c.MHDir, "mh-dir", "", "Directory of the MH model output (overrides the catalog).")
	fs.StringVar(&c.StorePath, "store", DefaultStore, "SQLite file caching the averaged results.")
	fs.StringVar(&c.OutDir, "out", ".", "Directory receiving the figures and reports.")
	fs.StringVar(&c.VersionTag, "version-tag", DefaultVersionTag, "Tag inserted in every output file name.")
	fs.BoolVar(&c.Reuse, "reuse", false, "Skip the averaging stage and load the result store.")
	fs.BoolVar(&c.MonteCarlo, "monte-carlo", true, "Estimate temporal uncertainty by subsampling years.")
	fs.IntVar(&c.Iterations, "iterations", DefaultIterations, "Monte Carlo iterations.")
	fs.IntVar(&c.Years, "years", DefaultYears, "Years averaged by each subsampling iteration.")
	fs.StringVar(&c.ErrorModel, "error-model", string(stats.Correlated), "Reconstruction error model: correlated or independent.")
	fs.Uint64Var(&c.Seed, "seed", DefaultSeed, "Seed of the Monte Carlo generators.")
	fs.IntVar(&c.Workers, "workers", EstimateWorkers(), "Concurrent averaging tasks (0 means unlimited).")
	fs.BoolVar(&c.SkipMissing, "skip-missing", false, "Omit models whose output files are missing instead of failing.")
	fs.BoolVar(&c.NoPlots, "no-plots", false, "Write the numeric reports only.")
	fs.BoolVar(&c.NoFig32a, "no-fig32a", false, "Skip the land versus ocean figure and report.")
	fs.StringVar(&c.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file at exit.")
	fs.DurationVar(&c.Timeout, "timeout", DefaultTimeout, "Maximum run time.")
	fs.BoolVar(&c.Verbose, "v", false, "Debug logging.")
	fs.BoolVar(&c.Quiet, "quiet", false, "Warnings and errors only, no progress display.")
	fs.StringVar(&c.Theme, "theme", DefaultTheme, "Console color theme: dark, light or none.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	applyEnvOverrides(&c, fs)

	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}
