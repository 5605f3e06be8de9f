package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmip/dmcompare/internal/averaging"
	"github.com/pmip/dmcompare/internal/catalog"
	"github.com/pmip/dmcompare/internal/cli"
	"github.com/pmip/dmcompare/internal/config"
	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/logging"
	"github.com/pmip/dmcompare/internal/metrics"
	"github.com/pmip/dmcompare/internal/ui"
)

// Application represents the dmcompare application instance.
type Application struct {
	Config    config.AppConfig
	Catalog   *catalog.Catalog
	Source    averaging.FieldSource
	ErrWriter io.Writer

	logger  logging.Logger
	metrics *metrics.Metrics
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithSource sets the field source read by the averaging stage.
func WithSource(src averaging.FieldSource) AppOption {
	return func(a *Application) { a.Source = src }
}

// WithCatalog sets the catalog instead of loading it from the configuration.
func WithCatalog(cat *catalog.Catalog) AppOption {
	return func(a *Application) { a.Catalog = cat }
}

// New creates a new Application instance by parsing command-line arguments
// and loading the catalog.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.Source == nil {
		app.Source = averaging.NetCDFSource{}
	}

	programName := "dmcompare"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		if !IsHelpError(err) {
			fmt.Fprintf(errWriter, "Error: %v\n", err)
		}
		return nil, err
	}
	app.Config = cfg

	if app.Catalog == nil {
		cat, err := loadCatalog(cfg.CatalogPath)
		if err != nil {
			fmt.Fprintf(errWriter, "Error: %v\n", err)
			return nil, err
		}
		app.Catalog = cat
	}
	return app, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func (a *Application) logLevel() zerolog.Level {
	switch {
	case a.Config.Verbose:
		return zerolog.DebugLevel
	case a.Config.Quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Run executes the comparison and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.Theme)
	a.logger = logging.NewConsoleLogger(a.ErrWriter, "dmcompare", a.logLevel())
	a.metrics = metrics.New()

	// Setup lifecycle (timeout + signals)
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if !a.Config.Quiet {
		cli.PrintRunConfig(a.Config, out)
	}

	start := time.Now()
	paths, err := a.run(ctx, out)
	if mErr := a.writeMetrics(); mErr != nil {
		a.logger.Warn("could not write metrics", logging.Err(mErr))
	}
	if err != nil {
		return a.handleError(err)
	}

	if !a.Config.Quiet {
		cli.DisplayOutputs(out, paths, time.Since(start))
	}
	return apperrors.ExitSuccess
}

func (a *Application) writeMetrics() error {
	if a.Config.MetricsFile == "" {
		return nil
	}
	return a.metrics.WriteToTextfile(a.Config.MetricsFile)
}

// handleError logs err and maps it to an exit code.
func (a *Application) handleError(err error) int {
	code := apperrors.ExitCode(err)
	switch code {
	case apperrors.ExitErrorTimeout:
		a.logger.Error("run timed out", apperrors.TimeoutError{Operation: "dmcompare", Limit: a.Config.Timeout})
	case apperrors.ExitErrorCanceled:
		a.logger.Warn("run canceled")
	default:
		a.logger.Error("run failed", err, logging.Int("exit_code", code))
	}
	return code
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
