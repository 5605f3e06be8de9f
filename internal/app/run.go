package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pmip/dmcompare/internal/averaging"
	"github.com/pmip/dmcompare/internal/cli"
	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/figure"
	"github.com/pmip/dmcompare/internal/logging"
	"github.com/pmip/dmcompare/internal/orchestration"
	"github.com/pmip/dmcompare/internal/report"
	"github.com/pmip/dmcompare/internal/results"
	"github.com/pmip/dmcompare/internal/stats"
)

var tracer = otel.Tracer("github.com/pmip/dmcompare/internal/app")

// run computes or loads the results, then writes the reports and figures.
func (a *Application) run(ctx context.Context, out io.Writer) (paths []string, err error) {
	ctx, span := tracer.Start(ctx, "dmcompare", trace.WithAttributes(
		attribute.String("version_tag", a.Config.VersionTag),
		attribute.Bool("reuse", a.Config.Reuse),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tree, err := a.loadOrCompute(ctx, out)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.writeOutputs(ctx, tree)
}

// loadOrCompute runs the averaging stage and saves its tree, or loads the saved
// tree with -reuse.
func (a *Application) loadOrCompute(ctx context.Context, out io.Writer) (*results.Tree, error) {
	store, err := results.Open(ctx, a.Config.StorePath)
	if err != nil {
		return nil, apperrors.WrapError(err, "result store")
	}
	defer store.Close()

	if a.Config.Reuse {
		tree, meta, err := store.Load(ctx)
		if errors.Is(err, results.ErrEmptyStore) {
			return nil, apperrors.NewConfigError("nothing to reuse: %v", err)
		}
		if err != nil {
			return nil, err
		}
		a.logger.Info("reusing stored results",
			logging.String("store", store.Path()),
			logging.String("version", meta.Version),
			logging.String("created", meta.Created.Format(time.RFC3339)),
			logging.Int("entries", tree.Len()))
		return tree, nil
	}

	errorModel, err := stats.ParseErrorModel(a.Config.ErrorModel)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	opts := averaging.Options{
		DataRoot:    a.Config.DataRoot,
		PeriodDirs:  a.Config.PeriodDirs(),
		MonteCarlo:  a.Config.MonteCarlo,
		Iterations:  a.Config.Iterations,
		Years:       a.Config.Years,
		ErrorModel:  errorModel,
		Seed:        a.Config.Seed,
		Workers:     a.Config.Workers,
		SkipMissing: a.Config.SkipMissing,
	}
	averager := averaging.New(a.Catalog, a.Source, opts, a.logger, a.metrics)

	// Choose progress reporter based on quiet mode
	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		reporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	} else {
		averager.SetPresenter(cli.CLIResultPresenter{})
	}

	tree, err := averager.Run(ctx, reporter, progressOut)
	if err != nil {
		return nil, err
	}

	meta := results.Meta{
		Version:    a.Config.VersionTag,
		Created:    time.Now().UTC(),
		MonteCarlo: a.Config.MonteCarlo,
		Iterations: a.Config.Iterations,
		Years:      a.Config.Years,
		ErrorModel: string(errorModel),
		Seed:       a.Config.Seed,
	}
	if err := store.Save(ctx, tree, meta); err != nil {
		return nil, apperrors.WrapError(err, "saving results")
	}
	a.logger.Info("results saved", logging.String("store", store.Path()), logging.Int("entries", tree.Len()))
	return tree, nil
}

// writeOutputs writes the numeric reports and, unless disabled, the
// figures. Reports never depend on plotting.
func (a *Application) writeOutputs(ctx context.Context, tree *results.Tree) ([]string, error) {
	_, span := tracer.Start(ctx, "outputs")
	defer span.End()

	cat, dir, version := a.Catalog, a.Config.OutDir, a.Config.VersionTag
	var paths []string

	panels, err := report.BuildPanels(cat, tree)
	if err != nil {
		return nil, apperrors.WrapError(err, "summary figure")
	}
	path := filepath.Join(dir, report.SummaryFileName(version))
	if err := report.WriteFile(path, func(w io.Writer) error { return report.WriteSummary(w, cat.Creator, panels) }); err != nil {
		return nil, err
	}
	paths = append(paths, path)

	if !a.Config.NoPlots {
		fig, err := figure.Summary(cat, panels, version)
		if err != nil {
			return nil, apperrors.WrapError(err, "summary figure")
		}
		saved, err := fig.Save(dir)
		paths = append(paths, saved...)
		if err != nil {
			return paths, err
		}
	}

	if a.Config.NoFig32a || cat.Figure32a.Name == "" {
		return paths, nil
	}
	scatter, err := report.BuildScatter(cat, tree)
	if err != nil {
		return paths, apperrors.WrapError(err, "scatter figure")
	}
	path = filepath.Join(dir, report.ScatterFileName(version))
	if err := report.WriteFile(path, func(w io.Writer) error { return report.WriteScatter(w, cat.Creator, scatter) }); err != nil {
		return paths, err
	}
	paths = append(paths, path)

	if !a.Config.NoPlots {
		fig, err := figure.Scatter(cat, scatter, version)
		if err != nil {
			return paths, apperrors.WrapError(err, "scatter figure")
		}
		saved, err := fig.Save(dir)
		paths = append(paths, saved...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}
