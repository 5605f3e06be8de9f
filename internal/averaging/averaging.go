package averaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pmip/dmcompare/internal/catalog"
	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/grid"
	"github.com/pmip/dmcompare/internal/logging"
	"github.com/pmip/dmcompare/internal/metrics"
	"github.com/pmip/dmcompare/internal/orchestration"
	"github.com/pmip/dmcompare/internal/results"
	"github.com/pmip/dmcompare/internal/stats"
)

// Stage names used for metrics and tracing.
const (
	StageReconstruction = "reconstruction"
	StageModel          = "model"
)

const (
	kelvinOffset     = 273.15
	secondsPerYear   = 86400 * 365
	resultLineFormat = "results for : %s, %s, %s, %s, %s, %7.2f, %7.2f"
)

// ErrMissingFile is returned when no model file matches a search pattern.
var ErrMissingFile = errors.New("no matching model output")

// Options controls the averaging stage.
type Options struct {
	// DataRoot replaces the catalog data root when set.
	DataRoot string
	// PeriodDirs replaces the model directory of the named periods.
	PeriodDirs  map[string]string
	MonteCarlo  bool
	Iterations  int
	Years       int
	ErrorModel  stats.ErrorModel
	Seed        uint64
	Workers     int
	SkipMissing bool
}

// Averager runs the averaging stage.
type Averager struct {
	cat     *catalog.Catalog
	src     FieldSource
	opts    Options
	logger  logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	// presenter receives the summary of each stage when set.
	presenter orchestration.ResultPresenter
}

// New creates an Averager. A nil logger discards output and nil metrics
// record nothing.
func New(cat *catalog.Catalog, src FieldSource, opts Options, logger logging.Logger, m *metrics.Metrics) *Averager {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.ErrorModel == "" {
		opts.ErrorModel = stats.Correlated
	}
	return &Averager{
		cat:     cat,
		src:     src,
		opts:    opts,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("github.com/pmip/dmcompare/internal/averaging"),
	}
}

// SetPresenter makes Run present a summary after each stage.
func (a *Averager) SetPresenter(p orchestration.ResultPresenter) { a.presenter = p }

// summaryTop is the number of slowest tasks shown in a stage summary.
const summaryTop = 5

func (a *Averager) present(stage string, res []orchestration.TaskResult, out io.Writer) {
	if a.presenter != nil && len(res) > 0 {
		a.presenter.PresentSummary(stage, orchestration.Summarize(res, summaryTop), out)
	}
}

// recGrid is what the model stage needs from a reconstruction entry.
type recGrid struct {
	grid grid.Grid
	mask grid.Mask
}

// Run computes the result tree. Progress of each stage is reported through
// reporter.
func (a *Averager) Run(ctx context.Context, reporter orchestration.ProgressReporter, out io.Writer) (*results.Tree, error) {
	ctx, span := a.tracer.Start(ctx, "averaging")
	defer span.End()

	jobs := Plan(a.cat)
	tree := results.NewTree()
	grids := make([]recGrid, len(jobs))

	recTasks := make([]orchestration.Task, len(jobs))
	for i, job := range jobs {
		recTasks[i] = orchestration.Task{
			Name: job.Key.String(),
			Run: func(ctx context.Context) error {
				entry, g, err := a.averageReconstruction(ctx, job)
				if err != nil {
					return err
				}
				tree.Put(job.Key, entry)
				grids[i] = g
				return nil
			},
		}
	}
	a.logger.Info("averaging reconstructions", logging.Int("tasks", len(recTasks)))
	res, err := orchestration.ExecuteTasks(ctx, recTasks, a.opts.Workers, reporter, out)
	a.present(StageReconstruction, res, out)
	if err != nil {
		return nil, failSpan(span, err)
	}

	var modelTasks []orchestration.Task
	for i, job := range jobs {
		for _, model := range job.Period.Models {
			modelTasks = append(modelTasks, orchestration.Task{
				Name: job.Key.String() + "/" + model,
				Run: func(ctx context.Context) error {
					return a.compareModel(ctx, job, grids[i], model, tree)
				},
			})
		}
	}
	a.logger.Info("comparing models", logging.Int("tasks", len(modelTasks)))
	res, err = orchestration.ExecuteTasks(ctx, modelTasks, a.opts.Workers, reporter, out)
	a.present(StageModel, res, out)
	if err != nil {
		return nil, failSpan(span, err)
	}
	return tree, nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (a *Averager) dataRoot() string {
	if a.opts.DataRoot != "" {
		return a.opts.DataRoot
	}
	return a.cat.DataRoot
}

func (a *Averager) periodDir(p catalog.Period) string {
	if d, ok := a.opts.PeriodDirs[p.Name]; ok && d != "" {
		return d
	}
	return p.Dir
}

func (a *Averager) averageReconstruction(ctx context.Context, job Job) (entry *results.Entry, g recGrid, err error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, StageReconstruction, trace.WithAttributes(attribute.String("key", job.Key.String())))
	defer func() {
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusFailed
			failSpan(span, err)
		}
		span.End()
		a.metrics.TaskDone(StageReconstruction, status, time.Since(start))
	}()

	a.logger.Debug("analysis", logging.String("period", job.Key.Period), logging.String("variable", job.Key.Variable),
		logging.String("region", job.Key.Region), logging.String("dataset", job.Key.Dataset))

	path := filepath.Join(a.dataRoot(), job.RecVar.Files[job.Key.Period])
	means, err := a.read(ctx, metrics.SourceReconstruction, path, job.RecVar.MeanName(), job.Region)
	if err != nil {
		return nil, g, apperrors.WrapError(err, "%s", job.Key)
	}
	stderrs, err := a.read(ctx, metrics.SourceReconstruction, path, job.RecVar.StdName(), job.Region)
	if err != nil {
		return nil, g, apperrors.WrapError(err, "%s", job.Key)
	}
	if !means.Grid.Equal(stderrs.Grid) {
		return nil, g, apperrors.NewDataError(path, nil, "%s and %s are on different grids", job.RecVar.MeanName(), job.RecVar.StdName())
	}
	mask, err := grid.CombineMasks(grid.MissingMask(means), grid.MissingMask(stderrs))
	if err != nil {
		return nil, g, err
	}
	n := mask.Valid()
	if n == 0 {
		return nil, g, apperrors.NewDataError(path, stats.ErrNoPoints, "%s", job.Key)
	}

	src := stats.TaskSource(a.opts.Seed, job.Key.String())
	est, err := stats.ReconstructionAverage(
		grid.Compressed(means, 0, mask),
		grid.Compressed(stderrs, 0, mask),
		grid.CompressedWeights(means.Grid, mask),
		a.opts.Iterations, a.opts.ErrorModel, src)
	if err != nil {
		return nil, g, apperrors.WrapError(err, "%s", job.Key)
	}
	a.metrics.Iterations(a.opts.Iterations)
	a.logger.Info(job.Key.Dataset+" reconstructions",
		logging.String("key", job.Key.String()),
		logging.Float64("average", est.Mean),
		logging.Float64("std", est.Std),
		logging.Int("nbpts", n))

	return &results.Entry{
		Mask:           mask,
		NPoints:        n,
		Reconstruction: est,
		Models:         make(map[string]results.ModelResult),
	}, recGrid{grid: means.Grid, mask: mask}, nil
}

func (a *Averager) read(ctx context.Context, source, path, variable string, region catalog.Region) (*grid.Field, error) {
	f, err := a.src.ReadField(ctx, path, variable, region.Lat, region.Lon)
	if err != nil {
		return nil, err
	}
	a.metrics.FieldRead(source)
	return f, nil
}

// ModelFiles resolves the control and past files of model for variable v.
func (a *Averager) ModelFiles(p catalog.Period, v catalog.Variable, model string) (pi, past string, err error) {
	switch p.Resolution {
	case catalog.ResolveGlob:
		if pi, err = a.globOne(p, v, model, p.Control); err != nil {
			return "", "", err
		}
		if past, err = a.globOne(p, v, model, p.Experiment); err != nil {
			return "", "", err
		}
		return pi, past, nil
	default:
		r := strings.NewReplacer("{var}", v.ModelVar, "{diag}", v.Diag)
		piTmpl, ok1 := a.cat.Templates[p.Control][model]
		pastTmpl, ok2 := a.cat.Templates[p.Experiment][model]
		if !ok1 || !ok2 {
			return "", "", apperrors.NewConfigError("no file template for model %s in period %s", model, p.Name)
		}
		dir := a.periodDir(p)
		return filepath.Join(dir, r.Replace(piTmpl)), filepath.Join(dir, r.Replace(pastTmpl)), nil
	}
}

func (a *Averager) globOne(p catalog.Period, v catalog.Variable, model, tag string) (string, error) {
	pattern := filepath.Join(a.periodDir(p), "*", v.ModelVar, v.Diag+v.ModelVar+"*"+model+"*"+tag+"*.nc")
	matches, err := a.src.Glob(pattern)
	if err != nil {
		return "", apperrors.NewDataError(pattern, err, "invalid search pattern")
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", apperrors.NewDataError(pattern, ErrMissingFile, "model %s", model)
	default:
		return "", apperrors.NewDataError(pattern, nil, "%d files match for model %s: %s", len(matches), model, strings.Join(matches, ", "))
	}
}

// IsMissing reports whether err means a model file does not exist.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingFile) || errors.Is(err, os.ErrNotExist)
}

func (a *Averager) compareModel(ctx context.Context, job Job, rg recGrid, model string, tree *results.Tree) (err error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, StageModel, trace.WithAttributes(
		attribute.String("key", job.Key.String()),
		attribute.String("model", model)))
	status := metrics.StatusOK
	defer func() {
		if err != nil {
			status = metrics.StatusFailed
			failSpan(span, err)
		}
		span.End()
		a.metrics.TaskDone(StageModel, status, time.Since(start))
	}()

	res, err := a.modelResult(ctx, job, rg, model)
	if err != nil {
		if a.opts.SkipMissing && IsMissing(err) {
			a.logger.Warn("skipping model without output", logging.String("model", model),
				logging.String("key", job.Key.String()), logging.Err(err))
			status = metrics.StatusSkipped
			return nil
		}
		return apperrors.WrapError(err, "%s/%s", job.Key, model)
	}
	if err := tree.SetModel(job.Key, model, res); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf(resultLineFormat, job.Key.Period, model, job.Key.Region, job.Key.Variable, job.Key.Dataset,
		res.AllModelPts.Mean, res.AllModelPts.Std))
	return nil
}

func (a *Averager) modelResult(ctx context.Context, job Job, rg recGrid, model string) (results.ModelResult, error) {
	piPath, pastPath, err := a.ModelFiles(job.Period, job.Variable, model)
	if err != nil {
		return results.ModelResult{}, err
	}
	var pi, past *grid.Field
	var wg sync.WaitGroup
	var piErr, pastErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		pi, piErr = a.read(ctx, metrics.SourceModel, piPath, job.Variable.ModelVar, job.Region)
	}()
	go func() {
		defer wg.Done()
		past, pastErr = a.read(ctx, metrics.SourceModel, pastPath, job.Variable.ModelVar, job.Region)
	}()
	wg.Wait()
	if err := errors.Join(piErr, pastErr); err != nil {
		return results.ModelResult{}, err
	}

	a.convertUnits(job.Variable, model, pi)
	a.convertUnits(job.Variable, model, past)

	onRec := func(f *grid.Field) ([]float64, error) {
		m, err := grid.MaskWhere(grid.Regrid(f, rg.grid), rg.mask)
		if err != nil {
			return nil, err
		}
		return grid.SpatialMeanSeries(m), nil
	}
	piRec, err := onRec(pi)
	if err != nil {
		return results.ModelResult{}, err
	}
	pastRec, err := onRec(past)
	if err != nil {
		return results.ModelResult{}, err
	}

	key := job.Key.String() + "/" + model
	all, err := a.delta(key+"/allmodelpts", grid.SpatialMeanSeries(pi), grid.SpatialMeanSeries(past))
	if err != nil {
		return results.ModelResult{}, fmt.Errorf("all model points: %w", err)
	}
	rec, err := a.delta(key+"/modelonrecpts", piRec, pastRec)
	if err != nil {
		return results.ModelResult{}, fmt.Errorf("model on reconstruction points: %w", err)
	}
	return results.ModelResult{AllModelPts: all, ModelOnRecPts: rec}, nil
}

// convertUnits turns Kelvin into degrees Celsius and kg m-2 s-1 into mm/yr.
func (a *Averager) convertUnits(v catalog.Variable, model string, f *grid.Field) {
	switch v.Kind {
	case catalog.KindTemperature:
		f.Apply(func(x float64) float64 { return x - kelvinOffset })
	case catalog.KindPrecipitation:
		if !a.cat.PrecipInMMPerYear(model) {
			f.Apply(func(x float64) float64 { return x * secondsPerYear })
		}
	}
}

func (a *Averager) delta(key string, pi, past []float64) (results.Delta, error) {
	var est stats.Estimate
	var err error
	if a.opts.MonteCarlo {
		est, err = stats.SubsampleDelta(pi, past, a.opts.Years, a.opts.Iterations, stats.TaskSource(a.opts.Seed, key))
		if err == nil {
			a.metrics.Iterations(a.opts.Iterations)
		}
	} else {
		est, err = stats.PlainDelta(pi, past)
	}
	if err != nil {
		return results.Delta{}, err
	}
	return results.Delta{Mean: est.Mean, Std: est.Std}, nil
}
