package averaging

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/pmip/dmcompare/internal/averaging/mocks"
	"github.com/pmip/dmcompare/internal/catalog"
	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/grid"
	"github.com/pmip/dmcompare/internal/metrics"
	"github.com/pmip/dmcompare/internal/ncio/nctest"
	"github.com/pmip/dmcompare/internal/orchestration"
	"github.com/pmip/dmcompare/internal/results"
	"github.com/pmip/dmcompare/internal/stats"
)

var recGridFixture = grid.Grid{Lat: []float64{-45, 45}, Lon: []float64{-90, 90}}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// testCatalog is a one-period, one-region catalog with two models.
func testCatalog(resolution string) *catalog.Catalog {
	p := catalog.Period{
		Name:       "LGM",
		Dir:        "/models",
		Resolution: resolution,
		Control:    "PI",
		Experiment: "LGM",
		Models:     []string{"A", "B"},
	}
	if resolution == catalog.ResolveGlob {
		p.Control, p.Experiment = "piControl", "lgm"
	}
	return &catalog.Catalog{
		DataRoot: "/data",
		Periods:  []catalog.Period{p},
		Templates: map[string]map[string]string{
			"PI":  {"A": "A/{var}_PI_{diag}.nc", "B": "B/{var}_PI_{diag}.nc"},
			"LGM": {"A": "A/{var}_LGM_{diag}.nc", "B": "B/{var}_LGM_{diag}.nc"},
		},
		Regions: []catalog.Region{{
			Name: "Globe", Display: "Globe",
			Lat: grid.Interval{Lo: -90, Hi: 90, Closure: "cc"},
			Lon: grid.Interval{Lo: -180, Hi: 180, Closure: "co"},
		}},
		Reconstructions: []catalog.Reconstruction{{
			Name: "Rec", Label: "Rec", Mask: "own",
			Variables: map[string]catalog.RecVariable{
				"MAT": {Files: map[string]string{"LGM": "rec.nc"}, Base: "mat", MeanSuffix: "_anm_mean", StdSuffix: "_se_mean"},
			},
		}},
		Variables: []catalog.Variable{{Name: "MAT", ModelVar: "tas", Diag: "YR", Kind: catalog.KindTemperature}},
		Analysis:  map[string][]catalog.Analysis{"LGM": {{Dataset: "Rec", Variables: []string{"MAT"}}}},
	}
}

func constField(g grid.Grid, nt int, v float64) *grid.Field {
	f := grid.NewField(g, nt)
	for i := range f.Data.Elements {
		f.Data.Elements[i] = v
	}
	return f
}

func recMeans() *grid.Field {
	f := constField(recGridFixture, 1, -5)
	f.Set(math.NaN(), 0, 1, 0)
	return f
}

func defaultOptions() Options {
	return Options{MonteCarlo: true, Iterations: 200, Years: 50, ErrorModel: stats.Correlated, Seed: 7, Workers: 2}
}

func TestPlanOrder(t *testing.T) {
	t.Parallel()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	jobs := Plan(cat)
	if len(jobs) == 0 {
		t.Fatal("no jobs planned")
	}
	first := jobs[0].Key
	if first.Period != cat.Periods[0].Name || first.Region != cat.Regions[0].Name {
		t.Errorf("first job = %v, want period %s region %s", first, cat.Periods[0].Name, cat.Regions[0].Name)
	}
	seen := map[results.Key]bool{}
	for _, j := range jobs {
		if seen[j.Key] {
			t.Errorf("duplicate job %v", j.Key)
		}
		seen[j.Key] = true
		if !cat.Analyzed(j.Key.Period, j.Key.Dataset, j.Key.Variable) {
			t.Errorf("job %v is not in the analysis table", j.Key)
		}
		if j.RecVar.Files[j.Key.Period] == "" {
			t.Errorf("job %v has no reconstruction file", j.Key)
		}
	}
	var want int
	for period, entries := range cat.Analysis {
		if _, ok := cat.Period(period); !ok {
			continue
		}
		for _, a := range entries {
			want += len(a.Variables) * len(cat.Regions)
		}
	}
	if len(jobs) != want {
		t.Errorf("planned %d jobs, want %d", len(jobs), want)
	}
}

func TestModelFilesTemplate(t *testing.T) {
	t.Parallel()
	cat := testCatalog(catalog.ResolveTemplate)
	a := New(cat, NetCDFSource{}, Options{PeriodDirs: map[string]string{"LGM": "/override"}}, nil, nil)
	pi, past, err := a.ModelFiles(cat.Periods[0], cat.Variables[0], "A")
	if err != nil {
		t.Fatalf("ModelFiles() error = %v", err)
	}
	if pi != "/override/A/tas_PI_YR.nc" || past != "/override/A/tas_LGM_YR.nc" {
		t.Errorf("ModelFiles() = %s, %s", pi, past)
	}
	if _, _, err := a.ModelFiles(cat.Periods[0], cat.Variables[0], "unknown"); err == nil {
		t.Error("expected an error for a model without template")
	}
}

func TestModelFilesGlob(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	src := mocks.NewMockFieldSource(ctrl)
	cat := testCatalog(catalog.ResolveGlob)
	a := New(cat, src, Options{}, nil, nil)

	src.EXPECT().Glob("/models/*/tas/YRtas*A*piControl*.nc").Return([]string{"/models/P4/tas/YRtas_A_piControl.nc"}, nil)
	src.EXPECT().Glob("/models/*/tas/YRtas*A*lgm*.nc").Return([]string{"/models/P4/tas/YRtas_A_lgm.nc"}, nil)
	pi, past, err := a.ModelFiles(cat.Periods[0], cat.Variables[0], "A")
	if err != nil {
		t.Fatalf("ModelFiles() error = %v", err)
	}
	if pi != "/models/P4/tas/YRtas_A_piControl.nc" || past != "/models/P4/tas/YRtas_A_lgm.nc" {
		t.Errorf("ModelFiles() = %s, %s", pi, past)
	}

	src.EXPECT().Glob("/models/*/tas/YRtas*B*piControl*.nc").Return(nil, nil)
	_, _, err = a.ModelFiles(cat.Periods[0], cat.Variables[0], "B")
	if !IsMissing(err) {
		t.Errorf("no match should be reported as missing, got %v", err)
	}

	src.EXPECT().Glob(gomock.Any()).Return([]string{"x.nc", "y.nc"}, nil)
	_, _, err = a.ModelFiles(cat.Periods[0], cat.Variables[0], "B")
	var dataErr apperrors.DataError
	if !errors.As(err, &dataErr) || IsMissing(err) {
		t.Errorf("two matches should be an ambiguity error, got %v", err)
	}
}

// expectReconstruction sets up the reconstruction reads of the test catalog.
func expectReconstruction(src *mocks.MockFieldSource) {
	src.EXPECT().ReadField(gomock.Any(), "/data/rec.nc", "mat_anm_mean", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, grid.Interval, grid.Interval) (*grid.Field, error) {
			return recMeans(), nil
		}).AnyTimes()
	src.EXPECT().ReadField(gomock.Any(), "/data/rec.nc", "mat_se_mean", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, grid.Interval, grid.Interval) (*grid.Field, error) {
			return constField(recGridFixture, 1, 0), nil
		}).AnyTimes()
}

func expectModel(src *mocks.MockFieldSource, model string, piK, pastK float64) {
	src.EXPECT().ReadField(gomock.Any(), "/models/"+model+"/tas_PI_YR.nc", "tas", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, grid.Interval, grid.Interval) (*grid.Field, error) {
			return constField(recGridFixture, 60, piK), nil
		}).AnyTimes()
	src.EXPECT().ReadField(gomock.Any(), "/models/"+model+"/tas_LGM_YR.nc", "tas", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, grid.Interval, grid.Interval) (*grid.Field, error) {
			return constField(recGridFixture, 60, pastK), nil
		}).AnyTimes()
}

func expectMissingModel(src *mocks.MockFieldSource) {
	src.EXPECT().ReadField(gomock.Any(), gomock.Any(), "tas", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path, _ string, _, _ grid.Interval) (*grid.Field, error) {
			return nil, apperrors.NewDataError(path, os.ErrNotExist, "cannot open")
		}).AnyTimes()
}

type recordingPresenter struct {
	stages    []string
	summaries []orchestration.Summary
}

func (r *recordingPresenter) PresentSummary(stage string, s orchestration.Summary, _ io.Writer) {
	r.stages = append(r.stages, stage)
	r.summaries = append(r.summaries, s)
}

func TestRunWithMockSource(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	src := mocks.NewMockFieldSource(ctrl)
	cat := testCatalog(catalog.ResolveTemplate)
	expectReconstruction(src)
	expectModel(src, "A", 288.5, 283.5)
	expectModel(src, "B", 280, 278)

	m := metrics.New()
	a := New(cat, src, defaultOptions(), nil, m)
	presenter := &recordingPresenter{}
	a.SetPresenter(presenter)
	tree, err := a.Run(context.Background(), orchestration.NullProgressReporter{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(presenter.stages) != 2 || presenter.stages[0] != StageReconstruction || presenter.stages[1] != StageModel {
		t.Errorf("presented stages = %v", presenter.stages)
	}
	if presenter.summaries[1].Total != 2 || presenter.summaries[1].Succeeded != 2 {
		t.Errorf("model stage summary = %+v", presenter.summaries[1])
	}

	key := results.Key{Period: "LGM", Variable: "MAT", Region: "Globe", Dataset: "Rec"}
	entry, ok := tree.Get(key)
	if !ok {
		t.Fatalf("no entry for %v", key)
	}
	if entry.NPoints != 3 {
		t.Errorf("nbpts = %d, want 3", entry.NPoints)
	}
	if !entry.Mask.At(1, 0) || entry.Mask.At(0, 0) {
		t.Error("mask should only hide the missing reconstruction cell")
	}
	if !almostEqual(entry.Reconstruction.Mean, -5) || !almostEqual(entry.Reconstruction.Std, 0) {
		t.Errorf("reconstruction = %+v, want -5 (0)", entry.Reconstruction)
	}

	for model, want := range map[string]float64{"A": -5, "B": -2} {
		res, ok := tree.Model(key, model)
		if !ok {
			t.Fatalf("no result for model %s", model)
		}
		for name, d := range map[string]results.Delta{"allmodelpts": res.AllModelPts, "modelonrecpts": res.ModelOnRecPts} {
			if !almostEqual(d.Mean, want) || !almostEqual(d.Std, 0) {
				t.Errorf("%s %s = %+v, want %g (0)", model, name, d, want)
			}
		}
	}
}

func TestRunSkipMissing(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	src := mocks.NewMockFieldSource(ctrl)
	cat := testCatalog(catalog.ResolveTemplate)
	cat.Periods[0].Models = []string{"B"}
	expectReconstruction(src)
	expectMissingModel(src)

	opts := defaultOptions()
	opts.SkipMissing = true
	tree, err := New(cat, src, opts, nil, nil).Run(context.Background(), orchestration.NullProgressReporter{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() with skip-missing error = %v", err)
	}
	key := results.Key{Period: "LGM", Variable: "MAT", Region: "Globe", Dataset: "Rec"}
	if _, ok := tree.Model(key, "B"); ok {
		t.Error("missing model should be omitted")
	}

	opts.SkipMissing = false
	_, err = New(cat, src, opts, nil, nil).Run(context.Background(), orchestration.NullProgressReporter{}, io.Discard)
	if err == nil {
		t.Fatal("expected an error without skip-missing")
	}
	if code := apperrors.ExitCode(err); code != apperrors.ExitErrorData {
		t.Errorf("ExitCode = %d, want %d", code, apperrors.ExitErrorData)
	}
}

func TestRunPlainDeltas(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	src := mocks.NewMockFieldSource(ctrl)
	cat := testCatalog(catalog.ResolveTemplate)
	cat.Periods[0].Models = []string{"A"}
	expectReconstruction(src)
	expectModel(src, "A", 288.5, 283.5)

	opts := defaultOptions()
	opts.MonteCarlo = false
	opts.Years = 1000 // unused without Monte Carlo
	tree, err := New(cat, src, opts, nil, nil).Run(context.Background(), orchestration.NullProgressReporter{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	res, _ := tree.Model(results.Key{Period: "LGM", Variable: "MAT", Region: "Globe", Dataset: "Rec"}, "A")
	if !almostEqual(res.ModelOnRecPts.Mean, -5) || res.ModelOnRecPts.Std != 0 {
		t.Errorf("plain delta = %+v, want -5 (0)", res.ModelOnRecPts)
	}
}

func TestRunShortSeriesFails(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	src := mocks.NewMockFieldSource(ctrl)
	cat := testCatalog(catalog.ResolveTemplate)
	cat.Periods[0].Models = []string{"A"}
	expectReconstruction(src)
	expectModel(src, "A", 288.5, 283.5)

	opts := defaultOptions()
	opts.Years = 100 // longer than the 60 simulated years
	_, err := New(cat, src, opts, nil, nil).Run(context.Background(), orchestration.NullProgressReporter{}, io.Discard)
	if !errors.Is(err, stats.ErrShortSeries) {
		t.Errorf("error = %v, want ErrShortSeries", err)
	}
}

func TestConvertUnits(t *testing.T) {
	t.Parallel()
	cat := testCatalog(catalog.ResolveTemplate)
	cat.PrecipNative = []string{"native"}
	a := New(cat, NetCDFSource{}, Options{}, nil, nil)
	precip := catalog.Variable{Name: "MAP", ModelVar: "pr", Diag: "YR", Kind: catalog.KindPrecipitation}

	tests := []struct {
		name  string
		v     catalog.Variable
		model string
		in    float64
		want  float64
	}{
		{"kelvin to celsius", cat.Variables[0], "A", 273.15, 0},
		{"flux to mm per year", precip, "A", 1e-5, 1e-5 * 86400 * 365},
		{"native mm per year", precip, "native", 500, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := constField(recGridFixture, 1, tt.in)
			a.convertUnits(tt.v, tt.model, f)
			if got := f.At(0, 0, 0); !almostEqual(got, tt.want) {
				t.Errorf("converted %g to %g, want %g", tt.in, got, tt.want)
			}
		})
	}
}

// TestRunNetCDFGlob runs the stage on NetCDF fixtures resolved by glob,
// with model output on a 0..360 longitude grid.
func TestRunNetCDFGlob(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write := func(path string, vars ...nctest.Variable) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := nctest.Write(path, vars...); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
	fill := func(n int, v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	write(filepath.Join(root, "data", "rec.nc"),
		nctest.Variable{Name: "mat_anm_mean", Lat: recGridFixture.Lat, Lon: recGridFixture.Lon, NT: 1, NoTime: true,
			Values: []float64{-4, -4, math.NaN(), -4}},
		nctest.Variable{Name: "mat_se_mean", Lat: recGridFixture.Lat, Lon: recGridFixture.Lon, NT: 1, NoTime: true,
			Values: []float64{1, 1, 1, 1}},
	)
	modelLat, modelLon := []float64{-45, 45}, []float64{45, 135, 225, 315}
	for _, tag := range []struct {
		name string
		k    float64
	}{{"piControl", 288.5}, {"lgm", 284.5}} {
		write(filepath.Join(root, "models", "PMIP4", "tas", "YRtas_Amon_A_"+tag.name+"_r1i1p1f1.nc"),
			nctest.Variable{Name: "tas", Lat: modelLat, Lon: modelLon, NT: 60, Record: true, Values: fill(60*2*4, tag.k)})
	}

	cat := testCatalog(catalog.ResolveGlob)
	cat.Periods[0].Models = []string{"A"}
	opts := defaultOptions()
	opts.DataRoot = filepath.Join(root, "data")
	opts.PeriodDirs = map[string]string{"LGM": filepath.Join(root, "models")}

	tree, err := New(cat, NetCDFSource{}, opts, nil, nil).Run(context.Background(), orchestration.NullProgressReporter{}, io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	key := results.Key{Period: "LGM", Variable: "MAT", Region: "Globe", Dataset: "Rec"}
	entry, _ := tree.Get(key)
	if entry.NPoints != 3 || math.Abs(entry.Reconstruction.Mean+4) > 0.3 {
		t.Errorf("entry = %d points, %+v", entry.NPoints, entry.Reconstruction)
	}
	// A correlated unit error shifts every point together.
	if entry.Reconstruction.Std < 0.5 || entry.Reconstruction.Std > 1.5 {
		t.Errorf("reconstruction std = %g, want about 1", entry.Reconstruction.Std)
	}
	res, ok := tree.Model(key, "A")
	if !ok {
		t.Fatal("no result for model A")
	}
	if !almostEqual(res.AllModelPts.Mean, -4) || !almostEqual(res.ModelOnRecPts.Mean, -4) {
		t.Errorf("model result = %+v, want -4 everywhere", res)
	}
}
