package app

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/ncio/nctest"
	"github.com/pmip/dmcompare/internal/report"
)

const testCatalogYAML = `
data_root: {{root}}/data
creator: Test Author
periods:
  - name: LGM
    dir: {{root}}/models
    resolution: glob
    control: piControl
    experiment: lgm
    models: [ALPHA, BETA]
phases:
  pmip3: [BETA]
  pmip4: [ALPHA]
  cmip6: [ALPHA]
regions:
  - name: Globe
    display: Globe
    lat: {lo: -90, hi: 90, closure: cc}
    lon: {lo: -180, hi: 180, closure: co}
reconstructions:
  - name: Land
    label: Land2021
    mask: own
    variables:
      MAT: {files: {LGM: land.nc}, base: mat, mean_suffix: _anm_mean, std_suffix: _se_mean}
  - name: Sea
    label: Sea2021
    mask: own
    variables:
      MATocean: {files: {LGM: sea.nc}, base: sst, mean_suffix: _anm_mean, std_suffix: _se_mean}
variables:
  - {name: MAT, model_var: tas, diag: YR, kind: temperature}
  - {name: MATocean, model_var: tas, diag: YR, kind: temperature}
analysis:
  LGM:
    - {dataset: Land, variables: [MAT]}
    - {dataset: Sea, variables: [MATocean]}
colors:
  ALPHA: "0.26,0.70,0.85"
gsat:
  LIG: {ALPHA: 0.8, BETA: 1.2}
assessed_ranges:
  LGM: [-7, -4]
  LIG: [0.5, 1.5]
figure_344:
  name: _summary
  title: Test summary
  rows: 1
  cols: 3
  legend: {row: 1, col: 3}
  panels:
    - {row: 1, col: 1, period: LGM, variable: MAT, region: Globe, dataset: Land}
    - {row: 1, col: 2, period: LIG, variable: MAT, region: Globe, dataset: Land}
figure_32a:
  name: land_vs_ocean
  period: LGM
  region: Globe
  land: {dataset: Land, variable: MAT}
  ocean: {dataset: Sea, variable: MATocean}
  limits: [-13, 1]
`

// writeFixtures lays out a catalog with its reconstruction and model files
// under a temporary directory and returns the catalog path.
func writeFixtures(t *testing.T) string {
	t.Helper()
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

	recLat, recLon := []float64{-45, 45}, []float64{-90, 90}
	for _, rec := range []struct {
		file, base string
		values     []float64
	}{
		{"land.nc", "mat", []float64{-5, -4, math.NaN(), -6}},
		{"sea.nc", "sst", []float64{math.NaN(), -2, -3, -2.5}},
	} {
		write(filepath.Join(root, "data", rec.file),
			nctest.Variable{Name: rec.base + "_anm_mean", Lat: recLat, Lon: recLon, NT: 1, NoTime: true, Values: rec.values},
			nctest.Variable{Name: rec.base + "_se_mean", Lat: recLat, Lon: recLon, NT: 1, NoTime: true, Values: fill(4, 0.5)},
		)
	}

	modelLat, modelLon := []float64{-45, 45}, []float64{45, 135, 225, 315}
	for _, model := range []struct {
		name   string
		pi, lg float64
	}{{"ALPHA", 288.5, 284.5}, {"BETA", 287, 282}} {
		for tag, k := range map[string]float64{"piControl": model.pi, "lgm": model.lg} {
			path := filepath.Join(root, "models", "PMIP4", "tas", "YRtas_Amon_"+model.name+"_"+tag+"_r1i1p1f1.nc")
			write(path, nctest.Variable{Name: "tas", Lat: modelLat, Lon: modelLon, NT: 60, Record: true, Values: fill(60*2*4, k)})
		}
	}

	catPath := filepath.Join(root, "catalog.yaml")
	yaml := strings.ReplaceAll(testCatalogYAML, "{{root}}", root)
	if err := os.WriteFile(catPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return catPath
}

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stderr, stdout bytes.Buffer
	a, err := New(append([]string{"dmcompare"}, args...), &stderr)
	if err != nil {
		t.Fatalf("New(%v) error = %v\n%s", args, err, stderr.String())
	}
	code := a.Run(context.Background(), &stdout)
	return code, stdout.String() + stderr.String()
}

func TestRunEndToEnd(t *testing.T) {
	catPath := writeFixtures(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "results.db")
	out := filepath.Join(dir, "out")
	metricsFile := filepath.Join(dir, "dmcompare.prom")

	code, logs := run(t, "-catalog", catPath, "-store", store, "-out", out,
		"-iterations", "50", "-years", "20", "-version-tag", "t1", "-metrics-file", metricsFile, "-quiet")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, output:\n%s", code, logs)
	}
	for _, name := range []string{
		report.SummaryFileName("t1"),
		report.ScatterFileName("t1"),
		"DMC_t1_summary.png",
		"DMC_t1_summary.pdf",
		"land_vs_ocean_t1_recpts_Globe.png",
		"land_vs_ocean_t1_recpts_Globe.pdf",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	summary, err := os.ReadFile(filepath.Join(out, report.SummaryFileName("t1")))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), "Test Author") {
		t.Errorf("summary report does not credit the creator:\n%s", summary)
	}
	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), "dmcompare_") {
		t.Errorf("metrics file has no dmcompare metrics:\n%s", prom)
	}

	// A second run reuses the store and writes the reports only.
	reuseOut := filepath.Join(dir, "reuse")
	code, logs = run(t, "-catalog", catPath, "-store", store, "-out", reuseOut, "-reuse", "-no-plots", "-version-tag", "t2")
	if code != apperrors.ExitSuccess {
		t.Fatalf("reuse exit code = %d, output:\n%s", code, logs)
	}
	if _, err := os.Stat(filepath.Join(reuseOut, report.SummaryFileName("t2"))); err != nil {
		t.Errorf("reuse run did not write the summary report: %v", err)
	}
	if _, err := os.Stat(filepath.Join(reuseOut, "DMC_t2_summary.png")); !os.IsNotExist(err) {
		t.Errorf("-no-plots still wrote a figure (stat error %v)", err)
	}
	if !strings.Contains(logs, "--- Data-model comparison ---") {
		t.Errorf("run configuration not printed:\n%s", logs)
	}
}

func TestRunReuseEmptyStore(t *testing.T) {
	catPath := writeFixtures(t)
	dir := t.TempDir()
	code, logs := run(t, "-catalog", catPath, "-store", filepath.Join(dir, "empty.db"), "-out", dir, "-reuse", "-quiet")
	if code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d\n%s", code, apperrors.ExitErrorConfig, logs)
	}
}

func TestRunMissingModelFiles(t *testing.T) {
	catPath := writeFixtures(t)
	dir := t.TempDir()
	args := []string{"-catalog", catPath, "-store", filepath.Join(dir, "r.db"), "-out", dir,
		"-lgm-dir", filepath.Join(dir, "nowhere"), "-monte-carlo=false", "-quiet"}

	code, logs := run(t, args...)
	if code != apperrors.ExitErrorData {
		t.Errorf("exit code = %d, want %d\n%s", code, apperrors.ExitErrorData, logs)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	if _, err := New([]string{"dmcompare", "-h"}, &stderr); !IsHelpError(err) {
		t.Errorf("New(-h) error = %v, want a help error", err)
	}

	stderr.Reset()
	_, err := New([]string{"dmcompare", "-catalog", filepath.Join(t.TempDir(), "none.yaml")}, &stderr)
	if err == nil || !strings.Contains(stderr.String(), "Error:") {
		t.Errorf("New() with a missing catalog = %v, stderr %q", err, stderr.String())
	}

	stderr.Reset()
	_, err = New([]string{"dmcompare", "-v", "-quiet"}, &stderr)
	var cfgErr apperrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("New(-v -quiet) error = %v, want a ConfigError", err)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"--version"}, true},
		{[]string{"-store", "x.db", "-V"}, true},
		{[]string{"-v"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := HasVersionFlag(tt.args); got != tt.want {
			t.Errorf("HasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
	var buf bytes.Buffer
	PrintVersion(&buf)
	if !strings.HasPrefix(buf.String(), "dmcompare "+Version) {
		t.Errorf("PrintVersion() = %q", buf.String())
	}
}
