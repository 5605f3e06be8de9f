package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/goccy/go-yaml"

	apperrors "github.com/pmip/dmcompare/internal/errors"
	"github.com/pmip/dmcompare/internal/grid"
)

//go:embed catalog.yaml
var defaultYAML []byte

// File resolution modes for model output.
const (
	ResolveTemplate = "template"
	ResolveGlob     = "glob"
)

// Variable kinds, which select the unit conversion of model output.
const (
	KindTemperature   = "temperature"
	KindPrecipitation = "precipitation"
)

// Phase is the model intercomparison generation a model belongs to.
type Phase string

// Model phases. CMIP6 models are PMIP4 models with their own styling.
const (
	PhasePMIP3 Phase = "PMIP3"
	PhasePMIP4 Phase = "PMIP4"
	PhaseCMIP6 Phase = "CMIP6"
)

// Period is a simulated period with gridded model output.
type Period struct {
	Name       string   `yaml:"name"`
	Dir        string   `yaml:"dir"`
	Resolution string   `yaml:"resolution"`
	Control    string   `yaml:"control"`
	Experiment string   `yaml:"experiment"`
	Models     []string `yaml:"models"`
}

// Phases lists the models of each generation.
type Phases struct {
	PMIP3 []string `yaml:"pmip3"`
	PMIP4 []string `yaml:"pmip4"`
	CMIP6 []string `yaml:"cmip6"`
}

// Region is a named latitude/longitude box.
type Region struct {
	Name    string        `yaml:"name"`
	Display string        `yaml:"display"`
	Lat     grid.Interval `yaml:"lat"`
	Lon     grid.Interval `yaml:"lon"`
}

// RecVariable locates one variable of a reconstruction dataset.
type RecVariable struct {
	Files      map[string]string `yaml:"files"`
	Base       string            `yaml:"base"`
	MeanSuffix string            `yaml:"mean_suffix"`
	StdSuffix  string            `yaml:"std_suffix"`
}

// MeanName is the NetCDF variable holding the reconstructed anomaly.
func (v RecVariable) MeanName() string { return v.Base + v.MeanSuffix }

// StdName is the NetCDF variable holding its standard error.
func (v RecVariable) StdName() string { return v.Base + v.StdSuffix }

// Reconstruction is a gridded reconstruction dataset.
type Reconstruction struct {
	Name      string                 `yaml:"name"`
	Label     string                 `yaml:"label"`
	Mask      string                 `yaml:"mask"`
	Marker    string                 `yaml:"marker"`
	Variables map[string]RecVariable `yaml:"variables"`
}

// Variable maps a reconstructed quantity onto model output.
type Variable struct {
	Name     string `yaml:"name"`
	ModelVar string `yaml:"model_var"`
	Diag     string `yaml:"diag"`
	Kind     string `yaml:"kind"`
}

// Analysis names the variables computed for one dataset.
type Analysis struct {
	Dataset   string   `yaml:"dataset"`
	Variables []string `yaml:"variables"`
}

// Panel places one comparison in the summary figure grid (1-based).
type Panel struct {
	Row      int    `yaml:"row"`
	Col      int    `yaml:"col"`
	Period   string `yaml:"period"`
	Variable string `yaml:"variable"`
	Region   string `yaml:"region"`
	Dataset  string `yaml:"dataset"`
}

// Cell is a grid position.
type Cell struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// SummaryFigure is the multi-panel summary layout.
type SummaryFigure struct {
	Name       string   `yaml:"name"`
	Title      string   `yaml:"title"`
	Rows       int      `yaml:"rows"`
	Cols       int      `yaml:"cols"`
	Legend     Cell     `yaml:"legend"`
	LegendSkip []string `yaml:"legend_skip"`
	RowLabels  []string `yaml:"row_labels"`
	Panels     []Panel  `yaml:"panels"`
}

// Source is a dataset and variable pair.
type Source struct {
	Dataset  string `yaml:"dataset"`
	Variable string `yaml:"variable"`
}

// ScatterFigure is the land-versus-ocean anomaly scatter layout.
type ScatterFigure struct {
	Name   string    `yaml:"name"`
	Period string    `yaml:"period"`
	Region string    `yaml:"region"`
	Land   Source    `yaml:"land"`
	Ocean  Source    `yaml:"ocean"`
	Limits []float64 `yaml:"limits"`
}

// Catalog is the full set of tables.
type Catalog struct {
	DataRoot        string                        `yaml:"data_root"`
	Creator         string                        `yaml:"creator"`
	Periods         []Period                      `yaml:"periods"`
	Phases          Phases                        `yaml:"phases"`
	PrecipNative    []string                      `yaml:"precip_native"`
	Templates       map[string]map[string]string  `yaml:"templates"`
	Regions         []Region                      `yaml:"regions"`
	Reconstructions []Reconstruction              `yaml:"reconstructions"`
	Variables       []Variable                    `yaml:"variables"`
	Analysis        map[string][]Analysis         `yaml:"analysis"`
	Colors          map[string]string             `yaml:"colors"`
	Labels          map[string]string             `yaml:"labels"`
	GSAT            map[string]map[string]float64 `yaml:"gsat"`
	AssessedRanges  map[string][]float64          `yaml:"assessed_ranges"`
	Figure344       SummaryFigure                 `yaml:"figure_344"`
	Figure32a       ScatterFigure                 `yaml:"figure_32a"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return parse(defaultYAML, "embedded catalog")
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("reading catalog: %v", err)
	}
	return parse(data, path)
}

func parse(data []byte, name string) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, apperrors.NewConfigError("parsing %s: %v", name, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every name referenced by the analysis and figure
// tables is defined.
func (c *Catalog) Validate() error {
	bad := func(field, format string, a ...any) error {
		return apperrors.ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
	}
	if len(c.Periods) == 0 {
		return bad("periods", "no period defined")
	}
	for _, p := range c.Periods {
		switch p.Resolution {
		case ResolveTemplate:
			for _, exp := range []string{p.Control, p.Experiment} {
				table, ok := c.Templates[exp]
				if !ok {
					return bad("templates", "period %s: no template table %q", p.Name, exp)
				}
				for _, m := range p.Models {
					if _, ok := table[m]; !ok {
						return bad("templates", "period %s: no %s template for model %s", p.Name, exp, m)
					}
				}
			}
		case ResolveGlob:
			if p.Control == "" || p.Experiment == "" {
				return bad("periods", "period %s: glob resolution needs control and experiment tags", p.Name)
			}
		default:
			return bad("periods", "period %s: unknown resolution %q", p.Name, p.Resolution)
		}
	}
	for _, r := range c.Regions {
		if err := r.Lat.Validate(); err != nil {
			return bad("regions", "%s latitude: %v", r.Name, err)
		}
		if err := r.Lon.Validate(); err != nil {
			return bad("regions", "%s longitude: %v", r.Name, err)
		}
	}
	for _, v := range c.Variables {
		if v.Kind != KindTemperature && v.Kind != KindPrecipitation {
			return bad("variables", "%s: unknown kind %q", v.Name, v.Kind)
		}
	}
	for _, r := range c.Reconstructions {
		if r.Mask != "own" {
			return bad("reconstructions", "%s: unsupported mask source %q", r.Name, r.Mask)
		}
	}
	for period, entries := range c.Analysis {
		if _, ok := c.Period(period); !ok {
			return bad("analysis", "unknown period %q", period)
		}
		for _, a := range entries {
			rec, ok := c.Reconstruction(a.Dataset)
			if !ok {
				return bad("analysis", "unknown dataset %q", a.Dataset)
			}
			for _, v := range a.Variables {
				if _, ok := c.Variable(v); !ok {
					return bad("analysis", "unknown variable %q", v)
				}
				rv, ok := rec.Variables[v]
				if !ok || rv.Files[period] == "" {
					return bad("analysis", "dataset %s has no %s file for %s", a.Dataset, v, period)
				}
			}
		}
	}
	for period, rng := range c.AssessedRanges {
		if len(rng) != 2 || rng[0] > rng[1] {
			return bad("assessed_ranges", "%s: want [min, max], got %v", period, rng)
		}
	}
	for _, m := range c.Phases.CMIP6 {
		if _, err := c.Color(m); err != nil {
			return bad("colors", "CMIP6 model %s: %v", m, err)
		}
	}
	f := c.Figure344
	if f.Rows < 1 || f.Cols < 1 {
		return bad("figure_344", "grid must have at least one row and column")
	}
	for _, p := range f.Panels {
		if p.Row < 1 || p.Row > f.Rows || p.Col < 1 || p.Col > f.Cols {
			return bad("figure_344", "panel %s %s %s outside the %dx%d grid", p.Period, p.Variable, p.Region, f.Rows, f.Cols)
		}
		if _, ok := c.Region(p.Region); !ok {
			return bad("figure_344", "unknown region %q", p.Region)
		}
		if _, ok := c.Period(p.Period); ok {
			if !c.Analyzed(p.Period, p.Dataset, p.Variable) {
				return bad("figure_344", "%s %s %s is not computed", p.Period, p.Dataset, p.Variable)
			}
			continue
		}
		if _, ok := c.GSAT[p.Period]; !ok {
			return bad("figure_344", "period %q has neither model output nor GSAT table", p.Period)
		}
		if _, ok := c.AssessedRanges[p.Period]; !ok || p.Region != "Globe" {
			return bad("figure_344", "GSAT period %q needs a Globe panel and an assessed range", p.Period)
		}
	}
	s := c.Figure32a
	if s.Name != "" {
		if _, ok := c.Region(s.Region); !ok {
			return bad("figure_32a", "unknown region %q", s.Region)
		}
		for _, src := range []Source{s.Land, s.Ocean} {
			if !c.Analyzed(s.Period, src.Dataset, src.Variable) {
				return bad("figure_32a", "%s %s %s is not computed", s.Period, src.Dataset, src.Variable)
			}
		}
		if len(s.Limits) != 2 || s.Limits[0] >= s.Limits[1] {
			return bad("figure_32a", "invalid limits %v", s.Limits)
		}
	}
	return nil
}

// Period returns the named simulated period.
func (c *Catalog) Period(name string) (Period, bool) {
	for _, p := range c.Periods {
		if p.Name == name {
			return p, true
		}
	}
	return Period{}, false
}

// Region returns the named region.
func (c *Catalog) Region(name string) (Region, bool) {
	for _, r := range c.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Reconstruction returns the named dataset.
func (c *Catalog) Reconstruction(name string) (Reconstruction, bool) {
	for _, r := range c.Reconstructions {
		if r.Name == name {
			return r, true
		}
	}
	return Reconstruction{}, false
}

// Variable returns the named variable mapping.
func (c *Catalog) Variable(name string) (Variable, bool) {
	for _, v := range c.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Analyzed reports whether variable is computed against dataset for period.
func (c *Catalog) Analyzed(period, dataset, variable string) bool {
	for _, a := range c.Analysis[period] {
		if a.Dataset == dataset && slices.Contains(a.Variables, variable) {
			return true
		}
	}
	return false
}

// ModelsFor returns the models of a period. For periods only known through
// their GSAT table the model names are sorted.
func (c *Catalog) ModelsFor(period string) []string {
	if p, ok := c.Period(period); ok {
		return p.Models
	}
	table := c.GSAT[period]
	out := make([]string, 0, len(table))
	for m := range table {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// IsCMIP6 reports whether model took part in CMIP6.
func (c *Catalog) IsCMIP6(model string) bool { return slices.Contains(c.Phases.CMIP6, model) }

// Phase classifies model for display: CMIP6 first, then PMIP4, anything
// else being PMIP3.
func (c *Catalog) Phase(model string) Phase {
	switch {
	case c.IsCMIP6(model):
		return PhaseCMIP6
	case slices.Contains(c.Phases.PMIP4, model):
		return PhasePMIP4
	default:
		return PhasePMIP3
	}
}

// PanelPhase is Phase for a figure panel: models of GSAT-only periods are
// all treated as PMIP4 unless they are CMIP6 models.
func (c *Catalog) PanelPhase(period, model string) Phase {
	if _, ok := c.Period(period); !ok && !c.IsCMIP6(model) {
		return PhasePMIP4
	}
	return c.Phase(model)
}

// PrecipInMMPerYear reports whether model already stores precipitation in
// mm/yr.
func (c *Catalog) PrecipInMMPerYear(model string) bool {
	return slices.Contains(c.PrecipNative, model)
}

// Label returns the display label of a model or dataset, falling back to
// the name itself.
func (c *Catalog) Label(name string) string {
	if l, ok := c.Labels[name]; ok {
		return l
	}
	return name
}
