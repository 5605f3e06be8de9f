package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/pmip/dmcompare/internal/catalog"
	"github.com/pmip/dmcompare/internal/results"
	"github.com/pmip/dmcompare/internal/stats"
)

// ModelPoint is one model value of a panel.
type ModelPoint struct {
	Model string
	Label string
	Phase catalog.Phase
	Value float64
	Err   float64
}

// PanelData is the content of one summary panel.
type PanelData struct {
	Panel catalog.Panel
	// Title is "<period> GSAT" for global panels and "<period> <var>\n<region>"
	// otherwise.
	Title        string
	DatasetLabel string
	// Globe panels show the assessed range in Band; other panels show the
	// reconstruction estimate, with Band its mean plus or minus one std.
	Globe          bool
	Band           [2]float64
	Reconstruction stats.Estimate
	Models         []ModelPoint
	// Ensemble means, NaN when the phase has no model.
	EnsemblePMIP3 float64
	EnsemblePMIP4 float64
}

// BuildPanels returns the summary panels in grid order.
func BuildPanels(cat *catalog.Catalog, tree *results.Tree) ([]PanelData, error) {
	panels := append([]catalog.Panel(nil), cat.Figure344.Panels...)
	sort.SliceStable(panels, func(i, j int) bool {
		if panels[i].Row != panels[j].Row {
			return panels[i].Row < panels[j].Row
		}
		return panels[i].Col < panels[j].Col
	})
	out := make([]PanelData, 0, len(panels))
	for _, p := range panels {
		d, err := buildPanel(cat, tree, p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func buildPanel(cat *catalog.Catalog, tree *results.Tree, p catalog.Panel) (PanelData, error) {
	region, _ := cat.Region(p.Region)
	d := PanelData{
		Panel:        p,
		DatasetLabel: cat.Label(p.Dataset),
		Globe:        p.Region == "Globe",
	}
	if d.Globe {
		d.Title = p.Period + " GSAT"
	} else {
		d.Title = p.Period + " " + p.Variable + "\n" + region.Display
	}

	_, gridded := cat.Period(p.Period)
	key := results.Key{Period: p.Period, Variable: p.Variable, Region: p.Region, Dataset: p.Dataset}
	var entry *results.Entry
	if gridded {
		e, ok := tree.Get(key)
		if !ok {
			return PanelData{}, fmt.Errorf("no results for %s", key)
		}
		entry = e
	}

	if d.Globe {
		rng, ok := cat.AssessedRanges[p.Period]
		if !ok || len(rng) != 2 {
			return PanelData{}, fmt.Errorf("no assessed range for %s", p.Period)
		}
		d.Band = [2]float64{rng[0], rng[1]}
	} else {
		if entry == nil {
			return PanelData{}, fmt.Errorf("period %s has no gridded results for %s", p.Period, p.Region)
		}
		d.Reconstruction = entry.Reconstruction
		d.Band = [2]float64{entry.Reconstruction.Mean - entry.Reconstruction.Std, entry.Reconstruction.Mean + entry.Reconstruction.Std}
	}

	var pmip3, pmip4 []float64
	for _, model := range cat.ModelsFor(p.Period) {
		pt := ModelPoint{Model: model, Label: cat.Label(model), Phase: cat.PanelPhase(p.Period, model)}
		switch {
		case !gridded:
			pt.Value = cat.GSAT[p.Period][model]
		case d.Globe:
			r, ok := tree.Model(key, model)
			if !ok {
				continue
			}
			pt.Value = r.AllModelPts.Mean
		default:
			r, ok := tree.Model(key, model)
			if !ok {
				continue
			}
			pt.Value, pt.Err = r.ModelOnRecPts.Mean, r.ModelOnRecPts.Std
		}
		if pt.Phase == catalog.PhasePMIP3 {
			pmip3 = append(pmip3, pt.Value)
		} else {
			pmip4 = append(pmip4, pt.Value)
		}
		d.Models = append(d.Models, pt)
	}
	d.EnsemblePMIP3 = ensembleMean(pmip3)
	d.EnsemblePMIP4 = ensembleMean(pmip4)
	return d, nil
}

func ensembleMean(values []float64) float64 {
	e, err := stats.Ensemble(values)
	if err != nil {
		return math.NaN()
	}
	return e.Mean
}

// ScatterPoint is one model of the land versus ocean scatter.
type ScatterPoint struct {
	Model string
	Label string
	Phase catalog.Phase
	Land  results.Delta
	Ocean results.Delta
}

// ScatterData is the content of the land versus ocean figure.
type ScatterData struct {
	Figure     catalog.ScatterFigure
	Region     catalog.Region
	LandLabel  string
	OceanLabel string
	Land       stats.Estimate
	Ocean      stats.Estimate
	Models     []ScatterPoint
}

// BuildScatter returns the land versus ocean anomalies on reconstruction
// points. Models missing from either dataset are left out.
func BuildScatter(cat *catalog.Catalog, tree *results.Tree) (ScatterData, error) {
	f := cat.Figure32a
	region, _ := cat.Region(f.Region)
	landKey := results.Key{Period: f.Period, Variable: f.Land.Variable, Region: f.Region, Dataset: f.Land.Dataset}
	oceanKey := results.Key{Period: f.Period, Variable: f.Ocean.Variable, Region: f.Region, Dataset: f.Ocean.Dataset}
	land, ok := tree.Get(landKey)
	if !ok {
		return ScatterData{}, fmt.Errorf("no results for %s", landKey)
	}
	ocean, ok := tree.Get(oceanKey)
	if !ok {
		return ScatterData{}, fmt.Errorf("no results for %s", oceanKey)
	}
	d := ScatterData{
		Figure:     f,
		Region:     region,
		LandLabel:  cat.Label(f.Land.Dataset),
		OceanLabel: cat.Label(f.Ocean.Dataset),
		Land:       land.Reconstruction,
		Ocean:      ocean.Reconstruction,
	}
	for _, model := range cat.ModelsFor(f.Period) {
		l, okL := tree.Model(landKey, model)
		o, okO := tree.Model(oceanKey, model)
		if !okL || !okO {
			continue
		}
		d.Models = append(d.Models, ScatterPoint{
			Model: model,
			Label: cat.Label(model),
			Phase: cat.Phase(model),
			Land:  l.ModelOnRecPts,
			Ocean: o.ModelOnRecPts,
		})
	}
	return d, nil
}
