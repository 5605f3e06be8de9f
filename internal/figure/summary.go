package figure

import (
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pmip/dmcompare/internal/catalog"
	"github.com/pmip/dmcompare/internal/report"
)

// Summary tile size.
const (
	tileWidth  = 45 * vg.Millimeter
	tileHeight = 60 * vg.Millimeter
)

// SummaryName is the file name of the summary figure without extension.
func SummaryName(cat *catalog.Catalog, version string) string {
	return "DMC_" + version + cat.Figure344.Name
}

// Summary lays out the panels on the summary grid, with the legend in its
// own tile.
func Summary(cat *catalog.Catalog, panels []report.PanelData, version string) (*Figure, error) {
	layout := cat.Figure344
	if layout.Rows <= 0 || layout.Cols <= 0 {
		return nil, fmt.Errorf("invalid summary grid %dx%d", layout.Rows, layout.Cols)
	}
	plots := make([][]*plot.Plot, layout.Rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, layout.Cols)
	}
	place := func(row, col int, p *plot.Plot) error {
		if row < 1 || row > layout.Rows || col < 1 || col > layout.Cols {
			return fmt.Errorf("tile (%d, %d) is outside the %dx%d grid", row, col, layout.Rows, layout.Cols)
		}
		if plots[row-1][col-1] != nil {
			return fmt.Errorf("tile (%d, %d) is used twice", row, col)
		}
		plots[row-1][col-1] = p
		return nil
	}

	for _, d := range panels {
		p, err := panelPlot(cat, d)
		if err != nil {
			return nil, fmt.Errorf("panel %s %s %s: %w", d.Panel.Period, d.Panel.Variable, d.Panel.Region, err)
		}
		if err := place(d.Panel.Row, d.Panel.Col, p); err != nil {
			return nil, err
		}
	}
	if layout.Legend.Row > 0 {
		p, err := summaryLegend(cat)
		if err != nil {
			return nil, err
		}
		if err := place(layout.Legend.Row, layout.Legend.Col, p); err != nil {
			return nil, err
		}
	}

	return &Figure{
		Name:   SummaryName(cat, version),
		Title:  layout.Title,
		Width:  vg.Length(layout.Cols) * tileWidth,
		Height: vg.Length(layout.Rows)*tileHeight + 12*vg.Millimeter,
		Tiles: draw.Tiles{
			Rows:    layout.Rows,
			Cols:    layout.Cols,
			PadTop:  12 * vg.Millimeter,
			PadLeft: 6 * vg.Millimeter,
			PadX:    3 * vg.Millimeter,
			PadY:    4 * vg.Millimeter,
		},
		Plots:     plots,
		RowLabels: layout.RowLabels,
	}, nil
}

func panelPlot(cat *catalog.Catalog, d report.PanelData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = d.Title
	p.Title.TextStyle.Font.Size = vg.Points(8)
	p.Y.Tick.Label.Font.Size = vg.Points(7)
	p.HideX()

	if finite(d.Band[0], d.Band[1]) {
		if _, err := addBand(p, 0, xMax, d.Band[0], d.Band[1], bandColor); err != nil {
			return nil, err
		}
	}
	if !d.Globe && finite(d.Reconstruction.Mean) {
		mean := d.Reconstruction.Mean
		if _, err := addLine(p, 0, mean, xMax, mean, draw.LineStyle{Color: recColor, Width: vg.Points(1)}); err != nil {
			return nil, err
		}
	}
	if _, err := addLine(p, 0, 0, xMax, 0, draw.LineStyle{Color: color.Black, Width: vg.Points(0.5), Dashes: dashed}); err != nil {
		return nil, err
	}

	pts := make([]point, 0, len(d.Models)+2)
	for _, m := range d.Models {
		sty, err := markerStyle(cat, m.Model, m.Phase)
		if err != nil {
			return nil, err
		}
		pts = append(pts, point{X: phaseX(m.Phase), Y: m.Value, YErr: m.Err, Style: sty})
	}
	pts = append(pts,
		point{X: xEnsemblePMIP3, Y: d.EnsemblePMIP3, Style: ensembleStyle(catalog.PhasePMIP3)},
		point{X: xEnsemblePMIP4, Y: d.EnsemblePMIP4, Style: ensembleStyle(catalog.PhasePMIP4)},
	)
	if err := addPoints(p, pts); err != nil {
		return nil, err
	}

	p.X.Min, p.X.Max = 0, xMax
	if d.Globe {
		p.Y.Min, p.Y.Max = globeYMin, globeYMax
	}
	return p, nil
}

func summaryLegend(cat *catalog.Catalog) (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Font.Size = vg.Points(6)

	band, err := plotter.NewPolygon(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, err
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Legend.Add("Assessed GSAT range", band)

	entries := []struct {
		name string
		sty  draw.GlyphStyle
	}{
		{"PMIP3-CMIP5", draw.GlyphStyle{Color: gray, Radius: markerRadius, Shape: draw.RingGlyph{}}},
		{"PMIP4-CMIP6", draw.GlyphStyle{Color: gray, Radius: markerRadius, Shape: draw.CircleGlyph{}}},
		{"Ensemble mean PMIP3-CMIP5", ensembleStyle(catalog.PhasePMIP3)},
		{"Ensemble mean PMIP4-CMIP6", ensembleStyle(catalog.PhasePMIP4)},
	}
	for _, e := range entries {
		thumb, err := legendGlyph(e.sty)
		if err != nil {
			return nil, err
		}
		p.Legend.Add(e.name, thumb)
	}

	for _, model := range cat.Phases.CMIP6 {
		if slices.Contains(cat.Figure344.LegendSkip, model) {
			continue
		}
		sty, err := markerStyle(cat, model, catalog.PhaseCMIP6)
		if err != nil {
			return nil, err
		}
		thumb, err := legendGlyph(sty)
		if err != nil {
			return nil, err
		}
		p.Legend.Add(cat.Label(model), thumb)
	}
	return p, nil
}
