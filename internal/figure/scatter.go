package figure

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pmip/dmcompare/internal/catalog"
	"github.com/pmip/dmcompare/internal/report"
)

// ScatterName is the file name of the land versus ocean figure without
// extension.
func ScatterName(cat *catalog.Catalog, version string) string {
	f := cat.Figure32a
	return f.Name + "_" + version + "_recpts_" + f.Region
}

// Scatter plots the land anomaly of each model against its ocean anomaly,
// both on reconstruction points, next to the reconstructions themselves.
// Ocean runs along x and land along y.
func Scatter(cat *catalog.Catalog, d report.ScatterData, version string) (*Figure, error) {
	lim := d.Figure.Limits
	if len(lim) != 2 || lim[0] >= lim[1] {
		return nil, fmt.Errorf("invalid scatter limits %v", lim)
	}
	lo, hi := lim[0], lim[1]

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s", d.Figure.Period, d.Region.Display)
	p.X.Label.Text = "ΔT ocean (°C), " + d.OceanLabel
	p.Y.Label.Text = "ΔT land (°C), " + d.LandLabel

	if finite(d.Ocean.Mean, d.Ocean.Std) {
		if _, err := addBand(p, d.Ocean.Mean-d.Ocean.Std, d.Ocean.Mean+d.Ocean.Std, lo, hi, rangeColor); err != nil {
			return nil, err
		}
	}
	if finite(d.Land.Mean, d.Land.Std) {
		if _, err := addBand(p, lo, hi, d.Land.Mean-d.Land.Std, d.Land.Mean+d.Land.Std, rangeColor); err != nil {
			return nil, err
		}
	}

	axis := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5), Dashes: dashed}
	if _, err := addLine(p, lo, 0, hi, 0, axis); err != nil {
		return nil, err
	}
	if _, err := addLine(p, 0, lo, 0, hi, axis); err != nil {
		return nil, err
	}
	diag, err := addLine(p, lo, lo, hi, hi, draw.LineStyle{Color: color.Black, Width: vg.Points(0.75)})
	if err != nil {
		return nil, err
	}
	p.Legend.Add("1:1", diag)

	pts := make([]point, 0, len(d.Models)+1)
	var cmip6 []report.ScatterPoint
	for _, m := range d.Models {
		sty, err := markerStyle(cat, m.Model, m.Phase)
		if err != nil {
			return nil, err
		}
		pts = append(pts, point{X: m.Ocean.Mean, Y: m.Land.Mean, XErr: m.Ocean.Std, YErr: m.Land.Std, Style: sty})
		if m.Phase == catalog.PhaseCMIP6 {
			cmip6 = append(cmip6, m)
		}
	}
	recStyle := draw.GlyphStyle{Color: color.Black, Radius: recRadius, Shape: DiamondGlyph{}}
	pts = append(pts, point{X: d.Ocean.Mean, Y: d.Land.Mean, XErr: d.Ocean.Std, YErr: d.Land.Std, Style: recStyle})
	if err := addPoints(p, pts); err != nil {
		return nil, err
	}

	entries, err := scatterLegend(cat, d, cmip6, recStyle)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		thumb, err := legendGlyph(e.sty)
		if err != nil {
			return nil, err
		}
		p.Legend.Add(e.name, thumb)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Font.Size = vg.Points(7)

	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = lo, hi

	return &Figure{
		Name:   ScatterName(cat, version),
		Width:  14 * vg.Centimeter,
		Height: 14 * vg.Centimeter,
		Tiles:  draw.Tiles{Rows: 1, Cols: 1},
		Plots:  [][]*plot.Plot{{p}},
	}, nil
}

type legendEntry struct {
	name string
	sty  draw.GlyphStyle
}

// scatterLegend names the reconstruction, the two gray model groups and then
// every plotted CMIP6 model in its own color.
func scatterLegend(cat *catalog.Catalog, d report.ScatterData, cmip6 []report.ScatterPoint, rec draw.GlyphStyle) ([]legendEntry, error) {
	entries := []legendEntry{
		{d.LandLabel + "/" + d.OceanLabel, rec},
		{"PMIP3 models", draw.GlyphStyle{Color: gray, Radius: markerRadius, Shape: draw.RingGlyph{}}},
		{"non-CMIP6 PMIP4 models", draw.GlyphStyle{Color: gray, Radius: markerRadius, Shape: draw.CircleGlyph{}}},
	}
	for _, m := range cmip6 {
		sty, err := markerStyle(cat, m.Model, m.Phase)
		if err != nil {
			return nil, err
		}
		entries = append(entries, legendEntry{m.Label, sty})
	}
	return entries, nil
}
