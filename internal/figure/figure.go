package figure

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Formats are the file formats written by Save.
var Formats = []string{"png", "pdf"}

// dpi of the raster output.
const dpi = 150

// Figure is a grid of plots drawn on a single page. Nil entries of Plots
// leave their tile empty.
type Figure struct {
	// Name is the file name of the figure without extension.
	Name          string
	Title         string
	Width, Height vg.Length
	Tiles         draw.Tiles
	Plots         [][]*plot.Plot
	// RowLabels are drawn in the top left corner of each row.
	RowLabels []string
}

// Render draws the figure in the given format ("png" or "pdf") to w.
func (f *Figure) Render(w io.Writer, format string) error {
	var c vg.CanvasWriterTo
	switch format {
	case "png":
		c = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(f.Width, f.Height), vgimg.UseDPI(dpi))}
	case "pdf":
		c = vgpdf.New(f.Width, f.Height)
	default:
		return fmt.Errorf("unsupported figure format %q", format)
	}
	f.draw(draw.New(c))
	_, err := c.WriteTo(w)
	return err
}

// Save writes the figure to dir in every format and returns the paths.
func (f *Figure) Save(dir string, formats ...string) ([]string, error) {
	if len(formats) == 0 {
		formats = Formats
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := filepath.Join(dir, f.Name+"."+format)
		if err := f.saveAs(path, format); err != nil {
			return paths, fmt.Errorf("saving %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (f *Figure) saveAs(path, format string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return f.Render(out, format)
}

func (f *Figure) draw(dc draw.Canvas) {
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())

	if f.Title != "" {
		sty := textStyle(12, draw.XCenter, draw.YTop)
		dc.FillText(sty, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(4)}, f.Title)
	}

	canvases := plot.Align(f.Plots, f.Tiles, dc)
	for j, row := range f.Plots {
		for i, p := range row {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}

	sty := textStyle(12, draw.XLeft, draw.YTop)
	for j, label := range f.RowLabels {
		if j >= f.Tiles.Rows {
			break
		}
		tile := f.Tiles.At(dc, 0, j)
		dc.FillText(sty, vg.Point{X: dc.Min.X + vg.Points(2), Y: tile.Max.Y}, label)
	}
}

func textStyle(size vg.Length, x text.XAlignment, y text.YAlignment) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, size),
		XAlign:  x,
		YAlign:  y,
		Handler: plot.DefaultTextHandler,
	}
}

// point is one marker with optional symmetric error bars.
type point struct {
	X, Y       float64
	XErr, YErr float64
	Style      draw.GlyphStyle
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type yErrorer struct {
	plotter.XYs
	plotter.YErrors
}

type xErrorer struct {
	plotter.XYs
	plotter.XErrors
}

// addPoints adds the markers with their error bars in the marker color.
// Points with a non-finite coordinate are left out.
func addPoints(p *plot.Plot, pts []point) error {
	var xys plotter.XYs
	var styles []draw.GlyphStyle
	for _, pt := range pts {
		if !finite(pt.X, pt.Y) {
			continue
		}
		xy := plotter.XYs{{X: pt.X, Y: pt.Y}}
		if pt.YErr > 0 && finite(pt.YErr) {
			bars, err := plotter.NewYErrorBars(yErrorer{XYs: xy, YErrors: plotter.YErrors{{Low: pt.YErr, High: pt.YErr}}})
			if err != nil {
				return err
			}
			bars.LineStyle = errorLineStyle(pt.Style.Color)
			bars.CapWidth = vg.Points(3)
			p.Add(bars)
		}
		if pt.XErr > 0 && finite(pt.XErr) {
			bars, err := plotter.NewXErrorBars(xErrorer{XYs: xy, XErrors: plotter.XErrors{{Low: pt.XErr, High: pt.XErr}}})
			if err != nil {
				return err
			}
			bars.LineStyle = errorLineStyle(pt.Style.Color)
			bars.CapWidth = vg.Points(3)
			p.Add(bars)
		}
		xys = append(xys, xy[0])
		styles = append(styles, pt.Style)
	}
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle { return styles[i] }
	p.Add(s)
	return nil
}

// addBand shades the rectangle [x0, x1] x [y0, y1].
func addBand(p *plot.Plot, x0, x1, y0, y1 float64, col color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	if err != nil {
		return nil, err
	}
	poly.Color = col
	poly.LineStyle.Width = 0
	p.Add(poly)
	return poly, nil
}

// addLine draws a segment from (x0, y0) to (x1, y1).
func addLine(p *plot.Plot, x0, y0, x1, y1 float64, sty draw.LineStyle) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
	if err != nil {
		return nil, err
	}
	l.LineStyle = sty
	p.Add(l)
	return l, nil
}

// legendGlyph is a legend thumbnail showing a single glyph.
func legendGlyph(sty draw.GlyphStyle) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(plotter.XYs{{}})
	if err != nil {
		return nil, err
	}
	s.GlyphStyle = sty
	return s, nil
}
