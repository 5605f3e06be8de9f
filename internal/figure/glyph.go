package figure

import (
	"math"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// StarGlyph draws a filled five-pointed star.
type StarGlyph struct{}

// DrawGlyph implements the draw.GlyphDrawer interface.
func (StarGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	c.Fill(starPath(pt, sty.Radius))
}

// OpenStarGlyph draws the outline of a five-pointed star.
type OpenStarGlyph struct{}

// DrawGlyph implements the draw.GlyphDrawer interface.
func (OpenStarGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	c.SetLineStyle(draw.LineStyle{Color: sty.Color, Width: vg.Points(0.75)})
	c.Stroke(starPath(pt, sty.Radius))
}

// starPath alternates outer and inner vertices, starting at the top.
func starPath(pt vg.Point, r vg.Length) vg.Path {
	const inner = 0.4
	p := make(vg.Path, 0, 11)
	for i := range 10 {
		rad := r
		if i%2 == 1 {
			rad = r * inner
		}
		a := math.Pi/2 + float64(i)*math.Pi/5
		v := vg.Point{X: pt.X + rad*vg.Length(math.Cos(a)), Y: pt.Y + rad*vg.Length(math.Sin(a))}
		if i == 0 {
			p.Move(v)
		} else {
			p.Line(v)
		}
	}
	p.Close()
	return p
}

// DiamondGlyph draws a filled square standing on one corner.
type DiamondGlyph struct{}

// DrawGlyph implements the draw.GlyphDrawer interface.
func (DiamondGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	var p vg.Path
	p.Move(vg.Point{X: pt.X, Y: pt.Y + sty.Radius})
	p.Line(vg.Point{X: pt.X + sty.Radius, Y: pt.Y})
	p.Line(vg.Point{X: pt.X, Y: pt.Y - sty.Radius})
	p.Line(vg.Point{X: pt.X - sty.Radius, Y: pt.Y})
	p.Close()
	c.Fill(p)
}
