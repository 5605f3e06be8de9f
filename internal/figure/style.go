package figure

import (
	"image/color"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pmip/dmcompare/internal/catalog"
)

// Panel x positions of each group of markers.
const (
	xEnsemblePMIP3 = 0.5
	xPMIP3         = 1
	xPMIP4         = 2
	xEnsemblePMIP4 = 2.5
	xMax           = 3
)

var (
	gray      = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	bandColor = faded(colornames.Navajowhite)
	recColor  = colornames.Firebrick
	// Reconstruction ranges of the land versus ocean figure.
	rangeColor = faded(colornames.Lightgrey)

	markerRadius = vg.Points(3)
	recRadius    = vg.Points(4)
	starRadius   = vg.Points(5.5)

	dashed = []vg.Length{vg.Points(3), vg.Points(2)}
)

// Fixed y range of the Globe summary panels.
const globeYMin, globeYMax = -15, 20

// faded mixes a color half and half with white, as a half transparent fill
// over the white plot background.
func faded(c color.RGBA) color.RGBA {
	mix := func(v uint8) uint8 { return uint8((int(v) + 0xff) / 2) }
	return color.RGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: 0xff}
}

// markerStyle returns the glyph of a model: CMIP6 models are filled circles
// in their own color, other PMIP4 models gray circles and PMIP3 models gray
// rings.
func markerStyle(cat *catalog.Catalog, model string, phase catalog.Phase) (draw.GlyphStyle, error) {
	switch phase {
	case catalog.PhaseCMIP6:
		col, err := cat.Color(model)
		if err != nil {
			return draw.GlyphStyle{}, err
		}
		return draw.GlyphStyle{Color: col, Radius: markerRadius, Shape: draw.CircleGlyph{}}, nil
	case catalog.PhasePMIP3:
		return draw.GlyphStyle{Color: gray, Radius: markerRadius, Shape: draw.RingGlyph{}}, nil
	default:
		return draw.GlyphStyle{Color: gray, Radius: markerRadius, Shape: draw.CircleGlyph{}}, nil
	}
}

// phaseX is the summary panel column of a phase.
func phaseX(phase catalog.Phase) float64 {
	if phase == catalog.PhasePMIP3 {
		return xPMIP3
	}
	return xPMIP4
}

func ensembleStyle(phase catalog.Phase) draw.GlyphStyle {
	if phase == catalog.PhasePMIP3 {
		return draw.GlyphStyle{Color: color.Black, Radius: starRadius, Shape: OpenStarGlyph{}}
	}
	return draw.GlyphStyle{Color: color.Black, Radius: starRadius, Shape: StarGlyph{}}
}

func errorLineStyle(col color.Color) draw.LineStyle {
	return draw.LineStyle{Color: col, Width: vg.Points(0.75)}
}
