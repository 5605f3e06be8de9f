package catalog

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color returns the display color of a model.
func (c *Catalog) Color(model string) (color.RGBA, error) {
	s, ok := c.Colors[model]
	if !ok {
		return color.RGBA{}, fmt.Errorf("no color for %q", model)
	}
	return ParseColor(s)
}

// ParseColor accepts an SVG color name, a #rrggbb hex code or an "r,g,b"
// triple of components in [0, 1].
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if col, ok := colornames.Map[strings.ToLower(s)]; ok {
		return col, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 || f > 1 {
			return color.RGBA{}, fmt.Errorf("invalid color component %q in %q", p, s)
		}
		rgb[i] = uint8(f*255 + 0.5)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}, nil
}
