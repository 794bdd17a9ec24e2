package plotter

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/vg/draw"
)

// ParseColor accepts SVG color names (orange, steelblue, ...) and
// #rgb or #rrggbb hex values
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}

	if !strings.HasPrefix(name, "#") {
		return nil, fmt.Errorf("unknown color %q", s)
	}

	hex := name[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// ParseMarker maps a marker code to a glyph. "none" and "" return nil.
func ParseMarker(s string) (draw.GlyphDrawer, error) {
	switch strings.TrimSpace(s) {
	case "", "none":
		return nil, nil
	case "o":
		return draw.CircleGlyph{}, nil
	case ".":
		return draw.CircleGlyph{}, nil
	case "s":
		return draw.SquareGlyph{}, nil
	case "^":
		return draw.TriangleGlyph{}, nil
	case "x":
		return draw.CrossGlyph{}, nil
	case "+":
		return draw.PlusGlyph{}, nil
	case "*":
		return draw.PyramidGlyph{}, nil
	default:
		return nil, fmt.Errorf("unknown marker %q", s)
	}
}
