package render

import (
	"image/color"
	"math"
)

// NamedColor is a series color with the RGB a figure needs to paint it.
type NamedColor struct {
	Name string
	RGB  color.RGBA
}

// Band colors a value range; a value belongs to the first band whose Upper it does
// not exceed.
type Band struct {
	Upper float64
	Color NamedColor
}

// TemperaturePalette maps the reading to a color, cool to hot. The last band is the
// overflow color for anything above 300 (and NaN).
var TemperaturePalette = []Band{
	{10, NamedColor{"skyblue", color.RGBA{0x87, 0xce, 0xeb, 0xff}}},
	{20, NamedColor{"deepskyblue", color.RGBA{0x00, 0xbf, 0xff, 0xff}}},
	{40, NamedColor{"royalblue", color.RGBA{0x41, 0x69, 0xe1, 0xff}}},
	{60, NamedColor{"turquoise", color.RGBA{0x40, 0xe0, 0xd0, 0xff}}},
	{80, NamedColor{"greenyellow", color.RGBA{0xad, 0xff, 0x2f, 0xff}}},
	{120, NamedColor{"yellow", color.RGBA{0xff, 0xff, 0x00, 0xff}}},
	{160, NamedColor{"orange", color.RGBA{0xff, 0xa5, 0x00, 0xff}}},
	{200, NamedColor{"orangered", color.RGBA{0xff, 0x45, 0x00, 0xff}}},
	{240, NamedColor{"red", color.RGBA{0xff, 0x00, 0x00, 0xff}}},
	{300, NamedColor{"firebrick", color.RGBA{0xb2, 0x22, 0x22, 0xff}}},
	{math.Inf(1), NamedColor{"black", color.RGBA{0x00, 0x00, 0x00, 0xff}}},
}

// BasicColor is the single series color of basic mode.
var BasicColor = NamedColor{"tab:blue", color.RGBA{0x1f, 0x77, 0xb4, 0xff}}

// ProgressColor fills the progress overlay.
var ProgressColor = NamedColor{"green", color.RGBA{0x00, 0x80, 0x00, 0xff}}

// ColorFor returns the palette color for v. NaN falls through to the overflow color.
func ColorFor(v float64) NamedColor {
	last := TemperaturePalette[len(TemperaturePalette)-1]
	if math.IsNaN(v) {
		return last.Color
	}
	for _, b := range TemperaturePalette {
		if v <= b.Upper {
			return b.Color
		}
	}
	return last.Color
}

var namedColors = func() map[string]color.RGBA {
	m := map[string]color.RGBA{BasicColor.Name: BasicColor.RGB, ProgressColor.Name: ProgressColor.RGB}
	for _, b := range TemperaturePalette {
		m[b.Color.Name] = b.Color.RGB
	}
	return m
}()

// LookupColor resolves a color name used on the canvas boundary. Unknown names map
// to black.
func LookupColor(name string) color.RGBA {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return color.RGBA{A: 0xff}
}
