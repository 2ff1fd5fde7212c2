// Package render turns decoded ticks into drawing calls on an abstract figure and
// drives the fixed-interval update loop.
package render

// Canvas is the main strip-chart axes.
type Canvas interface {
	SetSeries(xs, ys []float64)
	SetColor(name string)
	SetXLim(lo, hi float64)
	SetYLim(lo, hi float64)
	SetTitle(text string)
	// SetBanner sets the figure-level heading above the axes.
	SetBanner(text string)
	SetGrid(on bool)
}

// OverlayCanvas is the progress-bar axes below the chart.
type OverlayCanvas interface {
	SetXLim(lo, hi float64)
	SetYLim(lo, hi float64)
	DrawRect(x, y, width, height float64, color string, alpha float64)
}

// Figure owns the canvases. Draw presents everything set since the previous Draw.
// Overlay returns nil when the figure has no progress axes.
type Figure interface {
	Main() Canvas
	Overlay() OverlayCanvas
	Draw() error
	// OnClose registers fn to run when the user closes the display.
	OnClose(fn func())
}
