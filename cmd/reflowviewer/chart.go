package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	png "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/ReflowMonitor/cmd/reflowviewer/uihelpers"
	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/render"
)

// stripChart records what the window renderer asked for. It is owned by the pipeline
// goroutine; rendering copies out the visible segment.
type stripChart struct {
	xs, ys   []float64
	color    string
	xlo, xhi float64
	ylo, yhi float64
	title    string
	banner   string
	grid     bool
}

func (c *stripChart) SetSeries(xs, ys []float64) { c.xs, c.ys = xs, ys }
func (c *stripChart) SetColor(name string)       { c.color = name }
func (c *stripChart) SetXLim(lo, hi float64)     { c.xlo, c.xhi = lo, hi }
func (c *stripChart) SetYLim(lo, hi float64)     { c.ylo, c.yhi = lo, hi }
func (c *stripChart) SetTitle(text string)       { c.title = text }
func (c *stripChart) SetBanner(text string)      { c.banner = text }
func (c *stripChart) SetGrid(on bool)            { c.grid = on }

// progressAxes records the progress overlay. Only the last rectangle is kept.
type progressAxes struct {
	xlo, xhi float64
	width    float64
	color    string
	alpha    float64
}

func (p *progressAxes) SetXLim(lo, hi float64) { p.xlo, p.xhi = lo, hi }
func (p *progressAxes) SetYLim(lo, hi float64) {}
func (p *progressAxes) DrawRect(x, y, width, height float64, color string, alpha float64) {
	p.width, p.color, p.alpha = width, color, alpha
}

// fraction is the filled share of the bar, clamped to [0,1] for display. A zero
// target shows an empty bar.
func (p *progressAxes) fraction() float64 {
	span := p.xhi - p.xlo
	if span <= 0 {
		return 0
	}
	f := p.width / span
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// fill is the bar color with its alpha applied.
func (p *progressAxes) fill() color.NRGBA {
	rgb := render.LookupColor(p.color)
	return color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: uint8(p.alpha*255 + 0.5)}
}

// chartFigure renders the strip chart offscreen. Draw produces a fresh image each
// frame, so the last image can be handed to another goroutine without copying.
type chartFigure struct {
	main    *stripChart
	overlay *progressAxes
	size    func() (int, int)
	last    image.Image
	onClose func()
}

func newChartFigure(withOverlay bool, size func() (int, int)) *chartFigure {
	f := &chartFigure{main: &stripChart{}, size: size}
	if withOverlay {
		f.overlay = &progressAxes{}
	}
	if f.size == nil {
		f.size = func() (int, int) { return uihelpers.ComputeChartDimensions(1100) }
	}
	return f
}

func (f *chartFigure) Main() render.Canvas { return f.main }

func (f *chartFigure) Overlay() render.OverlayCanvas {
	if f.overlay == nil {
		return nil
	}
	return f.overlay
}

func (f *chartFigure) OnClose(fn func()) { f.onClose = fn }

func (f *chartFigure) Draw() error {
	w, h := f.size()
	img, err := renderStripChart(f.main, w, h)
	if err != nil {
		return err
	}
	f.last = img
	return nil
}

// Last returns the most recent frame, or nil before the first Draw.
func (f *chartFigure) Last() image.Image { return f.last }

// visibleSegment returns copies of the points with lo <= x <= hi. xs is sorted.
func visibleSegment(xs, ys []float64, lo, hi float64) ([]float64, []float64) {
	i := sort.SearchFloat64s(xs, lo)
	j := sort.Search(len(xs), func(k int) bool { return xs[k] > hi })
	if i >= j {
		return nil, nil
	}
	return append([]float64(nil), xs[i:j]...), append([]float64(nil), ys[i:j]...)
}

func lineStyle(c color.RGBA) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: 255},
	}
}

func gridStyle(on bool) chart.Style {
	if !on {
		return chart.Style{Hidden: true}
	}
	return chart.Style{StrokeColor: drawing.Color{R: 210, G: 210, B: 210, A: 255}, StrokeWidth: 1}
}

// renderStripChart draws the visible part of the series with fixed axes and stamps the
// elapsed-time banner on top.
func renderStripChart(c *stripChart, w, h int) (image.Image, error) {
	xs, ys := visibleSegment(c.xs, c.ys, c.xlo, c.xhi)
	if len(xs) == 0 {
		return drawBanner(blank(w, h), c.banner), nil
	}
	// go-chart needs two points to draw a line
	if len(xs) == 1 {
		xs = []float64{xs[0], xs[0]}
		ys = []float64{ys[0], ys[0]}
	}

	var xTicks []chart.Tick
	for _, v := range uihelpers.BuildWindowTicks(c.xlo, c.xhi, 8) {
		xTicks = append(xTicks, chart.Tick{Value: v, Label: uihelpers.FormatTickIndex(v)})
	}
	var yTicks []chart.Tick
	for _, v := range uihelpers.BuildNumericTicks(c.ylo, c.yhi, 8) {
		if v < c.ylo || v > c.yhi {
			continue
		}
		yTicks = append(yTicks, chart.Tick{Value: v, Label: uihelpers.FormatNumericTick(v)})
	}

	ch := chart.Chart{
		Title:      c.title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 24}},
		XAxis: chart.XAxis{
			Range:          &chart.ContinuousRange{Min: c.xlo, Max: c.xhi},
			Ticks:          xTicks,
			GridMajorStyle: gridStyle(c.grid),
		},
		YAxis: chart.YAxis{
			Name:           "°C",
			Range:          &chart.ContinuousRange{Min: c.ylo, Max: c.yhi},
			Ticks:          yTicks,
			GridMajorStyle: gridStyle(c.grid),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "temperature", XValues: xs, YValues: ys, Style: lineStyle(render.LookupColor(c.color))},
		},
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return drawBanner(img, c.banner), nil
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// drawBanner writes text centered near the top edge.
func drawBanner(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: rgba, Src: image.NewUniform(color.Black), Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + (b.Dx()-tw)/2
	if x < b.Min.X+4 {
		x = b.Min.X + 4
	}
	y := b.Min.Y + 6 + face.Metrics().Ascent.Ceil()
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
	return rgba
}

// writeSnapshot stores img as a PNG, creating the parent directory.
func writeSnapshot(path string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("snapshot %s: nothing drawn yet", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	monitor.Infof("wrote snapshot %s", path)
	return nil
}
