package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/iafilius/ReflowMonitor/src/testutil"
)

// recorder is an in-memory Figure that keeps the latest canvas state and one text
// line per Draw.
type recorder struct {
	main    recCanvas
	overlay *recOverlay
	frames  []string
	clock   *testutil.ManualClock // advanced by step on every Draw when set
	step    time.Duration
	onClose func()
	drawErr error
}

type recCanvas struct {
	xs, ys       []float64
	color        string
	xlo, xhi     float64
	ylo, yhi     float64
	title        string
	banner       string
	grid         bool
	setXLimCalls int
}

func (c *recCanvas) SetSeries(xs, ys []float64) { c.xs, c.ys = xs, ys }
func (c *recCanvas) SetColor(name string)       { c.color = name }
func (c *recCanvas) SetXLim(lo, hi float64)     { c.xlo, c.xhi = lo, hi; c.setXLimCalls++ }
func (c *recCanvas) SetYLim(lo, hi float64)     { c.ylo, c.yhi = lo, hi }
func (c *recCanvas) SetTitle(text string)       { c.title = text }
func (c *recCanvas) SetBanner(text string)      { c.banner = text }
func (c *recCanvas) SetGrid(on bool)            { c.grid = on }

type recOverlay struct {
	xlo, xhi float64
	ylo, yhi float64
	rectW    float64
	rectH    float64
	color    string
	alpha    float64
}

func (o *recOverlay) SetXLim(lo, hi float64) { o.xlo, o.xhi = lo, hi }
func (o *recOverlay) SetYLim(lo, hi float64) { o.ylo, o.yhi = lo, hi }
func (o *recOverlay) DrawRect(x, y, w, h float64, color string, alpha float64) {
	o.rectW, o.rectH, o.color, o.alpha = w, h, color, alpha
}

func newRecorder(withOverlay bool) *recorder {
	r := &recorder{}
	if withOverlay {
		r.overlay = &recOverlay{}
	}
	return r
}

func (r *recorder) Main() Canvas { return &r.main }

func (r *recorder) Overlay() OverlayCanvas {
	if r.overlay == nil {
		return nil
	}
	return r.overlay
}

func (r *recorder) OnClose(fn func()) { r.onClose = fn }

func (r *recorder) Draw() error {
	if r.drawErr != nil {
		return r.drawErr
	}
	c := &r.main
	t := 0.0
	if n := len(c.xs); n > 0 {
		t = c.xs[n-1]
	}
	line := fmt.Sprintf("t=%g x=[%g,%g] color=%s", t, c.xlo, c.xhi, c.color)
	if r.overlay != nil {
		line += fmt.Sprintf(" bar=%g/%g", r.overlay.rectW, r.overlay.xhi)
	}
	line += " | " + c.title + " | " + c.banner
	r.frames = append(r.frames, line)
	if r.clock != nil {
		r.clock.Advance(r.step)
	}
	return nil
}

func (r *recorder) trace() string { return strings.Join(r.frames, "\n") + "\n" }
