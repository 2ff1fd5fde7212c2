package render

import (
	"fmt"
	"time"

	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// SeriesBuffer is the full retained history of the chart. Times and Values stay
// index-aligned and Times is strictly increasing. Nothing is ever evicted.
type SeriesBuffer struct {
	times  []float64
	values []float64
}

// Append adds a point. Points that would break the time ordering are refused.
func (b *SeriesBuffer) Append(t int64, v float64) bool {
	if n := len(b.times); n > 0 && float64(t) <= b.times[n-1] {
		return false
	}
	b.times = append(b.times, float64(t))
	b.values = append(b.values, v)
	return true
}

// Len returns the number of retained points.
func (b *SeriesBuffer) Len() int { return len(b.times) }

// Times returns the retained x values. Callers must not modify the slice.
func (b *SeriesBuffer) Times() []float64 { return b.times }

// Values returns the retained y values. Callers must not modify the slice.
func (b *SeriesBuffer) Values() []float64 { return b.values }

// ViewWindow is the visible x range of the chart.
type ViewWindow struct {
	Lo, Hi float64
}

// WindowFor returns the visible range after the sample at time t: the trailing
// xsize ticks once t exceeds xsize, else [0, xsize].
func WindowFor(t, xsize int64) ViewWindow {
	if t > xsize {
		return ViewWindow{Lo: float64(t - xsize), Hi: float64(t)}
	}
	return ViewWindow{Lo: 0, Hi: float64(xsize)}
}

// FormatElapsed renders d as HH:MM:SS. Hours keep counting past 24.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// WindowOptions configures the strip chart.
type WindowOptions struct {
	// XSize is the number of ticks visible at once.
	XSize int64
	YMin  float64
	YMax  float64
	// Recolor switches the series color by temperature band on every sample;
	// otherwise the series keeps BasicColor.
	Recolor bool
	Unit    string
	// Start is the pipeline start used for the elapsed-time banner.
	Start time.Time
	Clock monitor.Clock
}

// DefaultWindowOptions returns the chart settings for a mode.
func DefaultWindowOptions(mode types.Mode) WindowOptions {
	o := WindowOptions{XSize: 100, YMin: -50, YMax: 300, Unit: "°C"}
	if mode == types.ModeReflow {
		o.XSize = 700
		o.Recolor = true
	}
	return o
}

// WindowRenderer keeps the series buffer and pushes the scrolling strip chart onto
// a Canvas, one sample at a time.
type WindowRenderer struct {
	canvas Canvas
	opts   WindowOptions
	buf    SeriesBuffer
	view   ViewWindow
	color  string
}

// NewWindowRenderer sets up the axes: fixed y range, x range [0, XSize], grid on.
func NewWindowRenderer(c Canvas, opts WindowOptions) *WindowRenderer {
	if opts.XSize <= 0 {
		opts.XSize = 100
	}
	if opts.Clock == nil {
		opts.Clock = monitor.SystemClock
	}
	if opts.Start.IsZero() {
		opts.Start = opts.Clock.Now()
	}
	if opts.Unit == "" {
		opts.Unit = "°C"
	}
	r := &WindowRenderer{canvas: c, opts: opts, view: WindowFor(0, opts.XSize), color: BasicColor.Name}
	c.SetYLim(opts.YMin, opts.YMax)
	c.SetXLim(r.view.Lo, r.view.Hi)
	c.SetGrid(true)
	c.SetColor(r.color)
	return r
}

// Render applies one sample. The pre-start sentinel time is ignored.
func (r *WindowRenderer) Render(s types.Sample) {
	if s.Time <= types.NoTime {
		return
	}
	if !r.buf.Append(s.Time, s.Value) {
		monitor.Warnf("dropping out-of-order sample t=%d", s.Time)
		return
	}
	if s.Time > r.opts.XSize {
		r.view = WindowFor(s.Time, r.opts.XSize)
		r.canvas.SetXLim(r.view.Lo, r.view.Hi)
	}
	r.canvas.SetSeries(r.buf.Times(), r.buf.Values())
	r.canvas.SetBanner("Time Elapsed: " + FormatElapsed(r.opts.Clock.Now().Sub(r.opts.Start)))
	if r.opts.Recolor {
		r.color = ColorFor(s.Value).Name
		r.canvas.SetColor(r.color)
	}
	r.canvas.SetTitle(fmt.Sprintf("Temperature: %.2f %s", s.Value, r.opts.Unit))
}

// Buffer returns the retained series.
func (r *WindowRenderer) Buffer() *SeriesBuffer { return &r.buf }

// View returns the current visible x range.
func (r *WindowRenderer) View() ViewWindow { return r.view }

// Color returns the current series color name.
func (r *WindowRenderer) Color() string { return r.color }
