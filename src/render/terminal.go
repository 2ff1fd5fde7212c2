package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const termBarWidth = 24

// TerminalFigure prints one status line per frame. It is the figure used when no
// display is available, e.g. on a bench Raspberry Pi next to the oven.
type TerminalFigure struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	main     *termCanvas
	overlay  *termOverlay
	onClose  func()
}

type termCanvas struct {
	xs, ys  []float64
	color   string
	xlo     float64
	xhi     float64
	title   string
	banner  string
	touched bool
}

func (c *termCanvas) SetSeries(xs, ys []float64) { c.xs, c.ys, c.touched = xs, ys, true }
func (c *termCanvas) SetColor(name string)       { c.color = name }
func (c *termCanvas) SetXLim(lo, hi float64)     { c.xlo, c.xhi = lo, hi }
func (c *termCanvas) SetYLim(lo, hi float64)     {}
func (c *termCanvas) SetTitle(text string)       { c.title = text }
func (c *termCanvas) SetBanner(text string)      { c.banner = text }
func (c *termCanvas) SetGrid(on bool)            {}

type termOverlay struct {
	width float64
	hi    float64
}

func (o *termOverlay) SetXLim(lo, hi float64) { o.hi = hi - lo }
func (o *termOverlay) SetYLim(lo, hi float64) {}
func (o *termOverlay) DrawRect(x, y, width, height float64, color string, alpha float64) {
	o.width = width
}

// NewTerminalFigure writes frames to w. withOverlay adds the progress bar column.
func NewTerminalFigure(w io.Writer, withOverlay bool) *TerminalFigure {
	f := &TerminalFigure{w: w, renderer: lipgloss.NewRenderer(w), main: &termCanvas{}}
	if withOverlay {
		f.overlay = &termOverlay{}
	}
	return f
}

func (f *TerminalFigure) Main() Canvas { return f.main }

func (f *TerminalFigure) Overlay() OverlayCanvas {
	if f.overlay == nil {
		return nil
	}
	return f.overlay
}

func (f *TerminalFigure) OnClose(fn func()) { f.onClose = fn }

// Draw prints the current frame.
func (f *TerminalFigure) Draw() error {
	c := f.main
	if !c.touched || len(c.xs) == 0 {
		return nil
	}
	t := c.xs[len(c.xs)-1]
	rgb := LookupColor(c.color)
	style := f.renderer.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)))

	var b strings.Builder
	fmt.Fprintf(&b, "t=%6.0f  x=[%.0f,%.0f]  %s", t, c.xlo, c.xhi, style.Render(c.title))
	if f.overlay != nil {
		b.WriteString("  ")
		b.WriteString(progressBar(f.overlay.width, f.overlay.hi, termBarWidth))
		fmt.Fprintf(&b, " %.0f/%.0f", f.overlay.width, f.overlay.hi)
	}
	b.WriteString("  ")
	b.WriteString(c.banner)
	b.WriteByte('\n')
	_, err := io.WriteString(f.w, b.String())
	return err
}

// progressBar draws value/limit as a bar of n cells. An overflowing value fills
// the bar and is marked with '+'.
func progressBar(value, limit float64, n int) string {
	frac := 0.0
	if limit > 0 {
		frac = value / limit
	}
	over := frac > 1
	if frac < 0 || math.IsNaN(frac) {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	full := int(math.Round(frac * float64(n)))
	bar := "[" + strings.Repeat("#", full) + strings.Repeat(".", n-full) + "]"
	if over {
		bar += "+"
	}
	return bar
}
