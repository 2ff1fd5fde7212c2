package main

import (
	"errors"

	"github.com/iafilius/ReflowMonitor/src/render"
)

// teeFigure forwards every drawing call to several figures. The headless viewer
// uses it to print status lines and keep an offscreen chart for --snapshot.
type teeFigure struct {
	figs    []render.Figure
	main    teeCanvas
	overlay teeOverlay
}

func newTeeFigure(figs ...render.Figure) *teeFigure {
	t := &teeFigure{figs: figs}
	for _, f := range figs {
		t.main = append(t.main, f.Main())
		if ov := f.Overlay(); ov != nil {
			t.overlay = append(t.overlay, ov)
		}
	}
	return t
}

func (t *teeFigure) Main() render.Canvas { return t.main }

func (t *teeFigure) Overlay() render.OverlayCanvas {
	if len(t.overlay) == 0 {
		return nil
	}
	return t.overlay
}

func (t *teeFigure) Draw() error {
	var errs []error
	for _, f := range t.figs {
		if err := f.Draw(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeFigure) OnClose(fn func()) {
	for _, f := range t.figs {
		f.OnClose(fn)
	}
}

type teeCanvas []render.Canvas

func (t teeCanvas) SetSeries(xs, ys []float64) {
	for _, c := range t {
		c.SetSeries(xs, ys)
	}
}

func (t teeCanvas) SetColor(name string) {
	for _, c := range t {
		c.SetColor(name)
	}
}

func (t teeCanvas) SetXLim(lo, hi float64) {
	for _, c := range t {
		c.SetXLim(lo, hi)
	}
}

func (t teeCanvas) SetYLim(lo, hi float64) {
	for _, c := range t {
		c.SetYLim(lo, hi)
	}
}

func (t teeCanvas) SetTitle(text string) {
	for _, c := range t {
		c.SetTitle(text)
	}
}

func (t teeCanvas) SetBanner(text string) {
	for _, c := range t {
		c.SetBanner(text)
	}
}

func (t teeCanvas) SetGrid(on bool) {
	for _, c := range t {
		c.SetGrid(on)
	}
}

type teeOverlay []render.OverlayCanvas

func (t teeOverlay) SetXLim(lo, hi float64) {
	for _, o := range t {
		o.SetXLim(lo, hi)
	}
}

func (t teeOverlay) SetYLim(lo, hi float64) {
	for _, o := range t {
		o.SetYLim(lo, hi)
	}
}

func (t teeOverlay) DrawRect(x, y, width, height float64, color string, alpha float64) {
	for _, o := range t {
		o.DrawRect(x, y, width, height, color, alpha)
	}
}
