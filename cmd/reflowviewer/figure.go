package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/iafilius/ReflowMonitor/cmd/reflowviewer/uihelpers"
	"github.com/iafilius/ReflowMonitor/src/render"
)

const progressBarHeight = 36

// fyneFigure shows the offscreen chart in a window, with the progress overlay as a
// rectangle strip below it. Draw runs on the pipeline goroutine and hands each frame
// to the UI thread with fyne.Do.
type fyneFigure struct {
	*chartFigure

	window   fyne.Window
	img      *canvas.Image
	bar      *canvas.Rectangle
	barBox   *fyne.Container
	barLabel *widget.Label

	width   atomic.Int64
	closed  atomic.Bool
	onClose func()
}

func newFyneFigure(a fyne.App, withOverlay bool) *fyneFigure {
	f := &fyneFigure{window: a.NewWindow("Reflow Monitor")}
	f.chartFigure = newChartFigure(withOverlay, f.chartSize)
	f.width.Store(1100)

	f.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	f.img.FillMode = canvas.ImageFillContain
	w, h := f.chartSize()
	f.img.SetMinSize(fyne.NewSize(float32(w)/2, float32(h)/2))

	content := fyne.CanvasObject(f.img)
	if withOverlay {
		track := canvas.NewRectangle(color.NRGBA{R: 230, G: 230, B: 230, A: 255})
		track.SetMinSize(fyne.NewSize(0, progressBarHeight))
		f.bar = canvas.NewRectangle(color.Transparent)
		f.barBox = container.NewWithoutLayout(f.bar)
		f.barLabel = widget.NewLabel("")
		strip := container.NewBorder(nil, nil, nil, f.barLabel, container.NewStack(track, f.barBox))
		content = container.NewBorder(nil, strip, nil, nil, f.img)
	}
	f.window.SetContent(content)
	f.window.Resize(fyne.NewSize(1100, 640))
	f.window.SetOnClosed(func() {
		f.closed.Store(true)
		if f.onClose != nil {
			f.onClose()
		}
	})
	return f
}

// chartSize follows the window width so the x axis uses the available space.
func (f *fyneFigure) chartSize() (int, int) {
	return uihelpers.ComputeChartDimensions(int(float64(f.width.Load())*0.95) - 12)
}

func (f *fyneFigure) OnClose(fn func()) { f.onClose = fn }

func (f *fyneFigure) Draw() error {
	if f.closed.Load() {
		return errWindowClosed
	}
	if err := f.chartFigure.Draw(); err != nil {
		return err
	}
	img := f.chartFigure.Last()
	var (
		frac  float64
		fill  color.Color
		label string
	)
	if ov := f.chartFigure.overlay; ov != nil {
		frac, fill = ov.fraction(), ov.fill()
		label = fmt.Sprintf("%.0f / %.0f", ov.width, ov.xhi-ov.xlo)
	}
	fyne.Do(func() {
		if c := f.window.Canvas(); c != nil {
			f.width.Store(int64(c.Size().Width))
		}
		f.img.Image = img
		f.img.Refresh()
		if f.bar != nil {
			sz := f.barBox.Size()
			f.bar.FillColor = fill
			f.bar.Move(fyne.NewPos(0, 0))
			f.bar.Resize(fyne.NewSize(sz.Width*float32(frac), sz.Height))
			f.bar.Refresh()
			f.barLabel.SetText(label)
		}
	})
	return nil
}

var errWindowClosed = errors.New("window closed")

var _ render.Figure = (*fyneFigure)(nil)
