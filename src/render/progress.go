package render

import "github.com/iafilius/ReflowMonitor/src/types"

const (
	progressHeight = 50
	progressAlpha  = 0.5
)

// ProgressRenderer draws the reflow progress bar: a rectangle as wide as the
// progress value on axes scaled to the current phase target. Values above the
// target are drawn as is and overflow the axes.
type ProgressRenderer struct {
	canvas OverlayCanvas
	last   types.PhaseState
}

// NewProgressRenderer sets the overlay axes to [0,1] x [0,1] with an empty bar.
func NewProgressRenderer(c OverlayCanvas) *ProgressRenderer {
	c.SetYLim(0, 1)
	c.SetXLim(0, 1)
	c.DrawRect(0, 0, 0, progressHeight, ProgressColor.Name, progressAlpha)
	return &ProgressRenderer{canvas: c, last: types.InitialPhaseState()}
}

// Render applies the phase state produced by the latest sample.
func (p *ProgressRenderer) Render(st types.PhaseState) {
	p.last = st
	p.canvas.DrawRect(0, 0, st.ProgressValue, progressHeight, ProgressColor.Name, progressAlpha)
	p.canvas.SetXLim(0, st.ProgressTarget)
}

// Last returns the most recently rendered state.
func (p *ProgressRenderer) Last() types.PhaseState { return p.last }
