package render

import (
	"testing"

	"github.com/iafilius/ReflowMonitor/src/types"
)

func TestNewProgressRenderer_InitialAxes(t *testing.T) {
	rec := newRecorder(true)
	NewProgressRenderer(rec.Overlay())
	o := rec.overlay
	if o.ylo != 0 || o.yhi != 1 || o.xlo != 0 || o.xhi != 1 || o.rectW != 0 {
		t.Fatalf("initial overlay %+v", o)
	}
}

func TestProgressRenderer_ScalesToTarget(t *testing.T) {
	rec := newRecorder(true)
	p := NewProgressRenderer(rec.Overlay())
	p.Render(types.PhaseState{Current: 'A', Previous: 'A', ProgressTarget: 150, ProgressValue: 55})
	o := rec.overlay
	if o.rectW != 55 || o.xlo != 0 || o.xhi != 150 {
		t.Fatalf("overlay %+v", o)
	}
	if o.rectH != 50 || o.color != "green" || o.alpha != 0.5 {
		t.Fatalf("rect style %+v", o)
	}
	if p.Last().ProgressValue != 55 {
		t.Fatalf("Last()=%+v", p.Last())
	}
}

func TestProgressRenderer_NoClamping(t *testing.T) {
	rec := newRecorder(true)
	p := NewProgressRenderer(rec.Overlay())
	p.Render(types.PhaseState{ProgressTarget: 90, ProgressValue: 130})
	if rec.overlay.rectW != 130 || rec.overlay.xhi != 90 {
		t.Fatalf("overflowing bar must be drawn as is: %+v", rec.overlay)
	}
}
