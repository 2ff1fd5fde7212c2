package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/iafilius/ReflowMonitor/src/monitor"
)

// DefaultInterval is the animation cadence.
const DefaultInterval = 100 * time.Millisecond

// Driver pulls one tick from the stream per interval and hands it to the renderers.
//
// Everything runs on the caller's goroutine: a pull that blocks longer than the
// interval simply delays the next tick. Ticks never overlap and are never queued.
type Driver struct {
	Stream   *monitor.Stream
	Window   *WindowRenderer
	Progress *ProgressRenderer // nil in basic mode
	Figure   Figure
	Interval time.Duration
	// Strict makes a malformed line end the run instead of being logged and skipped.
	Strict bool
}

// Step renders one tick and presents the figure.
func (d *Driver) Step(t monitor.Tick) error {
	d.Window.Render(t.Sample)
	if d.Progress != nil && t.Phase != nil {
		d.Progress.Render(*t.Phase)
	}
	if err := d.Figure.Draw(); err != nil {
		return fmt.Errorf("draw tick %d: %w", t.Sample.Time, err)
	}
	return nil
}

// Run loops until the stream ends, a fatal error occurs, or ctx is cancelled. The
// end of a recorded capture returns nil.
func (d *Driver) Run(ctx context.Context) error {
	interval := d.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer func() {
		st := d.Stream.Stats()
		monitor.Infof("stream stopped: lines=%d decoded=%d rejected=%d", st.LinesRead, st.Decoded, st.Rejected)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		tick, err := d.Stream.Next()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			var de *monitor.DecodeError
			switch {
			case errors.Is(err, io.EOF):
				monitor.Infof("source exhausted after t=%d", d.Stream.Time())
				return nil
			case errors.As(err, &de) && !d.Strict:
				monitor.Warnf("skip malformed line: %v", de)
				continue
			default:
				return err
			}
		}
		if err := d.Step(tick); err != nil {
			return err
		}
	}
}
