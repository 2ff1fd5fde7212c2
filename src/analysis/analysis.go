// Package analysis checks a recorded capture against its reflow profile: which phases
// were entered and in what order, how long the timed phases held, whether the peak
// reached the reflow temperature. Results go to a JSON alert report.
//
// A capture carries no timestamps, so timed phases are measured on a clock that
// advances by Options.TickInterval per decoded line.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// PhaseSummary describes the samples tagged with one phase.
type PhaseSummary struct {
	Phase     string  `json:"phase" yaml:"phase"`
	Tag       string  `json:"tag" yaml:"tag"`
	Entries   int     `json:"entries" yaml:"entries"`
	Ticks     int     `json:"ticks" yaml:"ticks"`
	FirstTick int64   `json:"first_tick" yaml:"first_tick"`
	LastTick  int64   `json:"last_tick" yaml:"last_tick"`
	MinTemp   float64 `json:"min_temp" yaml:"min_temp"`
	MaxTemp   float64 `json:"max_temp" yaml:"max_temp"`
	// MaxProgress is the highest progress value seen (°C for ramps, seconds for holds).
	MaxProgress float64 `json:"max_progress" yaml:"max_progress"`
	Target      float64 `json:"target" yaml:"target"`
}

// CaptureSummary describes a whole capture.
type CaptureSummary struct {
	Mode     types.Mode `json:"mode" yaml:"mode"`
	Lines    int        `json:"lines" yaml:"lines"`
	Samples  int        `json:"samples" yaml:"samples"`
	Rejected int        `json:"rejected" yaml:"rejected"`
	MinTemp  float64    `json:"min_temp" yaml:"min_temp"`
	MaxTemp  float64    `json:"max_temp" yaml:"max_temp"`
	PeakTick int64      `json:"peak_tick" yaml:"peak_tick"`
	// Phases is ordered by first appearance. Empty in basic mode.
	Phases []PhaseSummary `json:"phases,omitempty" yaml:"phases,omitempty"`
	// Sequence lists the phase tags in the order they were entered.
	Sequence []string `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// Phase returns the summary for tag, if the capture contains it.
func (s CaptureSummary) Phase(tag types.Phase) (PhaseSummary, bool) {
	for _, p := range s.Phases {
		if p.Tag == tag.String() {
			return p, true
		}
	}
	return PhaseSummary{}, false
}

// Options configures AnalyzeCapture.
type Options struct {
	Mode    types.Mode
	Profile types.Profile
	// TickInterval is the controller's line cadence. Defaults to one second.
	TickInterval time.Duration
}

// lineClock is advanced by the analyzer after each decoded line.
type lineClock struct{ now time.Time }

func (c *lineClock) Now() time.Time { return c.now }

// AnalyzeCapture reads src to the end. Malformed lines are counted and skipped; any
// other read error aborts the analysis.
func AnalyzeCapture(src monitor.LineSource, opts Options) (CaptureSummary, error) {
	defer monitor.TimeTrack(time.Now(), "analyze capture")
	interval := opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	clk := &lineClock{now: time.Unix(0, 0).UTC()}

	var stream *monitor.Stream
	if opts.Mode == types.ModeReflow {
		stream = monitor.NewPhaseStream(src, monitor.NewPhaseTracker(opts.Profile, clk))
	} else {
		stream = monitor.NewStream(src)
	}

	sum := CaptureSummary{Mode: opts.Mode, MinTemp: math.Inf(1), MaxTemp: math.Inf(-1)}
	if sum.Mode == "" {
		sum.Mode = types.ModeBasic
	}
	index := map[types.Phase]int{}
	prev := types.PhaseNone

	for {
		tick, err := stream.Next()
		if err != nil {
			var de *monitor.DecodeError
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.As(err, &de) {
				monitor.Debugf("skip malformed line: %v", de)
				continue
			}
			return CaptureSummary{}, err
		}
		clk.now = clk.now.Add(interval)

		v, t := tick.Sample.Value, tick.Sample.Time
		sum.Samples++
		if v < sum.MinTemp {
			sum.MinTemp = v
		}
		if v > sum.MaxTemp {
			sum.MaxTemp, sum.PeakTick = v, t
		}
		if tick.Line == nil || tick.Phase == nil {
			continue
		}

		tag := tick.Line.Tag
		i, ok := index[tag]
		if !ok {
			i = len(sum.Phases)
			index[tag] = i
			sum.Phases = append(sum.Phases, PhaseSummary{
				Phase: tag.Name(), Tag: tag.String(), FirstTick: t,
				MinTemp: v, MaxTemp: v,
			})
		}
		ps := &sum.Phases[i]
		if tag != prev {
			ps.Entries++
			sum.Sequence = append(sum.Sequence, tag.String())
		}
		prev = tag
		ps.Ticks++
		ps.LastTick = t
		ps.MinTemp = math.Min(ps.MinTemp, v)
		ps.MaxTemp = math.Max(ps.MaxTemp, v)
		ps.MaxProgress = math.Max(ps.MaxProgress, tick.Phase.ProgressValue)
		ps.Target = tick.Phase.ProgressTarget
	}

	st := stream.Stats()
	sum.Lines, sum.Rejected = int(st.LinesRead), int(st.Rejected)
	if sum.Samples == 0 {
		sum.MinTemp, sum.MaxTemp = 0, 0
	}
	return sum, nil
}

// Thresholds tune the profile checks.
type Thresholds struct {
	// PeakShortfall is how far below the reflow temperature the peak may stay.
	PeakShortfall float64 `json:"peak_shortfall_c" yaml:"peak_shortfall_c"`
	// MaxRejectedPct is the share of malformed lines tolerated.
	MaxRejectedPct float64 `json:"max_rejected_pct" yaml:"max_rejected_pct"`
}

// DefaultThresholds returns the checks used by the reader.
func DefaultThresholds() Thresholds {
	return Thresholds{PeakShortfall: 0, MaxRejectedPct: 5}
}

var phaseRank = map[string]int{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}

// Alerts lists the ways the run deviated from its profile. An empty result means the
// capture looks like a complete run.
func Alerts(s CaptureSummary, p types.Profile, th Thresholds) []string {
	alerts := []string{}
	if s.Lines > 0 && th.MaxRejectedPct > 0 {
		pct := float64(s.Rejected) / float64(s.Lines) * 100
		if pct >= th.MaxRejectedPct {
			alerts = append(alerts, fmt.Sprintf("rejected_lines %.1f%% >= %.1f%%", pct, th.MaxRejectedPct))
		}
	}
	if s.Mode != types.ModeReflow {
		return alerts
	}

	for _, tag := range []types.Phase{types.PhasePreheat, types.PhaseSoak, types.PhaseRamp, types.PhaseReflow, types.PhaseCool} {
		if _, ok := s.Phase(tag); !ok {
			alerts = append(alerts, "missing_phase "+tag.Name())
		}
	}
	if soak, ok := s.Phase(types.PhaseSoak); ok && p.SoakTime > 0 && soak.MaxProgress < float64(p.SoakTime) {
		alerts = append(alerts, fmt.Sprintf("soak_short %.0fs < %ds", soak.MaxProgress, p.SoakTime))
	}
	if rf, ok := s.Phase(types.PhaseReflow); ok && p.ReflowTime > 0 && rf.MaxProgress < float64(p.ReflowTime) {
		alerts = append(alerts, fmt.Sprintf("reflow_short %.0fs < %ds", rf.MaxProgress, p.ReflowTime))
	}
	if p.ReflowTemp > 0 && s.Samples > 0 && s.MaxTemp < float64(p.ReflowTemp)-th.PeakShortfall {
		alerts = append(alerts, fmt.Sprintf("peak_below_reflow %.1f < %d", s.MaxTemp, p.ReflowTemp))
	}
	for i := 1; i < len(s.Sequence); i++ {
		a, b := phaseRank[s.Sequence[i-1]], phaseRank[s.Sequence[i]]
		if a > 0 && b > 0 && b < a {
			alerts = append(alerts, fmt.Sprintf("phase_regression %s->%s", s.Sequence[i-1], s.Sequence[i]))
		}
	}
	return alerts
}
