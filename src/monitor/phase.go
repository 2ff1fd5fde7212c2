package monitor

import (
	"math"

	"github.com/iafilius/ReflowMonitor/src/types"
)

// PhaseTracker follows the phase tags of a reflow run and derives the progress
// target and value shown by the overlay. It is owned by a single stream and is not
// safe for concurrent use.
type PhaseTracker struct {
	profile types.Profile
	clock   Clock
	state   types.PhaseState
}

// NewPhaseTracker creates a tracker for the given recipe. A nil clock uses the wall clock.
func NewPhaseTracker(profile types.Profile, clock Clock) *PhaseTracker {
	if clock == nil {
		clock = SystemClock
	}
	return &PhaseTracker{profile: profile, clock: clock, state: types.InitialPhaseState()}
}

// State returns a copy of the current state.
func (p *PhaseTracker) State() types.PhaseState { return p.state }

// Reset returns the tracker to its pre-run state.
func (p *PhaseTracker) Reset() { p.state = types.InitialPhaseState() }

// Observe applies one tagged reading and returns the updated state.
//
// On a phase change the progress target and value are recomputed from scratch; within
// a phase only the value moves. Timed phases (B, D) measure whole seconds since entry.
func (p *PhaseTracker) Observe(tag types.Phase, payload int64) types.PhaseState {
	st := &p.state
	now := p.clock.Now()
	if tag != st.Previous {
		switch tag {
		case types.PhasePreheat:
			st.ProgressTarget = float64(p.profile.SoakTemp)
			st.ProgressValue = float64(payload)
		case types.PhaseSoak:
			st.PhaseStart = now
			st.ProgressTarget = float64(p.profile.SoakTime)
			st.ProgressValue = 0
		case types.PhaseRamp:
			st.ProgressTarget = float64(p.profile.ReflowTemp)
			st.ProgressValue = float64(payload)
		case types.PhaseReflow:
			st.PhaseStart = now
			st.ProgressTarget = float64(p.profile.ReflowTime)
			st.ProgressValue = 0
		case types.PhaseCool:
			st.ProgressTarget = float64(payload)
			st.ProgressValue = 60
		default:
			st.ProgressTarget = 0
			st.ProgressValue = 0
		}
		Debugf("phase %s -> %s target=%.0f", st.Previous, tag, st.ProgressTarget)
	} else {
		switch tag {
		case types.PhasePreheat, types.PhaseRamp, types.PhaseCool:
			st.ProgressValue = float64(payload)
		case types.PhaseSoak, types.PhaseReflow:
			st.ProgressValue = math.Floor(now.Sub(st.PhaseStart).Seconds())
		}
	}
	st.Current = tag
	st.Previous = tag
	return p.state
}
