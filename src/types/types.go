// Package types holds the plain data shared by the decoding pipeline and the renderers.
package types

import "time"

// NoTime is the virtual time reported by a stream before its first emission.
// It is never forwarded to a renderer.
const NoTime int64 = -1

// Sample is one decoded reading stamped with its virtual tick.
type Sample struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Phase is the one-letter tag that prefixes a line in reflow mode.
type Phase byte

const (
	PhasePreheat Phase = 'A' // ramp to soak temperature
	PhaseSoak    Phase = 'B' // hold for soak time
	PhaseRamp    Phase = 'C' // ramp to reflow temperature
	PhaseReflow  Phase = 'D' // hold for reflow time
	PhaseCool    Phase = 'E' // cooling
	// PhaseNone is the sentinel "no previous phase" before the first sample.
	PhaseNone Phase = 'X'
)

func (p Phase) String() string { return string(rune(p)) }

// Name returns the lower-case phase name used in reports.
func (p Phase) Name() string {
	switch p {
	case PhasePreheat:
		return "preheat"
	case PhaseSoak:
		return "soak"
	case PhaseRamp:
		return "ramp"
	case PhaseReflow:
		return "reflow"
	case PhaseCool:
		return "cool"
	case PhaseNone:
		return "none"
	}
	return "unknown"
}

// Known reports whether p is one of the five process phases A..E.
func (p Phase) Known() bool { return p >= PhasePreheat && p <= PhaseCool }

// PhaseSample is a decoded reflow-mode line.
type PhaseSample struct {
	Time    int64 `json:"time"`
	Tag     Phase `json:"tag"`
	Payload int64 `json:"payload"`
}

// PhaseState is the progress bookkeeping of the reflow state machine.
// PhaseStart is the zero time until a timed phase (B or D) is entered.
type PhaseState struct {
	Current        Phase     `json:"current"`
	Previous       Phase     `json:"previous"`
	PhaseStart     time.Time `json:"phase_start"`
	ProgressTarget float64   `json:"progress_target"`
	ProgressValue  float64   `json:"progress_value"`
}

// InitialPhaseState returns the state before any line has been observed.
func InitialPhaseState() PhaseState {
	return PhaseState{Current: PhaseNone, Previous: PhaseNone}
}

// Profile is the reflow recipe entered before a run starts.
// Temperatures are in °C, times in seconds.
type Profile struct {
	ReflowTemp int `yaml:"reflow_temp" json:"reflow_temp"`
	ReflowTime int `yaml:"reflow_time" json:"reflow_time"`
	SoakTemp   int `yaml:"soak_temp" json:"soak_temp"`
	SoakTime   int `yaml:"soak_time" json:"soak_time"`
}

// Complete reports whether every profile value has been supplied.
func (p Profile) Complete() bool {
	return p.ReflowTemp > 0 && p.ReflowTime > 0 && p.SoakTemp > 0 && p.SoakTime > 0
}

// Mode selects the line format and the renderers driven by the pipeline.
type Mode string

const (
	ModeBasic  Mode = "basic"
	ModeReflow Mode = "reflow"
)
