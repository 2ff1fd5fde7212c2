package monitor

import (
	"errors"
	"fmt"
	"io"

	"github.com/iafilius/ReflowMonitor/src/types"
)

// Tick is one pull from the stream: the sample and, in reflow mode, the decoded line
// and a copy of the phase state right after it was applied.
type Tick struct {
	Sample types.Sample
	Line   *types.PhaseSample
	Phase  *types.PhaseState
}

// StreamStats counts what a stream has consumed so far.
type StreamStats struct {
	LinesRead int64
	Decoded   int64
	Rejected  int64
}

// Stream turns a line source into an infinite, non-restartable sequence of ticks.
// The virtual time counter advances by exactly one per decoded line and is
// independent of wall-clock time.
type Stream struct {
	src     LineSource
	mode    types.Mode
	tracker *PhaseTracker
	time    int64
	stats   StreamStats
	done    bool
}

// NewStream builds a basic-mode stream: every line is a float.
func NewStream(src LineSource) *Stream {
	return &Stream{src: src, mode: types.ModeBasic, time: types.NoTime}
}

// NewPhaseStream builds a reflow-mode stream: every line is a tagged integer and
// feeds tracker before the tick is emitted.
func NewPhaseStream(src LineSource, tracker *PhaseTracker) *Stream {
	return &Stream{src: src, mode: types.ModeReflow, tracker: tracker, time: types.NoTime}
}

// Mode returns the line format of the stream.
func (s *Stream) Mode() types.Mode { return s.mode }

// Time returns the time of the last emitted sample, or types.NoTime before the first.
func (s *Stream) Time() int64 { return s.time }

// Stats returns line counters.
func (s *Stream) Stats() StreamStats { return s.stats }

// Next blocks for the next line and returns its tick.
//
// A malformed line yields a *DecodeError and consumes no virtual time; the caller
// may call Next again. A source error is returned wrapped and ends the stream, as
// does io.EOF, which is returned unwrapped.
func (s *Stream) Next() (Tick, error) {
	if s.done {
		return Tick{}, io.EOF
	}
	line, err := s.src.ReadLine()
	if err != nil {
		s.done = true
		if errors.Is(err, io.EOF) {
			return Tick{}, io.EOF
		}
		return Tick{}, fmt.Errorf("read line: %w", err)
	}
	s.stats.LinesRead++

	var tick Tick
	switch s.mode {
	case types.ModeReflow:
		tag, payload, err := DecodePhase(line)
		if err != nil {
			s.stats.Rejected++
			return Tick{}, err
		}
		Debugf("phase tag %s payload=%d", tag, payload)
		st := s.tracker.Observe(tag, payload)
		tick.Line = &types.PhaseSample{Time: s.time + 1, Tag: tag, Payload: payload}
		tick.Phase = &st
		tick.Sample.Value = float64(payload)
	default:
		v, err := DecodeSample(line)
		if err != nil {
			s.stats.Rejected++
			return Tick{}, err
		}
		tick.Sample.Value = v
	}
	s.stats.Decoded++
	s.time++
	tick.Sample.Time = s.time
	return tick, nil
}
