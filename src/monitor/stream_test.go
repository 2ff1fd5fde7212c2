package monitor

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/iafilius/ReflowMonitor/src/testutil"
	"github.com/iafilius/ReflowMonitor/src/types"
)

type failingSource struct{ err error }

func (f failingSource) ReadLine() ([]byte, error) { return nil, f.err }

func TestStream_BasicTimesStartAtZero(t *testing.T) {
	s := NewStream(NewReaderSource(strings.NewReader("3.14\r\n20.5\r\n-1\r\n")))
	if s.Time() != types.NoTime {
		t.Fatalf("Time() before first pull=%d want -1", s.Time())
	}
	want := []types.Sample{{Time: 0, Value: 3.14}, {Time: 1, Value: 20.5}, {Time: 2, Value: -1}}
	for i, w := range want {
		tick, err := s.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if tick.Sample != w {
			t.Fatalf("Next %d=%+v want %+v", i, tick.Sample, w)
		}
		if tick.Phase != nil {
			t.Fatalf("basic stream must not carry phase state")
		}
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("stream must not restart, got %v", err)
	}
}

func TestStream_MalformedLineConsumesNoTime(t *testing.T) {
	s := NewStream(NewReaderSource(strings.NewReader("1\n\nabc\n2\n")))
	var got []types.Sample
	var decodeErrs int
	for {
		tick, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var de *DecodeError
		if errors.As(err, &de) {
			decodeErrs++
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, tick.Sample)
	}
	if decodeErrs != 2 {
		t.Fatalf("decode errors=%d want 2", decodeErrs)
	}
	if len(got) != 2 || got[0].Time != 0 || got[1].Time != 1 || got[1].Value != 2 {
		t.Fatalf("samples %+v", got)
	}
	st := s.Stats()
	if st.LinesRead != 4 || st.Decoded != 2 || st.Rejected != 2 {
		t.Fatalf("stats %+v", st)
	}
}

func TestStream_SourceErrorIsWrapped(t *testing.T) {
	boom := errors.New("port unplugged")
	s := NewStream(failingSource{err: boom})
	_, err := s.Next()
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want wrapped %v", err, boom)
	}
	var de *DecodeError
	if errors.As(err, &de) {
		t.Fatalf("source failure must not be a DecodeError")
	}
}

func TestPhaseStream_UpdatesTrackerPerTick(t *testing.T) {
	clk := testutil.NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	tr := NewPhaseTracker(testProfile, clk)
	s := NewPhaseStream(NewReaderSource(strings.NewReader("A50\nA55\nB150\nB151\n")), tr)
	var values, targets []float64
	for i := 0; i < 4; i++ {
		tick, err := s.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if tick.Sample.Time != int64(i) {
			t.Fatalf("tick %d has time %d", i, tick.Sample.Time)
		}
		if tick.Phase == nil {
			t.Fatalf("reflow tick %d without phase state", i)
		}
		values = append(values, tick.Phase.ProgressValue)
		targets = append(targets, tick.Phase.ProgressTarget)
		clk.Advance(2 * time.Second)
	}
	wantV := []float64{50, 55, 0, 2}
	wantT := []float64{150, 150, 90, 90}
	for i := range wantV {
		if values[i] != wantV[i] || targets[i] != wantT[i] {
			t.Fatalf("tick %d value=%v target=%v want %v/%v", i, values[i], targets[i], wantV[i], wantT[i])
		}
	}
	if s.Mode() != types.ModeReflow {
		t.Fatalf("mode %s", s.Mode())
	}
}

func TestPhaseStream_TickCarriesCopy(t *testing.T) {
	tr := NewPhaseTracker(testProfile, testutil.NewManualClock(time.Unix(0, 0)))
	s := NewPhaseStream(NewReaderSource(strings.NewReader("A50\nA70\n")), tr)
	first, _ := s.Next()
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Phase.ProgressValue != 50 {
		t.Fatalf("earlier tick mutated by later sample: %+v", first.Phase)
	}
}

func TestPhaseStream_TickCarriesDecodedLine(t *testing.T) {
	tr := NewPhaseTracker(testProfile, testutil.NewManualClock(time.Unix(0, 0)))
	s := NewPhaseStream(NewReaderSource(strings.NewReader("A50\nbad\nD-3\n")), tr)
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := s.Next(); err == nil {
		t.Fatalf("expected decode error for malformed line")
	}
	tick, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := types.PhaseSample{Time: 1, Tag: types.PhaseReflow, Payload: -3}
	if tick.Line == nil || *tick.Line != want {
		t.Fatalf("line %+v want %+v", tick.Line, want)
	}
	if tick.Line.Time != tick.Sample.Time {
		t.Fatalf("line time %d sample time %d", tick.Line.Time, tick.Sample.Time)
	}

	basic := NewStream(NewReaderSource(strings.NewReader("21.5\n")))
	bt, err := basic.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if bt.Line != nil {
		t.Fatalf("basic tick carries no phase line: %+v", bt.Line)
	}
}
