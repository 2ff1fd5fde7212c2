package monitor

import "time"

// Clock supplies wall-clock time to the phase tracker and the elapsed-time banner.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}
