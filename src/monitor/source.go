package monitor

import (
	"bufio"
	"errors"
	"io"
	"time"
)

// LineSource yields newline-terminated lines. ReadLine blocks until a full line is
// available and returns io.EOF once the source is exhausted.
type LineSource interface {
	ReadLine() ([]byte, error)
}

// ReaderSource reads lines from any io.Reader.
type ReaderSource struct {
	r      *bufio.Reader
	closer io.Closer
	pace   time.Duration
	sleep  func(time.Duration)
}

// NewReaderSource wraps r. If r is an io.Closer it is closed by Close.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{r: bufio.NewReader(r), sleep: time.Sleep}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// WithPace delays every line by d, so a recorded capture plays back at roughly the
// rate the controller produced it.
func (s *ReaderSource) WithPace(d time.Duration) *ReaderSource {
	s.pace = d
	return s
}

// ReadLine returns the next line including its terminator. A final line without a
// terminator is still delivered before io.EOF.
func (s *ReaderSource) ReadLine() ([]byte, error) {
	if s.pace > 0 {
		s.sleep(s.pace)
	}
	line, err := s.r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return nil, err
	}
	return line, nil
}

// Close releases the underlying reader, if it can be closed.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
