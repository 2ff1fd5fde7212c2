package monitor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iafilius/ReflowMonitor/src/types"
)

// DecodeError reports a line that could not be turned into a reading.
type DecodeError struct {
	Line   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode line %q: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode line %q: %s", e.Line, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// trimLine strips the line terminator and any trailing whitespace, then checks the
// remainder is text.
func trimLine(line []byte) (string, error) {
	b := bytes.TrimRight(line, " \t\r\n\v\f")
	if !utf8.Valid(b) {
		return "", &DecodeError{Line: string(b), Reason: "not valid UTF-8"}
	}
	if len(b) == 0 {
		return "", &DecodeError{Line: "", Reason: "empty line"}
	}
	return string(b), nil
}

// DecodeSample parses a basic-mode line: the whole line is a float.
func DecodeSample(line []byte) (float64, error) {
	s, err := trimLine(line)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &DecodeError{Line: s, Reason: "not a number", Err: err}
	}
	return v, nil
}

// DecodePhase parses a reflow-mode line: a one-letter phase tag followed by an
// integer payload, e.g. "C183".
func DecodePhase(line []byte) (types.Phase, int64, error) {
	s, err := trimLine(line)
	if err != nil {
		return 0, 0, err
	}
	tag := types.Phase(s[0])
	rest := strings.TrimSpace(s[1:])
	if rest == "" {
		return 0, 0, &DecodeError{Line: s, Reason: "missing payload after phase tag"}
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, 0, &DecodeError{Line: s, Reason: "payload is not an integer", Err: err}
	}
	return tag, n, nil
}
