package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// Report is the JSON alert report written next to a capture.
type Report struct {
	GeneratedAt string         `json:"generated_at" yaml:"generated_at"`
	RunID       string         `json:"run_id" yaml:"run_id"`
	Source      string         `json:"source" yaml:"source"`
	Profile     *types.Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
	Summary     CaptureSummary `json:"summary" yaml:"summary"`
	// Alerts is always present, possibly empty.
	Alerts     []string   `json:"alerts" yaml:"alerts"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}

// NewReport evaluates the alerts for s.
func NewReport(runID, source string, s CaptureSummary, p types.Profile, th Thresholds, now time.Time) Report {
	rep := Report{
		GeneratedAt: now.UTC().Format(time.RFC3339Nano),
		RunID:       runID,
		Source:      source,
		Summary:     s,
		Alerts:      Alerts(s, p, th),
		Thresholds:  th,
	}
	if s.Mode == types.ModeReflow {
		rep.Profile = &p
	}
	return rep
}

// WriteReport writes rep as indented JSON.
func WriteReport(path string, rep Report) error {
	if rep.Alerts == nil {
		rep.Alerts = []string{}
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	monitor.Infof("wrote alert report %s", path)
	return nil
}

// DefaultReportPath returns alerts_<run id>.json next to the capture.
func DefaultReportPath(capture, runID string) string {
	return filepath.Join(filepath.Dir(capture), fmt.Sprintf("alerts_%s.json", runID))
}
