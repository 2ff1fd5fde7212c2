package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/iafilius/ReflowMonitor/src/analysis"
	"github.com/iafilius/ReflowMonitor/src/config"
	"github.com/iafilius/ReflowMonitor/src/monitor"
)

const fullRun = "A25\nA100\nB150\nB151\nB152\nC180\nC200\nD217\nD219\nD220\nD218\nE200\nE150\n"

var profileArgs = []string{"--reflow-temp", "217", "--reflow-time", "3", "--soak-temp", "150", "--soak-time", "2"}

func quiet(t *testing.T) {
	t.Helper()
	monitor.SetLogOutput(io.Discard)
	t.Cleanup(func() { monitor.SetLogOutput(os.Stderr) })
}

func writeCapture(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "run.log")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewReaderCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReaderCommandFlags(t *testing.T) {
	cmd := NewReaderCommand()
	assert.Equal(t, "reflowreader", cmd.Use)
	f := cmd.Flags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "text", f.DefValue)
	assert.Equal(t, "1s", cmd.Flags().Lookup("line-interval").DefValue)
}

func TestReader_RequiresFile(t *testing.T) {
	_, err := execute(t, "--mode", "basic")
	require.Error(t, err)
}

func TestReader_InvalidFormat(t *testing.T) {
	_, err := execute(t, "--file", "x.log", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestReader_ReflowNeedsProfile(t *testing.T) {
	quiet(t)
	p := writeCapture(t, t.TempDir(), fullRun)
	_, err := execute(t, "--file", p, "--no-report")
	var ve *config.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "profile", ve.Field)
}

func TestReader_TextSummaryAndDefaultReport(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	p := writeCapture(t, dir, fullRun)
	out, err := execute(t, append([]string{"--file", p}, profileArgs...)...)
	require.NoError(t, err)

	assert.Contains(t, out, "Lines: 13  samples: 13  rejected: 0")
	assert.Contains(t, out, "max 220.0 at t=9")
	assert.Contains(t, out, "D reflow")
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "[alert none]")

	reports, err := filepath.Glob(filepath.Join(dir, "alerts_*.json"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	b, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	var rep analysis.Report
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Empty(t, rep.Alerts)
	assert.Equal(t, 217, rep.Profile.ReflowTemp)
}

func TestReader_JSONFromZstdCapture(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte("A25\nA140\nB150\nD200\nE180\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	p := filepath.Join(dir, "run.log.zst")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	report := filepath.Join(dir, "out.json")
	out, err := execute(t, append([]string{"--file", p, "--format", "json", "--alerts-json", report}, profileArgs...)...)
	require.NoError(t, err)

	var rep analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 5, rep.Summary.Samples)
	assert.Contains(t, rep.Alerts, "missing_phase ramp")
	assert.Contains(t, rep.Alerts, "peak_below_reflow 200.0 < 217")
	_, err = os.Stat(report)
	assert.NoError(t, err)
}

func TestReader_YAMLBasicMode(t *testing.T) {
	quiet(t)
	p := writeCapture(t, t.TempDir(), "20\n21\nbad\n22\n")
	out, err := execute(t, "--file", p, "--mode", "basic", "--format", "yaml", "--no-report")
	require.NoError(t, err)

	var rep map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	summary := rep["summary"].(map[string]interface{})
	assert.Equal(t, 3, summary["samples"])
	assert.Equal(t, 1, summary["rejected"])
	assert.True(t, strings.Contains(out, "rejected_lines 25.0% >= 5.0%"))
}
