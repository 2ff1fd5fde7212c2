package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafilius/ReflowMonitor/src/config"
	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

func quietLogs(t *testing.T) {
	t.Helper()
	monitor.SetLogOutput(io.Discard)
	t.Cleanup(func() { monitor.SetLogOutput(os.Stderr) })
}

func noEnv(string) (string, bool) { return "", false }

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "reflowviewer", cmd.Use)

	sub, _, err := cmd.Find([]string{"ports"})
	require.NoError(t, err)
	assert.Equal(t, "ports", sub.Name())
}

func TestRootCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	defaults := map[string]string{
		"baud":        "115200",
		"mode":        "reflow",
		"interval":    "100ms",
		"xsize":       "0",
		"strict":      "false",
		"headless":    "false",
		"replay-pace": "0s",
		"env-file":    ".env",
	}
	for name, def := range defaults {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, "flag %s", name)
		assert.Equal(t, def, f.DefValue, "flag %s", name)
	}
	for _, name := range []string{"config", "port", "replay", "snapshot", "reflow-temp", "reflow-time", "soak-temp", "soak-time"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
	lvl := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, lvl)
	assert.Equal(t, "info", lvl.DefValue)
}

func TestResolveConfig_Precedence(t *testing.T) {
	file := writeTemp(t, "oven.yaml", `
mode: basic
port: /dev/ttyS0
baud: 9600
interval: 250ms
xsize: 300
`)
	cmd, opts := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", file, "--port", "/dev/ttyUSB0"}))
	env := func(k string) (string, bool) {
		m := map[string]string{"REFLOW_BAUD": "57600", "REFLOW_PORT": "/dev/ttyACM0"}
		v, ok := m[k]
		return v, ok
	}
	cfg, err := resolveConfig(cmd, opts, env)
	require.NoError(t, err)

	assert.Equal(t, types.ModeBasic, cfg.Mode, "file over default")
	assert.Equal(t, 250*time.Millisecond, cfg.Interval, "file over default")
	assert.Equal(t, int64(300), cfg.XSize)
	assert.Equal(t, 57600, cfg.Baud, "env over file")
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port, "flag over env")
}

func TestResolveConfig_UnsetFlagsKeepLowerLayers(t *testing.T) {
	cmd, opts := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--soak-temp", "160"}))
	env := func(k string) (string, bool) {
		if k == "REFLOW_SOAK_TIME" {
			return "80", true
		}
		return "", false
	}
	cfg, err := resolveConfig(cmd, opts, env)
	require.NoError(t, err)
	assert.Equal(t, 160, cfg.Profile.SoakTemp)
	assert.Equal(t, 80, cfg.Profile.SoakTime)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, types.ModeReflow, cfg.Mode)
}

func TestResolveConfig_BadFile(t *testing.T) {
	cmd, opts := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err := resolveConfig(cmd, opts, noEnv)
	require.Error(t, err)
}

func TestExecute_InvalidLogLevel(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--log-level", "loud"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestExecute_ReflowWithoutProfileFailsValidation(t *testing.T) {
	quietLogs(t)
	capture := writeTemp(t, "run.log", "A25\n")
	prev := interactive
	interactive = func() bool { return false }
	t.Cleanup(func() { interactive = prev })
	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--replay", capture, "--headless", "--env-file", ""})
	err := cmd.Execute()
	var ve *config.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.True(t, strings.HasPrefix(ve.Field, "profile."))
}

func TestExecute_HeadlessReplay(t *testing.T) {
	quietLogs(t)
	capture := writeTemp(t, "run.log", "20.5\nnoise\n21\n22.25\n")
	snap := filepath.Join(t.TempDir(), "shots", "last.png")
	var out, logs bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs([]string{
		"--replay", capture, "--mode", "basic", "--headless",
		"--interval", "1ms", "--env-file", "", "--snapshot", snap,
	})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Temperature: 20.50 °C")
	assert.Contains(t, lines[2], "Temperature: 22.25 °C")
	assert.Contains(t, lines[2], "t=     2", "skipped line does not use a time slot")
	assert.Contains(t, lines[2], "x=[0,100]")
	assert.Contains(t, logs.String(), "mode=basic", "logs follow the command's error writer")
	assert.NotContains(t, out.String(), "mode=basic")

	f, err := os.Open(snap)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1100, img.Bounds().Dx())
}

func TestExecute_HeadlessReflowStrict(t *testing.T) {
	quietLogs(t)
	capture := writeTemp(t, "run.log", "A25\nB\nA30\n")
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--replay", capture, "--headless", "--strict", "--interval", "1ms", "--env-file", "",
		"--reflow-temp", "217", "--reflow-time", "60", "--soak-temp", "150", "--soak-time", "90",
	})
	err := cmd.Execute()
	var de *monitor.DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), "25/150")
}

func TestRunHeadless_CancelUnblocksSilentSource(t *testing.T) {
	quietLogs(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	cfg := config.DefaultConfig()
	cfg.Mode = types.ModeBasic
	cfg.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runHeadless(ctx, cfg, monitor.NewReaderSource(pr), io.Discard, "") }()
	// let the driver block in ReadLine
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runHeadless still blocked after cancel")
	}
}
