package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iafilius/ReflowMonitor/src/config"
	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// ProbeOptions holds the reflowprobe flags.
type ProbeOptions struct {
	Port   string
	Baud   int
	Replay string
	Mode   string
	Lines  int
}

func main() {
	if err := NewProbeCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reflowprobe:", err)
		os.Exit(1)
	}
}

// NewProbeCommand creates a command that prints how the first lines of a source
// decode, to check controller wiring and firmware output before a run.
func NewProbeCommand() *cobra.Command {
	opts := &ProbeOptions{}
	cmd := &cobra.Command{
		Use:           "reflowprobe",
		Short:         "Print how the first lines from a controller decode",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (opts.Port == "") == (opts.Replay == "") {
				return errors.New("exactly one of --port or --replay is required")
			}
			mode := types.Mode(opts.Mode)
			if mode != types.ModeBasic && mode != types.ModeReflow {
				return &config.ValidationError{Field: "mode", Reason: fmt.Sprintf("%q is not basic or reflow", mode)}
			}
			var (
				src *monitor.ReaderSource
				err error
			)
			if opts.Replay != "" {
				src, err = monitor.OpenCapture(opts.Replay)
			} else {
				src, err = monitor.OpenSerial(monitor.SerialConfig{Port: opts.Port, BaudRate: opts.Baud})
			}
			if err != nil {
				return err
			}
			defer src.Close()
			return probe(cmd.OutOrStdout(), src, mode, opts.Lines)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Port, "port", "", "serial port")
	f.IntVar(&opts.Baud, "baud", monitor.DefaultBaudRate, "serial baud rate")
	f.StringVar(&opts.Replay, "replay", "", "recorded capture instead of a port")
	f.StringVar(&opts.Mode, "mode", string(types.ModeReflow), "line format: basic|reflow")
	f.IntVar(&opts.Lines, "n", 20, "lines to read")
	return cmd
}

// probe reads up to n lines and prints one verdict per line. It stops early at the
// end of the source.
func probe(w io.Writer, src monitor.LineSource, mode types.Mode, n int) error {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	good, rejected := 0, 0
	for i := 0; i < n; i++ {
		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", i+1, err)
		}
		raw := strconv.Quote(string(line))
		var verdict string
		if mode == types.ModeReflow {
			tag, payload, derr := monitor.DecodePhase(line)
			if derr != nil {
				rejected++
				verdict = bad("reject") + " " + derr.Error()
			} else {
				good++
				verdict = fmt.Sprintf("%s phase=%s(%s) value=%d", ok("ok"), tag, tag.Name(), payload)
			}
		} else {
			v, derr := monitor.DecodeSample(line)
			if derr != nil {
				rejected++
				verdict = bad("reject") + " " + derr.Error()
			} else {
				good++
				verdict = fmt.Sprintf("%s value=%g", ok("ok"), v)
			}
		}
		fmt.Fprintf(w, "%3d %-16s %s\n", i+1, raw, verdict)
	}
	_, err := fmt.Fprintf(w, "decoded %d, rejected %d\n", good, rejected)
	return err
}
