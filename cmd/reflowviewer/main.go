package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iafilius/ReflowMonitor/src/config"
	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/render"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// RootOptions holds the command-line flags. Only flags set explicitly override the
// config file and environment.
type RootOptions struct {
	ConfigPath string
	DotEnv     string
	Snapshot   string

	Port       string
	Baud       int
	Replay     string
	ReplayPace time.Duration
	Mode       string
	XSize      int64
	Interval   time.Duration
	Strict     bool
	Headless   bool
	LogLevel   string

	ReflowTemp int
	ReflowTime int
	SoakTemp   int
	SoakTime   int
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reflowviewer:", err)
		os.Exit(1)
	}
}

// NewRootCommand creates the reflowviewer command.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "reflowviewer",
		Short: "Live strip chart of a serial temperature sensor or reflow oven",
		Long: `Plot temperature samples read line by line from a serial port, or from a
recorded capture, as a scrolling strip chart.

In basic mode every line is a plain number. In reflow mode every line carries a
phase tag (A preheat, B soak, C ramp, D reflow, E cool) followed by an integer,
and a progress bar tracks the current phase against the oven profile.

Settings are resolved from defaults, the --config YAML file, REFLOW_* environment
variables (a .env file may provide them) and finally flags.

Examples:
  reflowviewer --port /dev/ttyUSB0 --mode basic
  reflowviewer --port COM8 --reflow-temp 217 --reflow-time 60 --soak-temp 150 --soak-time 90
  reflowviewer --replay run.log.zst --replay-pace 100ms --headless`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			monitor.SetLogOutput(cmd.ErrOrStderr())
			if cmd.Flags().Changed("log-level") {
				if !monitor.ValidLogLevel(opts.LogLevel) {
					return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", opts.LogLevel)
				}
				monitor.SetLogLevel(opts.LogLevel)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewer(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	f.StringVar(&opts.DotEnv, "env-file", ".env", "dotenv file providing REFLOW_* variables")
	f.StringVar(&opts.Snapshot, "snapshot", "", "write the last chart frame as PNG on exit")
	f.StringVar(&opts.Port, "port", "", "serial port, e.g. /dev/ttyUSB0 or COM8")
	f.IntVar(&opts.Baud, "baud", def.Baud, "serial baud rate")
	f.StringVar(&opts.Replay, "replay", "", "replay a recorded capture (plain, gzip, zstd or xz)")
	f.DurationVar(&opts.ReplayPace, "replay-pace", 0, "delay between replayed lines")
	f.StringVar(&opts.Mode, "mode", string(def.Mode), "line format: basic|reflow")
	f.Int64Var(&opts.XSize, "xsize", 0, "visible ticks (0 = 100 basic, 700 reflow)")
	f.DurationVar(&opts.Interval, "interval", def.Interval, "animation interval")
	f.BoolVar(&opts.Strict, "strict", false, "stop on the first malformed line")
	f.BoolVar(&opts.Headless, "headless", false, "print status lines instead of opening a window")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", def.LogLevel, "log level: debug|info|warn|error")
	f.IntVar(&opts.ReflowTemp, "reflow-temp", 0, "reflow peak temperature")
	f.IntVar(&opts.ReflowTime, "reflow-time", 0, "time above reflow temperature, seconds")
	f.IntVar(&opts.SoakTemp, "soak-temp", 0, "soak temperature")
	f.IntVar(&opts.SoakTime, "soak-time", 0, "soak duration, seconds")

	cmd.AddCommand(newPortsCommand())
	return cmd, opts
}

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := monitor.ListSerialPorts()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}

// resolveConfig layers defaults, config file, environment and explicitly set flags.
// A nil lookup reads the process environment backed by opts.DotEnv.
func resolveConfig(cmd *cobra.Command, opts *RootOptions, lookup config.LookupFunc) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		if err := cfg.LoadFile(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if lookup == nil {
		var err error
		if lookup, err = config.EnvLookup(opts.DotEnv); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	set := func(name string, apply func()) {
		if fl.Changed(name) {
			apply()
		}
	}
	set("port", func() { cfg.Port = opts.Port })
	set("baud", func() { cfg.Baud = opts.Baud })
	set("replay", func() { cfg.Replay = opts.Replay })
	set("replay-pace", func() { cfg.ReplayPace = opts.ReplayPace })
	set("mode", func() { cfg.Mode = types.Mode(opts.Mode) })
	set("xsize", func() { cfg.XSize = opts.XSize })
	set("interval", func() { cfg.Interval = opts.Interval })
	set("strict", func() { cfg.Strict = opts.Strict })
	set("headless", func() { cfg.Headless = opts.Headless })
	set("log-level", func() { cfg.LogLevel = opts.LogLevel })
	set("reflow-temp", func() { cfg.Profile.ReflowTemp = opts.ReflowTemp })
	set("reflow-time", func() { cfg.Profile.ReflowTime = opts.ReflowTime })
	set("soak-temp", func() { cfg.Profile.SoakTemp = opts.SoakTemp })
	set("soak-time", func() { cfg.Profile.SoakTime = opts.SoakTime })
	return cfg, nil
}

// interactive reports whether missing profile values may be asked for.
var interactive = config.StdinIsTerminal

func runViewer(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := resolveConfig(cmd, opts, nil)
	if err != nil {
		return err
	}
	if cfg.Mode == types.ModeReflow && !cfg.Profile.Complete() && interactive() {
		if err := config.PromptProfile(cmd.InOrStdin(), cmd.ErrOrStderr(), &cfg.Profile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	monitor.SetLogLevel(cfg.LogLevel)

	source := cfg.Replay
	if source == "" {
		source = cfg.Port
	}
	monitor.Infof("run %s: mode=%s source=%s xsize=%d interval=%s strict=%t",
		newRunID(), cfg.Mode, source, cfg.WindowXSize(), cfg.Interval, cfg.Strict)
	if cfg.Mode == types.ModeReflow {
		p := cfg.Profile
		monitor.Infof("profile: soak %d°C for %ds, reflow %d°C for %ds", p.SoakTemp, p.SoakTime, p.ReflowTemp, p.ReflowTime)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	if cfg.Headless {
		return runHeadless(ctx, cfg, src, cmd.OutOrStdout(), opts.Snapshot)
	}
	return runWindow(ctx, cfg, src, opts.Snapshot)
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func openSource(cfg *config.Config) (*monitor.ReaderSource, error) {
	if cfg.Replay != "" {
		src, err := monitor.OpenCapture(cfg.Replay)
		if err != nil {
			return nil, err
		}
		return src.WithPace(cfg.ReplayPace), nil
	}
	return monitor.OpenSerial(monitor.SerialConfig{Port: cfg.Port, BaudRate: cfg.Baud})
}

// buildDriver wires stream, renderers and figure for the configured mode.
func buildDriver(cfg *config.Config, src monitor.LineSource, fig render.Figure) *render.Driver {
	var stream *monitor.Stream
	if cfg.Mode == types.ModeReflow {
		stream = monitor.NewPhaseStream(src, monitor.NewPhaseTracker(cfg.Profile, nil))
	} else {
		stream = monitor.NewStream(src)
	}
	wo := render.DefaultWindowOptions(cfg.Mode)
	wo.XSize = cfg.WindowXSize()
	wo.YMin, wo.YMax = cfg.YMin, cfg.YMax
	d := &render.Driver{
		Stream:   stream,
		Window:   render.NewWindowRenderer(fig.Main(), wo),
		Figure:   fig,
		Interval: cfg.Interval,
		Strict:   cfg.Strict,
	}
	if ov := fig.Overlay(); ov != nil {
		d.Progress = render.NewProgressRenderer(ov)
	}
	return d
}

// closeOnCancel closes c when ctx is done so a read blocked on a silent port returns.
// The returned func stops watching.
func closeOnCancel(ctx context.Context, c io.Closer) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := c.Close(); err != nil {
				monitor.Debugf("close source: %v", err)
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}

// runHeadless prints one status line per tick. Interrupting the run is a normal exit.
func runHeadless(ctx context.Context, cfg *config.Config, src monitor.LineSource, out io.Writer, snapshot string) error {
	if c, ok := src.(io.Closer); ok {
		defer closeOnCancel(ctx, c)()
	}
	reflow := cfg.Mode == types.ModeReflow
	term := render.NewTerminalFigure(out, reflow)
	var (
		fig       render.Figure = term
		offscreen *chartFigure
	)
	if snapshot != "" {
		offscreen = newChartFigure(reflow, nil)
		fig = newTeeFigure(term, offscreen)
	}
	err := buildDriver(cfg, src, fig).Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if offscreen != nil && offscreen.Last() != nil {
		if serr := writeSnapshot(snapshot, offscreen.Last()); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// runWindow runs the pipeline on its own goroutine while the Fyne loop owns the
// main goroutine. Closing the window ends the process successfully.
func runWindow(ctx context.Context, cfg *config.Config, src *monitor.ReaderSource, snapshot string) error {
	a := app.NewWithID("com.reflowmonitor.viewer")
	fig := newFyneFigure(a, cfg.Mode == types.ModeReflow)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	fig.OnClose(cancel)

	d := buildDriver(cfg, src, fig)
	done := make(chan error, 1)
	go func() {
		err := d.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errWindowClosed) {
			monitor.Errorf("pipeline stopped: %v", err)
			fyne.Do(func() { fig.window.Close() })
		} else if err == nil {
			monitor.Infof("capture finished; close the window to exit")
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		if !fig.closed.Load() {
			fyne.Do(func() { fig.window.Close() })
		}
	}()

	fig.window.ShowAndRun()
	cancel()
	// unblock a pending serial read
	src.Close()

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		monitor.Warnf("pipeline did not stop within 2s")
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, errWindowClosed) {
		err = nil
	}
	if snapshot != "" && fig.Last() != nil {
		if serr := writeSnapshot(snapshot, fig.Last()); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}
