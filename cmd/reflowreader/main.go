package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iafilius/ReflowMonitor/src/analysis"
	"github.com/iafilius/ReflowMonitor/src/config"
	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// ReaderOptions holds the reflowreader flags.
type ReaderOptions struct {
	File       string
	ConfigPath string
	Mode       string
	Format     string
	AlertsJSON string
	NoReport   bool
	Interval   time.Duration
	Peak       float64

	ReflowTemp int
	ReflowTime int
	SoakTemp   int
	SoakTime   int
}

var validFormats = []string{"text", "json", "yaml"}

func main() {
	if err := NewReaderCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reflowreader:", err)
		os.Exit(1)
	}
}

// NewReaderCommand creates the capture summary command.
func NewReaderCommand() *cobra.Command {
	opts := &ReaderOptions{}
	cmd := &cobra.Command{
		Use:   "reflowreader",
		Short: "Summarize a recorded capture and check it against the profile",
		Long: `Read a recorded capture (plain, gzip, zstd or xz) and print per-phase
temperature statistics. In reflow mode the run is checked against the profile and a
JSON alert report is written next to the capture.

Examples:
  reflowreader --file run.log.zst --config oven.yaml
  reflowreader --file basic.log --mode basic --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			monitor.SetLogOutput(cmd.ErrOrStderr())
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReader(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.File, "file", "", "capture to analyze (required)")
	_ = cmd.MarkFlagRequired("file")
	f.StringVar(&opts.ConfigPath, "config", "", "YAML config providing mode and profile")
	f.StringVar(&opts.Mode, "mode", string(types.ModeReflow), "line format: basic|reflow")
	f.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	f.StringVar(&opts.AlertsJSON, "alerts-json", "", "alert report path (default alerts_<run id>.json next to the capture)")
	f.BoolVar(&opts.NoReport, "no-report", false, "do not write the alert report")
	f.DurationVar(&opts.Interval, "line-interval", time.Second, "controller line cadence")
	f.Float64Var(&opts.Peak, "peak-tolerance", analysis.DefaultThresholds().PeakShortfall, "allowed peak shortfall below reflow temperature, °C")
	f.IntVar(&opts.ReflowTemp, "reflow-temp", 0, "reflow peak temperature")
	f.IntVar(&opts.ReflowTime, "reflow-time", 0, "time above reflow temperature, seconds")
	f.IntVar(&opts.SoakTemp, "soak-temp", 0, "soak temperature")
	f.IntVar(&opts.SoakTime, "soak-time", 0, "soak duration, seconds")
	return cmd
}

func runReader(cmd *cobra.Command, opts *ReaderOptions) error {
	mode, profile := types.Mode(opts.Mode), types.Profile{}
	if opts.ConfigPath != "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
		profile = cfg.Profile
		if !cmd.Flags().Changed("mode") {
			mode = cfg.Mode
		}
	}
	fl := cmd.Flags()
	for name, dst := range map[string]*int{
		"reflow-temp": &profile.ReflowTemp, "reflow-time": &profile.ReflowTime,
		"soak-temp": &profile.SoakTemp, "soak-time": &profile.SoakTime,
	} {
		if fl.Changed(name) {
			v, _ := fl.GetInt(name)
			*dst = v
		}
	}
	if mode != types.ModeBasic && mode != types.ModeReflow {
		return &config.ValidationError{Field: "mode", Reason: fmt.Sprintf("%q is not basic or reflow", mode)}
	}
	if mode == types.ModeReflow && !profile.Complete() {
		return &config.ValidationError{Field: "profile", Reason: "reflow analysis needs all four profile values"}
	}

	src, err := monitor.OpenCapture(opts.File)
	if err != nil {
		return err
	}
	defer src.Close()
	sum, err := analysis.AnalyzeCapture(src, analysis.Options{Mode: mode, Profile: profile, TickInterval: opts.Interval})
	if err != nil {
		return err
	}

	th := analysis.DefaultThresholds()
	th.PeakShortfall = opts.Peak
	runID := uuid.NewString()
	if id, err := uuid.NewV7(); err == nil {
		runID = id.String()
	}
	rep := analysis.NewReport(runID, opts.File, sum, profile, th, time.Now())

	out := cmd.OutOrStdout()
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(rep)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = printText(out, rep)
	}
	if err != nil {
		return fmt.Errorf("print summary: %w", err)
	}

	if opts.NoReport {
		return nil
	}
	path := opts.AlertsJSON
	if path == "" {
		path = analysis.DefaultReportPath(opts.File, runID)
	}
	return analysis.WriteReport(path, rep)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func fmtTemp(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

// printText writes the human summary: totals, a per-phase table and the alerts.
func printText(w io.Writer, rep analysis.Report) error {
	s := rep.Summary
	fmt.Fprintf(w, "Capture: %s (%s)\n", rep.Source, s.Mode)
	fmt.Fprintf(w, "Lines: %d  samples: %d  rejected: %d\n", s.Lines, s.Samples, s.Rejected)
	fmt.Fprintf(w, "Temperature: min %s  max %s at t=%d\n", fmtTemp(s.MinTemp), fmtTemp(s.MaxTemp), s.PeakTick)

	if len(s.Phases) > 0 {
		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Phase", "Entries", "Ticks", "From", "To", "Min", "Max", "Progress").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, p := range s.Phases {
			tbl.Row(
				p.Tag+" "+p.Phase,
				strconv.Itoa(p.Entries),
				strconv.Itoa(p.Ticks),
				strconv.FormatInt(p.FirstTick, 10),
				strconv.FormatInt(p.LastTick, 10),
				fmtTemp(p.MinTemp),
				fmtTemp(p.MaxTemp),
				fmt.Sprintf("%.0f/%.0f", p.MaxProgress, p.Target),
			)
		}
		fmt.Fprintln(w, tbl.Render())
	}

	if len(rep.Alerts) == 0 {
		_, err := fmt.Fprintln(w, "[alert none] run matches the profile")
		return err
	}
	for _, a := range rep.Alerts {
		if _, err := fmt.Fprintf(w, "[alert %s]\n", a); err != nil {
			return err
		}
	}
	return nil
}
