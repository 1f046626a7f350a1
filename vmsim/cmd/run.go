package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vmcore/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload.",
	Long: "`run` starts a number of processes that touch a code segment, a " +
		"heap, and a mapped file at random. It checks every load against " +
		"the content the process expects and reports the paging activity.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, w, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		return run(cmd, b, w)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	w := simulation.DefaultWorkload()

	f := runCmd.Flags()
	f.Int("frames", 64, "Number of user frames.")
	f.Uint64("swap-slots", 1024, "Number of page-sized swap slots.")
	f.String("swap-file", "", "Back the swap device with this file.")
	f.Bool("evict-file-pages", true,
		"Allow the eviction of frames that hold file pages.")
	f.Bool("step-clock", false, "Timestamp the trace with a step counter.")

	f.Int("processes", w.NumProcess, "Number of processes.")
	f.Int("code-pages", w.NumCodePage, "Pages of the code segment.")
	f.Int("heap-pages", w.NumHeapPage, "Pages of the heap.")
	f.Int("file-pages", w.NumFilePage, "Pages of the mapped file.")
	f.Int("accesses", w.NumAccess, "Accesses per process.")
	f.Float64("write-ratio", w.WriteRatio,
		"Fraction of the accesses that are stores.")
	f.Uint64("seed", w.Seed, "Seed of the access pattern.")

	f.String("output", "", "Name of the recording, without extension.")
	f.Bool("monitor", false, "Serve the monitoring dashboard.")
	f.Int("monitor-port", 0, "Port of the monitoring dashboard.")
	f.Bool("open-monitor", false, "Open the dashboard in a browser.")
	f.Bool("wait", false,
		"Keep the dashboard up after the workload until interrupted.")
	f.String("log-level", "warn", "One of debug, info, warn, error.")
}

func configFromFlags(
	cmd *cobra.Command,
) (simulation.Builder, simulation.Workload, error) {
	f := cmd.Flags()
	b := simulation.MakeBuilder()
	w := simulation.Workload{}

	logLevel, _ := f.GetString("log-level")
	level := slog.LevelWarn
	err := level.UnmarshalText([]byte(logLevel))
	if err != nil {
		return b, w, fmt.Errorf("log level: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	frames, _ := f.GetInt("frames")
	slots, _ := f.GetUint64("swap-slots")
	swapFile, _ := f.GetString("swap-file")
	evictFilePages, _ := f.GetBool("evict-file-pages")
	stepClock, _ := f.GetBool("step-clock")
	output, _ := f.GetString("output")
	monitor, _ := f.GetBool("monitor")
	port, _ := f.GetInt("monitor-port")

	b = b.WithLogger(logger).
		WithNumFrame(frames).
		WithNumSwapSlot(slots).
		WithSwapFile(swapFile).
		WithFileBackedEviction(evictFilePages).
		WithOutputFileName(output)

	if stepClock {
		b = b.WithStepClock()
	}

	if !monitor {
		if port != 0 {
			return b, w, errors.New("--monitor-port requires --monitor")
		}

		b = b.WithoutMonitoring()
	} else {
		b = b.WithMonitorPort(port)
	}

	w.NumProcess, _ = f.GetInt("processes")
	w.NumCodePage, _ = f.GetInt("code-pages")
	w.NumHeapPage, _ = f.GetInt("heap-pages")
	w.NumFilePage, _ = f.GetInt("file-pages")
	w.NumAccess, _ = f.GetInt("accesses")
	w.WriteRatio, _ = f.GetFloat64("write-ratio")
	w.Seed, _ = f.GetUint64("seed")

	if frames <= 0 {
		return b, w, fmt.Errorf("invalid number of frames %d", frames)
	}

	if slots == 0 {
		return b, w, errors.New("swap device must have at least one slot")
	}

	return b, w, w.Validate()
}

func run(cmd *cobra.Command, b simulation.Builder, w simulation.Workload) error {
	s := b.Build()
	defer s.Terminate()

	s.GetExecRecorder().Set("Workload", fmt.Sprintf("%+v", w))

	openMonitor, _ := cmd.Flags().GetBool("open-monitor")
	if openMonitor && s.MonitorURL() != "" {
		browser.Stdout = io.Discard
		err := browser.OpenURL(s.MonitorURL())
		if err != nil {
			slog.Warn("cannot open browser", "error", err)
		}
	}

	report, err := w.Run(s)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), s, report)

	wait, _ := cmd.Flags().GetBool("wait")
	if wait && s.MonitorURL() != "" {
		fmt.Fprintf(cmd.OutOrStdout(),
			"Dashboard at %s, press Ctrl-C to exit\n", s.MonitorURL())

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		<-interrupt
	}

	if report.Mismatches > 0 {
		return fmt.Errorf("%d accesses observed unexpected content",
			report.Mismatches)
	}

	return nil
}

func printSummary(out io.Writer, s *simulation.Simulation, r simulation.Summary) {
	stats := s.Manager().Stats()

	fmt.Fprintf(out, "accesses:     %d (%d stores)\n", r.Accesses, r.Writes)
	fmt.Fprintf(out, "mismatches:   %d\n", r.Mismatches)
	fmt.Fprintf(out, "kills:        %d\n", r.Kills)
	fmt.Fprintf(out, "faults:       %d (avg %.3g)\n",
		stats.Faults, float64(s.FaultTimer().AverageTime()))
	fmt.Fprintf(out, "zero fills:   %d\n", stats.ZeroFills)
	fmt.Fprintf(out, "file reads:   %d\n", stats.FileReads)
	fmt.Fprintf(out, "evictions:    %d\n", stats.Evictions)
	fmt.Fprintf(out, "swap outs:    %d\n", stats.SwapOuts)
	fmt.Fprintf(out, "swap ins:     %d\n", stats.SwapIns)
	fmt.Fprintf(out, "write backs:  %d\n", stats.WriteBacks)
	fmt.Fprintf(out, "drops:        %d\n", stats.Drops)

	steps := s.FaultSteps()
	for _, name := range steps.GetStepNames() {
		fmt.Fprintf(out, "  %-10s  %d in %d faults\n",
			name, steps.GetStepCount(name), steps.GetTaskCount(name))
	}

	fmt.Fprintf(out, "recording:    %s\n", s.OutputPath())
}
