package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/barmaleii77-hub/pneumostab/internal/config"
	"github.com/barmaleii77-hub/pneumostab/internal/metrics"
	"github.com/barmaleii77-hub/pneumostab/internal/storage"
	"github.com/barmaleii77-hub/pneumostab/internal/tui"
	"github.com/barmaleii77-hub/pneumostab/internal/worker"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	duration   float64
	dt         float64
	roadAmp    float64
	roadFreq   float64
	thermoMode string
	isolation  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pneumostab",
		Short: "pneumatic suspension simulation engine",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pneumostab", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch simulation and save the trace",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "physics timestep override")
	runCmd.Flags().Float64Var(&roadAmp, "amp", -1, "road amplitude override")
	runCmd.Flags().Float64Var(&roadFreq, "freq", -1, "road frequency override")
	runCmd.Flags().StringVar(&thermoMode, "thermo", "", "thermo mode override")
	runCmd.Flags().BoolVar(&isolation, "isolation", true, "receiver isolation open")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive real-time view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure physics step throughput",
		RunE:  benchEngine,
	}
	benchCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated seconds")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd,
		exportJSONCmd, exportCSVCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("time") {
		cfg.Sim.Duration = duration
	}
	if cmd.Flags().Changed("dt") {
		cfg.Sim.PhysicsDt = dt
	}
	if cmd.Flags().Changed("amp") {
		cfg.Road.Amplitude = roadAmp
	}
	if cmd.Flags().Changed("freq") {
		cfg.Road.Frequency = roadFreq
	}
	if cmd.Flags().Changed("thermo") {
		cfg.Pneumo.ThermoMode = thermoMode
	}
	if cmd.Flags().Changed("isolation") {
		cfg.Pneumo.IsolationOpen = isolation
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w, err := worker.New(cfg, logger())
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	name := preset
	if name == "" {
		name = "custom"
	}

	fmt.Printf("running %s for %.1fs at dt=%.4fs...\n", name, cfg.Sim.Duration, cfg.Sim.PhysicsDt)
	start := time.Now()

	// Batch mode drives frames back to back at the per-frame step cap,
	// without sleeping.
	chunk := float64(cfg.Sim.MaxStepsPerFrame) * cfg.Sim.PhysicsDt
	acc := metrics.NewAccumulator()
	trace := &storage.Trace{}

	for w.Time() < cfg.Sim.Duration {
		s, err := w.Advance(chunk)
		if err != nil {
			return err
		}
		acc.Add(s)
		trace.Append(s)
	}
	w.Stop()
	elapsed := time.Since(start)

	report := acc.Report()
	m := map[string]float64{
		"rms_heave_accel":    report.RMSHeaveAccel,
		"max_abs_heave":      report.MaxAbsHeave,
		"max_abs_roll":       report.MaxAbsRoll,
		"max_abs_pitch":      report.MaxAbsPitch,
		"receiver_min_p":     report.ReceiverMinP,
		"receiver_max_p":     report.ReceiverMaxP,
		"interference_count": float64(report.Interference),
		"clamped":            float64(report.Clamped),
		"degenerate":         float64(report.Degenerate),
	}

	runID, err := st.Save(name, cfg.Pneumo.ThermoMode, cfg.Sim.PhysicsDt, cfg.Sim.Duration, m, trace)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d frames: %d\n", report.Steps, report.Frames)
	fmt.Println("\nmetrics:")
	fmt.Printf("  rms heave accel: %.4f m/s^2\n", report.RMSHeaveAccel)
	fmt.Printf("  max |heave|: %.4f m  max |roll|: %.5f rad  max |pitch|: %.5f rad\n",
		report.MaxAbsHeave, report.MaxAbsRoll, report.MaxAbsPitch)
	fmt.Printf("  receiver pressure: %.1f .. %.1f kPa\n",
		report.ReceiverMinP/1000, report.ReceiverMaxP/1000)
	if report.Interference > 0 {
		fmt.Printf("  interference frames: %d\n", report.Interference)
	}
	if report.Degenerate > 0 {
		fmt.Printf("  degenerate volume clamps: %d\n", report.Degenerate)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w, err := worker.New(cfg, logger())
	if err != nil {
		return err
	}

	model := tui.NewLive(w)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return model.Err()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tTHERMO\tRMS ACCEL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%.4f\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.ThermoMode,
			run.Metrics["rms_heave_accel"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, header, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace.Rows) == 0 {
		fmt.Println("empty trace")
		return nil
	}

	fmt.Printf("%s  preset=%s  dt=%.4fs  %.1fs\n\n", meta.ID, meta.Preset, meta.Dt, meta.Duration)

	// Heave, roll and receiver pressure carry most of the story.
	for _, col := range []string{"heave", "roll", "recv_pressure"} {
		idx := -1
		for i, h := range header {
			if h == col {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		data := make([]float64, len(trace.Rows))
		for i, row := range trace.Rows {
			data[i] = row[idx]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportJSON(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportCSV(os.Stdout, args[0])
}

func benchEngine(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tWALL\tSTEPS/S\tREALTIME")

	for _, stepDt := range []float64{0.0005, 0.001, 0.002, 0.005} {
		cfg := config.DefaultConfig()
		cfg.Road.Amplitude = 0.02
		cfg.Sim.Duration = duration
		cfg.Sim.PhysicsDt = stepDt

		eng, err := worker.New(cfg, zerolog.Nop())
		if err != nil {
			return err
		}
		if err := eng.Start(); err != nil {
			return err
		}

		chunk := float64(cfg.Sim.MaxStepsPerFrame) * stepDt
		start := time.Now()
		for eng.Time() < cfg.Sim.Duration {
			if _, err := eng.Advance(chunk); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)
		steps := eng.Steps()
		eng.Stop()

		fmt.Fprintf(w, "%.4fs\t%d\t%v\t%.0f\t%.1fx\n",
			stepDt, steps, elapsed.Round(time.Millisecond),
			float64(steps)/elapsed.Seconds(),
			cfg.Sim.Duration/elapsed.Seconds())
	}

	return w.Flush()
}
