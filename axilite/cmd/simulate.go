package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/axilite/interconnect"
	"github.com/sarchlab/axilite/monitoring"
	"github.com/sarchlab/axilite/sim"
	"github.com/sarchlab/axilite/stimulus"
	"github.com/sarchlab/axilite/tracing"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run traffic through the interconnect and check every read.",
	Long: `Simulate drives the interconnect with random traffic, or with the ` +
		`operations queued by a Lua script, and checks every read against a ` +
		`reference memory. It fails if any read returns unexpected data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := simulateOptions{
			backend:     getString(cmd, "backend"),
			script:      getString(cmd, "script"),
			seed:        getInt64(cmd, "seed"),
			count:       getInt(cmd, "count"),
			resetCycles: getInt(cmd, "reset-cycles"),
			maxCycles:   getUint64(cmd, "max-cycles"),
			trace:       getString(cmd, "trace"),
			freqMHz:     getInt(cmd, "freq"),
			monitor:     getBool(cmd, "monitor"),
			port:        getInt(cmd, "port"),
			openBrowser: getBool(cmd, "open-browser"),
		}

		return simulate(os.Stdout, cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	flags := simulateCmd.Flags()
	flags.String("backend", "model", "fabric backend (model or netlist)")
	flags.String("script", "", "Lua script that queues the operations")
	flags.Int64("seed", 1, "seed of the random traffic")
	flags.Int("count", stimulus.DefaultCount, "number of random operations")
	flags.Int("reset-cycles", 2, "cycles to hold reset at the start")
	flags.Uint64("max-cycles", 1_000_000, "cycle budget, 0 for none")
	flags.String("trace", "", "record transactions into this SQLite database (without the .sqlite3 suffix)")
	flags.Int("freq", 100, "clock frequency in MHz for the trace timestamps")
	flags.Bool("monitor", false, "serve the monitoring API while simulating")
	flags.Int("port", 0, "monitoring port, 0 for a random one")
	flags.Bool("open-browser", false, "open the monitor in a browser")
}

type simulateOptions struct {
	backend     string
	script      string
	seed        int64
	count       int
	resetCycles int
	maxCycles   uint64
	trace       string
	freqMHz     int
	monitor     bool
	port        int
	openBrowser bool
}

func simulate(w io.Writer, cfg interconnect.Config, opts simulateOptions) error {
	backend, err := sim.ParseBackend(opts.backend)
	if err != nil {
		return err
	}

	builder := sim.MakeBuilder().
		WithConfig(cfg).
		WithBackend(backend).
		WithResetCycles(opts.resetCycles).
		WithMaxCycles(opts.maxCycles)

	if opts.trace != "" {
		builder = builder.WithIDGenerator(sim.NewXIDGenerator())
	}

	system, err := builder.Build("AXI")
	if err != nil {
		return err
	}

	workload, err := buildWorkload(cfg, system, opts)
	if err != nil {
		return err
	}

	if err := workload.Apply(system); err != nil {
		return err
	}

	scoreboard := sim.NewScoreboard(cfg.DataWidth)
	system.AcceptHook(scoreboard)

	latency := tracing.NewLatencyTracer()
	system.AcceptHook(latency)

	var recorder *tracing.SQLiteRecorder
	if opts.trace != "" {
		recorder, err = tracing.NewSQLiteRecorder(opts.trace)
		if err != nil {
			return err
		}

		freq := sim.Freq(opts.freqMHz) * sim.MHz
		system.AcceptHook(tracing.NewTransactionTracer(recorder, freq))
	}

	var monitor *monitoring.Monitor
	var bar *monitoring.ProgressBar
	if opts.monitor {
		monitor = monitoring.NewMonitor().
			WithPortNumber(opts.port).
			WithBrowser(opts.openBrowser)
		monitor.RegisterSystem(system)

		bar = monitor.CreateProgressBar("Transactions", uint64(workload.Len()))
		system.AcceptHook(bar)

		if _, err := monitor.StartServer(); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"topology": cfg.Topology(),
		"backend":  backend,
		"ops":      workload.Len(),
	}).Info("simulation started")

	runErr := system.Run()

	if monitor != nil {
		monitor.CompleteProgressBar(bar)

		if err := monitor.StopServer(); err != nil {
			log.WithError(err).Warn("cannot stop the monitor")
		}
	}

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			log.WithError(err).Warn("cannot close the trace database")
		}
	}

	report(w, system, scoreboard, latency)

	if runErr != nil {
		return runErr
	}

	return scoreboard.Err()
}

func buildWorkload(
	cfg interconnect.Config,
	system *sim.System,
	opts simulateOptions,
) (stimulus.Workload, error) {
	if opts.script != "" {
		return stimulus.LoadScript(opts.script, cfg.Masters, system.AddressMap())
	}

	return stimulus.Random(opts.seed, opts.count, cfg.Masters,
		system.AddressMap(), cfg.DataWidth), nil
}

func report(
	w io.Writer,
	system *sim.System,
	scoreboard *sim.Scoreboard,
	latency *tracing.LatencyTracer,
) {
	snapshot := system.Snapshot()

	fmt.Fprintf(w, "%s: %d cycles, %d completed, %d aborted, %d checked\n",
		snapshot.Name, snapshot.Cycle, snapshot.Completed, snapshot.Aborted,
		scoreboard.Checked())

	for i := 0; i < system.NumMasters(); i++ {
		fmt.Fprintf(w, "  master%d: %d transactions, latency avg %.2f max %d\n",
			i, latency.Count(i), latency.AverageLatency(i), latency.MaxLatency(i))
	}

	for j := 0; j < system.NumSlaves(); j++ {
		s := system.Slave(j)
		fmt.Fprintf(w, "  slave%d: %d writes, %d reads\n", j, s.Writes(), s.Reads())
	}

	for _, m := range scoreboard.Mismatches() {
		fmt.Fprintf(w, "  MISMATCH %s\n", m)
	}
}
