package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/orchestra/datarecording"
	"github.com/sarchlab/orchestra/monitoring"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tracing"
)

// runOptions are the settings of one simulation run.
type runOptions struct {
	Topology string
	Duration float64

	Config  orchestra.Config
	Policy  string
	Traffic network.TrafficConfig

	SendInterval float64
	StartDelay   float64
	Churn        float64
	Seed         int64

	DBPath  string
	CSVPath string

	Monitor     bool
	Port        int
	OpenBrowser bool

	Verbose    bool
	TraceKinds []string
	LogEvents  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated network and print a summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := runSimulation(runOptionsFromFlags(cmd.Flags()), os.Stderr)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), report)

		return nil
	},
}

func init() {
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(flags *pflag.FlagSet) {
	def := orchestra.DefaultConfig()
	traffic := network.DefaultTrafficConfig()

	flags.String("topology", "grid:3x3", "network layout, line:N or grid:WxH")
	flags.Float64("duration", 900, "simulated time in seconds")
	flags.Uint16("period", def.UnicastPeriod, "length of the unicast slotframe")
	flags.Bool("sender-based", def.SenderBased,
		"place unicast cells by sender instead of receiver")
	flags.Bool("collision-free-hash", def.CollisionFreeHash,
		"treat the address hash as collision free")
	flags.Uint16("max-hash", def.MaxHash,
		"largest address hash when the hash is collision free")
	flags.Uint16("min-channel-offset", def.MinChannelOffset,
		"lowest channel offset of unicast cells")
	flags.Uint16("max-channel-offset", def.MaxChannelOffset,
		"highest channel offset of unicast cells")
	flags.Int("max-neighbors", def.MaxNeighbors,
		"neighbors with a unicast cell the epoch patch can hold")
	flags.String("policy", def.EpochPolicy.String(),
		"how the unicast slotframe follows the epoch, "+
			"full-rebuild or conditional-patch")
	flags.Bool("epoch-callback", def.EpochCallbackEnabled,
		"reschedule the unicast slotframe at epoch boundaries")
	flags.Int("subtree-threshold", def.SubtreeThreshold,
		"routes above which a node is promoted")
	flags.Int("traffic-threshold", def.TrafficLoadThreshold,
		"sampled packets above which a node is promoted")
	flags.Uint16("max-class", def.MaxClass, "highest class")
	flags.Float64("sample-interval",
		float64(def.SampleInterval)/orchestra.SlotsPerSecond,
		"traffic sampling period in seconds")
	flags.Float64("send-interval",
		float64(traffic.SendInterval)/orchestra.SlotsPerSecond,
		"seconds between two messages of a node")
	flags.Int("messages", traffic.Messages, "messages sent by each node")
	flags.Float64("start-delay",
		float64(traffic.StartDelay)/orchestra.SlotsPerSecond,
		"seconds before the first message")
	flags.Float64("churn", 0,
		"seconds between two random parent switches, 0 to disable")
	flags.Int64("seed", 1, "random seed")
	flags.String("db", "", "record events into this SQLite file")
	flags.String("csv", "", "write events into this CSV file")
	flags.Bool("monitor", false, "serve the monitoring dashboard")
	flags.Int("port", 0, "port of the monitoring dashboard")
	flags.Bool("open-browser", false, "open the dashboard in a browser")
	flags.BoolP("verbose", "v", false, "print events to stderr")
	flags.StringSlice("trace", nil,
		"event kinds printed by --verbose, all when empty")
	flags.Bool("log-events", false, "print every engine event to stderr")
}

func runOptionsFromFlags(f *pflag.FlagSet) runOptions {
	opts := runOptions{
		Config:  orchestra.DefaultConfig(),
		Traffic: network.DefaultTrafficConfig(),
	}

	opts.Topology, _ = f.GetString("topology")
	opts.Duration, _ = f.GetFloat64("duration")
	opts.Config.UnicastPeriod, _ = f.GetUint16("period")
	opts.Config.SenderBased, _ = f.GetBool("sender-based")
	opts.Config.CollisionFreeHash, _ = f.GetBool("collision-free-hash")
	opts.Config.MaxHash, _ = f.GetUint16("max-hash")
	opts.Config.MinChannelOffset, _ = f.GetUint16("min-channel-offset")
	opts.Config.MaxChannelOffset, _ = f.GetUint16("max-channel-offset")
	opts.Config.MaxNeighbors, _ = f.GetInt("max-neighbors")
	opts.Policy, _ = f.GetString("policy")
	opts.Config.EpochCallbackEnabled, _ = f.GetBool("epoch-callback")
	opts.Config.SubtreeThreshold, _ = f.GetInt("subtree-threshold")
	opts.Config.TrafficLoadThreshold, _ = f.GetInt("traffic-threshold")
	opts.Config.MaxClass, _ = f.GetUint16("max-class")
	opts.SendInterval, _ = f.GetFloat64("send-interval")
	opts.Traffic.Messages, _ = f.GetInt("messages")
	opts.StartDelay, _ = f.GetFloat64("start-delay")
	opts.Churn, _ = f.GetFloat64("churn")
	opts.Seed, _ = f.GetInt64("seed")
	opts.DBPath, _ = f.GetString("db")
	opts.CSVPath, _ = f.GetString("csv")
	opts.Monitor, _ = f.GetBool("monitor")
	opts.Port, _ = f.GetInt("port")
	opts.OpenBrowser, _ = f.GetBool("open-browser")
	opts.Verbose, _ = f.GetBool("verbose")
	opts.TraceKinds, _ = f.GetStringSlice("trace")
	opts.LogEvents, _ = f.GetBool("log-events")

	sampleInterval, _ := f.GetFloat64("sample-interval")
	opts.Config.SampleInterval = seconds(sampleInterval)

	return opts
}

func seconds(s float64) sim.VTimeInSlot {
	if s <= 0 {
		return 0
	}

	return sim.VTimeInSlot(s * orchestra.SlotsPerSecond)
}

// progressSteps is the number of chunks a run is split into to update the
// progress bar.
const progressSteps = 100

// runSimulation builds the network the options describe, runs it, and
// returns its report. Status lines go to status.
func runSimulation(opts runOptions, status io.Writer) (network.Report, error) {
	policy, err := orchestra.ParseEpochPolicy(opts.Policy)
	if err != nil {
		return network.Report{}, err
	}

	cfg := opts.Config
	cfg.EpochPolicy = policy

	if err = cfg.Validate(); err != nil {
		return network.Report{}, fmt.Errorf("invalid configuration: %w", err)
	}

	topology, err := network.ParseTopology(opts.Topology)
	if err != nil {
		return network.Report{}, err
	}

	duration := seconds(opts.Duration)
	if duration == 0 {
		return network.Report{}, fmt.Errorf("duration must be positive")
	}

	traffic := opts.Traffic
	traffic.SendInterval = seconds(opts.SendInterval)
	traffic.StartDelay = seconds(opts.StartDelay)

	engine := sim.NewSerialEngine()
	n := network.MakeBuilder().
		WithEngine(engine).
		WithConfig(cfg).
		WithTopology(topology).
		WithTraffic(traffic).
		WithChurnInterval(seconds(opts.Churn)).
		WithSeed(opts.Seed).
		Build("Net")

	finish := attachTracers(opts, n, status)

	fmt.Fprintf(status, "Simulating %d nodes on %s for %.0f s, %s, %s\n",
		len(n.Nodes()), opts.Topology, opts.Duration, cfgMode(cfg), policy)

	n.Start()

	if err = runWithProgress(engine, duration, opts, n); err != nil {
		return network.Report{}, err
	}

	engine.Finished()
	finish()

	return n.Report(), nil
}

func cfgMode(cfg orchestra.Config) string {
	if cfg.SenderBased {
		return "sender-based"
	}

	return "receiver-based"
}

// attachTracers wires the tracers the options ask for and returns a function
// that flushes them.
func attachTracers(
	opts runOptions,
	n *network.Network,
	status io.Writer,
) func() {
	var flushes []func()

	if opts.Verbose {
		var filter tracing.EventFilter
		if len(opts.TraceKinds) > 0 {
			filter = tracing.KindFilter(opts.TraceKinds...)
		}

		logger := log.New(status, "", 0)
		tracing.CollectNetworkTrace(n, tracing.NewLogTracer(logger, filter))
	}

	if opts.LogEvents {
		n.Engine().AcceptHook(sim.NewEventLogger(log.New(status, "", 0)))
	}

	if opts.DBPath != "" {
		recorder := datarecording.New(strings.TrimSuffix(opts.DBPath, ".sqlite3"))
		t := tracing.NewDBTracer(recorder)
		tracing.CollectNetworkTrace(n, t)
		flushes = append(flushes, t.Terminate)
	}

	if opts.CSVPath != "" {
		t := tracing.NewCSVFileTracer(opts.CSVPath)
		tracing.CollectNetworkTrace(n, t)
		flushes = append(flushes, t.Flush)
	}

	return func() {
		for _, f := range flushes {
			f()
		}
	}
}

func runWithProgress(
	engine sim.Engine,
	duration sim.VTimeInSlot,
	opts runOptions,
	n *network.Network,
) error {
	if !opts.Monitor {
		return engine.RunUntil(duration)
	}

	metrics, err := monitoring.NewMetrics(nil)
	if err != nil {
		return err
	}

	tracing.CollectNetworkTrace(n, metrics)

	monitor := monitoring.NewMonitor().
		WithPortNumber(opts.Port).
		WithBrowser(opts.OpenBrowser)
	monitor.RegisterEngine(engine)
	monitor.RegisterNetwork(n)
	monitor.RegisterMetrics(metrics)
	monitor.StartServer()

	bar := monitor.CreateProgressBar("Slots", uint64(duration))
	defer monitor.CompleteProgressBar(bar)

	step := duration / progressSteps
	if step == 0 {
		step = 1
	}

	for t := step; ; t += step {
		if t > duration {
			t = duration
		}

		if err := engine.RunUntil(t); err != nil {
			return err
		}

		bar.Update(uint64(t))

		if t == duration {
			return nil
		}
	}
}
